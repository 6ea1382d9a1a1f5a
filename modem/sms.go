package modem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/gsmat/at"
	"i4.energy/across/gsmat/gsm"
)

// Storage slots of the +CPMS report, in wire order.
const (
	// SlotReadDelete is the storage read and delete operations use.
	SlotReadDelete = iota
	// SlotSendWrite is the storage send and write operations use.
	SlotSendWrite
	// SlotReceive is the storage new messages land in.
	SlotReceive
)

// SendSMS sends a text message to the specified recipient and returns
// the storage position the network acknowledged it under.
//
// The message is sent in text mode (not PDU mode). The recipient should be
// in international format (e.g., "+1234567890").
//
// This method blocks until the message is accepted by the network or an error
// occurs. Network delivery (to the final recipient) happens asynchronously.
// Sends are spaced at least Config.MinSendInterval apart; a call inside the
// interval waits for the window or fails with the context's error.
func (m *Modem) SendSMS(ctx context.Context, recipient, message string) (int32, error) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	if wait := m.config.MinSendInterval - time.Since(m.lastSend); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return 0, fmt.Errorf("send window: %w", ctx.Err())
		}
	}

	// Use exec to send the initial command and get the prompt
	resp, err := m.exec(ctx, fmt.Sprintf(`AT+CMGS="%s"`, recipient))
	if err != nil {
		return 0, fmt.Errorf("AT+CMGS command failed: %w", err)
	}

	// Check if we got the prompt
	if !strings.Contains(resp, at.Prompt) {
		return 0, fmt.Errorf("did not receive SMS prompt, got: %q", resp)
	}

	// Now send the message body and wait for confirmation
	// This is essentially another exec(), but we just send the message text
	messageCmd := message + at.CtrlZ
	resp, err = m.exec(ctx, messageCmd)
	if err != nil {
		return 0, fmt.Errorf("SMS send failed: %w", err)
	}

	// Check for successful send (should contain +CMGS and OK)
	if !strings.Contains(resp, at.OK) {
		return 0, fmt.Errorf("unexpected SMS response: %s", resp)
	}

	m.lastSend = time.Now()

	var pos int32
	if line, ok := findLine(resp, at.PrefixSmsSent); ok {
		m.stateMu.Lock()
		pos = m.state.ParseCMGS(line, false)
		m.stateMu.Unlock()
	}
	return pos, nil
}

// ReadSMS reads the message stored at pos into the caller-supplied
// entry. With a storage other than gsm.MemCurrent the read storage is
// selected first; the storage must appear in the device's storage
// report.
func (m *Modem) ReadSMS(ctx context.Context, mem gsm.MemType, pos int32, entry *gsm.SmsEntry) error {
	if entry == nil {
		return fmt.Errorf("gsm: nil SMS entry")
	}
	if err := m.selectStorage(ctx, SlotReadDelete, mem); err != nil {
		return err
	}

	resp, err := m.exec(ctx, fmt.Sprintf("AT+CMGR=%d", pos))
	if err != nil {
		return fmt.Errorf("AT+CMGR command failed: %w", err)
	}

	lines := strings.Split(resp, "\n")
	var text []string
	found := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, at.PrefixSmsRead):
			m.stateMu.Lock()
			m.state.ParseCMGR(line, entry)
			m.stateMu.Unlock()
			found = true
		case found && at.Classify(line) == at.TypeData:
			text = append(text, line)
		}
	}
	if !found {
		return fmt.Errorf("%w: no message at position %d", ErrBadResponse, pos)
	}

	entry.Mem = mem
	entry.Pos = pos
	entry.Text = strings.Join(text, "\n")
	return nil
}

// ListSMS fills entries with stored messages matching the status
// filter (gsm.SmsStatusAll lists everything) and reports how many
// were stored. Messages beyond the capacity of entries are dropped
// silently; the device count may exceed the returned count.
func (m *Modem) ListSMS(ctx context.Context, mem gsm.MemType, status gsm.SmsStatus, entries []gsm.SmsEntry) (int, error) {
	if err := m.selectStorage(ctx, SlotReadDelete, mem); err != nil {
		return 0, err
	}

	resp, err := m.exec(ctx, fmt.Sprintf(`AT+CMGL="%s"`, smsStatusFilter(status)))
	if err != nil {
		return 0, fmt.Errorf("AT+CMGL command failed: %w", err)
	}

	var (
		count   int
		current *gsm.SmsEntry
		text    []string
	)
	flush := func() {
		if current != nil {
			current.Text = strings.Join(text, "\n")
			text = nil
		}
	}
	for _, line := range strings.Split(resp, "\n") {
		if strings.HasPrefix(line, at.PrefixSmsList) {
			flush()
			if count >= len(entries) {
				current = nil
				continue
			}
			current = &entries[count]
			count++
			parseSmsListLine(line, current)
			current.Mem = mem
		} else if current != nil && at.Classify(line) == at.TypeData {
			text = append(text, line)
		}
	}
	flush()
	return count, nil
}

// parseSmsListLine consumes one +CMGL line: position, status and
// sender number, followed by fields this driver does not store. It
// writes only to the caller-owned entry, no locking needed.
func parseSmsListLine(line string, entry *gsm.SmsEntry) {
	body, _ := strings.CutPrefix(line, at.PrefixSmsList+" ")
	c := gsm.NewCursor(body)

	entry.Pos, c = gsm.ParseNumber(c)
	stat, c, ok := gsm.ParseSmsStatus(c)
	if ok {
		entry.Status = stat
	} else {
		entry.Status = gsm.SmsStatusAll
	}
	var number [21]byte
	n, _ := gsm.ParseString(c, number[:], true)
	entry.Number = string(number[:n])
}

// DeleteSMS removes the message stored at pos.
func (m *Modem) DeleteSMS(ctx context.Context, mem gsm.MemType, pos int32) error {
	if err := m.selectStorage(ctx, SlotReadDelete, mem); err != nil {
		return err
	}
	if _, err := m.exec(ctx, fmt.Sprintf("AT+CMGD=%d", pos)); err != nil {
		return fmt.Errorf("AT+CMGD command failed: %w", err)
	}
	return nil
}

// RefreshSmsStorage queries which storages the device supports for
// each operation slot and parses the report into shared state.
func (m *Modem) RefreshSmsStorage(ctx context.Context) error {
	resp, err := m.exec(ctx, at.CmdSmsStorage)
	if err != nil {
		return fmt.Errorf("AT+CPMS=? command failed: %w", err)
	}
	line, ok := findLine(resp, at.PrefixPreferredStorage)
	if !ok {
		return fmt.Errorf("%w: no storage report in %q", ErrBadResponse, resp)
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if !m.state.ParseCPMS(line) {
		return fmt.Errorf("%w: malformed storage report %q", ErrBadResponse, line)
	}
	return nil
}

// SmsStorages returns the storages usable per operation slot, as
// selector bitmasks in slot order.
func (m *Modem) SmsStorages() [3]uint32 {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state.SmsMem
}

// SetPreferredStorage selects the storages for the three operation
// slots. Each storage must appear in the device's report for its
// slot; gsm.MemCurrent is not accepted here since the command always
// names all three storages explicitly.
func (m *Modem) SetPreferredStorage(ctx context.Context, readDel, sendWrite, receive gsm.MemType) error {
	mems := [3]gsm.MemType{readDel, sendWrite, receive}

	m.stateMu.Lock()
	table := m.state.Table
	for slot, mem := range mems {
		if !m.state.MemAvailable(slot, mem, false) {
			m.stateMu.Unlock()
			return fmt.Errorf("%w: %s for slot %d", ErrStorageUnavailable, table.Name(mem), slot)
		}
	}
	m.stateMu.Unlock()

	cmd := fmt.Sprintf(`AT+CPMS="%s","%s","%s"`,
		table.Name(readDel), table.Name(sendWrite), table.Name(receive))
	if _, err := m.exec(ctx, cmd); err != nil {
		return fmt.Errorf("AT+CPMS command failed: %w", err)
	}
	return nil
}

// selectStorage points the given operation slot at mem before an SMS
// operation. MemCurrent leaves the active storage untouched.
func (m *Modem) selectStorage(ctx context.Context, slot int, mem gsm.MemType) error {
	if mem == gsm.MemCurrent {
		return nil
	}

	m.stateMu.Lock()
	avail := m.state.MemAvailable(slot, mem, false)
	name := m.state.Table.Name(mem)
	m.stateMu.Unlock()
	if !avail {
		return fmt.Errorf("%w: %s for slot %d", ErrStorageUnavailable, name, slot)
	}

	if _, err := m.exec(ctx, fmt.Sprintf(`AT+CPMS="%s"`, name)); err != nil {
		return fmt.Errorf("select storage %s: %w", name, err)
	}
	return nil
}

func smsStatusFilter(status gsm.SmsStatus) string {
	switch status {
	case gsm.SmsStatusUnread:
		return "REC UNREAD"
	case gsm.SmsStatusRead:
		return "REC READ"
	case gsm.SmsStatusUnsent:
		return "STO UNSENT"
	case gsm.SmsStatusSent:
		return "STO SENT"
	default:
		return "ALL"
	}
}
