package modem

import (
	"context"
	"fmt"

	"i4.energy/across/gsmat/at"
	"i4.energy/across/gsmat/gsm"
)

// RefreshPhonebookStorage queries which storages the device supports
// for the phonebook and parses the report into shared state.
func (m *Modem) RefreshPhonebookStorage(ctx context.Context) error {
	resp, err := m.exec(ctx, at.CmdPbStorage)
	if err != nil {
		return fmt.Errorf("AT+CPBS=? command failed: %w", err)
	}
	line, ok := findLine(resp, at.PrefixPhonebookStorage)
	if !ok {
		return fmt.Errorf("%w: no phonebook report in %q", ErrBadResponse, resp)
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if !m.state.ParseCPBS(line) {
		return fmt.Errorf("%w: malformed phonebook report %q", ErrBadResponse, line)
	}
	return nil
}

// PhonebookStorages returns the storages usable for the phonebook as
// a selector bitmask.
func (m *Modem) PhonebookStorages() uint32 {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state.PbMem
}

// SelectPhonebookStorage points phonebook operations at mem. The
// storage must appear in the device's phonebook report.
func (m *Modem) SelectPhonebookStorage(ctx context.Context, mem gsm.MemType) error {
	m.stateMu.Lock()
	avail := m.state.PbMemAvailable(mem, false)
	name := m.state.Table.Name(mem)
	m.stateMu.Unlock()
	if !avail {
		return fmt.Errorf("%w: %s for phonebook", ErrStorageUnavailable, name)
	}

	if _, err := m.exec(ctx, fmt.Sprintf(`AT+CPBS="%s"`, name)); err != nil {
		return fmt.Errorf("AT+CPBS command failed: %w", err)
	}
	return nil
}
