package modem_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"i4.energy/across/gsmat/gsm"
	"i4.energy/across/gsmat/modem"
)

// testTransportDialer hands out a pre-built TestTransport, so tests
// can feed the event loop with SendData instead of mock expectations.
type testTransportDialer struct {
	transport *modem.TestTransport
}

func (d testTransportDialer) Dial(ctx context.Context) (modem.Transport, error) {
	return d.transport, nil
}

func TestLoopParsesURCs(t *testing.T) {
	transport := modem.NewTestTransport()

	// Queue the initialization handshake responses up front. Each
	// SendData chunk answers exactly one command.
	transport.SendData("AT\r\nOK\r\n")
	transport.SendData("ATE0\r\nOK\r\n")
	transport.SendData("OK\r\n")
	transport.SendData("+CPIN: READY\r\nOK\r\n")
	transport.SendData("OK\r\n")

	config, err := modem.NewConfigBuilder().
		WithDialer(testTransportDialer{transport}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	ctx := context.Background()
	m, err := modem.New(ctx, config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	defer m.Close()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- m.Loop(ctx)
	}()

	t.Run("New message notification", func(t *testing.T) {
		transport.SendData("+CMTI: \"ME\",7\r\n")

		select {
		case notice := <-m.SmsReceivedEvents():
			if notice.Mem != gsm.MemME || notice.Pos != 7 {
				t.Errorf("notice = %+v, want ME position 7", notice)
			}
		case <-time.After(time.Second):
			t.Error("expected SMS received event within timeout")
		}
	})

	t.Run("Call status update", func(t *testing.T) {
		transport.SendData("+CLCC: 1,1,4,0,0,\"+15550001\",145\r\n")

		select {
		case call := <-m.CallEvents():
			if call.Dir != gsm.CallDirMT {
				t.Errorf("Dir = %v, want MT", call.Dir)
			}
			if call.State != gsm.CallStateIncoming {
				t.Errorf("State = %v, want incoming", call.State)
			}
			if call.Number != "+15550001" {
				t.Errorf("Number = %q, want +15550001", call.Number)
			}
		case <-time.After(time.Second):
			t.Error("expected call event within timeout")
		}

		if got := m.CurrentCall().Number; got != "+15550001" {
			t.Errorf("CurrentCall().Number = %q, want +15550001", got)
		}
	})

	t.Run("SIM state announced outside a command", func(t *testing.T) {
		transport.SendData("+CPIN: NOT INSERTED\r\n")

		select {
		case state := <-m.SimStateEvents():
			if state != gsm.SimStateNotInserted {
				t.Errorf("state = %v, want NOT INSERTED", state)
			}
		case <-time.After(time.Second):
			t.Error("expected SIM state event within timeout")
		}

		if got := m.SimState(); got != gsm.SimStateNotInserted {
			t.Errorf("SimState() = %v, want NOT INSERTED", got)
		}
	})

	if err := m.Close(); err != nil {
		t.Errorf("unexpected error from Close(): %v", err)
	}
	if err := <-loopDone; err != nil && !errors.Is(err, io.EOF) {
		t.Errorf("modem loop error: %v", err)
	}
}

func TestSmsStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := modem.NewMockTransport(ctrl)
	mockDialer := modem.NewMockDialer(ctrl)

	gomock.InOrder(
		slices.Concat(
			[]any{
				mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil),
			},
			initMockCalls(mockTransport),
		)...,
	)

	config, err := modem.NewConfigBuilder().WithDialer(mockDialer).Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	ctx := context.Background()
	m, err := modem.New(ctx, config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	defer m.Close()

	allowRead := make(chan struct{})
	allowEOF := make(chan struct{})

	go func() {
		if err := m.Loop(ctx); err != nil && err != context.Canceled && err != io.EOF {
			t.Errorf("modem loop error: %v", err)
		}
	}()

	mockTransport.EXPECT().Write([]byte("AT+CPMS=?\r")).Do(func([]byte) {
		close(allowRead)
	})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowRead
		return copy(p, "+CPMS: (\"SM\",\"ME\"),(\"SM\",\"ME\"),(\"SM\")\r\nOK\r\n"), nil
	})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowEOF
		return 0, io.EOF
	})
	mockTransport.EXPECT().Close().Return(nil)

	if err := m.RefreshSmsStorage(ctx); err != nil {
		t.Fatalf("unexpected error from RefreshSmsStorage(): %v", err)
	}

	maskSM := uint32(1) << uint32(gsm.MemSM)
	maskME := uint32(1) << uint32(gsm.MemME)
	want := [3]uint32{maskSM | maskME, maskSM | maskME, maskSM}
	if got := m.SmsStorages(); got != want {
		t.Errorf("SmsStorages() = %v, want %v", got, want)
	}

	// BM is not in the receive slot report, so selecting it must fail
	// before anything is written to the device.
	err = m.SetPreferredStorage(ctx, gsm.MemSM, gsm.MemSM, gsm.MemBM)
	if !errors.Is(err, modem.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got: %v", err)
	}

	close(allowEOF)
}

func TestReadSMS(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := modem.NewMockTransport(ctrl)
	mockDialer := modem.NewMockDialer(ctrl)

	gomock.InOrder(
		slices.Concat(
			[]any{
				mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil),
			},
			initMockCalls(mockTransport),
		)...,
	)

	config, err := modem.NewConfigBuilder().WithDialer(mockDialer).Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	ctx := context.Background()
	m, err := modem.New(ctx, config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	defer m.Close()

	allowRead := make(chan struct{})
	allowEOF := make(chan struct{})

	go func() {
		if err := m.Loop(ctx); err != nil && err != context.Canceled && err != io.EOF {
			t.Errorf("modem loop error: %v", err)
		}
	}()

	mockTransport.EXPECT().Write([]byte("AT+CMGR=3\r")).Do(func([]byte) {
		close(allowRead)
	})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowRead
		resp := "+CMGR: \"REC READ\",\"+15551234\",\"26/08/22,10:15:02+00\"\r\n" +
			"Hello from the network\r\nOK\r\n"
		return copy(p, resp), nil
	})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowEOF
		return 0, io.EOF
	})
	mockTransport.EXPECT().Close().Return(nil)

	var entry gsm.SmsEntry
	err = m.ReadSMS(ctx, gsm.MemCurrent, 3, &entry)
	close(allowEOF)
	if err != nil {
		t.Fatalf("unexpected error from ReadSMS(): %v", err)
	}

	if entry.Pos != 3 {
		t.Errorf("Pos = %d, want 3", entry.Pos)
	}
	if entry.Status != gsm.SmsStatusRead {
		t.Errorf("Status = %v, want read", entry.Status)
	}
	if entry.Number != "+15551234" {
		t.Errorf("Number = %q, want +15551234", entry.Number)
	}
	if entry.Text != "Hello from the network" {
		t.Errorf("Text = %q, want body line", entry.Text)
	}
}

func TestListSMS(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := modem.NewMockTransport(ctrl)
	mockDialer := modem.NewMockDialer(ctrl)

	gomock.InOrder(
		slices.Concat(
			[]any{
				mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil),
			},
			initMockCalls(mockTransport),
		)...,
	)

	config, err := modem.NewConfigBuilder().WithDialer(mockDialer).Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	ctx := context.Background()
	m, err := modem.New(ctx, config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	defer m.Close()

	allowRead := make(chan struct{})
	allowEOF := make(chan struct{})

	go func() {
		if err := m.Loop(ctx); err != nil && err != context.Canceled && err != io.EOF {
			t.Errorf("modem loop error: %v", err)
		}
	}()

	mockTransport.EXPECT().Write([]byte("AT+CMGL=\"ALL\"\r")).Do(func([]byte) {
		close(allowRead)
	})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowRead
		resp := "+CMGL: 1,\"REC READ\",\"+15550001\"\r\nfirst message\r\n" +
			"+CMGL: 2,\"REC UNREAD\",\"+15550002\"\r\nsecond message\r\nOK\r\n"
		return copy(p, resp), nil
	})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowEOF
		return 0, io.EOF
	})
	mockTransport.EXPECT().Close().Return(nil)

	entries := make([]gsm.SmsEntry, 4)
	n, err := m.ListSMS(ctx, gsm.MemCurrent, gsm.SmsStatusAll, entries)
	close(allowEOF)
	if err != nil {
		t.Fatalf("unexpected error from ListSMS(): %v", err)
	}

	if n != 2 {
		t.Fatalf("ListSMS() = %d entries, want 2", n)
	}
	if entries[0].Pos != 1 || entries[0].Status != gsm.SmsStatusRead ||
		entries[0].Number != "+15550001" || entries[0].Text != "first message" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Pos != 2 || entries[1].Status != gsm.SmsStatusUnread ||
		entries[1].Number != "+15550002" || entries[1].Text != "second message" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestScanOperators(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := modem.NewMockTransport(ctrl)
	mockDialer := modem.NewMockDialer(ctrl)

	gomock.InOrder(
		slices.Concat(
			[]any{
				mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil),
			},
			initMockCalls(mockTransport),
		)...,
	)

	config, err := modem.NewConfigBuilder().WithDialer(mockDialer).Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	ctx := context.Background()
	m, err := modem.New(ctx, config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	defer m.Close()

	allowRead := make(chan struct{})
	allowEOF := make(chan struct{})

	go func() {
		if err := m.Loop(ctx); err != nil && err != context.Canceled && err != io.EOF {
			t.Errorf("modem loop error: %v", err)
		}
	}()

	// The trailing capability lists after the double comma belong to
	// the AT command grammar, not the operator list, and are ignored.
	mockTransport.EXPECT().Write([]byte("AT+COPS=?\r")).Do(func([]byte) {
		close(allowRead)
	})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowRead
		resp := "+COPS: (2,\"T-Mobile\",\"TMO\",\"310260\")," +
			"(1,\"Verizon Wireless\",\"VZW\",\"311480\"),,(0,1,2,3,4),(0,1,2)\r\nOK\r\n"
		return copy(p, resp), nil
	})
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowEOF
		return 0, io.EOF
	})
	mockTransport.EXPECT().Close().Return(nil)

	ops := make([]gsm.Operator, 8)
	n, err := m.ScanOperators(ctx, ops)
	close(allowEOF)
	if err != nil {
		t.Fatalf("unexpected error from ScanOperators(): %v", err)
	}

	if n != 2 {
		t.Fatalf("ScanOperators() = %d records, want 2", n)
	}
	want0 := gsm.Operator{
		Status:    gsm.OperatorStatusCurrent,
		LongName:  "T-Mobile",
		ShortName: "TMO",
		Num:       310260,
	}
	if ops[0] != want0 {
		t.Errorf("ops[0] = %+v, want %+v", ops[0], want0)
	}
	if ops[1].Status != gsm.OperatorStatusAvailable || ops[1].Num != 311480 {
		t.Errorf("ops[1] = %+v", ops[1])
	}
}

func TestScanOperatorsHugeReport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTransport := modem.NewMockTransport(ctrl)
	mockDialer := modem.NewMockDialer(ctrl)

	gomock.InOrder(
		slices.Concat(
			[]any{
				mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil),
			},
			initMockCalls(mockTransport),
		)...,
	)

	config, err := modem.NewConfigBuilder().WithDialer(mockDialer).Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	ctx := context.Background()
	m, err := modem.New(ctx, config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	defer m.Close()

	allowRead := make(chan struct{})
	allowEOF := make(chan struct{})

	go func() {
		if err := m.Loop(ctx); err != nil && err != context.Canceled && err != io.EOF {
			t.Errorf("modem loop error: %v", err)
		}
	}()

	// A report far beyond any line buffer. The scanner consumes the
	// bytes as they arrive, so the command must still complete and the
	// event loop must stay alive.
	resp := "+COPS: " + strings.Repeat("(1,\"Operator\",\"OP\",26201),", 3000) +
		"(2,\"Last One\",\"LO\",26202)\r\nOK\r\n"

	mockTransport.EXPECT().Write([]byte("AT+COPS=?\r")).Do(func([]byte) {
		close(allowRead)
	})
	off := 0
	mockTransport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-allowRead
		if off >= len(resp) {
			<-allowEOF
			return 0, io.EOF
		}
		n := copy(p, resp[off:])
		off += n
		return n, nil
	}).AnyTimes()
	mockTransport.EXPECT().Close().Return(nil)

	ops := make([]gsm.Operator, 4)
	n, err := m.ScanOperators(ctx, ops)
	close(allowEOF)
	if err != nil {
		t.Fatalf("unexpected error from ScanOperators(): %v", err)
	}

	if n != len(ops) {
		t.Fatalf("ScanOperators() = %d records, want %d", n, len(ops))
	}
	for i, op := range ops {
		if op.LongName != "Operator" || op.Num != 26201 {
			t.Errorf("ops[%d] = %+v, want the first repeated records", i, op)
		}
	}
}
