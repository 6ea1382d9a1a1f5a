package modem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"i4.energy/across/gsmat/at"
	"i4.energy/across/gsmat/gsm"
)

// Modem represents a GSM/3G/4G cellular modem that communicates via AT commands.
// It provides thread-safe access to SMS functionality and modem operations through
// a centralized event loop that handles all transport I/O.
//
// Parsed device state (SIM state, current call, storage reports) lives in a
// gsm.State guarded by a single mutex; the event loop and the operation
// methods both take that lock around every parser call, so state is never
// observed mid-parse.
type Modem struct {
	// transport provides the physical connection to the modem (serial, TCP, etc.)
	transport Transport
	// config contains the modem configuration settings
	config Config
	// closed indicates if the modem has been shut down
	closed bool
	// loopRunning indicates if the Loop is currently running
	loopRunning bool
	// atTimeout is the default timeout for AT command responses
	atTimeout time.Duration
	// simPIN is the SIM card PIN code for authentication
	simPIN string

	// stateMu guards state, simInfo and callPoll
	stateMu sync.Mutex
	// state is the shared device-state model written by the response parsers
	state *gsm.State
	// simInfo holds SIM identity fetched after the card reports ready
	simInfo SIMInfo
	// callPoll suppresses call-changed events while a solicited +CLCC
	// poll is in flight
	callPoll bool

	// events fans parser notifications out to typed channels
	events *eventChannels

	// sendMu serializes SendSMS calls and guards lastSend
	sendMu sync.Mutex
	// lastSend is when the last message was handed to the network
	lastSend time.Time

	// Communication channels for Loop coordination
	// urcChan receives Unsolicited Result Codes from the modem
	urcChan chan string
	// commands queues AT command requests for the Loop to process
	commands chan *commandRequest

	// Loop control
	// loopCtx controls the lifecycle of the main event loop
	loopCtx context.Context
	// loopCancel cancels the main event loop
	loopCancel context.CancelFunc
}

// SIMInfo is the identity of the inserted SIM card, fetched in the
// background once the card reports ready.
type SIMInfo struct {
	CCID string
	IMSI string
}

// SmsNotification reports storage and position of a newly received
// message.
type SmsNotification struct {
	Mem gsm.MemType
	Pos int32
}

// eventChannels adapts gsm parser events onto buffered channels. Sends
// never block; an event nobody drains in time is dropped, like a URC
// arriving faster than its consumer.
type eventChannels struct {
	sim     chan gsm.SimState
	call    chan gsm.Call
	smsSent chan int32
	smsRecv chan SmsNotification
}

func newEventChannels() *eventChannels {
	return &eventChannels{
		sim:     make(chan gsm.SimState, 10),
		call:    make(chan gsm.Call, 10),
		smsSent: make(chan int32, 10),
		smsRecv: make(chan SmsNotification, 10),
	}
}

func (e *eventChannels) SimStateChanged(s gsm.SimState) {
	select {
	case e.sim <- s:
	default:
	}
}

func (e *eventChannels) CallChanged(c *gsm.Call) {
	select {
	case e.call <- *c:
	default:
	}
}

func (e *eventChannels) SmsSent(pos int32) {
	select {
	case e.smsSent <- pos:
	default:
	}
}

func (e *eventChannels) SmsReceived(mem gsm.MemType, pos int32) {
	select {
	case e.smsRecv <- SmsNotification{Mem: mem, Pos: pos}:
	default:
	}
}

var _ gsm.EventHandler = (*eventChannels)(nil)

// commandRequest represents an AT command request to be executed by the Loop.
// It contains the command string, response channel, and execution context.
type commandRequest struct {
	// cmd is the AT command string to send to the modem
	cmd string
	// respChan receives the command response from the Loop
	respChan chan commandResponse
	// ctx provides timeout and cancellation control for the command
	ctx context.Context
	// sink, when set, receives every response byte as it arrives while
	// this command is in flight
	sink func(byte)
}

// maxResponseLine bounds how much of one response line the Loop will
// buffer. A longer line fails the command, except while a streaming
// command is in flight: its sink has already consumed the bytes, so
// the buffered copy is simply discarded.
const maxResponseLine = 64 * 1024

// commandResponse contains the result of an AT command execution.
// It includes both the response data and any error that occurred.
type commandResponse struct {
	// response contains the complete response text from the modem
	response string
	// err contains any error that occurred during command execution
	err error
}

// PollConfig defines configuration for polling operations like waiting for SIM readiness.
type PollConfig struct {
	// Interval is the time between polling attempts
	Interval time.Duration
	// Timeout is the maximum time to wait for the condition
	Timeout time.Duration
	// MaxRetries is the maximum number of polling attempts
	MaxRetries int
}

// New creates a new Modem instance with the given configuration.
// It establishes the transport connection, initializes the modem
// hardware with common actions and prepares the event loop context.
//
// Returns an error if the transport connection or modem initialization
// fails.
func New(ctx context.Context, config Config) (*Modem, error) {
	if config.Dialer == nil {
		return nil, ErrNoDialer
	}
	config.setDefaults()
	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	m := &Modem{
		config:    config,
		atTimeout: config.ATTimeout,
		simPIN:    config.SimPIN,
		transport: transport,
		state:     gsm.NewState(config.MemTable),
		events:    newEventChannels(),
		urcChan:   make(chan string, 100), // Buffered to prevent blocking on URCs
		// No queue for commands
		commands: make(chan *commandRequest),
	}
	m.state.Handler = m.events

	// Prepare context for Loop (but don't start it yet)
	m.loopCtx, m.loopCancel = context.WithCancel(ctx)

	// Initialize the modem with proper timeout
	initCtx := ctx
	if config.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, config.InitTimeout)
		defer cancel()
	}

	if err := m.init(initCtx); err != nil {
		if m.transport != nil {
			transport.Close()
		}
		return nil, fmt.Errorf("initialize modem: %w", err)
	}

	// Arm the SIM-info fetch only after init: the hook issues commands
	// through the event loop, which does not run during init.
	m.stateMu.Lock()
	m.state.OnSimReady = m.queueSIMInfoFetch
	m.stateMu.Unlock()

	return m, nil
}

// Loop is the main event loop that handles all transport I/O operations.
// It must be called exactly once after New() and before any other modem operations.
// The Loop coordinates all communication with the modem hardware:
//
// 1. Processes command requests from exec() calls
// 2. Writes AT commands to the transport
// 3. Reads and parses responses from the transport
// 4. Dispatches URCs (Unsolicited Result Codes) to subscribers and runs
// the response parsers against the shared device state
// 5. Returns command responses to waiting exec() calls
//
// The Loop runs until the provided context is cancelled. It's the ONLY goroutine
// that reads from the transport, preventing race conditions and ensuring URCs
// are never lost.
//
// Usage:
//
//	modem, err := New(ctx, config)
//	if err != nil { return err }
//
//	// Start the loop (typically in a goroutine)
//	go modem.Loop(ctx)
//
//	// Now exec() calls will work
//	resp, err := modem.exec(ctx, "AT")
func (m *Modem) Loop(ctx context.Context) error {
	if m.loopRunning {
		return ErrLoopRunning
	}
	m.loopRunning = true
	defer func() {
		m.loopRunning = false
	}()

	// Channels for raw transport bytes and errors from the reader
	// goroutine. The Loop assembles lines itself so that a streaming
	// command can see response bytes before any line completes.
	chunks := make(chan []byte, 10)
	scanErrs := make(chan error, 1)

	// Start goroutine to read bytes from transport
	go func() {
		defer func() {
			close(chunks)
		}()
		buf := make([]byte, 4096)
		for {
			n, err := m.transport.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case chunks <- data:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					select {
					case scanErrs <- err:
					case <-ctx.Done():
					}
				}
				return
			}
		}
	}()

	// Current command being processed
	var currentCmd *commandRequest
	var currentLines []string
	// Partial line awaiting its terminator
	var lineBuf []byte
	// Set when an over-long line was dropped from lineBuf; the next
	// completed token is its tail and must be discarded too.
	var overflowed bool

	respond := func(resp commandResponse) {
		currentCmd.respChan <- resp
		currentCmd = nil
		currentLines = nil
	}

	handleToken := func(token string) {
		switch at.Classify(token) {
		case at.TypeURC:
			// Unsolicited Result Code - run the response parsers
			// against shared state, then dispatch the raw line.
			// URCs can arrive at any time, even during command
			// execution.
			m.handleURC(token)
			select {
			case m.urcChan <- token:
				// URC dispatched successfully
			default:
				// URC channel is full - drop the URC
				// In production, you might want to log this
			}

		case at.TypeFinal:
			// Final response (OK, ERROR, +CME ERROR, etc.)
			if currentCmd != nil {
				currentLines = append(currentLines, token)
				response := strings.Join(currentLines, "\n")

				if token == at.OK {
					// Command succeeded
					respond(commandResponse{response: response})
				} else {
					// Command failed (ERROR, +CME ERROR, etc.)
					respond(commandResponse{response: response, err: errors.New(token)})
				}
			}
			// If no current command, ignore the final response (orphaned)

		case at.TypeData:
			// Intermediate data response (e.g., +CSQ: 15,99)
			if currentCmd != nil {
				currentLines = append(currentLines, token)
			} else if strings.HasPrefix(token, at.PrefixSimStatus) {
				// Some modules announce SIM state changes outside
				// any command, e.g. after a SIM swap.
				m.handleURC(token)
			}
			// Other orphaned data is ignored

		case at.TypePrompt:
			// SMS prompt (">") - return immediately for SMS text input
			if currentCmd != nil {
				currentLines = append(currentLines, token)
				respond(commandResponse{response: strings.Join(currentLines, "\n")})
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			// Context cancelled - shut down gracefully
			if currentCmd != nil {
				respond(commandResponse{err: ctx.Err()})
			}
			return ctx.Err()

		case req := <-m.commands:
			currentCmd = req
			currentLines = nil

			// Write the AT command to the transport
			wire := strings.TrimSpace(req.cmd) + "\r"
			if _, err := m.transport.Write([]byte(wire)); err != nil {
				respond(commandResponse{err: fmt.Errorf("write command %q: %w", req.cmd, err)})
				continue
			}

		case data, ok := <-chunks:
			if !ok {
				// Transport closed - flush whatever is buffered
				for len(lineBuf) > 0 {
					advance, token, _ := at.Splitter(lineBuf, true)
					if advance == 0 {
						break
					}
					lineBuf = lineBuf[advance:]
					if overflowed {
						overflowed = false
						continue
					}
					if len(token) > 0 {
						handleToken(string(token))
					}
				}
				if currentCmd != nil {
					respond(commandResponse{response: strings.Join(currentLines, "\n"), err: io.EOF})
				}
				return io.EOF
			}

			// A streaming command sees every byte as it arrives,
			// before line assembly.
			if currentCmd != nil && currentCmd.sink != nil {
				for _, b := range data {
					currentCmd.sink(b)
				}
			}

			lineBuf = append(lineBuf, data...)
			for {
				advance, token, _ := at.Splitter(lineBuf, false)
				if advance == 0 {
					break
				}
				lineBuf = lineBuf[advance:]
				if overflowed {
					// Tail of a line the sink already consumed
					overflowed = false
					continue
				}
				if len(token) > 0 {
					handleToken(string(token))
				}
			}
			if len(lineBuf) > maxResponseLine {
				if currentCmd != nil && currentCmd.sink != nil {
					lineBuf = lineBuf[:0]
					overflowed = true
				} else {
					if currentCmd != nil {
						respond(commandResponse{err: fmt.Errorf("read error: %w", ErrLineTooLong)})
					}
					return fmt.Errorf("scanner error: %w", ErrLineTooLong)
				}
			}

			// Check if current command has timed out
			if currentCmd != nil {
				select {
				case <-currentCmd.ctx.Done():
					// Command timed out or was cancelled
					respond(commandResponse{err: fmt.Errorf("command timeout: %w", currentCmd.ctx.Err())})
				default:
					// Command still within timeout
				}
			}

		case err := <-scanErrs:
			// Reader error - notify current command if any
			if currentCmd != nil {
				respond(commandResponse{err: fmt.Errorf("read error: %w", err)})
			}
			return fmt.Errorf("scanner error: %w", err)
		}
	}
}

// handleURC feeds an unsolicited line through the matching semantic
// parser with the device lock held.
func (m *Modem) handleURC(line string) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	switch {
	case strings.HasPrefix(line, at.UrcNewMsg):
		m.state.ParseCMTI(line, true)
	case strings.HasPrefix(line, at.UrcCallStatus):
		// A solicited +CLCC poll reads the same state afterwards, so
		// it asks for event suppression to avoid doubled deliveries.
		m.state.ParseCLCC(line, !m.callPoll)
	case strings.HasPrefix(line, at.PrefixSimStatus):
		m.state.ParseCPIN(line, true)
	}
}

// URC returns a read-only channel that receives Unsolicited Result Codes.
// These are asynchronous notifications from the modem (e.g., incoming SMS,
// network status changes, etc.). The channel is buffered, but may drop
// some URC if not consumed fast enough.
func (m *Modem) URC() <-chan string {
	return m.urcChan
}

// SimStateEvents returns a read-only channel of SIM state changes.
func (m *Modem) SimStateEvents() <-chan gsm.SimState {
	return m.events.sim
}

// CallEvents returns a read-only channel of call record updates. Each
// value is a snapshot of the single current-call record at parse time.
func (m *Modem) CallEvents() <-chan gsm.Call {
	return m.events.call
}

// SmsSentEvents returns a read-only channel of storage positions of
// messages the network has accepted.
func (m *Modem) SmsSentEvents() <-chan int32 {
	return m.events.smsSent
}

// SmsReceivedEvents returns a read-only channel of new-message
// notifications.
func (m *Modem) SmsReceivedEvents() <-chan SmsNotification {
	return m.events.smsRecv
}

// SimState returns the last parsed SIM state.
func (m *Modem) SimState() gsm.SimState {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state.Sim
}

// CurrentCall returns a snapshot of the current call record. The
// record is overwritten on every call status line, so the snapshot
// reflects only the latest call.
func (m *Modem) CurrentCall() gsm.Call {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state.Call
}

// SIMInfo returns the SIM identity fetched after the card became
// ready. Fields are empty until the background fetch completes.
func (m *Modem) SIMInfo() SIMInfo {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.simInfo
}

// RefreshSimState polls the SIM status and updates shared state
// without emitting a SIM event, since the caller sees the result
// directly.
func (m *Modem) RefreshSimState(ctx context.Context) (gsm.SimState, error) {
	resp, err := m.exec(ctx, at.CmdSimStatus)
	if err != nil {
		return gsm.SimStateNotReady, err
	}
	line, ok := findLine(resp, at.PrefixSimStatus)
	if !ok {
		return gsm.SimStateNotReady, fmt.Errorf("%w: no SIM status in %q", ErrBadResponse, resp)
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.state.ParseCPIN(line, false)
	return m.state.Sim, nil
}

// RefreshCallStatus polls the modem for the current call and returns
// the updated record. The resulting +CLCC line is handled on the URC
// path with events suppressed.
func (m *Modem) RefreshCallStatus(ctx context.Context) (gsm.Call, error) {
	m.stateMu.Lock()
	m.callPoll = true
	m.stateMu.Unlock()
	defer func() {
		m.stateMu.Lock()
		m.callPoll = false
		m.stateMu.Unlock()
	}()

	if _, err := m.exec(ctx, at.CmdCallStatus); err != nil {
		return gsm.Call{}, err
	}
	return m.CurrentCall(), nil
}

// queueSIMInfoFetch runs the SIM identity queries on their own
// goroutine. It is invoked by the CPIN parser with the device lock
// held, so the queries themselves must not run inline.
func (m *Modem) queueSIMInfoFetch() {
	go m.fetchSIMInfo()
}

func (m *Modem) fetchSIMInfo() {
	ctx, cancel := context.WithTimeout(m.loopCtx, m.atTimeout)
	defer cancel()

	var info SIMInfo
	if resp, err := m.exec(ctx, at.CmdCCID); err == nil {
		info.CCID, _ = firstDataLine(resp)
	}
	if resp, err := m.exec(ctx, at.CmdIMSI); err == nil {
		info.IMSI, _ = firstDataLine(resp)
	}

	m.stateMu.Lock()
	m.simInfo = info
	m.stateMu.Unlock()
}

// Close shuts down the modem and releases all resources.
// It stops the event loop, closes the transport connection, and marks
// the modem as closed. After calling Close(), the modem cannot be reused.
func (m *Modem) Close() error {

	if m.closed {
		return ErrAlreadyClosed
	}

	m.closed = true

	// Stop the Loop if it's running
	if m.loopCancel != nil {
		m.loopCancel()
	}

	if m.transport != nil {
		return m.transport.Close()
	}

	return nil
}

// init performs the initial setup sequence for the modem hardware.
// This method is called during New() and must complete successfully
// before the modem can be used.
func (m *Modem) init(ctx context.Context) error {
	// 1. Wake-up / sanity check
	if err := m.expectOkDirect(ctx, at.CmdAt); err != nil {
		return fmt.Errorf("modem not responding: %w", err)
	}

	if err := m.expectOkDirect(ctx, at.CmdEchoOff); err != nil {
		return fmt.Errorf("could not disable echo: %w", err)
	}

	if err := m.expectOkDirect(ctx, at.CmdVerboseErrors); err != nil {
		return fmt.Errorf("could not enable verbose errors: %w", err)
	}

	// 4. Check SIM status
	simState, err := m.simStateDirect(ctx)
	if err != nil {
		return fmt.Errorf("query SIM status: %w", err)
	}

	switch simState {
	case gsm.SimStateReady:
		// OK

	case gsm.SimStatePinRequired:
		if m.simPIN == "" {
			return ErrSIMPinRequired
		}
		if err := m.expectOkDirect(ctx, fmt.Sprintf(`AT+CPIN="%s"`, m.simPIN)); err != nil {
			return fmt.Errorf("enter SIM PIN: %w", err)
		}

		// Wait until SIM becomes ready
		if err := m.waitForSIMReady(ctx, PollConfig{}); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unsupported SIM state: %v", simState)
	}

	// 5. Select SMS text mode
	if err := m.expectOkDirect(ctx, at.CmdSetTextMode); err != nil {
		return fmt.Errorf("set SMS text mode: %w", err)
	}

	return nil
}

// simStateDirect queries +CPIN over the direct path and parses the
// status line into shared state without emitting events.
func (m *Modem) simStateDirect(ctx context.Context) (gsm.SimState, error) {
	resp, err := m.execDirect(ctx, at.CmdSimStatus)
	if err != nil {
		return gsm.SimStateNotReady, err
	}
	line, ok := findLine(resp, at.PrefixSimStatus)
	if !ok {
		return gsm.SimStateNotReady, fmt.Errorf("%w: no SIM status in %q", ErrBadResponse, resp)
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.state.ParseCPIN(line, false)
	return m.state.Sim, nil
}

// exec sends an AT command to the modem and waits for the response.
// This method coordinates with the Loop() to ensure thread-safe command execution.
// The Loop() must be running before calling this method.
func (m *Modem) exec(ctx context.Context, cmd string) (string, error) {
	return m.execStream(ctx, cmd, nil)
}

// execStream is exec with a byte sink: while the command is in
// flight, every response byte is handed to sink as it arrives, before
// line assembly. An over-long response line does not fail a streaming
// command; the Loop drops the buffered copy since the sink already
// consumed the bytes. The sink runs on the Loop goroutine; the caller
// may read what it accumulated once execStream returns.
func (m *Modem) execStream(ctx context.Context, cmd string, sink func(byte)) (string, error) {
	if m.closed {
		return "", ErrAlreadyClosed
	}

	if m.transport == nil {
		return "", ErrNotInitialized
	}

	// Apply per-command timeout if context has none
	if _, ok := ctx.Deadline(); !ok && m.config.ATTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ATTimeout)
		defer cancel()
	}

	// Create command request
	req := &commandRequest{
		cmd:      cmd,
		respChan: make(chan commandResponse, 1), // Buffered to prevent blocking
		ctx:      ctx,
		sink:     sink,
	}

	// Send request to Loop
	select {
	case m.commands <- req:
		// Request queued successfully
	case <-ctx.Done():
		return "", fmt.Errorf("command cancelled before sending: %w", ctx.Err())
	}

	// Wait for response from Loop
	select {
	case resp := <-req.respChan:
		return resp.response, resp.err
	case <-ctx.Done():
		return "", fmt.Errorf("command timeout: %w", ctx.Err())
	}
}

// execDirect executes an AT command directly on the transport without
// using the channel mechanism and handles the complete request-response
// cycle including timeout management. It is used during modem initialization
// when not yet accepting commands.
//
// WARNING: This method should only be used during initialization.
// Use exec() for normal operations.
func (m *Modem) execDirect(ctx context.Context, cmd string) (string, error) {
	if m.closed {
		return "", ErrAlreadyClosed
	}
	if m.transport == nil {
		return "", ErrNotInitialized
	}

	if _, ok := ctx.Deadline(); !ok && m.atTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.atTimeout)
		defer cancel()
	}

	wire := strings.TrimSpace(cmd) + "\r"
	if _, err := m.transport.Write([]byte(wire)); err != nil {
		return "", fmt.Errorf("write command %q: %w", cmd, err)
	}

	scanner := bufio.NewScanner(m.transport)
	scanner.Split(at.Splitter)

	var lines []string

	for {
		select {
		case <-ctx.Done():
			return strings.Join(lines, "\n"), ctx.Err()
		default:
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				if errors.Is(err, bufio.ErrTooLong) {
					err = ErrLineTooLong
				}
				return strings.Join(lines, "\n"), fmt.Errorf("read error: %w", err)
			}
			return strings.Join(lines, "\n"), io.EOF
		}

		token := scanner.Text()
		if token == "" {
			continue
		}

		respType := at.Classify(token)

		switch respType {
		case at.TypeFinal:
			lines = append(lines, token)

			response := strings.Join(lines, "\n")
			if token == at.OK {
				return response, nil
			} else {
				return response, errors.New(token)
			}

		case at.TypeData:
			lines = append(lines, token)

		case at.TypeURC:
			// Ignore URCs in direct exec
			continue
		case at.TypePrompt:
			lines = append(lines, token)
			response := strings.Join(lines, "\n")
			return response, nil
		}
	}
}

// expectOkDirect executes an AT command and validates that the response
// contains "OK". This is a convenience method for commands that should
// succeed with a simple OK response.
//
// Used during initialization for basic configuration commands.
func (m *Modem) expectOkDirect(ctx context.Context, cmd string) error {
	resp, err := m.execDirect(ctx, cmd)
	if err != nil {
		return err
	}
	if !strings.Contains(resp, at.OK) {
		return fmt.Errorf("unexpected response: %q", resp)
	}
	return nil
}

// waitForSIMReady polls the SIM card status until it reports ready state.
// This is necessary after entering a SIM PIN, as the SIM card needs time
// to authenticate and become operational. Uses configurable polling interval
// and retry limits to avoid infinite waiting.
func (m *Modem) waitForSIMReady(ctx context.Context, config PollConfig) error {
	var (
		pollInterval = config.Interval
		timeout      = config.Timeout
		maxRetries   = config.MaxRetries
	)

	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = int(timeout / pollInterval)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	retries := 0

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("SIM not ready: %w", ctx.Err())
		case <-ticker.C:
			retries++
			if retries > maxRetries {
				return fmt.Errorf("SIM not ready after %d retries", maxRetries)
			}
			state, err := m.simStateDirect(ctx)
			if err != nil {
				// Fail fast on critical errors
				if errors.Is(err, ErrAlreadyClosed) || errors.Is(err, ErrNotInitialized) {
					return fmt.Errorf("SIM status check failed: %w", err)
				}
				continue
			}
			if state == gsm.SimStateReady {
				return nil
			}
		}
	}
}

// findLine returns the first response line carrying the given prefix.
func findLine(resp, prefix string) (string, bool) {
	for _, line := range strings.Split(resp, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line, true
		}
	}
	return "", false
}

// firstDataLine returns the first response line that is not a final
// result code, e.g. the bare CCID digits the modem prints before OK.
func firstDataLine(resp string) (string, bool) {
	for _, line := range strings.Split(resp, "\n") {
		if line != "" && at.Classify(line) == at.TypeData {
			return line, true
		}
	}
	return "", false
}
