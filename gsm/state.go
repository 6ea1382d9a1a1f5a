package gsm

// SimState is the SIM card state reported through +CPIN.
type SimState uint8

const (
	SimStateReady SimState = iota
	SimStateNotReady
	SimStateNotInserted
	SimStatePinRequired
	SimStatePukRequired
)

func (s SimState) String() string {
	switch s {
	case SimStateReady:
		return "READY"
	case SimStateNotReady:
		return "NOT READY"
	case SimStateNotInserted:
		return "NOT INSERTED"
	case SimStatePinRequired:
		return "PIN REQUIRED"
	case SimStatePukRequired:
		return "PUK REQUIRED"
	}
	return "UNKNOWN"
}

// CallDir is the direction of a call.
type CallDir uint8

const (
	CallDirMO CallDir = iota // mobile originated (outgoing)
	CallDirMT                // mobile terminated (incoming)
)

// CallState is the progress state of a call as reported by +CLCC.
type CallState uint8

const (
	CallStateActive CallState = iota
	CallStateHeld
	CallStateDialing
	CallStateAlerting
	CallStateIncoming
	CallStateWaiting
	CallStateDisconnect
)

// CallType distinguishes voice, data and fax calls.
type CallType uint8

const (
	CallTypeVoice CallType = iota
	CallTypeData
	CallTypeFax
)

// Call is the current call record. It lives in the device state and
// is overwritten in place on every +CLCC line; it is valid only until
// the next update or call termination.
type Call struct {
	ID         int32
	Dir        CallDir
	State      CallState
	Type       CallType
	Multiparty bool
	Number     string
	AddrType   int32
	Name       string
}

// SmsStatus is the storage status of an SMS record.
type SmsStatus uint8

const (
	SmsStatusUnread SmsStatus = iota
	SmsStatusRead
	SmsStatusUnsent
	SmsStatusSent

	// SmsStatusAll doubles as the list-everything filter and the
	// parse-failure sentinel; a parse that yields it did not match
	// any known status literal.
	SmsStatusAll
)

// SmsEntry is one stored SMS record. The entry is owned by the caller
// of the read or list operation; parsers only fill fields.
type SmsEntry struct {
	Mem    MemType
	Pos    int32
	Status SmsStatus
	Number string
	Text   string
}

// EventHandler receives notifications raised by the semantic parsers.
// Handlers run synchronously on the parsing goroutine with the state
// lock held, so they must not block; hand off to a channel instead.
type EventHandler interface {
	SimStateChanged(SimState)

	// CallChanged observes the state's single call record by
	// reference; it reflects only the latest call.
	CallChanged(*Call)

	// SmsSent reports the storage position of a message the network
	// just accepted.
	SmsSent(pos int32)

	// SmsReceived reports storage and position of a newly arrived
	// message.
	SmsReceived(mem MemType, pos int32)
}

// State is the shared device-state model. All fields are written only
// by the semantic parsers and read by driver operations; every access
// must happen with the external device lock held. State itself never
// locks.
type State struct {
	Sim  SimState
	Call Call

	// SmsMem holds the storages usable for each of the three +CPMS
	// slots (read/delete, send/write, receive) as selector bitmasks.
	SmsMem [3]uint32

	// PbMem holds the storages usable for the phonebook.
	PbMem uint32

	// Table maps storage names to selectors for this device.
	Table MemTable

	// Handler receives parser events; nil disables emission.
	Handler EventHandler

	// OnSimReady is invoked each time a parse reports the SIM ready,
	// so the driver can fetch SIM identity in the background.
	OnSimReady func()
}

// NewState returns a State using the given device table, falling back
// to DefaultMemTable when table is nil.
func NewState(table MemTable) *State {
	if table == nil {
		table = DefaultMemTable
	}
	return &State{Sim: SimStateNotReady, Table: table}
}

// MemAvailable reports whether mem can be used with the SMS operation
// slot (0..2), either because the parsed storage report lists it or
// because it is MemCurrent and canCurr allows deferring to the active
// storage.
func (s *State) MemAvailable(slot int, mem MemType, canCurr bool) bool {
	if mem == MemCurrent {
		return canCurr
	}
	return mem < memEnd && slot >= 0 && slot < len(s.SmsMem) &&
		s.SmsMem[slot]&(1<<uint32(mem)) != 0
}

// PbMemAvailable is MemAvailable for the phonebook storage report.
func (s *State) PbMemAvailable(mem MemType, canCurr bool) bool {
	if mem == MemCurrent {
		return canCurr
	}
	return mem < memEnd && s.PbMem&(1<<uint32(mem)) != 0
}
