package gsm

import "strings"

// Response field buffer sizes, matching the fixed records the modem
// side works with. One byte of each is reserved for the terminator.
const (
	numberBufLen    = 21
	nameBufLen      = 21
	smsStatusBufLen = 11
)

// responsePrefixLen is the fixed width of a "+XXXX: " response prefix.
// All responses this package parses use five-character names, so a
// body that still carries its prefix is skipped by this many bytes.
// The skip is unconditional on a leading '+'; callers must only pass
// lines that actually have that shape.
const responsePrefixLen = 7

func skipPrefix(line string) Cursor {
	if len(line) > 0 && line[0] == '+' {
		if len(line) < responsePrefixLen {
			return NewCursor("")
		}
		return NewCursor(line[responsePrefixLen:])
	}
	return NewCursor(line)
}

// ParseCPIN consumes a +CPIN response body and updates the SIM state.
// The body is matched against the known status phrases in priority
// order; anything unrecognized degrades to NOT READY. A transition to
// ready fires the OnSimReady hook so the driver can fetch SIM
// identity. The event is emitted only when evt is set, letting polled
// invocations suppress duplicates.
func (s *State) ParseCPIN(line string, evt bool) {
	body := skipPrefix(line).Rest()

	switch {
	case strings.HasPrefix(body, "READY"):
		s.Sim = SimStateReady
	case strings.HasPrefix(body, "NOT READY"):
		s.Sim = SimStateNotReady
	case strings.HasPrefix(body, "NOT INSERTED"):
		s.Sim = SimStateNotInserted
	case strings.HasPrefix(body, "SIM PIN"):
		s.Sim = SimStatePinRequired
	case strings.HasPrefix(body, "PIN PUK"):
		s.Sim = SimStatePukRequired
	default:
		s.Sim = SimStateNotReady
	}

	if s.Sim == SimStateReady && s.OnSimReady != nil {
		s.OnSimReady()
	}

	if evt && s.Handler != nil {
		s.Handler.SimStateChanged(s.Sim)
	}
}

// ParseCLCC consumes a +CLCC response body and overwrites the current
// call record in place.
func (s *State) ParseCLCC(line string, evt bool) {
	var (
		v      int32
		n      int
		number [numberBufLen]byte
		name   [nameBufLen]byte
	)
	c := skipPrefix(line)

	s.Call.ID, c = ParseNumber(c)
	v, c = ParseNumber(c)
	s.Call.Dir = CallDir(v)
	v, c = ParseNumber(c)
	s.Call.State = CallState(v)
	v, c = ParseNumber(c)
	s.Call.Type = CallType(v)
	v, c = ParseNumber(c)
	s.Call.Multiparty = v != 0
	n, c = ParseString(c, number[:], true)
	s.Call.Number = string(number[:n])
	s.Call.AddrType, c = ParseNumber(c)
	n, _ = ParseString(c, name[:], true)
	s.Call.Name = string(name[:n])

	if evt && s.Handler != nil {
		s.Handler.CallChanged(&s.Call)
	}
}

// ParseCMGS consumes a +CMGS response body and returns the storage
// position of the message the network just accepted.
func (s *State) ParseCMGS(line string, evt bool) int32 {
	pos, _ := ParseNumber(skipPrefix(line))

	if evt && s.Handler != nil {
		s.Handler.SmsSent(pos)
	}
	return pos
}

// ParseSmsStatus extracts one quoted status token and maps it to an
// SmsStatus. ok is false when the token matches no known literal; the
// returned status is then SmsStatusAll and must be treated as a parse
// failure, not a legitimate status.
func ParseSmsStatus(c Cursor) (stat SmsStatus, nc Cursor, ok bool) {
	var buf [smsStatusBufLen]byte

	n, c := ParseString(c, buf[:], true)
	switch string(buf[:n]) {
	case "REC UNREAD":
		stat = SmsStatusUnread
	case "REC READ":
		stat = SmsStatusRead
	case "STO UNSENT":
		stat = SmsStatusUnsent
	case "REC SENT":
		stat = SmsStatusSent
	default:
		return SmsStatusAll, c, false
	}
	return stat, c, true
}

// ParseCMGR consumes a +CMGR response body into the caller-supplied
// entry, filling status and sender number. The third field is
// discarded.
//
// TODO: parse the date/time field instead of skipping it.
func (s *State) ParseCMGR(line string, entry *SmsEntry) {
	var number [numberBufLen]byte
	c := skipPrefix(line)

	stat, c, ok := ParseSmsStatus(c)
	if ok {
		entry.Status = stat
	} else {
		entry.Status = SmsStatusAll
	}
	n, c := ParseString(c, number[:], true)
	entry.Number = string(number[:n])
	ParseString(c, nil, true)
}

// ParseCMTI consumes a +CMTI notification body, reporting storage and
// position of a newly received message.
func (s *State) ParseCMTI(line string, evt bool) (MemType, int32) {
	c := skipPrefix(line)

	mem, c := ParseMemory(c, s.Table)
	pos, _ := ParseNumber(c)

	if evt && s.Handler != nil {
		s.Handler.SmsReceived(mem, pos)
	}
	return mem, pos
}

// ParseCPMS consumes a +CPMS storage report body: exactly three
// storage lists, one per operation slot. Parsing stops at the first
// list that fails, leaving later slots untouched.
func (s *State) ParseCPMS(line string) bool {
	var (
		mask uint32
		ok   bool
	)
	c := skipPrefix(line)

	for i := range s.SmsMem {
		mask, c, ok = ParseMemoryList(c, s.Table)
		if !ok {
			return false
		}
		s.SmsMem[i] = mask
	}
	return true
}

// ParseCPBS consumes a +CPBS storage report body: a single storage
// list for the phonebook.
func (s *State) ParseCPBS(line string) bool {
	mask, _, ok := ParseMemoryList(skipPrefix(line), s.Table)
	if ok {
		s.PbMem = mask
	}
	return ok
}
