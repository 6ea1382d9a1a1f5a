package gsm

// OperatorStatus is the availability code of a scanned network
// operator.
type OperatorStatus uint8

const (
	OperatorStatusUnknown OperatorStatus = iota
	OperatorStatusAvailable
	OperatorStatusCurrent
	OperatorStatusForbidden
)

// Operator is one record from an operator scan.
type Operator struct {
	Status    OperatorStatus
	LongName  string
	ShortName string
	Num       int32
}

const operatorNameBufLen = 21

// Operator scan record fields, in wire order.
const (
	opFieldStatus = iota
	opFieldLongName
	opFieldShortName
	opFieldNum
)

// OperatorScanner parses an operator scan response one byte at a
// time. The response is a comma-separated sequence of bracketed
// records whose total length may exceed any single buffer, so the
// scanner keeps explicit state and can be resumed across reads.
//
// A scanner is bound to a caller-supplied output slice; completed
// records are committed to consecutive slots and records beyond
// capacity are silently dropped. It performs no locking: the caller
// serializes Feed calls and protects the output the same way it
// protects any other device-state field.
type OperatorScanner struct {
	dst []Operator

	n        int  // committed records
	open     bool // inside a bracketed record
	stopped  bool // two consecutive commas seen, ignore the rest
	field    int  // current field, opFieldStatus..opFieldNum
	fieldPos int  // write offset into the current name field
	prev     byte

	status    OperatorStatus
	num       int32
	longName  [operatorNameBufLen]byte
	longLen   int
	shortName [operatorNameBufLen]byte
	shortLen  int
}

// NewOperatorScanner returns a scanner committing records into dst.
// The scanner starts reset.
func NewOperatorScanner(dst []Operator) *OperatorScanner {
	return &OperatorScanner{dst: dst}
}

// Reset clears all scan state, dropping any partially parsed record
// and releasing the stop latch. It must be called before the first
// byte of a new response. Resetting twice is the same as resetting
// once.
func (s *OperatorScanner) Reset() {
	s.n = 0
	s.clearRecord()
	s.open = false
	s.stopped = false
	s.prev = 0
}

func (s *OperatorScanner) clearRecord() {
	s.field = opFieldStatus
	s.fieldPos = 0
	s.status = 0
	s.num = 0
	s.longLen = 0
	s.shortLen = 0
}

// Count returns the number of complete records committed since the
// last Reset.
func (s *OperatorScanner) Count() int {
	return s.n
}

// Feed consumes one response byte. Bytes arriving after the stop
// latch is set, or once the output slice is full, are discarded
// without touching any state, so prior records are never corrupted.
func (s *OperatorScanner) Feed(ch byte) {
	if s.stopped || s.n >= len(s.dst) {
		return
	}

	if s.open {
		switch {
		case ch == ')':
			s.commit()
			s.open = false
		case ch == ',':
			if s.field < opFieldNum {
				s.field++
			}
			s.fieldPos = 0
		case ch != '"':
			switch s.field {
			case opFieldStatus:
				s.status = OperatorStatus(10*uint8(s.status) + (ch - '0'))
			case opFieldLongName:
				if s.fieldPos < len(s.longName)-1 {
					s.longName[s.fieldPos] = ch
					s.fieldPos++
					s.longLen = s.fieldPos
				}
			case opFieldShortName:
				if s.fieldPos < len(s.shortName)-1 {
					s.shortName[s.fieldPos] = ch
					s.fieldPos++
					s.shortLen = s.fieldPos
				}
			case opFieldNum:
				s.num = 10*s.num + int32(ch-'0')
			}
		}
	} else {
		if ch == '(' {
			s.open = true
		} else if ch == ',' && s.prev == ',' {
			// The device terminates some scan responses with an
			// empty trailing list; everything after it is noise.
			s.stopped = true
		}
	}
	s.prev = ch
}

// commit stores the record being built into the next output slot and
// rewinds the field state for the record that follows.
func (s *OperatorScanner) commit() {
	s.dst[s.n] = Operator{
		Status:    s.status,
		LongName:  string(s.longName[:s.longLen]),
		ShortName: string(s.shortName[:s.shortLen]),
		Num:       s.num,
	}
	s.n++
	s.clearRecord()
}
