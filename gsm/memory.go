package gsm

// MemType identifies one modem storage area.
type MemType uint8

const (
	// MemCurrent selects whatever storage is currently active. It is
	// accepted by the SMS and phonebook operations but never produced
	// by a parse.
	MemCurrent MemType = iota
	MemSM               // SIM card storage
	MemME               // modem internal storage
	MemMT               // SM and ME combined
	MemBM               // broadcast message storage
	MemSR               // status report storage
	memEnd

	// MemUnknown is returned when a storage name does not appear in
	// the device table.
	MemUnknown = memEnd
)

// MemTableEntry associates a storage name as it appears on the wire
// with its selector.
type MemTableEntry struct {
	Name string
	Mem  MemType
}

// MemTable is the device-supplied mapping of storage names to
// selectors, in match priority order. Different modems support
// different subsets, so the table is injected rather than hardcoded.
type MemTable []MemTableEntry

// DefaultMemTable covers the storages common to SIMCom and Quectel
// modules.
var DefaultMemTable = MemTable{
	{"SM", MemSM},
	{"ME", MemME},
	{"MT", MemMT},
	{"BM", MemBM},
	{"SR", MemSR},
}

// Name returns the wire name of a selector, or "?" when the table
// does not carry it.
func (t MemTable) Name(mem MemType) string {
	for _, e := range t {
		if e.Mem == mem {
			return e.Name
		}
	}
	return "?"
}

// ParseMemory extracts one storage name, such as "SM" or "ME", and
// resolves it against the table by prefix match in table order. An
// unmatched name is skipped as a quoted string so the cursor still
// advances, and MemUnknown is returned.
func ParseMemory(c Cursor, table MemTable) (MemType, Cursor) {
	mem := MemUnknown

	c = c.skip(',')
	c = c.skip('"')

	rest := c.Rest()
	for _, e := range table {
		if len(rest) >= len(e.Name) && rest[:len(e.Name)] == e.Name {
			mem = e.Mem
			for range len(e.Name) {
				c = c.next()
			}
			break
		}
	}
	if mem == MemUnknown {
		_, c = ParseString(c, nil, true) // skip the unrecognized token
	}
	c = c.skip('"')
	c = c.skip(',')
	return mem, c
}

// ParseMemoryList extracts a parenthesized, comma-separated list of
// storage names, such as ("SM","ME"), OR-ing 1<<selector for each
// name into a bitmask. ok is false when there is nothing to parse at
// the cursor.
//
// An unrecognized name still contributes the MemUnknown bit. That
// mirrors the device firmware this grammar was reverse-engineered
// from; whether such a bit is ever observable depends on the device
// table covering the modem's full selector range.
func ParseMemoryList(c Cursor, table MemTable) (mask uint32, nc Cursor, ok bool) {
	var mem MemType

	c = c.skip(',')
	if c.EOF() {
		return 0, c, false
	}
	c = c.skip('(')
	for {
		mem, c = ParseMemory(c, table)
		mask |= 1 << uint32(mem)
		if c.EOF() || c.peek() == ')' {
			break
		}
	}
	c = c.skip(')')
	return mask, c, true
}
