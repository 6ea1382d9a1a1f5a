package gsm

// IP is a dotted-quad IPv4 address as reported by the modem.
type IP [4]uint8

// MAC is a colon-separated hardware address as reported by the modem.
type MAC [6]uint8

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func hexVal(b byte) (uint32, bool) {
	switch {
	case b >= '0' && b <= '9':
		return uint32(b - '0'), true
	case b >= 'a' && b <= 'f':
		return uint32(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return uint32(b-'A') + 10, true
	}
	return 0, false
}

// ParseNumber extracts a decimal integer. It skips at most one leading
// quote, one leading comma and another leading quote, accepts an
// optional minus sign, accumulates digits until the first non-digit
// and skips a single trailing comma. Accumulation wraps on overflow
// like native 32-bit arithmetic; callers must bound magnitude.
func ParseNumber(c Cursor) (int32, Cursor) {
	var val int32
	minus := false

	c = c.skip('"')
	c = c.skip(',')
	c = c.skip('"')
	if c.peek() == '-' {
		minus = true
		c = c.next()
	}
	for isDigit(c.peek()) {
		val = val*10 + int32(c.peek()-'0')
		c = c.next()
	}
	c = c.skip(',')

	if minus {
		return -val, c
	}
	return val, c
}

// ParseHexNumber extracts an unsigned base-16 integer. Same delimiter
// handling as ParseNumber, without sign support.
func ParseHexNumber(c Cursor) (uint32, Cursor) {
	var val uint32

	c = c.skip('"')
	c = c.skip(',')
	c = c.skip('"')
	for {
		v, ok := hexVal(c.peek())
		if !ok {
			break
		}
		val = val*16 + v
		c = c.next()
	}
	c = c.skip(',')
	return val, c
}

// ParseString extracts a string field into dst, which is a
// caller-owned buffer whose final byte is reserved for a terminator
// so that entries share sizing with the modem-side fixed records. It
// skips one leading comma and one leading quote, then copies bytes
// until a closing quote followed by comma, CR, LF or end of line, or
// until the input runs out. A single trailing comma is consumed.
//
// When dst fills up, trim selects what happens to the remaining
// source: with trim the source is consumed without copying so the
// cursor still lands past the field, without trim both copying and
// consumption stop. A nil dst skips the field entirely.
//
// The number of bytes copied is returned alongside the advanced
// cursor.
func ParseString(c Cursor, dst []byte, trim bool) (int, Cursor) {
	var n int

	c = c.skip(',')
	c = c.skip('"')

	limit := len(dst)
	if limit > 0 {
		limit--
	}
	for !c.EOF() {
		if c.peek() == '"' {
			nxt := c.next().peek()
			if nxt == ',' || nxt == '\r' || nxt == '\n' || nxt == 0 {
				c = c.next()
				break
			}
		}
		if dst != nil {
			if n < limit {
				dst[n] = c.peek()
				n++
			} else if !trim {
				break
			}
		}
		c = c.next()
	}
	if dst != nil && n < len(dst) {
		dst[n] = 0
	}
	c = c.skip(',')
	return n, c
}

// ParseIP extracts a dotted IPv4 address, optionally surrounded by
// quotes. The dot separators are consumed by a fixed single-byte
// advance between the four number fields.
func ParseIP(c Cursor) (IP, Cursor) {
	var ip IP
	var v int32

	c = c.skip('"')
	for i := 0; i < len(ip); i++ {
		v, c = ParseNumber(c)
		ip[i] = uint8(v)
		if i < len(ip)-1 {
			c = c.next() // consume '.'
		}
	}
	c = c.skip('"')
	return ip, c
}

// ParseMAC extracts a six-group hex hardware address, optionally
// quoted, with an optional trailing comma.
func ParseMAC(c Cursor) (MAC, Cursor) {
	var mac MAC
	var v uint32

	c = c.skip('"')
	for i := 0; i < len(mac); i++ {
		v, c = ParseHexNumber(c)
		mac[i] = uint8(v)
		if i < len(mac)-1 {
			c = c.next() // consume ':'
		}
	}
	c = c.skip('"')
	c = c.skip(',')
	return mac, c
}
