// Package gsm implements the response-parsing core of the modem driver.
//
// Modem responses are an ad-hoc, partially quoted, comma and bracket
// delimited text grammar. The tokenizers in this package consume a
// Cursor into a response body and extract one value each, advancing
// the cursor past trailing delimiters. They never allocate on behalf
// of the caller, never block and never fail: malformed input yields a
// best-effort value (usually zero) with the cursor advanced past
// whatever could be interpreted. Validity is a property of the
// surrounding response shape and is checked by the semantic parsers.
package gsm

// Cursor is a read position into a response body. The underlying text
// is never mutated; tokenizers take a Cursor by value and return the
// advanced Cursor alongside the parsed value.
type Cursor struct {
	src string
	pos int
}

// NewCursor returns a Cursor at the start of s.
func NewCursor(s string) Cursor {
	return Cursor{src: s}
}

// Rest returns the unconsumed remainder of the input.
func (c Cursor) Rest() string {
	if c.pos >= len(c.src) {
		return ""
	}
	return c.src[c.pos:]
}

// EOF reports whether the cursor has consumed all input.
func (c Cursor) EOF() bool {
	return c.pos >= len(c.src)
}

// peek returns the byte at the cursor, or 0 at end of input.
func (c Cursor) peek() byte {
	if c.pos >= len(c.src) {
		return 0
	}
	return c.src[c.pos]
}

// next returns the cursor advanced by one byte.
func (c Cursor) next() Cursor {
	if c.pos < len(c.src) {
		c.pos++
	}
	return c
}

// skip advances past b if b is the next byte, at most once.
func (c Cursor) skip(b byte) Cursor {
	if c.peek() == b {
		return c.next()
	}
	return c
}
