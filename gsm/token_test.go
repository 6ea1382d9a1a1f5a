package gsm_test

import (
	"testing"

	"i4.energy/across/gsmat/gsm"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int32
		rest string
	}{
		{
			name: "Plain number",
			in:   "42",
			want: 42,
			rest: "",
		},
		{
			name: "Number with trailing comma",
			in:   "123,rest",
			want: 123,
			rest: "rest",
		},
		{
			name: "Negative number",
			in:   "-15,rest",
			want: -15,
			rest: "rest",
		},
		{
			name: "Cursor left at closing quote of previous field",
			in:   `",42,rest`,
			want: 42,
			rest: "rest",
		},
		{
			name: "Leading comma then quoted number",
			in:   `,"99",rest`,
			want: 99,
			rest: `",rest`,
		},
		{
			name: "Zero",
			in:   "0,",
			want: 0,
			rest: "",
		},
		{
			name: "Garbage yields zero and stops",
			in:   "abc",
			want: 0,
			rest: "abc",
		},
		{
			name: "Empty input",
			in:   "",
			want: 0,
			rest: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, c := gsm.ParseNumber(gsm.NewCursor(tt.in))
			if got != tt.want {
				t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
			}
			if c.Rest() != tt.rest {
				t.Errorf("ParseNumber(%q) rest = %q, want %q", tt.in, c.Rest(), tt.rest)
			}
		})
	}
}

func TestParseHexNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want uint32
		rest string
	}{
		{
			name: "Lowercase hex",
			in:   "ff,rest",
			want: 0xff,
			rest: "rest",
		},
		{
			name: "Uppercase hex",
			in:   "1A2B,rest",
			want: 0x1a2b,
			rest: "rest",
		},
		{
			name: "Cursor left at closing quote of previous field",
			in:   `",beef,rest`,
			want: 0xbeef,
			rest: "rest",
		},
		{
			name: "Minus sign is not consumed",
			in:   "-1",
			want: 0,
			rest: "-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, c := gsm.ParseHexNumber(gsm.NewCursor(tt.in))
			if got != tt.want {
				t.Errorf("ParseHexNumber(%q) = %#x, want %#x", tt.in, got, tt.want)
			}
			if c.Rest() != tt.rest {
				t.Errorf("ParseHexNumber(%q) rest = %q, want %q", tt.in, c.Rest(), tt.rest)
			}
		})
	}
}

func TestParseString(t *testing.T) {
	t.Run("Quoted field with enough capacity", func(t *testing.T) {
		var buf [6]byte
		n, c := gsm.ParseString(gsm.NewCursor(`"hello",rest`), buf[:], false)
		if got := string(buf[:n]); got != "hello" {
			t.Errorf("got %q, want %q", got, "hello")
		}
		if c.Rest() != "rest" {
			t.Errorf("rest = %q, want %q", c.Rest(), "rest")
		}
	})

	t.Run("Capacity exhausted with trim", func(t *testing.T) {
		var buf [3]byte
		n, c := gsm.ParseString(gsm.NewCursor(`"hello",rest`), buf[:], true)
		if got := string(buf[:n]); got != "he" {
			t.Errorf("got %q, want %q", got, "he")
		}
		// trim keeps consuming, so the cursor still lands past the field
		if c.Rest() != "rest" {
			t.Errorf("rest = %q, want %q", c.Rest(), "rest")
		}
	})

	t.Run("Capacity exhausted without trim", func(t *testing.T) {
		var buf [3]byte
		n, c := gsm.ParseString(gsm.NewCursor(`"hello",rest`), buf[:], false)
		if got := string(buf[:n]); got != "he" {
			t.Errorf("got %q, want %q", got, "he")
		}
		// without trim, consumption stops where copying stopped
		if c.Rest() != `llo",rest` {
			t.Errorf("rest = %q, want %q", c.Rest(), `llo",rest`)
		}
	})

	t.Run("Nil destination skips the field", func(t *testing.T) {
		n, c := gsm.ParseString(gsm.NewCursor(`"hello",rest`), nil, true)
		if n != 0 {
			t.Errorf("n = %d, want 0", n)
		}
		if c.Rest() != "rest" {
			t.Errorf("rest = %q, want %q", c.Rest(), "rest")
		}
	})

	t.Run("Leading comma before quote", func(t *testing.T) {
		var buf [16]byte
		n, c := gsm.ParseString(gsm.NewCursor(`,"abc",rest`), buf[:], true)
		if got := string(buf[:n]); got != "abc" {
			t.Errorf("got %q, want %q", got, "abc")
		}
		if c.Rest() != "rest" {
			t.Errorf("rest = %q, want %q", c.Rest(), "rest")
		}
	})

	t.Run("Quote inside field is kept", func(t *testing.T) {
		var buf [16]byte
		n, _ := gsm.ParseString(gsm.NewCursor("\"a\"b\",rest"), buf[:], true)
		if got := string(buf[:n]); got != `a"b` {
			t.Errorf("got %q, want %q", got, `a"b`)
		}
	})

	t.Run("Field terminated by CR", func(t *testing.T) {
		var buf [16]byte
		n, c := gsm.ParseString(gsm.NewCursor("\"abc\"\r\n"), buf[:], true)
		if got := string(buf[:n]); got != "abc" {
			t.Errorf("got %q, want %q", got, "abc")
		}
		if c.Rest() != "\r\n" {
			t.Errorf("rest = %q, want %q", c.Rest(), "\r\n")
		}
	})
}

func TestParseIP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want gsm.IP
		rest string
	}{
		{
			name: "Bare address",
			in:   "10.20.30.40",
			want: gsm.IP{10, 20, 30, 40},
			rest: "",
		},
		{
			name: "Quoted address",
			in:   `"192.168.1.254",rest`,
			want: gsm.IP{192, 168, 1, 254},
			rest: ",rest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, c := gsm.ParseIP(gsm.NewCursor(tt.in))
			if got != tt.want {
				t.Errorf("ParseIP(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if c.Rest() != tt.rest {
				t.Errorf("ParseIP(%q) rest = %q, want %q", tt.in, c.Rest(), tt.rest)
			}
		})
	}
}

func TestParseMAC(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want gsm.MAC
		rest string
	}{
		{
			name: "Bare address",
			in:   "00:1a:2b:3c:4d:5e",
			want: gsm.MAC{0x00, 0x1a, 0x2b, 0x3c, 0x4d, 0x5e},
			rest: "",
		},
		{
			name: "Quoted with trailing comma",
			in:   `"AA:BB:CC:DD:EE:FF",rest`,
			want: gsm.MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
			rest: "rest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, c := gsm.ParseMAC(gsm.NewCursor(tt.in))
			if got != tt.want {
				t.Errorf("ParseMAC(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if c.Rest() != tt.rest {
				t.Errorf("ParseMAC(%q) rest = %q, want %q", tt.in, c.Rest(), tt.rest)
			}
		})
	}
}
