package jsonform

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Marshal returns the compact JSON text of v with members in insertion order
func Marshal(v Value) []byte {
	buf := &bytes.Buffer{}
	writeValue(buf, v)
	return buf.Bytes()
}

// MarshalIndent returns the JSON text of v indented with two spaces, the
// layout every stored document is written with.
func MarshalIndent(v Value) []byte {
	compact := Marshal(v)

	out := &bytes.Buffer{}
	if err := json.Indent(out, compact, "", "  "); err != nil {
		// Marshal always produces valid JSON
		return compact
	}

	return out.Bytes()
}

// MarshalJSON allows a Value to be embedded in structs encoded by encoding/json
func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v), nil
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case NullKind:
		buf.WriteString("null")
	case BoolKind:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case NumberKind:
		buf.WriteString(formatNumber(v.n))
	case StringKind:
		writeString(buf, v.s)
	case ArrayKind:
		buf.WriteByte('[')
		for i, e := range v.a {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, e)
		}
		buf.WriteByte(']')
	case ObjectKind:
		buf.WriteByte('{')
		first := true
		v.o.Each(func(key string, member Value) {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeString(buf, key)
			buf.WriteByte(':')
			writeValue(buf, member)
		})
		buf.WriteByte('}')
	}
}

// formatNumber renders a float the way ECMAScript does when converting a
// number to a string, with non-finite values becoming null.
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}

	if f == 0 {
		return "0"
	}

	abs := math.Abs(f)
	format := byte('f')
	if abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}

	s := strconv.FormatFloat(f, format, -1, 64)
	if format == 'e' {
		// e-07 -> e-7
		n := len(s)
		if n >= 4 && s[n-4] == 'e' && s[n-3] == '-' && s[n-2] == '0' {
			s = s[:n-2] + s[n-1:]
		}
	}

	return s
}

const hex = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xF])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
