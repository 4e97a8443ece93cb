package jsonform

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RenderKind is the edit affordance chosen for a form field
type RenderKind int

const (
	ShortText RenderKind = iota
	LongText
	NumberField
	BoolField
	PrimitiveArray
	ObjectArray
	FallbackText
)

// LongTextThreshold is the string length above which a multi line editor is used
const LongTextThreshold int = 100

const (
	ObjectArraySeparator    = "\n---\n"
	PrimitiveArraySeparator = "\n"
)

var renderKindNames = map[RenderKind]string{
	ShortText:      "text",
	LongText:       "long-text",
	NumberField:    "number",
	BoolField:      "boolean",
	PrimitiveArray: "array",
	ObjectArray:    "object-array",
	FallbackText:   "fallback",
}

func (k RenderKind) String() string {
	if name, ok := renderKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("render-kind(%d)", int(k))
}

func (k RenderKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Policy picks how a field is edited. The decision depends only on the
// shape of v, path is accepted so callers can pass form entries as is.
func Policy(path string, v Value) RenderKind {
	switch v.kind {
	case ArrayKind:
		if len(v.a) > 0 && v.a[0].kind == ObjectKind {
			return ObjectArray
		}
		return PrimitiveArray
	case StringKind:
		if textLength(v.s) > LongTextThreshold {
			return LongText
		}
		return ShortText
	case NumberKind:
		return NumberField
	case BoolKind:
		return BoolField
	}

	return FallbackText
}

// textLength counts UTF-16 code units, the unit string lengths are measured in by the editors
func textLength(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Element is the outcome of parsing one block of an object array editor.
// Blocks that are not valid JSON are kept as their raw text.
type Element struct {
	Value Value
	Raw   string
	Err   error
}

func (e Element) Parsed() bool {
	return e.Err == nil
}

// ParseObjectArray splits editor text on separator lines, drops blank
// blocks and parses each remaining block as JSON.
func ParseObjectArray(text string) []Element {
	elements := []Element{}

	for _, block := range strings.Split(text, ObjectArraySeparator) {
		if strings.TrimSpace(block) == "" {
			continue
		}

		v, err := Parse([]byte(block))
		if err != nil {
			elements = append(elements, Element{Value: NewString(block), Raw: block, Err: err})
			continue
		}

		elements = append(elements, Element{Value: v, Raw: block})
	}

	return elements
}

func ElementValues(elements []Element) Value {
	values := make([]Value, 0, len(elements))
	for _, e := range elements {
		values = append(values, e.Value)
	}
	return NewArray(values...)
}

// Coerce converts editor input into the value stored for a field of the given kind
func Coerce(kind RenderKind, text string) Value {
	switch kind {
	case ObjectArray:
		return ElementValues(ParseObjectArray(text))
	case PrimitiveArray:
		values := []Value{}
		for _, line := range strings.Split(text, PrimitiveArraySeparator) {
			if strings.TrimSpace(line) == "" {
				continue
			}
			values = append(values, NewString(line))
		}
		return NewArray(values...)
	case NumberField:
		return NewNumber(ParseFloat(text))
	case BoolField:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true", "on", "1", "yes":
			return NewBool(true)
		}
		return NewBool(false)
	}

	return NewString(text)
}

// EditorText is the text shown in the editor for a field of the given kind
func EditorText(kind RenderKind, v Value) string {
	switch kind {
	case ObjectArray:
		blocks := make([]string, 0, len(v.a))
		for _, e := range v.a {
			switch e.kind {
			case ObjectKind, ArrayKind, NullKind:
				blocks = append(blocks, string(MarshalIndent(e)))
			default:
				blocks = append(blocks, Text(e))
			}
		}
		return strings.Join(blocks, ObjectArraySeparator)
	case PrimitiveArray:
		return joinText(v.a, PrimitiveArraySeparator)
	}

	return Text(v)
}

// Text converts a value to its string form the same way string
// concatenation in the browser editors did.
func Text(v Value) string {
	switch v.kind {
	case NullKind:
		return "null"
	case BoolKind:
		return strconv.FormatBool(v.b)
	case NumberKind:
		if math.IsNaN(v.n) {
			return "NaN"
		}
		if math.IsInf(v.n, 1) {
			return "Infinity"
		}
		if math.IsInf(v.n, -1) {
			return "-Infinity"
		}
		return formatNumber(v.n)
	case StringKind:
		return v.s
	case ArrayKind:
		return joinText(v.a, ",")
	}

	return "[object Object]"
}

func joinText(elements []Value, sep string) string {
	parts := make([]string, 0, len(elements))
	for _, e := range elements {
		if e.kind == NullKind {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, Text(e))
	}
	return strings.Join(parts, sep)
}

var floatPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// ParseFloat reads the longest numeric prefix of text after leading
// whitespace. Text without such a prefix yields 0. "Infinity" and numbers
// too large for a float64 yield an infinity, which is encoded as null.
func ParseFloat(text string) float64 {
	prefix := floatPrefix.FindString(strings.TrimLeft(text, " \t\n\r\v\f"))
	if prefix == "" {
		return 0
	}

	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		numErr, ok := err.(*strconv.NumError)
		if !ok || numErr.Err != strconv.ErrRange {
			return 0
		}
	}

	if f == 0 {
		return 0
	}

	return f
}
