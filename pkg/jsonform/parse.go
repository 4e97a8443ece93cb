package jsonform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/railstats/admin-console/pkg/errors"
)

// Parse decodes UTF-8 JSON text into a Value, keeping the order of object
// members as they appear in the text. Any failure wraps errors.ErrParse.
func Parse(data []byte) (Value, error) {
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("�"))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return Value{}, errors.NewParseError(parseErrorMessage(err))
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return Value{}, errors.NewParseError(fmt.Sprintf("unexpected data after top-level value at offset %d", dec.InputOffset()))
		}
		return Value{}, errors.NewParseError(parseErrorMessage(err))
	}

	return v, nil
}

func parseErrorMessage(err error) string {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return "unexpected end of JSON input"
	}
	return err.Error()
}

func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		// out of range numbers become +/-Inf, the same as JSON.parse
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
				return Value{}, err
			}
		}
		return NewNumber(f), nil
	case json.Delim:
		switch t {
		case '[':
			elements := []Value{}
			for dec.More() {
				e, err := parseValue(dec)
				if err != nil {
					return Value{}, err
				}
				elements = append(elements, e)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return NewArray(elements...), nil
		case '{':
			o := &Object{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("invalid object key %v", keyTok)
				}
				member, err := parseValue(dec)
				if err != nil {
					return Value{}, err
				}
				o.Set(key, member)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return objectValue(o), nil
		}
	}

	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// UnmarshalJSON allows a Value to be used as a field in decoded structs
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
