package jsonform

import (
	"math"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestPolicyDecisionTable(t *testing.T) {
	is := is.New(t)

	long := NewString(strings.Repeat("x", 101))
	exactly100 := NewString(strings.Repeat("x", 100))

	is.Equal(Policy("a", NewArray(NewObject(Member{"code", NewString("SEN")}))), ObjectArray)
	is.Equal(Policy("a", NewArray(NewString("SEN"), NewObject())), PrimitiveArray)
	is.Equal(Policy("a", NewArray()), PrimitiveArray)
	is.Equal(Policy("a", long), LongText)
	is.Equal(Policy("a", exactly100), ShortText)
	is.Equal(Policy("a", NewString("")), ShortText)
	is.Equal(Policy("a", NewNumber(0)), NumberField)
	is.Equal(Policy("a", NewBool(false)), BoolField)
	is.Equal(Policy("a", NewNull()), FallbackText)
}

func TestPolicyIgnoresPath(t *testing.T) {
	is := is.New(t)

	v := NewNumber(45)
	is.Equal(Policy("price", v), Policy("railcards.something", v))
	is.Equal(Policy("price", v), Policy("price", v))
}

func TestPolicyCountsUTF16Units(t *testing.T) {
	is := is.New(t)

	// 50 characters outside the basic multilingual plane count twice
	is.Equal(Policy("a", NewString(strings.Repeat("🚂", 50))), ShortText)
	is.Equal(Policy("a", NewString(strings.Repeat("🚂", 51))), LongText)
}

func TestObjectArrayEditingKeepsUnparseableBlocks(t *testing.T) {
	is := is.New(t)

	text := "{\"code\": \"SEN\"}\n---\nnot json\n---\n   \n---\n{\"code\": \"YNG\"}"
	elements := ParseObjectArray(text)

	is.Equal(len(elements), 3)
	is.True(elements[0].Parsed())
	is.True(!elements[1].Parsed())
	is.Equal(elements[1].Raw, "not json")
	is.True(elements[2].Parsed())

	v := Coerce(ObjectArray, text)
	is.Equal(string(Marshal(v)), `[{"code":"SEN"},"not json",{"code":"YNG"}]`)
}

func TestObjectArrayEditorText(t *testing.T) {
	is := is.New(t)

	v, err := Parse([]byte(`[{"code": "SEN", "name": "Senior"}, "raw"]`))
	is.NoErr(err)

	text := EditorText(ObjectArray, v)
	is.Equal(text, "{\n  \"code\": \"SEN\",\n  \"name\": \"Senior\"\n}\n---\nraw")

	is.True(Coerce(ObjectArray, text).Equal(v)) // editor text should parse back to the same array
}

func TestPrimitiveArrayEditing(t *testing.T) {
	is := is.New(t)

	v := Coerce(PrimitiveArray, "SHR\n\nCRV\n  \n12")
	is.Equal(string(Marshal(v)), `["SHR","CRV","12"]`)

	original, _ := Parse([]byte(`["SHR", 12, null, true]`))
	is.Equal(EditorText(PrimitiveArray, original), "SHR\n12\n\ntrue")
}

func TestNumberCoercion(t *testing.T) {
	is := is.New(t)

	is.Equal(Coerce(NumberField, "45").Number(), 45.0)
	is.Equal(Coerce(NumberField, "  12.5abc").Number(), 12.5)
	is.Equal(Coerce(NumberField, "-.5").Number(), -0.5)
	is.Equal(Coerce(NumberField, "1e3").Number(), 1000.0)
	is.Equal(Coerce(NumberField, "1e").Number(), 1.0)
	is.Equal(Coerce(NumberField, "abc").Number(), 0.0)
	is.Equal(Coerce(NumberField, "").Number(), 0.0)
	is.Equal(Coerce(NumberField, "1e-999").Number(), 0.0)
}

func TestNumberCoercionOfInfinity(t *testing.T) {
	is := is.New(t)

	is.True(math.IsInf(ParseFloat("Infinity"), 1))
	is.True(math.IsInf(ParseFloat("  -Infinity and beyond"), -1))
	is.True(math.IsInf(ParseFloat("1e999"), 1))
	is.True(math.IsInf(ParseFloat("-1e999"), -1))
	is.Equal(ParseFloat("infinity"), 0.0) // only the exact spelling is read

	v := Coerce(NumberField, "Infinity")
	is.Equal(EditorText(NumberField, v), "Infinity")
	is.Equal(string(Marshal(v)), "null")
}

func TestBoolAndTextCoercion(t *testing.T) {
	is := is.New(t)

	is.True(Coerce(BoolField, "true").Bool())
	is.True(Coerce(BoolField, "ON").Bool())
	is.True(!Coerce(BoolField, "false").Bool())
	is.True(!Coerce(BoolField, "").Bool())

	is.Equal(Coerce(ShortText, "Freedom Pass").Str(), "Freedom Pass")
	is.Equal(Coerce(FallbackText, "null").Kind(), StringKind)
}

func TestText(t *testing.T) {
	is := is.New(t)

	is.Equal(Text(NewNull()), "null")
	is.Equal(Text(NewNumber(45)), "45")
	is.Equal(Text(NewNumber(0.1)), "0.1")
	is.Equal(Text(NewNumber(1e21)), "1e+21")
	is.Equal(Text(NewNumber(0.0000001)), "1e-7")
	is.Equal(Text(NewObject()), "[object Object]")
}
