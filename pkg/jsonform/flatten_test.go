package jsonform

import (
	"testing"

	"github.com/matryer/is"
	"github.com/railstats/admin-console/pkg/errors"
)

func TestFlattenOfAlreadyFlatDocument(t *testing.T) {
	is, doc := parseTestDocument(t, `{"name": "Freedom Pass", "price": 45, "active": true}`)

	form := Flatten(doc, "")

	is.Equal(form.Paths(), []string{"name", "price", "active"})
	is.True(mustGet(form, "name").Equal(NewString("Freedom Pass")))
	is.True(mustGet(form, "price").Equal(NewNumber(45)))
	is.True(mustGet(form, "active").Equal(NewBool(true)))

	is.True(Unflatten(form).Equal(doc)) // should reproduce the original object
}

func TestFlattenOfNestedObject(t *testing.T) {
	is, doc := parseTestDocument(t, `{"area": {"region": "South West", "code": "SW"}}`)

	form := Flatten(doc, "")

	is.Equal(form.Paths(), []string{"area.region", "area.code"})
	is.Equal(mustGet(form, "area.region").Str(), "South West")
	is.Equal(mustGet(form, "area.code").Str(), "SW")

	is.Equal(string(Marshal(Unflatten(form))), `{"area":{"region":"South West","code":"SW"}}`)
}

func TestFlattenKeepsArraysOfObjectsWhole(t *testing.T) {
	is, doc := parseTestDocument(t, `{"railcards": [{"code": "SEN", "name": "Senior"}, {"code": "YNG", "name": "Young Person"}]}`)

	form := Flatten(doc, "")

	is.Equal(form.Len(), 1)

	railcards := mustGet(form, "railcards")
	is.Equal(railcards.Kind(), ArrayKind)
	is.Equal(len(railcards.Elements()), 2)
	is.Equal(Policy("railcards", railcards), ObjectArray)

	original, _ := doc.Object().Get("railcards")
	is.True(railcards.Equal(original)) // array should be untouched
}

func TestFlattenDropsEmptyObjects(t *testing.T) {
	is, doc := parseTestDocument(t, `{"a": 1, "b": {}, "c": {"d": {}}}`)

	form := Flatten(doc, "")

	is.Equal(form.Paths(), []string{"a"})
	is.Equal(string(Marshal(Unflatten(form))), `{"a":1}`)
}

func TestFlattenCanKeepEmptyObjects(t *testing.T) {
	is, doc := parseTestDocument(t, `{"a": 1, "b": {}, "c": {"d": {}, "e": "x"}}`)

	form := Flatten(doc, "", KeepEmptyObjects())

	is.Equal(form.Paths(), []string{"a", "b", "c.d", "c.e"})
	is.True(Unflatten(form).Equal(doc)) // empty objects should survive the round trip
}

func TestFlattenWithPrefix(t *testing.T) {
	is, doc := parseTestDocument(t, `{"region": "South West"}`)

	form := Flatten(doc, "area")

	is.Equal(form.Paths(), []string{"area.region"})
}

func TestFlattenOfTopLevelPrimitiveIsDegenerate(t *testing.T) {
	is := is.New(t)

	form := Flatten(NewNumber(3), "")
	is.Equal(form.Paths(), []string{""})

	_, err := FlattenDocument(NewArray(NewNumber(3)))
	is.True(errors.Is(err, errors.ErrInvalidDocument))
}

func TestFlattenNeverProducesObjectLeaves(t *testing.T) {
	is, doc := parseTestDocument(t, complexDocument)

	form := Flatten(doc, "")

	seen := map[string]bool{}
	form.Each(func(path string, v Value) {
		is.True(v.Kind() != ObjectKind) // leaves must not be plain objects
		is.True(!seen[path])            // paths must be unique
		seen[path] = true
	})
}

func TestFlattenReportsKeysContainingTheSeparator(t *testing.T) {
	is, doc := parseTestDocument(t, `{"versions": {"v1.2": 1, "v2": 2}, "a.b": true}`)

	reported := [][2]string{}
	form, err := FlattenDocument(doc, OnDottedKey(func(path, key string) {
		reported = append(reported, [2]string{path, key})
	}))
	is.NoErr(err)

	is.Equal(reported, [][2]string{{"versions.v1.2", "v1.2"}, {"a.b", "a.b"}})
	is.Equal(string(Marshal(Unflatten(form))), `{"versions":{"v1":{"2":1},"v2":2},"a":{"b":true}}`)
}

func TestRoundTrip(t *testing.T) {
	is, doc := parseTestDocument(t, complexDocument)

	form := Flatten(doc, "")
	restored := Unflatten(form)

	is.True(restored.Equal(doc))
	is.Equal(string(Marshal(restored)), string(Marshal(doc))) // insertion order should be kept as well

	again := Flatten(restored, "")
	is.Equal(again.Paths(), form.Paths())
	form.Each(func(path string, v Value) {
		is.True(mustGet(again, path).Equal(v))
	})
}

func TestUnflattenLaterLeafReplacesEarlierValue(t *testing.T) {
	is := is.New(t)

	form := NewForm()
	form.Set("a", NewNumber(1))
	form.Set("a.b", NewNumber(2))

	conflicts := []string{}
	var discarded Value

	result := Unflatten(form, OnConflict(func(path string, d Value) {
		conflicts = append(conflicts, path)
		discarded = d
	}))

	is.Equal(string(Marshal(result)), `{"a":{"b":2}}`)
	is.Equal(conflicts, []string{"a"})
	is.True(discarded.Equal(NewNumber(1)))
}

func TestUnflattenLaterLeafReplacesEarlierContainer(t *testing.T) {
	is := is.New(t)

	form := NewForm()
	form.Set("a.b", NewNumber(2))
	form.Set("a", NewNumber(1))

	conflicts := 0
	result := Unflatten(form, OnConflict(func(path string, d Value) {
		conflicts++
		is.Equal(path, "a")
		is.Equal(string(Marshal(d)), `{"b":2}`)
	}))

	is.Equal(string(Marshal(result)), `{"a":1}`)
	is.Equal(conflicts, 1)
}

func TestUnflattenWithoutConflictHandler(t *testing.T) {
	is := is.New(t)

	form := NewForm()
	form.Set("x", NewString("y"))
	form.Set("x.y.z", NewBool(false))

	is.Equal(string(Marshal(Unflatten(form))), `{"x":{"y":{"z":false}}}`)
}

func TestUnflattenOfEmptyFormIsAnEmptyObject(t *testing.T) {
	is := is.New(t)

	result := Unflatten(NewForm())

	is.Equal(result.Kind(), ObjectKind)
	is.Equal(string(Marshal(result)), `{}`)
}

func parseTestDocument(t *testing.T, text string) (*is.I, Value) {
	is := is.New(t)
	v, err := Parse([]byte(text))
	is.NoErr(err)
	return is, v
}

func mustGet(f *Form, path string) Value {
	v, _ := f.Get(path)
	return v
}

const complexDocument string = `{
	"name": "Heart of Wales Rover",
	"code": "HOW",
	"price": 62.5,
	"active": true,
	"discontinued": null,
	"area": {
		"region": "Wales",
		"boundaries": {
			"north": "Shrewsbury",
			"south": "Swansea"
		},
		"stations": ["SHR", "CRV", "LLO", "SWA"]
	},
	"validity": {
		"days": 8,
		"travelDays": 4,
		"notes": "Valid after 0915 on weekdays"
	},
	"railcards": [
		{"code": "SEN", "name": "Senior", "discount": 0.34},
		{"code": "16-25", "name": "16-25 Railcard", "discount": 0.34}
	],
	"emptyList": []
}`
