package jsonform

import (
	"bytes"
)

// Form is a single level mapping from dotted paths to leaf values. Paths
// are kept in the order they were first set.
type Form struct {
	paths  []string
	values map[string]Value
}

func NewForm() *Form {
	return &Form{
		paths:  []string{},
		values: map[string]Value{},
	}
}

func (f *Form) Len() int {
	return len(f.paths)
}

func (f *Form) Has(path string) bool {
	_, ok := f.values[path]
	return ok
}

func (f *Form) Get(path string) (Value, bool) {
	v, ok := f.values[path]
	return v, ok
}

// Set stores v at path. A new path is appended after all existing paths.
func (f *Form) Set(path string, v Value) {
	if _, exists := f.values[path]; !exists {
		f.paths = append(f.paths, path)
	}
	f.values[path] = v
}

func (f *Form) Paths() []string {
	paths := make([]string, len(f.paths))
	copy(paths, f.paths)
	return paths
}

func (f *Form) Each(fn func(path string, v Value)) {
	for _, p := range f.paths {
		fn(p, f.values[p])
	}
}

func (f *Form) Clone() *Form {
	c := NewForm()
	f.Each(c.Set)
	return c
}

func (f *Form) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, p := range f.paths {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, p)
		buf.WriteByte(':')
		writeValue(buf, f.values[p])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
