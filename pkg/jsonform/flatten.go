package jsonform

import (
	"strings"

	"github.com/railstats/admin-console/pkg/errors"
)

const PathSeparator = "."

// ConflictFunc is told about structure that Unflatten discards when two
// paths disagree on whether a segment is a leaf or a container.
type ConflictFunc func(path string, discarded Value)

// DottedKeyFunc is told about object members whose key contains the path
// separator. Their paths read like nested members, so Unflatten nests them.
type DottedKeyFunc func(path, key string)

type options struct {
	keepEmptyObjects bool
	onConflict       ConflictFunc
	onDottedKey      DottedKeyFunc
}

type Option func(*options)

// KeepEmptyObjects makes Flatten store an empty object leaf for every
// empty nested object instead of dropping it, so that Unflatten can
// restore it.
func KeepEmptyObjects() Option {
	return func(o *options) {
		o.keepEmptyObjects = true
	}
}

func OnConflict(fn ConflictFunc) Option {
	return func(o *options) {
		o.onConflict = fn
	}
}

func OnDottedKey(fn DottedKeyFunc) Option {
	return func(o *options) {
		o.onDottedKey = fn
	}
}

func collect(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Flatten walks v depth first and returns every leaf keyed by its dotted
// path below prefix. Arrays are leaves and are never decomposed. Empty
// objects produce no entries unless KeepEmptyObjects is given.
func Flatten(v Value, prefix string, opts ...Option) *Form {
	o := collect(opts)
	form := NewForm()
	flatten(v, prefix, form, o)
	return form
}

func flatten(v Value, prefix string, form *Form, o options) {
	if v.kind != ObjectKind {
		form.Set(prefix, v)
		return
	}

	if v.o.Len() == 0 {
		if o.keepEmptyObjects && prefix != "" {
			form.Set(prefix, NewObject())
		}
		return
	}

	v.o.Each(func(key string, member Value) {
		childPath := key
		if prefix != "" {
			childPath = prefix + PathSeparator + key
		}
		if o.onDottedKey != nil && strings.Contains(key, PathSeparator) {
			o.onDottedKey(childPath, key)
		}
		flatten(member, childPath, form, o)
	})
}

// FlattenDocument flattens a document that is about to be edited. Only
// objects are accepted at the top level.
func FlattenDocument(v Value, opts ...Option) (*Form, error) {
	if v.kind != ObjectKind {
		return nil, errors.NewInvalidDocumentError("a document must be a JSON object, got " + v.kind.String())
	}
	return Flatten(v, "", opts...), nil
}

// Unflatten rebuilds a nested object from a form. Entries are applied in
// form order and the later of two conflicting entries wins.
func Unflatten(form *Form, opts ...Option) Value {
	o := collect(opts)
	root := &Object{}

	form.Each(func(path string, leaf Value) {
		segments := strings.Split(path, PathSeparator)
		current := root

		for i, segment := range segments[:len(segments)-1] {
			existing, found := current.Get(segment)
			if found && existing.kind == ObjectKind {
				current = existing.o
				continue
			}

			if found && o.onConflict != nil {
				o.onConflict(strings.Join(segments[:i+1], PathSeparator), existing)
			}

			child := &Object{}
			current.Set(segment, objectValue(child))
			current = child
		}

		last := segments[len(segments)-1]
		if existing, found := current.Get(last); found && existing.kind == ObjectKind && o.onConflict != nil {
			o.onConflict(path, existing)
		}

		if leaf.kind == ObjectKind {
			// later paths may descend into this object, keep the form's copy intact
			leaf = cloneObject(leaf)
		}

		current.Set(last, leaf)
	})

	return objectValue(root)
}

func cloneObject(v Value) Value {
	c := &Object{}
	v.o.Each(func(key string, member Value) {
		if member.kind == ObjectKind {
			member = cloneObject(member)
		}
		c.Set(key, member)
	})
	return objectValue(c)
}
