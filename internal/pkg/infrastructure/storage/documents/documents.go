package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a single record of a collection. Data holds the decoded
// JSON fields of the record, the id is not part of it.
type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// Filter is an equality condition on a top level field
type Filter struct {
	Field string
	Value any
}

type Query struct {
	Where      []Filter
	OrderBy    string
	Descending bool
	// StartAfter is the id of the last document of the previous page
	StartAfter string
	Limit      int
}

type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges data into the existing document, keys mapped to nil are set to null
	Update(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Count(ctx context.Context, collection string) (int, error)
}

// Where is a small helper to build a query with a single equality filter
func Where(field string, value any) Query {
	return Query{Where: []Filter{{Field: field, Value: value}}}
}

// Decode converts the data of a document into a typed record using its
// JSON field names.
func Decode[T any](d Document, into *T) error {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", d.ID, err)
	}

	err = json.Unmarshal(b, into)
	if err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", d.ID, err)
	}

	return nil
}

// Encode converts a typed record into document data
func Encode(record any) (map[string]any, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	data := map[string]any{}
	err = json.Unmarshal(b, &data)

	return data, err
}

func validCollection(collection string) bool {
	return collection != "" && !strings.ContainsAny(collection, "/ ")
}
