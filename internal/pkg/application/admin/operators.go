package admin

import (
	"context"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/railstats/admin-console/internal/pkg/application/events"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/documents"
	"github.com/railstats/admin-console/pkg/railref"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func (a *app) ListOperators(ctx context.Context, startAfter string, limit int) (*Page[OperatorRecord], error) {
	var err error

	ctx, span := tracer.Start(ctx, "list-operators")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	limit = a.cfg.pageSize(limit)

	docs, err := a.docs.Query(ctx, a.cfg.Collections.Operators, documents.Query{
		OrderBy:    "name",
		StartAfter: startAfter,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	operators, err := toOperators(docs)
	if err != nil {
		return nil, err
	}

	page := &Page[OperatorRecord]{Items: operators}
	if len(operators) == limit {
		page.Next = operators[len(operators)-1].ID
	}

	return page, nil
}

func (a *app) GetOperator(ctx context.Context, id string) (*OperatorRecord, error) {
	var err error

	ctx, span := tracer.Start(ctx, "get-operator", trace.WithAttributes(attribute.String("operator-id", id)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	doc, err := a.docs.Get(ctx, a.cfg.Collections.Operators, id)
	if err != nil {
		return nil, err
	}

	return toOperator(doc)
}

func (a *app) AddOperator(ctx context.Context, op railref.Operator) (*OperatorRecord, error) {
	var err error

	ctx, span := tracer.Start(ctx, "add-operator")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	op, err = op.Normalized()
	if err != nil {
		return nil, err
	}

	op.UpdatedAt = railref.Timestamp(a.now())

	data, err := documents.Encode(op)
	if err != nil {
		return nil, err
	}

	id, err := a.docs.Add(ctx, a.cfg.Collections.Operators, data)
	if err != nil {
		return nil, err
	}

	record := &OperatorRecord{ID: id, Operator: op}
	a.notifyCreated(ctx, events.RecordOperator, id, record)

	return record, nil
}

// UpdateOperator replaces the editable fields of an operator. An empty
// colour clears the stored colour.
func (a *app) UpdateOperator(ctx context.Context, id string, op railref.Operator) (*OperatorRecord, error) {
	var err error

	ctx, span := tracer.Start(ctx, "update-operator", trace.WithAttributes(attribute.String("operator-id", id)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	op, err = op.Normalized()
	if err != nil {
		return nil, err
	}

	op.UpdatedAt = railref.Timestamp(a.now())

	err = a.docs.Update(ctx, a.cfg.Collections.Operators, id, map[string]any{
		"name":           op.Name,
		"operatortype":   op.OperatorType,
		"operatorregion": op.OperatorRegion,
		"colorHex":       op.ColorHex,
		"updatedAt":      op.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}

	updated, err := a.docs.Get(ctx, a.cfg.Collections.Operators, id)
	if err != nil {
		return nil, err
	}

	record, err := toOperator(updated)
	if err != nil {
		return nil, err
	}

	a.notifyUpdated(ctx, events.RecordOperator, id, record)

	return record, nil
}

func (a *app) DeleteOperator(ctx context.Context, id string) error {
	var err error

	ctx, span := tracer.Start(ctx, "delete-operator", trace.WithAttributes(attribute.String("operator-id", id)))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = a.docs.Delete(ctx, a.cfg.Collections.Operators, id)
	if err != nil {
		return err
	}

	a.notifyDeleted(ctx, events.RecordOperator, id)

	return nil
}

func toOperator(d documents.Document) (*OperatorRecord, error) {
	record := &OperatorRecord{ID: d.ID}
	if err := documents.Decode(d, &record.Operator); err != nil {
		return nil, err
	}
	return record, nil
}

func toOperators(docs []documents.Document) ([]OperatorRecord, error) {
	operators := make([]OperatorRecord, 0, len(docs))
	for _, d := range docs {
		o, err := toOperator(d)
		if err != nil {
			return nil, err
		}
		operators = append(operators, *o)
	}
	return operators, nil
}
