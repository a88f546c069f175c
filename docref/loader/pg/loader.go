// Package pg provides a Postgres-backed ReferenceLoader: each collection is
// a `<name>(doc jsonb)` table, schema-qualified when the lookup context
// names a database.
package pg

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/reference"
)

const docColumn = "doc"

// Loader implements reference.ReferenceLoader over a pgx pool.
type Loader struct {
	pool          *pgxpool.Pool
	defaultSchema string
}

func NewLoader(pool *pgxpool.Pool) *Loader {
	return &Loader{pool: pool, defaultSchema: "public"}
}

// WithDefaultSchema sets the schema used when the context names no database.
func (l *Loader) WithDefaultSchema(schema string) *Loader {
	l.defaultSchema = schema
	return l
}

func (l *Loader) FetchOne(ctx context.Context, target reference.Context, filter document.Document) (document.Document, bool, error) {
	sql, params, err := l.buildQuery(target, filter, true)
	if err != nil {
		return document.Document{}, false, err
	}

	var raw string
	err = l.pool.QueryRow(ctx, sql, params...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return document.Document{}, false, nil
	}
	if err != nil {
		return document.Document{}, false, errors.WithMessage(err, "fetch one")
	}

	doc, err := document.Parse(raw)
	if err != nil {
		return document.Document{}, false, err
	}
	return doc, true, nil
}

func (l *Loader) FetchMany(ctx context.Context, target reference.Context, filter document.Document) ([]document.Document, error) {
	sql, params, err := l.buildQuery(target, filter, false)
	if err != nil {
		return nil, err
	}

	rows, err := l.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, errors.WithMessage(err, "fetch many")
	}
	defer rows.Close()

	var docs []document.Document
	var parseErr *multierror.Error
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.WithMessage(err, "scan document")
		}
		doc, err := document.Parse(raw)
		if err != nil {
			parseErr = multierror.Append(parseErr, err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		parseErr = multierror.Append(parseErr, err)
	}
	if err := parseErr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *Loader) buildQuery(target reference.Context, filter document.Document, single bool) (string, []any, error) {
	if target.Collection().IsNothing() {
		return "", nil, errors.New("lookup context names no collection")
	}
	table := pgx.Identifier{
		target.Database().UnwrapOr(l.defaultSchema),
		target.Collection().Unwrap(),
	}.Sanitize()

	where, params, err := compileFilter(filter, docColumn)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT " + docColumn + " FROM " + table)
	if where != "" {
		b.WriteString(" WHERE " + where)
	}
	if sortSpec, ok := target.Sort(); ok {
		b.WriteString(" ORDER BY " + orderBy(sortSpec))
	}
	if single {
		b.WriteString(" LIMIT 1")
	}
	return b.String(), params, nil
}

func orderBy(spec document.Document) string {
	clauses := make([]string, 0, spec.Len())
	for _, entry := range spec.Entries() {
		direction := "ASC"
		if d, ok := entry.Value.(float64); ok && d < 0 {
			direction = "DESC"
		}
		clauses = append(clauses, docColumn+"->>'"+entry.Key+"' "+direction)
	}
	return strings.Join(clauses, ", ")
}
