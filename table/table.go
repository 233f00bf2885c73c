// Package table is a minimal SQL table gateway that runs cloak hooks at every
// lifecycle point: input is ingested, saves encrypt and restore, and reads
// decrypt lazily.
package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zoobzio/cloak"
)

// ErrNotFound is returned by Get when no row matches the primary key.
var ErrNotFound = errors.New("record not found")

// Table reads and writes one SQL table through cloak hooks.
// A Table is safe for concurrent use; entities are not.
type Table struct {
	db         *sql.DB
	name       string
	primaryKey string
	columns    []string
	hooks      *cloak.Hooks
	builder    sq.StatementBuilderType
}

// Option configures a Table.
type Option func(*Table)

// WithPrimaryKey sets the primary key column. Defaults to "id".
func WithPrimaryKey(column string) Option {
	return func(t *Table) {
		t.primaryKey = column
	}
}

// New returns a gateway for table name with the given columns.
// Placeholders follow the hooks' driver: $n for postgres, ? otherwise.
func New(db *sql.DB, name string, columns []string, hooks *cloak.Hooks, opts ...Option) *Table {
	t := &Table{
		db:         db,
		name:       name,
		primaryKey: "id",
		columns:    slices.Clone(columns),
		hooks:      hooks,
	}
	for _, opt := range opts {
		opt(t)
	}

	format := sq.Question
	if hooks.Config().Driver() == cloak.DriverPostgres {
		format = sq.Dollar
	}
	t.builder = sq.StatementBuilder.PlaceholderFormat(format)

	return t
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// NewEntity ingests data and returns a new, unsaved entity.
// data is not modified.
func (t *Table) NewEntity(ctx context.Context, data map[string]any) (*cloak.Entity, error) {
	values := make(map[string]any, len(data))
	for k, v := range data {
		values[k] = v
	}
	if err := t.hooks.Ingest(ctx, values); err != nil {
		return nil, err
	}
	return cloak.NewEntity(values), nil
}

// Patch ingests data and assigns it to e.
func (t *Table) Patch(ctx context.Context, e *cloak.Entity, data map[string]any) error {
	values := make(map[string]any, len(data))
	for k, v := range data {
		values[k] = v
	}
	if err := t.hooks.Ingest(ctx, values); err != nil {
		return err
	}
	for k, v := range values {
		e.Set(k, v)
	}
	return nil
}

// Save inserts a new entity or updates the dirty columns of a persisted one.
// A new entity without a primary key gets a random UUID.
//
// On success e holds plaintext, is clean and is no longer new. On failure e
// holds plaintext and keeps its change tracking.
func (t *Table) Save(ctx context.Context, e *cloak.Entity) error {
	log := zerolog.Ctx(ctx)

	insert := e.IsNew()
	if insert && !e.Has(t.primaryKey) {
		e.Set(t.primaryKey, uuid.NewString())
	}

	// Encryption marks every encrypted field dirty; only real changes are
	// written.
	dirty := e.Dirty()

	err := t.hooks.Save(ctx, e, func(ctx context.Context, _ cloak.Record) error {
		if insert {
			return t.insert(ctx, e)
		}
		return t.update(ctx, e, dirty)
	})
	if err != nil {
		log.Err(err).Str("func", "*Table.Save").Str("table", t.name).Msg("save failed")
		return err
	}

	e.SetNew(false)
	log.Debug().Str("func", "*Table.Save").Str("table", t.name).Bool("insert", insert).Msg("entity saved")
	return nil
}

func (t *Table) insert(ctx context.Context, e *cloak.Entity) error {
	cols := t.present(e)
	values := make([]any, len(cols))
	for i, c := range cols {
		values[i] = e.Get(c)
	}

	query, args, err := t.builder.Insert(t.name).Columns(cols...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", t.name, err)
	}
	return nil
}

func (t *Table) update(ctx context.Context, e *cloak.Entity, dirty []string) error {
	stmt := t.builder.Update(t.name).Where(sq.Eq{t.primaryKey: e.Get(t.primaryKey)})

	n := 0
	for _, c := range dirty {
		if c == t.primaryKey || !slices.Contains(t.columns, c) {
			continue
		}
		stmt = stmt.Set(c, e.Get(c))
		n++
	}
	if n == 0 {
		return nil
	}

	query, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	return nil
}

// Get loads and decrypts the row with primary key id.
func (t *Table) Get(ctx context.Context, id any) (*cloak.Entity, error) {
	e, err := t.raw(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.hooks.Load(ctx, e); err != nil {
		zerolog.Ctx(ctx).Err(err).Str("func", "*Table.Get").Str("table", t.name).Msg("decrypt failed")
		return nil, err
	}
	return e, nil
}

// Raw returns the stored column values of the row with primary key id,
// without decrypting them.
func (t *Table) Raw(ctx context.Context, id any) (map[string]any, error) {
	e, err := t.raw(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.ToMap(), nil
}

func (t *Table) raw(ctx context.Context, id any) (*cloak.Entity, error) {
	query, args, err := t.builder.Select(t.columns...).From(t.name).Where(sq.Eq{t.primaryKey: id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", t.name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("select from %s: %w", t.name, err)
		}
		return nil, ErrNotFound
	}
	return scan(rows)
}

// Find returns the rows matching pred, decrypted lazily as they are pulled.
// pred is anything squirrel accepts in a WHERE clause; nil selects every row.
// A row that fails to decrypt is yielded with its error and the iteration
// continues; a query or scan error ends it.
func (t *Table) Find(ctx context.Context, pred any, args ...any) iter.Seq2[*cloak.Entity, error] {
	return func(yield func(*cloak.Entity, error) bool) {
		log := zerolog.Ctx(ctx)

		stmt := t.builder.Select(t.columns...).From(t.name)
		if pred != nil {
			stmt = stmt.Where(pred, args...)
		}
		query, qargs, err := stmt.ToSql()
		if err != nil {
			yield(nil, fmt.Errorf("build select: %w", err))
			return
		}

		rows, err := t.db.QueryContext(ctx, query, qargs...)
		if err != nil {
			log.Err(err).Str("func", "*Table.Find").Str("table", t.name).Msg("query failed")
			yield(nil, fmt.Errorf("select from %s: %w", t.name, err))
			return
		}
		defer rows.Close()

		var rowErr error
		records := func(next func(cloak.Record) bool) {
			for rows.Next() {
				e, err := scan(rows)
				if err != nil {
					rowErr = err
					return
				}
				if !next(e) {
					return
				}
			}
			rowErr = rows.Err()
		}

		for rec, err := range t.hooks.BeforeRead(ctx, records) {
			if err != nil {
				log.Err(err).Str("func", "*Table.Find").Str("table", t.name).Msg("decrypt failed")
			}
			if !yield(rec.(*cloak.Entity), err) {
				return
			}
		}

		if rowErr != nil {
			yield(nil, fmt.Errorf("select from %s: %w", t.name, rowErr))
		}
	}
}

// present returns the table columns e holds a value for.
func (t *Table) present(e *cloak.Entity) []string {
	out := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if e.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// scan reads the current row into a persisted, clean entity.
func scan(rows *sql.Rows) (*cloak.Entity, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	data := make(map[string]any, len(cols))
	for i, c := range cols {
		data[c] = values[i]
	}

	e := cloak.NewEntity(data)
	e.SetNew(false)
	e.Clean()
	return e, nil
}
