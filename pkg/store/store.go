// Package store records monitor records into a SQL table laid out like the
// recorder that ships with the firmware: one row per processed line.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/itohio/fenceline/pkg/fence"
)

const (
	// DefaultTable is the table the recorder writes to.
	DefaultTable = "data"
	// DefaultDriver is the database/sql driver name reported by Name.
	DefaultDriver = "sqlite"
)

// Store writes records to table. Columns digi_X and raw_X exist for every
// configured line.
type Store struct {
	db        *sql.DB
	driver    string
	tableName string
	lines     []fence.LineID

	insert string
}

// Option configures a Store.
type Option func(*Store)

// WithDriver names the database/sql driver db was opened with.
func WithDriver(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.driver = name
		}
	}
}

// New creates a store for the given lines. An empty table selects
// DefaultTable.
func New(db *sql.DB, table string, lines []fence.LineID, opts ...Option) *Store {
	if table == "" {
		table = DefaultTable
	}
	s := &Store{db: db, driver: DefaultDriver, tableName: table, lines: lines}
	for _, opt := range opts {
		opt(s)
	}
	s.insert = s.insertQuery()
	return s
}

// Name returns the driver name.
func (s *Store) Name() string { return s.driver }

// Init creates the table when it does not exist.
func (s *Store) Init(ctx context.Context) error {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(s.tableName)
	b.WriteString(" (id INTEGER PRIMARY KEY AUTOINCREMENT, loopcount INTEGER, active_line VARCHAR(1)")
	for _, id := range s.lines {
		fmt.Fprintf(&b, ", digi_%s INTEGER", id)
	}
	for _, id := range s.lines {
		fmt.Fprintf(&b, ", raw_%s INTEGER", id)
	}
	b.WriteString(", vout REAL, resistance REAL, short_circuit INTEGER)")

	if _, err := s.db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("create table %s: %w", s.tableName, err)
	}
	return nil
}

func (s *Store) insertQuery() string {
	cols := []string{"loopcount", "active_line"}
	for _, id := range s.lines {
		cols = append(cols, "digi_"+id.String())
	}
	for _, id := range s.lines {
		cols = append(cols, "raw_"+id.String())
	}
	cols = append(cols, "vout", "resistance", "short_circuit")

	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.tableName, strings.Join(cols, ", "), marks)
}

// Insert writes one record. Lines missing from the record are stored as
// NULL.
func (s *Store) Insert(ctx context.Context, rec fence.Record) error {
	args := make([]any, 0, 5+2*len(s.lines))
	args = append(args, int64(rec.Loop), rec.Line.String())
	for _, id := range s.lines {
		if smp, ok := rec.Sample(id); ok {
			args = append(args, boolInt(smp.Digital))
		} else {
			args = append(args, nil)
		}
	}
	for _, id := range s.lines {
		if smp, ok := rec.Sample(id); ok {
			args = append(args, int64(smp.Raw))
		} else {
			args = append(args, nil)
		}
	}
	args = append(args, float64(rec.Vout), float64(rec.Resistance), int64(rec.Short))

	if _, err := s.db.ExecContext(ctx, s.insert, args...); err != nil {
		return fmt.Errorf("insert loop %d line %s: %w", rec.Loop, rec.Line, err)
	}
	return nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
