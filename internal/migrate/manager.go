// Package migrate applies idempotent SQL seed files on top of the goose schema.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const defaultSeedsTable = "schema_seeds"

// Seeder executes every *.sql file in a filesystem once, in lexical order,
// recording applied files in a bookkeeping table.
type Seeder struct {
	db    *sql.DB
	files fs.FS
	table string
	now   func() time.Time
}

func NewSeeder(db *sql.DB, files fs.FS) *Seeder {
	return &Seeder{
		db:    db,
		files: files,
		table: defaultSeedsTable,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Seed applies pending seed files and returns their names.
func (s *Seeder) Seed(ctx context.Context) ([]string, error) {
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	executed, err := s.executed(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.pending(executed)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := s.apply(ctx, name); err != nil {
			return nil, fmt.Errorf("apply seed %s: %w", name, err)
		}
	}
	return names, nil
}

// Applied returns the names of seeds already executed, oldest first.
func (s *Seeder) Applied(ctx context.Context) ([]string, error) {
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`select name from %s order by applied_at asc, name asc`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

func (s *Seeder) ensureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		create table if not exists %s (
			name text primary key,
			applied_at timestamptz not null default now()
		)`, s.table))
	return err
}

func (s *Seeder) executed(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`select name from %s`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result[name] = true
	}
	return result, rows.Err()
}

func (s *Seeder) pending(executed map[string]bool) ([]string, error) {
	if s.files == nil {
		return nil, nil
	}
	matches, err := fs.Glob(s.files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	var out []string
	for _, m := range matches {
		if !executed[path.Base(m)] {
			out = append(out, m)
		}
	}
	return out, nil
}

// apply runs one seed and its bookkeeping row in a single transaction.
func (s *Seeder) apply(ctx context.Context, name string) error {
	body, err := fs.ReadFile(s.files, name)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(body)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, s.table),
		path.Base(name), s.now()); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements splits SQL on semicolons outside single-quoted strings and
// drops "--" line comments and empty statements.
func splitStatements(sql string) []string {
	var (
		stmts    []string
		current  strings.Builder
		inString bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}
	for _, line := range strings.Split(sql, "\n") {
		if !inString && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, r := range line {
			switch {
			case r == '\'':
				inString = !inString
				current.WriteRune(r)
			case r == ';' && !inString:
				flush()
			default:
				current.WriteRune(r)
			}
		}
		current.WriteByte('\n')
	}
	flush()
	return stmts
}
