/*
 * Copyright (c) ArtechDB, Inc.
 */

package pdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/artechdb/pdbctl/pkg/ora"
)

// fakeSession scripts query results by statement fragment and routes Exec
// calls to a handler. Statements with no scripted fragment yield zero rows.
type fakeSession struct {
	results map[string][][]interface{}
	errs    map[string]error
	execFn  func(stmt string, args ...interface{}) error
}

func (f *fakeSession) QueryRow(ctx context.Context, query string, args ...interface{}) ora.Row {
	rows, err := f.Query(ctx, query, args...)
	if err != nil {
		return errRow{err}
	}
	return firstRow{rows}
}

func (f *fakeSession) Query(ctx context.Context, query string, args ...interface{}) (ora.Rows, error) {
	for fragment, err := range f.errs {
		if strings.Contains(query, fragment) {
			return nil, err
		}
	}
	for fragment, rows := range f.results {
		if strings.Contains(query, fragment) {
			return &fakeRows{rows: rows}, nil
		}
	}
	return &fakeRows{}, nil
}

func (f *fakeSession) Exec(ctx context.Context, stmt string, args ...interface{}) error {
	if f.execFn == nil {
		return nil
	}
	return f.execFn(stmt, args...)
}

func (f *fakeSession) Close() error { return nil }

type errRow struct{ err error }

func (r errRow) Scan(dest ...interface{}) error { return r.err }

type firstRow struct{ rows ora.Rows }

func (r firstRow) Scan(dest ...interface{}) error {
	defer r.rows.Close()
	if !r.rows.Next() {
		return sql.ErrNoRows
	}
	return r.rows.Scan(dest...)
}

type fakeRows struct {
	rows [][]interface{}
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: want %d columns, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int:
			*p = row[i].(int)
		case *int64:
			*p = row[i].(int64)
		case *float64:
			*p = row[i].(float64)
		case **int64:
			if row[i] == nil {
				*p = nil
			} else {
				v := row[i].(int64)
				*p = &v
			}
		case *sql.NullString:
			if row[i] == nil {
				*p = sql.NullString{}
			} else {
				*p = sql.NullString{String: row[i].(string), Valid: true}
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

// outBindFor digs a named bind's out-parameter wrapper out of exec args.
func outBindFor(args []interface{}, name string) interface{} {
	for _, a := range args {
		if named, ok := a.(ora.NamedArg); ok && named.Name == name {
			return named.Value
		}
	}
	return nil
}
