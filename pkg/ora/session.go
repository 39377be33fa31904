/*
 * Copyright (c) ArtechDB, Inc.
 */

package ora

import (
	"context"
	"database/sql"

	go_ora "github.com/sijms/go-ora/v2"
)

// Row is the single-row scanning surface of a session.
type Row interface {
	Scan(dest ...interface{}) error
}

// Rows is the multi-row scanning surface of a session.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// Session is an open connection to one database service. Implementations
// must be safe to Close more than once.
type Session interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, stmt string, args ...interface{}) error
	Close() error
}

// Connector yields sessions for endpoints. The production implementation
// dials the database; tests substitute in-memory fakes.
type Connector interface {
	Connect(ctx context.Context, ep Endpoint) (Session, error)
}

// DefaultConnector opens database/sql sessions over the go-ora driver.
type DefaultConnector struct{}

// Connect establishes and pings a session. Any failure is wrapped as a
// *ConnError carrying the endpoint's display string.
func (DefaultConnector) Connect(ctx context.Context, ep Endpoint) (Session, error) {
	opts := map[string]string{}
	if ep.Mode == AuthExternal {
		opts["AUTH TYPE"] = "OS"
	}
	url := go_ora.BuildUrl(ep.Host, ep.Port, ep.Service, ep.Username, ep.Password, opts)
	db, err := sql.Open("oracle", url)
	if err != nil {
		return nil, &ConnError{Endpoint: ep.String(), Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnError{Endpoint: ep.String(), Err: err}
	}
	return &sqlSession{db: db}, nil
}

type sqlSession struct {
	db *sql.DB
}

func (s *sqlSession) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	return s.db.QueryRowContext(ctx, query, driverArgs(args)...)
}

func (s *sqlSession) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return s.db.QueryContext(ctx, query, driverArgs(args)...)
}

func (s *sqlSession) Exec(ctx context.Context, stmt string, args ...interface{}) error {
	_, err := s.db.ExecContext(ctx, stmt, driverArgs(args)...)
	return err
}

func (s *sqlSession) Close() error {
	return s.db.Close()
}

// driverArgs lowers the portable bind wrappers defined in binds.go into
// go-ora bind values. Plain values pass through untouched.
func driverArgs(args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args))
	for _, a := range args {
		out = append(out, driverArg(a))
	}
	return out
}

func driverArg(a interface{}) interface{} {
	switch v := a.(type) {
	case *ClobOut:
		return go_ora.Out{Dest: &v.clob, Size: clobOutSize}
	case *StringOut:
		return go_ora.Out{Dest: &v.value, Size: v.size}
	case Clob:
		return go_ora.Clob{String: string(v), Valid: true}
	case NamedArg:
		return sql.Named(v.Name, driverArg(v.Value))
	default:
		return a
	}
}
