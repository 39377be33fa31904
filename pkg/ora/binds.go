/*
 * Copyright (c) ArtechDB, Inc.
 */

package ora

import go_ora "github.com/sijms/go-ora/v2"

// PL/SQL describe documents run to a few hundred KB; leave headroom.
const clobOutSize = 4 * 1024 * 1024

// Clob marks a string argument to be bound as a CLOB input.
type Clob string

// ClobOut is a CLOB output bind. After a successful Exec its content is
// available through String.
type ClobOut struct {
	clob go_ora.Clob
}

// NewClobOut returns an empty CLOB output bind.
func NewClobOut() *ClobOut {
	return &ClobOut{}
}

// String returns the CLOB content written by the server, or "" if none.
func (c *ClobOut) String() string {
	if !c.clob.Valid {
		return ""
	}
	return c.clob.String
}

// SetString overwrites the CLOB content. Intended for fake sessions in tests.
func (c *ClobOut) SetString(s string) {
	c.clob = go_ora.Clob{String: s, Valid: true}
}

// StringOut is a VARCHAR2 output bind.
type StringOut struct {
	value string
	size  int
}

// NewStringOut returns a VARCHAR2 output bind sized for the expected value.
func NewStringOut(size int) *StringOut {
	return &StringOut{size: size}
}

// String returns the value written by the server.
func (s *StringOut) String() string {
	return s.value
}

// SetString overwrites the value. Intended for fake sessions in tests.
func (s *StringOut) SetString(v string) {
	s.value = v
}

// NamedArg binds Value under Name rather than by position.
type NamedArg struct {
	Name  string
	Value interface{}
}

// Named returns a named bind argument.
func Named(name string, value interface{}) NamedArg {
	return NamedArg{Name: name, Value: value}
}
