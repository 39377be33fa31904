/*
 * Copyright (c) ArtechDB, Inc.
 */

package clone

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/v3/assert"

	"github.com/artechdb/pdbctl/pkg/ora"
)

// fakeConnector hands out sessions that record every statement and fail the
// ones matching failOn fragments.
type fakeConnector struct {
	stmts  []string
	failOn map[string]error
}

func (c *fakeConnector) Connect(ctx context.Context, ep ora.Endpoint) (ora.Session, error) {
	return &fakeSession{c: c}, nil
}

func (c *fakeConnector) count(fragment string) int {
	n := 0
	for _, s := range c.stmts {
		if strings.Contains(s, fragment) {
			n++
		}
	}
	return n
}

type fakeSession struct {
	c *fakeConnector
}

func (s *fakeSession) QueryRow(ctx context.Context, query string, args ...interface{}) ora.Row {
	return nil
}

func (s *fakeSession) Query(ctx context.Context, query string, args ...interface{}) (ora.Rows, error) {
	return nil, errors.New("not used")
}

func (s *fakeSession) Exec(ctx context.Context, stmt string, args ...interface{}) error {
	s.c.stmts = append(s.c.stmts, stmt)
	for fragment, err := range s.c.failOn {
		if strings.Contains(stmt, fragment) {
			return err
		}
	}
	return nil
}

func (s *fakeSession) Close() error { return nil }

func testParams(t *testing.T) Params {
	t.Helper()
	source, err := ora.NewExternalAuth("src-scan", 1521, "PRODCDB")
	assert.NilError(t, err)
	target, err := ora.NewExternalAuth("tgt-scan", 1521, "DEVCDB")
	assert.NilError(t, err)
	return Params{
		Source:    source,
		Target:    target,
		SourcePDB: "salespdb",
		TargetPDB: "SALESCLONE",
	}
}

func TestRunHappyPath(t *testing.T) {
	c := &fakeConnector{}
	e := &Executor{Connector: c}

	op, err := e.Run(context.Background(), testParams(t))
	assert.NilError(t, err)
	assert.Equal(t, op.Phase, PhaseLinkDropped)
	assert.Equal(t, op.LinkName, "CLONE_LINK_SALESPDB")
	assert.Assert(t, op.CleanupErr == nil)
	assert.Assert(t, op.ID != "")

	assert.Equal(t, len(c.stmts), 6)
	// A leftover link from an interrupted run is dropped before the create.
	assert.Assert(t, strings.Contains(c.stmts[0], "DROP PUBLIC DATABASE LINK CLONE_LINK_SALESPDB"))
	assert.Assert(t, strings.Contains(c.stmts[1], "CREATE PUBLIC DATABASE LINK CLONE_LINK_SALESPDB"))
	assert.Assert(t, strings.Contains(c.stmts[1],
		"(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=src-scan)(PORT=1521))(CONNECT_DATA=(SERVICE_NAME=PRODCDB)))"))
	assert.Assert(t, strings.Contains(c.stmts[2],
		"CREATE PLUGGABLE DATABASE SALESCLONE FROM salespdb@CLONE_LINK_SALESPDB"))
	assert.Assert(t, strings.Contains(c.stmts[2], "FILE_NAME_CONVERT = ('/salespdb/', '/SALESCLONE/')"))
	assert.Assert(t, strings.Contains(c.stmts[3], "OPEN READ WRITE"))
	assert.Assert(t, strings.Contains(c.stmts[4], "SAVE STATE"))
	assert.Assert(t, strings.Contains(c.stmts[5], "DROP PUBLIC DATABASE LINK CLONE_LINK_SALESPDB"))
}

func TestRunExplicitFileNameConvert(t *testing.T) {
	c := &fakeConnector{}
	e := &Executor{Connector: c}
	params := testParams(t)
	params.FileNameConvert = [2]string{"/u01/oradata/", "/u02/oradata/"}

	_, err := e.Run(context.Background(), params)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(c.stmts[2], "FILE_NAME_CONVERT = ('/u01/oradata/', '/u02/oradata/')"))
}

func TestRunLinkCreationFailureSkipsCleanup(t *testing.T) {
	c := &fakeConnector{failOn: map[string]error{
		"CREATE PUBLIC DATABASE LINK": errors.New("ORA-01031: insufficient privileges"),
	}}
	e := &Executor{Connector: c}

	_, err := e.Run(context.Background(), testParams(t))
	var cloneErr *Error
	assert.Assert(t, errors.As(err, &cloneErr))
	assert.Equal(t, cloneErr.Phase, PhaseLinkCreated)
	// No link was created, so the failed create is the last statement; the
	// only drop is the leftover-link one before it.
	assert.Equal(t, c.count("DROP PUBLIC DATABASE LINK"), 1)
	assert.Assert(t, strings.Contains(c.stmts[len(c.stmts)-1], "CREATE PUBLIC DATABASE LINK"))
}

func TestRunStaleLinkDropFailureDoesNotAbort(t *testing.T) {
	dropErr := errors.New("ORA-02024: database link not found")
	c := &fakeConnector{failOn: map[string]error{
		"DROP PUBLIC DATABASE LINK": dropErr,
	}}
	e := &Executor{Connector: c}

	op, err := e.Run(context.Background(), testParams(t))
	assert.NilError(t, err)
	assert.Equal(t, op.Phase, PhaseLinkDropped)
	assert.Equal(t, c.count("CREATE PUBLIC DATABASE LINK"), 1)
	assert.Equal(t, c.count("CREATE PLUGGABLE DATABASE"), 1)
}

func TestRunDropsLinkExactlyOncePerPostLinkFailure(t *testing.T) {
	failures := map[string]Phase{
		"CREATE PLUGGABLE DATABASE": PhaseCloning,
		"OPEN READ WRITE":           PhaseOpened,
		"SAVE STATE":                PhaseStateSaved,
	}
	for fragment, phase := range failures {
		t.Run(fragment, func(t *testing.T) {
			cause := errors.New("ORA-65169: error encountered while attempting to copy file")
			c := &fakeConnector{failOn: map[string]error{fragment: cause}}
			e := &Executor{Connector: c}

			_, err := e.Run(context.Background(), testParams(t))
			var cloneErr *Error
			assert.Assert(t, errors.As(err, &cloneErr))
			assert.Equal(t, cloneErr.Phase, phase)
			assert.Equal(t, errors.Cause(cloneErr.Err), cause)
			assert.Assert(t, cloneErr.CleanupErr == nil)
			// One drop before the create plus exactly one cleanup drop.
			assert.Equal(t, c.count("DROP PUBLIC DATABASE LINK"), 2)
			assert.Assert(t, strings.Contains(c.stmts[len(c.stmts)-1], "DROP PUBLIC DATABASE LINK"))
		})
	}
}

func TestRunCleanupFailureNeverMasksOriginalCause(t *testing.T) {
	cause := errors.New("ORA-65169: copy failed")
	dropErr := errors.New("ORA-02024: database link not found")
	c := &fakeConnector{failOn: map[string]error{
		"CREATE PLUGGABLE DATABASE": cause,
		"DROP PUBLIC DATABASE LINK": dropErr,
	}}
	e := &Executor{Connector: c}

	_, err := e.Run(context.Background(), testParams(t))
	var cloneErr *Error
	assert.Assert(t, errors.As(err, &cloneErr))
	assert.Equal(t, errors.Cause(cloneErr.Err), cause)
	assert.Equal(t, cloneErr.CleanupErr, dropErr)
	assert.ErrorContains(t, err, "ORA-65169")
	assert.ErrorContains(t, err, "additionally, dropping link CLONE_LINK_SALESPDB failed")
	// Unwrap surfaces the original cause, not the cleanup failure.
	assert.Equal(t, errors.Unwrap(err), cloneErr.Err)
}

func TestRunSuccessWithCleanupFailure(t *testing.T) {
	dropErr := errors.New("ORA-02024: database link not found")
	c := &fakeConnector{failOn: map[string]error{
		"DROP PUBLIC DATABASE LINK": dropErr,
	}}
	e := &Executor{Connector: c}

	op, err := e.Run(context.Background(), testParams(t))
	assert.NilError(t, err)
	assert.Equal(t, op.CleanupErr, dropErr)
}
