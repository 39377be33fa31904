/*
 * Copyright (c) ArtechDB, Inc.
 */

package precheck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/validation"
)

// fakeConnector routes sessions by the endpoint's service name. PDB-scoped
// reads land on the PDB's own service; an unscripted service fails to
// connect, which is how the tests simulate unreachable PDB services.
type fakeConnector struct {
	sessions map[string]*fakeSession
}

func (c *fakeConnector) Connect(ctx context.Context, ep ora.Endpoint) (ora.Session, error) {
	s, ok := c.sessions[ep.Service]
	if !ok {
		return nil, &ora.ConnError{Endpoint: ep.String(), Err: fmt.Errorf("no listener")}
	}
	return s, nil
}

// fakeSession scripts query results by a statement fragment unique to each
// catalog query. Unscripted statements yield zero rows, which the scalar
// helpers turn into their defaults.
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
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int:
			*p = row[i].(int)
		case **int64:
			v := row[i].(int64)
			*p = &v
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

var allCheckNames = []string{
	CheckVersion, CheckCharset, CheckRegistry, CheckSourceOpen,
	CheckTargetExists, CheckTDE, CheckUndoMode, CheckMaxStringSize,
	CheckTimezone, CheckStorageQuota, CheckPlugCompat,
}

func named(args []interface{}, name string) interface{} {
	for _, a := range args {
		if n, ok := a.(ora.NamedArg); ok && n.Name == name {
			return n.Value
		}
	}
	return nil
}

// sourceCDBResults scripts a healthy source container.
func sourceCDBResults(sizeBytes int64) map[string][][]interface{} {
	return map[string][][]interface{}{
		"version_full":      {{"19.21.0.0.0"}},
		"NLS_CHARACTERSET":  {{"AL32UTF8"}},
		"dba_registry":      {{"Oracle Database Catalog Views", "VALID"}},
		"open_mode":         {{"READ WRITE"}},
		"SUM(bytes)":        {{sizeBytes}},
		"gv$instance":       {{1, "PROD1", "prod-host-01"}},
		"encryption_wallet": {{"FILE"}},
		"LOCAL_UNDO_ENABLED": {
			{"TRUE"},
		},
		"max_string_size": {{"STANDARD"}},
		"DBTIMEZONE":      {{"+00:00"}},
		"all_arguments": {
			{"PDB_DESCR_XML", 1, "CLOB", "OUT", "1"},
			{"PDB_NAME", 2, "VARCHAR2", "IN", "1"},
		},
	}
}

// targetCDBResults scripts a healthy target container with no pre-existing
// target PDB.
func targetCDBResults() map[string][][]interface{} {
	return map[string][][]interface{}{
		"version_full":      {{"19.21.0.0.0"}},
		"NLS_CHARACTERSET":  {{"AL32UTF8"}},
		"dba_registry":      {{"Oracle Database Catalog Views", "VALID"}},
		"gv$instance":       {{1, "DEV1", "dev-host-01"}},
		"encryption_wallet": {{"FILE"}},
		"LOCAL_UNDO_ENABLED": {
			{"TRUE"},
		},
		"max_string_size": {{"STANDARD"}},
		"DBTIMEZONE":      {{"+00:00"}},
	}
}

func describeExec(doc string) func(stmt string, args ...interface{}) error {
	return func(stmt string, args ...interface{}) error {
		if strings.Contains(stmt, "DBMS_PDB.DESCRIBE") {
			named(args, "xml_output").(*ora.ClobOut).SetString(doc)
		}
		return nil
	}
}

func verdictExec(verdict string) func(stmt string, args ...interface{}) error {
	return func(stmt string, args ...interface{}) error {
		if strings.Contains(stmt, "CHECK_PLUG_COMPATIBILITY") {
			named(args, "result").(*ora.StringOut).SetString(verdict)
		}
		return nil
	}
}

func testPipeline(connector ora.Connector) (*Pipeline, Params) {
	source, _ := ora.NewExternalAuth("src-scan", 1521, "PRODCDB")
	target, _ := ora.NewExternalAuth("tgt-scan", 1521, "DEVCDB")
	return &Pipeline{Connector: connector}, Params{
		Source:    source,
		Target:    target,
		SourcePDB: "salespdb",
		TargetPDB: "salesclone",
	}
}

func TestPipelineReportShape(t *testing.T) {
	connector := &fakeConnector{sessions: map[string]*fakeSession{
		"PRODCDB": {
			results: sourceCDBResults(10 << 30),
			execFn:  describeExec("<pdb/>"),
		},
		"DEVCDB": {
			results: targetCDBResults(),
			execFn:  verdictExec("TRUE"),
		},
		"salespdb": {results: map[string][][]interface{}{
			"MAX_PDB_STORAGE": {{"UNLIMITED"}},
		}},
	}}
	p, params := testPipeline(connector)

	result := p.Run(context.Background(), params)

	assert.Equal(t, len(result.Report.Checks), len(allCheckNames))
	for i, chk := range result.Report.Checks {
		assert.Equal(t, chk.Name, allCheckNames[i])
		switch chk.Status {
		case validation.StatusPass, validation.StatusFailed, validation.StatusSkipped:
		default:
			t.Fatalf("check %q has invalid status %q", chk.Name, chk.Status)
		}
	}
	assert.Equal(t, result.Report.Overall(), validation.StatusPass)
	assert.Equal(t, result.Source.VersionFull, "19.21.0.0.0")
	assert.Equal(t, len(result.Source.Instances), 1)
	assert.Equal(t, result.Source.Instances[0].Host, "prod-host-01")

	byName := map[string]validation.Check{}
	for _, chk := range result.Report.Checks {
		byName[chk.Name] = chk
	}
	assert.Equal(t, byName[CheckTargetExists].TargetValue,
		"PDB does not exist (ready for clone)")
	assert.Equal(t, byName[CheckStorageQuota].TargetValue,
		"N/A (PDB not created yet)")
	assert.Equal(t, byName[CheckPlugCompat].TargetValue, "TRUE")
}

func TestPipelineFailureIsolation(t *testing.T) {
	source := &fakeSession{
		results: sourceCDBResults(10 << 30),
		execFn:  describeExec("<pdb/>"),
	}
	source.errs = map[string]error{
		"NLS_CHARACTERSET": fmt.Errorf("ORA-12541: TNS no listener"),
	}
	connector := &fakeConnector{sessions: map[string]*fakeSession{
		"PRODCDB": source,
		"DEVCDB": {
			results: targetCDBResults(),
			execFn:  verdictExec("TRUE"),
		},
	}}
	p, params := testPipeline(connector)

	result := p.Run(context.Background(), params)

	// The broken check is converted at the boundary; everything after it
	// still ran.
	assert.Equal(t, len(result.Report.Checks), len(allCheckNames))
	charset := result.Report.Checks[1]
	assert.Equal(t, charset.Name, CheckCharset)
	assert.Equal(t, charset.Status, validation.StatusFailed)
	assert.Equal(t, charset.SourceValue, "check error")
	assert.Assert(t, strings.Contains(charset.TargetValue, "ORA-12541"))
	assert.Equal(t, result.Report.Checks[10].Name, CheckPlugCompat)
}

func TestStorageQuotaInsufficient(t *testing.T) {
	// 45.73 GB source PDB against a 20G target quota.
	gib := float64(1 << 30)
	sizeBytes := int64(45.73 * gib)
	target := targetCDBResults()
	target["open_mode"] = [][]interface{}{{"READ WRITE"}}
	connector := &fakeConnector{sessions: map[string]*fakeSession{
		"PRODCDB": {
			results: sourceCDBResults(sizeBytes),
			execFn:  describeExec("<pdb/>"),
		},
		"DEVCDB": {
			results: target,
			execFn:  verdictExec("TRUE"),
		},
		"salespdb": {results: map[string][][]interface{}{
			"MAX_PDB_STORAGE": {{"UNLIMITED"}},
		}},
		"salesclone": {results: map[string][][]interface{}{
			"MAX_PDB_STORAGE": {{"20G"}},
		}},
	}}
	p, params := testPipeline(connector)

	result := p.Run(context.Background(), params)

	byName := map[string]validation.Check{}
	for _, chk := range result.Report.Checks {
		byName[chk.Name] = chk
	}
	assert.Equal(t, byName[CheckTargetExists].TargetValue,
		"PDB already exists (READ WRITE)")

	quota := byName[CheckStorageQuota]
	assert.Equal(t, quota.Status, validation.StatusFailed)
	assert.Assert(t, strings.Contains(quota.SourceValue, "45.73 GB"))
	assert.Equal(t, quota.TargetValue, "20.00G (insufficient for 45.73 GB source PDB)")
	assert.Equal(t, result.Report.Overall(), validation.StatusFailed)
}

func TestStorageQuotaUnlimitedPasses(t *testing.T) {
	target := targetCDBResults()
	target["open_mode"] = [][]interface{}{{"READ WRITE"}}
	connector := &fakeConnector{sessions: map[string]*fakeSession{
		"PRODCDB": {
			results: sourceCDBResults(45 << 30),
			execFn:  describeExec("<pdb/>"),
		},
		"DEVCDB": {
			results: target,
			execFn:  verdictExec("TRUE"),
		},
		"salespdb": {results: map[string][][]interface{}{
			"MAX_PDB_STORAGE": {{"50G"}},
		}},
		"salesclone": {results: map[string][][]interface{}{
			"MAX_PDB_STORAGE": {{"UNLIMITED"}},
		}},
	}}
	p, params := testPipeline(connector)

	result := p.Run(context.Background(), params)

	byName := map[string]validation.Check{}
	for _, chk := range result.Report.Checks {
		byName[chk.Name] = chk
	}
	quota := byName[CheckStorageQuota]
	assert.Equal(t, quota.Status, validation.StatusPass)
	assert.Assert(t, strings.Contains(quota.SourceValue, "limit: 50.00G"))
	assert.Assert(t, strings.Contains(quota.TargetValue, "UNLIMITED (sufficient"))
}

func TestStorageQuotaUnreachablePDBServiceSkips(t *testing.T) {
	// No session scripted for the source PDB's own service: the quota read
	// cannot connect and the check degrades to SKIPPED.
	connector := &fakeConnector{sessions: map[string]*fakeSession{
		"PRODCDB": {
			results: sourceCDBResults(10 << 30),
			execFn:  describeExec("<pdb/>"),
		},
		"DEVCDB": {
			results: targetCDBResults(),
			execFn:  verdictExec("TRUE"),
		},
	}}
	p, params := testPipeline(connector)

	result := p.Run(context.Background(), params)

	byName := map[string]validation.Check{}
	for _, chk := range result.Report.Checks {
		byName[chk.Name] = chk
	}
	quota := byName[CheckStorageQuota]
	assert.Equal(t, quota.Status, validation.StatusSkipped)
	assert.Equal(t, quota.TargetValue, "Could not verify (connection issue)")
}

func TestPlugCompatibilityIncompatible(t *testing.T) {
	target := targetCDBResults()
	target["pdb_plug_in_violations"] = [][]interface{}{
		{"salesclone", "OPTION", "ERROR", "APEX mismatch", "PENDING", "Install APEX"},
	}
	connector := &fakeConnector{sessions: map[string]*fakeSession{
		"PRODCDB": {
			results: sourceCDBResults(10 << 30),
			execFn:  describeExec("<pdb/>"),
		},
		"DEVCDB": {
			results: target,
			execFn:  verdictExec("FALSE"),
		},
		"salespdb": {results: map[string][][]interface{}{
			"MAX_PDB_STORAGE": {{"UNLIMITED"}},
		}},
	}}
	p, params := testPipeline(connector)

	result := p.Run(context.Background(), params)

	byName := map[string]validation.Check{}
	for _, chk := range result.Report.Checks {
		byName[chk.Name] = chk
	}
	plug := byName[CheckPlugCompat]
	assert.Equal(t, plug.Status, validation.StatusFailed)
	assert.Equal(t, plug.TargetValue, "FALSE")
	assert.Equal(t, len(plug.Violations), 1)
	assert.Equal(t, plug.Violations[0].Message, "APEX mismatch")
}

func TestPlugCompatibilityFileOnlySkips(t *testing.T) {
	source := sourceCDBResults(10 << 30)
	source["all_arguments"] = [][]interface{}{
		{"PDB_DESCR_FILE", 1, "VARCHAR2", "IN", "1"},
		{"PDB_NAME", 2, "VARCHAR2", "IN", "1"},
	}
	connector := &fakeConnector{sessions: map[string]*fakeSession{
		"PRODCDB": {results: source},
		"DEVCDB":  {results: targetCDBResults()},
		"salespdb": {results: map[string][][]interface{}{
			"MAX_PDB_STORAGE": {{"UNLIMITED"}},
		}},
	}}
	p, params := testPipeline(connector)

	result := p.Run(context.Background(), params)

	byName := map[string]validation.Check{}
	for _, chk := range result.Report.Checks {
		byName[chk.Name] = chk
	}
	plug := byName[CheckPlugCompat]
	assert.Equal(t, plug.Status, validation.StatusSkipped)
	assert.Equal(t, plug.TargetValue, "File-based only (requires manual check)")
	// SKIPPED never drags the report down on its own.
	assert.Equal(t, result.Report.Overall(), validation.StatusPass)
}
