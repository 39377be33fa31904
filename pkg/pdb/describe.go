/*
 * Copyright (c) ArtechDB, Inc.
 */

package pdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/artechdb/pdbctl/pkg/ora"
)

// DescribeOutcome is the terminal state of one descriptor negotiation.
type DescribeOutcome int

const (
	// DescribeSucceeded means a non-empty descriptor document was produced.
	DescribeSucceeded DescribeOutcome = iota
	// DescribeSkippedFileOnly means the server only supports writing the
	// document to its own filesystem, so the negotiation was skipped. This
	// is a first-class outcome, not an error.
	DescribeSkippedFileOnly
	// DescribeFailed means every usable calling convention failed.
	DescribeFailed
)

// DescribeResult carries the outcome of a describe attempt. Document is only
// set for DescribeSucceeded and is always non-empty there. Remediation is
// only set for DescribeSkippedFileOnly. Err is only set for DescribeFailed.
type DescribeResult struct {
	Outcome     DescribeOutcome
	Document    []byte
	AuditFile   string
	Remediation string
	Err         error
}

// DescribeStrategy is one calling convention for DBMS_PDB.DESCRIBE. Attempt
// returns the descriptor document or a recoverable error; the executor treats
// any error as "try the next strategy".
type DescribeStrategy interface {
	Name() string
	Attempt(ctx context.Context, s ora.Session, pdbName string) (string, error)
}

// DescribeExecutor negotiates a descriptor document against a source
// container whose server version, and therefore DESCRIBE signature, is not
// known in advance. Strategies are tried in priority order; the first
// non-empty document wins.
type DescribeExecutor struct {
	// Strategies overrides the default convention order; used by tests to
	// simulate server generations.
	Strategies []DescribeStrategy
	// AuditDir, when set, receives a copy of each produced document. Audit
	// failures are logged and never fail the attempt.
	AuditDir string
	// Remediation, when set, replaces the generic manual-verification text
	// attached to DescribeSkippedFileOnly.
	Remediation string
	// Progress receives human-readable status lines. Optional.
	Progress func(string)
	// Now is the clock for audit file names. Defaults to time.Now.
	Now func() time.Time
}

// defaultStrategies is the fixed priority order: named binds with an explicit
// PDB name (current servers), named binds without one (older dialect), then
// positional binds (compatibility fallback).
func defaultStrategies() []DescribeStrategy {
	return []DescribeStrategy{
		namedStrategy{},
		legacyNamedStrategy{},
		positionalStrategy{},
	}
}

// Describe runs the negotiation for one PDB. The session must be connected
// to the source container's parent. shapes is the probe result for that
// server; a server exposing only the file-input shape is skipped without any
// attempt because the produced file cannot be read back remotely.
func (e *DescribeExecutor) Describe(
	ctx context.Context, s ora.Session, container, pdbName string, shapes []Shape,
) DescribeResult {
	hasDocument := false
	hasFile := false
	for _, shape := range shapes {
		switch shape.Kind {
		case ShapeDocumentOutput:
			hasDocument = true
		case ShapeFileInput:
			hasFile = true
		}
	}

	if hasFile && !hasDocument {
		e.emit("DESCRIBE only exposes the server-filesystem convention, skipping automated describe")
		return e.skippedFileOnly(pdbName)
	}

	strategies := e.Strategies
	if strategies == nil {
		strategies = defaultStrategies()
	}

	var attemptErrs []string
	for _, strat := range strategies {
		e.emit(fmt.Sprintf("Attempting DBMS_PDB.DESCRIBE via %s...", strat.Name()))
		doc, err := strat.Attempt(ctx, s, pdbName)
		if err != nil {
			e.emit(fmt.Sprintf("DESCRIBE via %s failed: %s", strat.Name(), err))
			attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %s", strat.Name(), err))
			continue
		}
		if doc == "" {
			e.emit(fmt.Sprintf("DESCRIBE via %s returned an empty document, treating as failed", strat.Name()))
			attemptErrs = append(attemptErrs, fmt.Sprintf("%s: empty document", strat.Name()))
			continue
		}
		e.emit(fmt.Sprintf("DESCRIBE succeeded via %s (%d bytes)", strat.Name(), len(doc)))
		result := DescribeResult{Outcome: DescribeSucceeded, Document: []byte(doc)}
		result.AuditFile = e.writeAudit(container, pdbName, doc)
		return result
	}

	if hasFile {
		e.emit("All document-output conventions failed; server appears to support the file convention only")
		return e.skippedFileOnly(pdbName)
	}
	return DescribeResult{
		Outcome: DescribeFailed,
		Err: errors.Errorf("all DBMS_PDB.DESCRIBE conventions failed: %s",
			strings.Join(attemptErrs, "; ")),
	}
}

func (e *DescribeExecutor) skippedFileOnly(pdbName string) DescribeResult {
	remediation := e.Remediation
	if remediation == "" {
		remediation = FileOnlyRemediation("<source-host>:<port>", pdbName, "<target-cdb>")
	}
	return DescribeResult{Outcome: DescribeSkippedFileOnly, Remediation: remediation}
}

func (e *DescribeExecutor) writeAudit(container, pdbName, doc string) string {
	if e.AuditDir == "" {
		return ""
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	name := AuditFileName(container, pdbName, now())
	path := filepath.Join(e.AuditDir, name)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		logrus.Warnf("could not write describe audit file %s: %s\n", path, err)
		return ""
	}
	e.emit(fmt.Sprintf("Descriptor document exported to %s", path))
	return path
}

func (e *DescribeExecutor) emit(msg string) {
	if e.Progress != nil {
		e.Progress(msg)
	}
}

// AuditFileName is the deterministic naming scheme for exported descriptor
// documents.
func AuditFileName(container, pdbName string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_describe_%s.xml", container, pdbName, ts.Format("20060102_150405"))
}

// FileOnlyRemediation renders the manual steps an operator can run with
// local tools when the automated describe had to be skipped.
func FileOnlyRemediation(sourceAddr, pdbName, targetCDB string) string {
	var b strings.Builder
	b.WriteString("Run the compatibility check manually with SQL*Plus:\n")
	fmt.Fprintf(&b, "  1. Connect to the source PDB: sqlplus user/pass@%s/%s\n", sourceAddr, pdbName)
	fmt.Fprintf(&b,
		"  2. Run: EXEC DBMS_PDB.DESCRIBE(pdb_descr_file => 'pdb_desc.xml', pdb_name => '%s');\n",
		pdbName)
	b.WriteString("  3. Copy pdb_desc.xml from DATA_PUMP_DIR on the source host to the target host\n")
	fmt.Fprintf(&b, "  4. Connect to the target CDB %s and run:\n", targetCDB)
	b.WriteString("     SELECT DBMS_PDB.CHECK_PLUG_COMPATIBILITY(pdb_descr_file => 'pdb_desc.xml') FROM dual;")
	return b.String()
}

type namedStrategy struct{}

func (namedStrategy) Name() string { return "named binds with PDB name" }

func (namedStrategy) Attempt(ctx context.Context, s ora.Session, pdbName string) (string, error) {
	out := ora.NewClobOut()
	err := s.Exec(ctx, `
		DECLARE
			v_pdb_name VARCHAR2(128) := :pdb_name;
		BEGIN
			DBMS_PDB.DESCRIBE(
				pdb_descr_xml => :xml_output,
				pdb_name => v_pdb_name
			);
		END;`,
		ora.Named("pdb_name", pdbName),
		ora.Named("xml_output", out),
	)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

type legacyNamedStrategy struct{}

func (legacyNamedStrategy) Name() string { return "named binds without PDB name" }

// Older servers only describe the current container; the session's service
// must already point at the PDB's parent with the PDB as default target.
func (legacyNamedStrategy) Attempt(ctx context.Context, s ora.Session, _ string) (string, error) {
	out := ora.NewClobOut()
	err := s.Exec(ctx, `
		BEGIN
			DBMS_PDB.DESCRIBE(pdb_descr_xml => :xml_output);
		END;`,
		ora.Named("xml_output", out),
	)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

type positionalStrategy struct{}

func (positionalStrategy) Name() string { return "positional binds" }

func (positionalStrategy) Attempt(ctx context.Context, s ora.Session, pdbName string) (string, error) {
	out := ora.NewClobOut()
	err := s.Exec(ctx, `
		DECLARE
			v_pdb_name VARCHAR2(128) := :pdb_name;
		BEGIN
			DBMS_PDB.DESCRIBE(:xml_output, v_pdb_name);
		END;`,
		ora.Named("pdb_name", pdbName),
		ora.Named("xml_output", out),
	)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
