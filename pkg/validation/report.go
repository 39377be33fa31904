/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package validation defines the check and report model shared by the
// precheck and postcheck pipelines.
package validation

import "github.com/artechdb/pdbctl/pkg/pdb"

// Status is the outcome of a single check.
type Status string

const (
	// StatusPass means the check passed.
	StatusPass Status = "PASS"
	// StatusFailed means the check failed; a single FAILED check fails the
	// whole report.
	StatusFailed Status = "FAILED"
	// StatusSkipped means the check could not be run automatically. It
	// never fails the report.
	StatusSkipped Status = "SKIPPED"
)

// Check is one validation result. Immutable once produced.
type Check struct {
	Name        string
	Status      Status
	SourceValue string
	TargetValue string
	Violations  []pdb.Violation
}

// Report is an ordered list of checks, in fixed declaration order.
type Report struct {
	Checks []Check
}

// Overall derives the report verdict: FAILED iff at least one check is
// FAILED. SKIPPED entries never force a failure.
func (r Report) Overall() Status {
	for _, c := range r.Checks {
		if c.Status == StatusFailed {
			return StatusFailed
		}
	}
	return StatusPass
}

// Failed lists the checks with status FAILED, in report order.
func (r Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Status == StatusFailed {
			out = append(out, c)
		}
	}
	return out
}
