/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package postcheck diffs configuration parameters and service names between
// a source and a freshly cloned target PDB to surface drift.
package postcheck

import (
	"context"
	"fmt"
	"sort"

	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/validation"
)

// ParameterDiff is one configuration parameter compared across source and
// target. Produced in bulk; read-only afterward.
type ParameterDiff struct {
	Name        string
	SourceValue string
	TargetValue string
	Matches     bool
}

// Params names the two PDBs to compare and the parent endpoints to reach
// them through.
type Params struct {
	Source    ora.Endpoint
	Target    ora.Endpoint
	SourcePDB string
	TargetPDB string
}

// Result is the full post-clone comparison.
type Result struct {
	Report         validation.Report
	Diffs          []ParameterDiff
	SourceServices []string
	TargetServices []string
}

// Mismatches lists only the diffs that do not match, in name order.
func (r Result) Mismatches() []ParameterDiff {
	var out []ParameterDiff
	for _, d := range r.Diffs {
		if !d.Matches {
			out = append(out, d)
		}
	}
	return out
}

// Comparator runs the post-clone drift comparison. Read-only; no remote
// mutation.
type Comparator struct {
	Connector ora.Connector
	// Progress receives human-readable status lines. Optional.
	Progress func(string)
}

// Run compares every configuration parameter of the two PDBs, each read from
// the PDB's own connection, plus the externally visible service names from
// both parents.
func (c *Comparator) Run(ctx context.Context, params Params) (Result, error) {
	c.emit("Starting PDB clone postcheck...")

	var result Result

	c.emit(fmt.Sprintf("Gathering parameters from source PDB %s...", params.SourcePDB))
	var sourceParams map[string]string
	err := ora.WithSession(ctx, c.Connector, params.Source.ServiceEndpoint(params.SourcePDB),
		func(s ora.Session) error {
			var err error
			sourceParams, err = ReadParameters(ctx, s, false)
			return err
		})
	if err != nil {
		return result, err
	}

	c.emit(fmt.Sprintf("Gathering parameters from target PDB %s...", params.TargetPDB))
	var targetParams map[string]string
	err = ora.WithSession(ctx, c.Connector, params.Target.ServiceEndpoint(params.TargetPDB),
		func(s ora.Session) error {
			var err error
			targetParams, err = ReadParameters(ctx, s, false)
			return err
		})
	if err != nil {
		return result, err
	}

	c.emit("Comparing parameters...")
	result.Diffs = CompareParameters(sourceParams, targetParams)
	mismatches := len(result.Mismatches())

	paramStatus := validation.StatusPass
	if mismatches > 0 {
		paramStatus = validation.StatusFailed
	}
	result.Report.Checks = append(result.Report.Checks, validation.Check{
		Name:        "Oracle DB Parameters Match",
		Status:      paramStatus,
		SourceValue: fmt.Sprintf("%d parameters", len(sourceParams)),
		TargetValue: fmt.Sprintf("%d parameters (%d differences)", len(targetParams), mismatches),
	})

	c.emit("Checking DB services...")
	result.SourceServices, err = readServices(ctx, c.Connector, params.Source, params.SourcePDB)
	if err != nil {
		return result, err
	}
	result.TargetServices, err = readServices(ctx, c.Connector, params.Target, params.TargetPDB)
	if err != nil {
		return result, err
	}

	// Service names embed the PDB name, so only the counts are comparable.
	serviceStatus := validation.StatusPass
	if len(result.SourceServices) != len(result.TargetServices) {
		serviceStatus = validation.StatusFailed
	}
	result.Report.Checks = append(result.Report.Checks, validation.Check{
		Name:        "DB Service Names Match",
		Status:      serviceStatus,
		SourceValue: fmt.Sprintf("%d services", len(result.SourceServices)),
		TargetValue: fmt.Sprintf("%d services", len(result.TargetServices)),
	})

	c.emit("Postcheck validation completed")
	return result, nil
}

func (c *Comparator) emit(msg string) {
	if c.Progress != nil {
		c.Progress(msg)
	}
}

// CompareParameters diffs two parameter maps over the union of their names,
// one entry per parameter, sorted by name.
func CompareParameters(source, target map[string]string) []ParameterDiff {
	names := map[string]struct{}{}
	for name := range source {
		names[name] = struct{}{}
	}
	for name := range target {
		names[name] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	out := make([]ParameterDiff, 0, len(sorted))
	for _, name := range sorted {
		sv, sok := source[name]
		tv, tok := target[name]
		if !sok {
			sv = "N/A"
		}
		if !tok {
			tv = "N/A"
		}
		out = append(out, ParameterDiff{
			Name:        name,
			SourceValue: sv,
			TargetValue: tv,
			Matches:     sok && tok && sv == tv,
		})
	}
	return out
}

// ReadParameters reads v$parameter from the connected container, optionally
// restricted to explicitly set (non-default) parameters.
func ReadParameters(ctx context.Context, s ora.Session, nonDefaultOnly bool) (map[string]string, error) {
	query := `
		SELECT name, NVL(value, '')
		FROM v$parameter
		ORDER BY name`
	if nonDefaultOnly {
		query = `
		SELECT name, NVL(value, '')
		FROM v$parameter
		WHERE isdefault = 'FALSE'
		ORDER BY name`
	}
	rows, err := s.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, rows.Err()
}

func readServices(ctx context.Context, c ora.Connector, cdb ora.Endpoint, pdbName string) ([]string, error) {
	var services []string
	err := ora.WithSession(ctx, c, cdb, func(s ora.Session) error {
		rows, err := s.Query(ctx, `
			SELECT name
			FROM cdb_services
			WHERE UPPER(pdb) = UPPER(:1)
			ORDER BY name`, pdbName)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			services = append(services, name)
		}
		return rows.Err()
	})
	return services, err
}
