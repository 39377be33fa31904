/*
 * Copyright (c) ArtechDB, Inc.
 */

package precheck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/pdb"
	"github.com/artechdb/pdbctl/pkg/validation"
)

func (r *runner) checkVersion(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking database versions...")
	source, err := r.sourceScalar(ctx, "", `SELECT version_full FROM v$instance`)
	if err != nil {
		return validation.Check{}, err
	}
	target, err := r.targetScalar(ctx, "", `SELECT version_full FROM v$instance`)
	if err != nil {
		return validation.Check{}, err
	}
	r.result.Source.VersionFull = source
	r.result.Target.VersionFull = target
	return equalityCheck(CheckVersion, source, target), nil
}

func (r *runner) checkCharset(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking character sets...")
	const query = `SELECT value FROM nls_database_parameters WHERE parameter = 'NLS_CHARACTERSET'`
	source, err := r.sourceScalar(ctx, "", query)
	if err != nil {
		return validation.Check{}, err
	}
	target, err := r.targetScalar(ctx, "", query)
	if err != nil {
		return validation.Check{}, err
	}
	return equalityCheck(CheckCharset, source, target), nil
}

// checkRegistry passes when every installed component of the source is also
// installed on the target. The target having extra components is fine.
func (r *runner) checkRegistry(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking DB registry components...")
	var source, target map[string]struct{}
	if err := r.withSource(ctx, func(s ora.Session) error {
		var err error
		source, err = readRegistryComponents(ctx, s)
		return err
	}); err != nil {
		return validation.Check{}, err
	}
	if err := r.withTarget(ctx, func(s ora.Session) error {
		var err error
		target, err = readRegistryComponents(ctx, s)
		return err
	}); err != nil {
		return validation.Check{}, err
	}

	status := validation.StatusPass
	for comp := range source {
		if _, ok := target[comp]; !ok {
			status = validation.StatusFailed
			break
		}
	}
	return validation.Check{
		Name:        CheckRegistry,
		Status:      status,
		SourceValue: fmt.Sprintf("%d components", len(source)),
		TargetValue: fmt.Sprintf("%d components", len(target)),
	}, nil
}

func (r *runner) checkSourceOpen(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking source PDB status...")
	var mode string
	var found bool
	if err := r.withSource(ctx, func(s ora.Session) error {
		var err error
		mode, found, err = pdb.ReadOpenMode(ctx, s, r.params.SourcePDB)
		return err
	}); err != nil {
		return validation.Check{}, err
	}
	if !found {
		return validation.Check{
			Name:        CheckSourceOpen,
			Status:      validation.StatusFailed,
			SourceValue: "PDB not found",
			TargetValue: "N/A",
		}, nil
	}
	r.result.Source.PDBMode = mode

	// Cloning needs the source open, readable or writable. Only a mounted
	// PDB blocks it.
	status := validation.StatusPass
	if strings.EqualFold(mode, "MOUNTED") {
		status = validation.StatusFailed
	}
	return validation.Check{
		Name:        CheckSourceOpen,
		Status:      status,
		SourceValue: mode,
		TargetValue: "N/A",
	}, nil
}

// checkTargetExists is informational and always passes; its value states
// which of two mutually exclusive facts holds.
func (r *runner) checkTargetExists(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking target PDB status...")
	mode, exists, err := r.targetPDBMode(ctx)
	if err != nil {
		return validation.Check{}, err
	}
	value := "PDB does not exist (ready for clone)"
	if exists {
		value = fmt.Sprintf("PDB already exists (%s)", mode)
		r.result.Target.PDBMode = mode
	}
	return validation.Check{
		Name:        CheckTargetExists,
		Status:      validation.StatusPass,
		SourceValue: "N/A",
		TargetValue: value,
	}, nil
}

func (r *runner) checkTDE(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking TDE configuration...")
	const query = `SELECT wrl_type FROM v$encryption_wallet`
	source, err := r.sourceScalar(ctx, "NONE", query)
	if err != nil {
		return validation.Check{}, err
	}
	target, err := r.targetScalar(ctx, "NONE", query)
	if err != nil {
		return validation.Check{}, err
	}
	return equalityCheck(CheckTDE, source, target), nil
}

func (r *runner) checkUndoMode(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking undo mode...")
	const query = `SELECT property_value FROM database_properties WHERE property_name = 'LOCAL_UNDO_ENABLED'`
	source, err := r.sourceScalar(ctx, "FALSE", query)
	if err != nil {
		return validation.Check{}, err
	}
	target, err := r.targetScalar(ctx, "FALSE", query)
	if err != nil {
		return validation.Check{}, err
	}

	// Hot cloning requires local undo on both sides; a shared-undo match is
	// still a failure.
	status := validation.StatusFailed
	if source == "TRUE" && target == "TRUE" {
		status = validation.StatusPass
	}
	return validation.Check{
		Name:        CheckUndoMode,
		Status:      status,
		SourceValue: source,
		TargetValue: target,
	}, nil
}

// checkMaxStringSize is asymmetric: extended-string data cannot land in a
// standard-mode target, but a standard source plugs into an extended target
// without loss.
func (r *runner) checkMaxStringSize(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking MAX_STRING_SIZE compatibility...")
	const query = `SELECT value FROM v$parameter WHERE name = 'max_string_size'`
	source, err := r.sourceScalar(ctx, "STANDARD", query)
	if err != nil {
		return validation.Check{}, err
	}
	target, err := r.targetScalar(ctx, "STANDARD", query)
	if err != nil {
		return validation.Check{}, err
	}

	status := validation.StatusPass
	if strings.EqualFold(source, "EXTENDED") && !strings.EqualFold(target, "EXTENDED") {
		status = validation.StatusFailed
	}
	return validation.Check{
		Name:        CheckMaxStringSize,
		Status:      status,
		SourceValue: source,
		TargetValue: target,
	}, nil
}

func (r *runner) checkTimezone(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking timezone settings...")
	const query = `SELECT DBTIMEZONE FROM dual`
	source, err := r.sourceScalar(ctx, "Unknown", query)
	if err != nil {
		return validation.Check{}, err
	}
	target, err := r.targetScalar(ctx, "Unknown", query)
	if err != nil {
		return validation.Check{}, err
	}
	return equalityCheck(CheckTimezone, source, target), nil
}

// checkStorageQuota compares the target PDB's storage quota against the
// source PDB's size. The quota property must be read from each PDB's own
// connection, never from the parent.
func (r *runner) checkStorageQuota(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking MAX_PDB_STORAGE limit...")

	sizeGB, err := r.sourcePDBSizeGB(ctx)
	if err != nil {
		return validation.Check{}, err
	}

	sourceQuota, err := r.pdbStorageQuota(ctx, r.params.Source, r.params.SourcePDB)
	if err != nil {
		r.p.emit(fmt.Sprintf("WARNING: Could not check MAX_PDB_STORAGE: %s", err))
		return validation.Check{
			Name:        CheckStorageQuota,
			Status:      validation.StatusSkipped,
			SourceValue: fmt.Sprintf("%.2f GB", sizeGB),
			TargetValue: "Could not verify (connection issue)",
		}, nil
	}
	sourceValue := fmt.Sprintf("%.2f GB (limit: %s)", sizeGB, sourceQuota.Format())

	_, targetPDBExists, err := r.targetPDBMode(ctx)
	if err != nil {
		return validation.Check{}, err
	}
	if !targetPDBExists {
		return validation.Check{
			Name:        CheckStorageQuota,
			Status:      validation.StatusPass,
			SourceValue: sourceValue,
			TargetValue: "N/A (PDB not created yet)",
		}, nil
	}

	targetQuota, err := r.pdbStorageQuota(ctx, r.params.Target, r.params.TargetPDB)
	if err != nil {
		r.p.emit(fmt.Sprintf("WARNING: Could not check MAX_PDB_STORAGE: %s", err))
		return validation.Check{
			Name:        CheckStorageQuota,
			Status:      validation.StatusSkipped,
			SourceValue: sourceValue,
			TargetValue: "Could not verify (connection issue)",
		}, nil
	}

	status := validation.StatusPass
	adequacy := "sufficient"
	if !targetQuota.SufficientFor(sizeGB) {
		status = validation.StatusFailed
		adequacy = "insufficient"
	}
	return validation.Check{
		Name:        CheckStorageQuota,
		Status:      status,
		SourceValue: sourceValue,
		TargetValue: fmt.Sprintf("%s (%s for %.2f GB source PDB)",
			targetQuota.Format(), adequacy, sizeGB),
	}, nil
}

// pdbStorageQuota reads MAX_PDB_STORAGE from the named PDB's own service.
func (r *runner) pdbStorageQuota(ctx context.Context, parent ora.Endpoint, pdbName string) (pdb.StorageValue, error) {
	var raw string
	err := ora.WithSession(ctx, r.p.Connector, parent.ServiceEndpoint(pdbName),
		func(s ora.Session) error {
			var err error
			raw, err = scalar(ctx, s, "UNLIMITED", `
				SELECT property_value
				FROM database_properties
				WHERE property_name = 'MAX_PDB_STORAGE'`)
			return err
		})
	if err != nil {
		return pdb.StorageValue{}, err
	}
	return pdb.ParseStorage(raw)
}

// checkPlugCompatibility negotiates a descriptor document on the source and
// submits it to the target for the plug verdict.
func (r *runner) checkPlugCompatibility(ctx context.Context) (validation.Check, error) {
	r.p.emit("Checking plug compatibility...")

	sourceAddr := fmt.Sprintf("%s:%d", r.params.Source.Host, r.params.Source.Port)
	var describe pdb.DescribeResult
	if err := r.withSource(ctx, func(s ora.Session) error {
		shapes, err := pdb.ProbeDescribeShapes(ctx, s)
		if err != nil {
			return err
		}
		exec := &pdb.DescribeExecutor{
			AuditDir:    r.p.AuditDir,
			Remediation: pdb.FileOnlyRemediation(sourceAddr, r.params.SourcePDB, r.params.Target.Service),
			Progress:    r.p.Progress,
		}
		describe = exec.Describe(ctx, s, r.params.Source.Service, r.params.SourcePDB, shapes)
		return nil
	}); err != nil {
		return validation.Check{}, err
	}

	switch describe.Outcome {
	case pdb.DescribeSkippedFileOnly:
		for _, line := range strings.Split(describe.Remediation, "\n") {
			r.p.emit(line)
		}
		return validation.Check{
			Name:        CheckPlugCompat,
			Status:      validation.StatusSkipped,
			SourceValue: "N/A",
			TargetValue: "File-based only (requires manual check)",
		}, nil
	case pdb.DescribeFailed:
		return validation.Check{}, describe.Err
	}

	var verdict pdb.CompatibilityResult
	if err := r.withTarget(ctx, func(s ora.Session) error {
		var err error
		verdict, err = pdb.CheckPlugCompatibility(ctx, s, describe.Document)
		return err
	}); err != nil {
		return validation.Check{}, err
	}

	status := validation.StatusPass
	value := "TRUE"
	if !verdict.Compatible {
		status = validation.StatusFailed
		value = "FALSE"
	}
	return validation.Check{
		Name:        CheckPlugCompat,
		Status:      status,
		SourceValue: "XML document generated (CLOB)",
		TargetValue: value,
		Violations:  verdict.Violations,
	}, nil
}

func (r *runner) sourceScalar(ctx context.Context, def, query string) (string, error) {
	return r.endpointScalar(ctx, r.params.Source, def, query)
}

func (r *runner) targetScalar(ctx context.Context, def, query string) (string, error) {
	return r.endpointScalar(ctx, r.params.Target, def, query)
}

func (r *runner) endpointScalar(ctx context.Context, ep ora.Endpoint, def, query string) (string, error) {
	var value string
	err := ora.WithSession(ctx, r.p.Connector, ep, func(s ora.Session) error {
		var err error
		value, err = scalar(ctx, s, def, query)
		return err
	})
	return value, err
}

// scalar reads a single string value, returning def when the query yields no
// row or a NULL.
func scalar(ctx context.Context, s ora.Session, def, query string, args ...interface{}) (string, error) {
	rows, err := s.Query(ctx, query, args...)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	if !rows.Next() {
		return def, rows.Err()
	}
	var v sql.NullString
	if err := rows.Scan(&v); err != nil {
		return "", err
	}
	if !v.Valid || v.String == "" {
		return def, nil
	}
	return v.String, nil
}

func readRegistryComponents(ctx context.Context, s ora.Session) (map[string]struct{}, error) {
	rows, err := s.Query(ctx, `SELECT comp_name, status FROM dba_registry ORDER BY comp_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, err
		}
		out[name] = struct{}{}
	}
	return out, rows.Err()
}

func equalityCheck(name, source, target string) validation.Check {
	status := validation.StatusPass
	if source != target {
		status = validation.StatusFailed
	}
	return validation.Check{
		Name:        name,
		Status:      status,
		SourceValue: source,
		TargetValue: target,
	}
}
