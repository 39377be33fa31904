/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package precheck runs the pre-clone validation pipeline: a fixed, ordered
// list of independent compatibility checks between a source and a target
// container database. A failure inside one check never prevents the
// remaining checks from running.
package precheck

import (
	"context"
	"fmt"

	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/pdb"
	"github.com/artechdb/pdbctl/pkg/postcheck"
	"github.com/artechdb/pdbctl/pkg/validation"
)

// Check names, in declared pipeline order. The declaration order is a
// correctness property: later checks reuse values computed by earlier ones.
const (
	CheckVersion        = "Database Version and Patch Level"
	CheckCharset        = "Character Set Compatibility"
	CheckRegistry       = "DB Registry Components"
	CheckSourceOpen     = "Source PDB Open Status"
	CheckTargetExists   = "Target PDB Does Exist"
	CheckTDE            = "TDE Configuration Method"
	CheckUndoMode       = "Local Undo Mode"
	CheckMaxStringSize  = "MAX_STRING_SIZE Compatibility"
	CheckTimezone       = "Timezone Setting Compatibility"
	CheckStorageQuota   = "MAX_PDB_STORAGE Limit"
	CheckPlugCompat     = "DBMS_PDB Plug Compatibility"
)

// Params identifies the clone to validate. Source and Target are the parent
// container endpoints; the PDB names are resolved case-insensitively.
type Params struct {
	Source    ora.Endpoint
	Target    ora.Endpoint
	SourcePDB string
	TargetPDB string
}

// Facts is per-side connection metadata gathered alongside the checks, used
// by report rendering.
type Facts struct {
	Endpoint      string
	Container     string
	PDB           string
	Instances     []pdb.Instance
	VersionFull   string
	PDBSizeGB     float64
	PDBMode       string
	Parameters    map[string]string
	PDBParameters map[string]string
}

// Result is the full precheck output: the report plus the display facts and
// the non-default parameter comparison for the rendered report.
type Result struct {
	Report     validation.Report
	Source     Facts
	Target     Facts
	ParamDiffs []postcheck.ParameterDiff
}

// Pipeline executes the validation checks strictly sequentially in declared
// order. Each check acquires its own scoped sessions; any internal failure
// converts to a FAILED or SKIPPED entry for that check alone.
type Pipeline struct {
	Connector ora.Connector
	// AuditDir, when set, receives a copy of the descriptor document
	// produced by the plug compatibility check.
	AuditDir string
	// Progress receives human-readable status lines at check boundaries.
	// Purely advisory. Optional.
	Progress func(string)
}

// Run executes the pipeline. It never fails as a whole; every error is
// absorbed into the report.
func (p *Pipeline) Run(ctx context.Context, params Params) Result {
	p.emit("Starting PDB clone precheck...")

	r := &runner{p: p, params: params}
	r.result.Source = Facts{
		Endpoint:  params.Source.String(),
		Container: params.Source.Service,
		PDB:       params.SourcePDB,
	}
	r.result.Target = Facts{
		Endpoint:  params.Target.String(),
		Container: params.Target.Service,
		PDB:       params.TargetPDB,
	}

	r.gatherFacts(ctx)

	checks := []struct {
		name string
		run  func(context.Context) (validation.Check, error)
	}{
		{CheckVersion, r.checkVersion},
		{CheckCharset, r.checkCharset},
		{CheckRegistry, r.checkRegistry},
		{CheckSourceOpen, r.checkSourceOpen},
		{CheckTargetExists, r.checkTargetExists},
		{CheckTDE, r.checkTDE},
		{CheckUndoMode, r.checkUndoMode},
		{CheckMaxStringSize, r.checkMaxStringSize},
		{CheckTimezone, r.checkTimezone},
		{CheckStorageQuota, r.checkStorageQuota},
		{CheckPlugCompat, r.checkPlugCompatibility},
	}

	for _, c := range checks {
		chk, err := c.run(ctx)
		if err != nil {
			// The check boundary: nothing escapes the pipeline.
			p.emit(fmt.Sprintf("Check '%s' failed: %s", c.name, err))
			chk = validation.Check{
				Name:        c.name,
				Status:      validation.StatusFailed,
				SourceValue: "check error",
				TargetValue: err.Error(),
			}
		}
		if chk.Name == "" {
			chk.Name = c.name
		}
		r.result.Report.Checks = append(r.result.Report.Checks, chk)
	}

	r.gatherParameters(ctx)

	p.emit("Precheck validation completed")
	return r.result
}

func (p *Pipeline) emit(msg string) {
	if p.Progress != nil {
		p.Progress(msg)
	}
}

// runner holds the per-invocation memo state shared between checks.
type runner struct {
	p      *Pipeline
	params Params
	result Result

	sourceSizeFetched bool
	sourceSizeGB      float64
	sourceSizeErr     error

	targetModeFetched bool
	targetMode        string
	targetExists      bool
	targetModeErr     error
}

func (r *runner) withSource(ctx context.Context, fn func(ora.Session) error) error {
	return ora.WithSession(ctx, r.p.Connector, r.params.Source, fn)
}

func (r *runner) withTarget(ctx context.Context, fn func(ora.Session) error) error {
	return ora.WithSession(ctx, r.p.Connector, r.params.Target, fn)
}

// gatherFacts collects the instance and size information shown in the report
// header. Best-effort: a failure here surfaces later through the individual
// checks that need the same sessions.
func (r *runner) gatherFacts(ctx context.Context) {
	r.p.emit("Gathering instance and host information...")
	if err := r.withSource(ctx, func(s ora.Session) error {
		d, err := pdb.ReadDescriptor(ctx, s, r.params.Source.Service, r.params.SourcePDB)
		if err != nil {
			return err
		}
		r.result.Source.Instances = d.Instances
		r.result.Source.PDBMode = d.OpenMode
		r.result.Source.PDBSizeGB = d.SizeGB()
		// The storage-quota check reuses the size.
		r.sourceSizeFetched = true
		r.sourceSizeGB = d.SizeGB()
		return nil
	}); err != nil {
		r.p.emit(fmt.Sprintf("Warning: could not gather source facts: %s", err))
	}

	if err := r.withTarget(ctx, func(s ora.Session) error {
		instances, err := pdb.ReadInstances(ctx, s)
		if err != nil {
			return err
		}
		r.result.Target.Instances = instances
		return nil
	}); err != nil {
		r.p.emit(fmt.Sprintf("Warning: could not gather target facts: %s", err))
	}
}

// sourcePDBSizeGB computes the source PDB datafile footprint once; the
// storage-quota check and the report both reuse the memo.
func (r *runner) sourcePDBSizeGB(ctx context.Context) (float64, error) {
	if r.sourceSizeFetched {
		return r.sourceSizeGB, r.sourceSizeErr
	}
	r.sourceSizeFetched = true
	r.sourceSizeErr = r.withSource(ctx, func(s ora.Session) error {
		bytes, err := pdb.ReadSizeBytes(ctx, s, r.params.SourcePDB)
		if err != nil {
			return err
		}
		r.sourceSizeGB = float64(bytes) / (1 << 30)
		return nil
	})
	return r.sourceSizeGB, r.sourceSizeErr
}

// targetPDBMode resolves the target PDB's existence and open mode once; the
// existence check fills the memo and the storage-quota check reuses it.
func (r *runner) targetPDBMode(ctx context.Context) (string, bool, error) {
	if r.targetModeFetched {
		return r.targetMode, r.targetExists, r.targetModeErr
	}
	r.targetModeFetched = true
	r.targetModeErr = r.withTarget(ctx, func(s ora.Session) error {
		mode, found, err := pdb.ReadOpenMode(ctx, s, r.params.TargetPDB)
		if err != nil {
			return err
		}
		r.targetMode, r.targetExists = mode, found
		return nil
	})
	return r.targetMode, r.targetExists, r.targetModeErr
}

// gatherParameters collects the explicitly set parameters of both containers
// and both PDBs for the report's comparison section. Best-effort.
func (r *runner) gatherParameters(ctx context.Context) {
	r.p.emit("Gathering Oracle CDB parameters...")
	if err := r.withSource(ctx, func(s ora.Session) error {
		params, err := postcheck.ReadParameters(ctx, s, true)
		if err != nil {
			return err
		}
		r.result.Source.Parameters = params
		return nil
	}); err != nil {
		r.p.emit(fmt.Sprintf("Warning: could not gather source CDB parameters: %s", err))
	}
	if err := r.withTarget(ctx, func(s ora.Session) error {
		params, err := postcheck.ReadParameters(ctx, s, true)
		if err != nil {
			return err
		}
		r.result.Target.Parameters = params
		return nil
	}); err != nil {
		r.p.emit(fmt.Sprintf("Warning: could not gather target CDB parameters: %s", err))
	}
	r.result.ParamDiffs = postcheck.CompareParameters(
		r.result.Source.Parameters, r.result.Target.Parameters)

	r.p.emit("Gathering Oracle source PDB parameters...")
	sourcePDB := r.params.Source.ServiceEndpoint(r.params.SourcePDB)
	if err := ora.WithSession(ctx, r.p.Connector, sourcePDB, func(s ora.Session) error {
		params, err := postcheck.ReadParameters(ctx, s, true)
		if err != nil {
			return err
		}
		r.result.Source.PDBParameters = params
		return nil
	}); err != nil {
		r.p.emit(fmt.Sprintf("Warning: could not gather source PDB parameters: %s", err))
	}

	if _, exists, err := r.targetPDBMode(ctx); err == nil && exists {
		r.p.emit("Gathering Oracle target PDB parameters...")
		targetPDB := r.params.Target.ServiceEndpoint(r.params.TargetPDB)
		if err := ora.WithSession(ctx, r.p.Connector, targetPDB, func(s ora.Session) error {
			params, err := postcheck.ReadParameters(ctx, s, true)
			if err != nil {
				return err
			}
			r.result.Target.PDBParameters = params
			return nil
		}); err != nil {
			r.p.emit(fmt.Sprintf("Warning: could not gather target PDB parameters: %s", err))
		}
	} else {
		r.p.emit("Target PDB does not exist - skipping target PDB parameter gathering")
	}
}
