/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package clone executes the PDB clone state machine: create a transient
// database link from target to source, clone over it, open the new PDB,
// persist its startup state, and unconditionally tear the link down.
package clone

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/artechdb/pdbctl/pkg/ora"
)

// Phase is the current position of a clone operation in its lifecycle.
type Phase string

const (
	PhaseIdle        Phase = "IDLE"
	PhaseLinkCreated Phase = "LINK_CREATED"
	PhaseCloning     Phase = "CLONING"
	PhaseOpened      Phase = "OPENED"
	PhaseStateSaved  Phase = "STATE_SAVED"
	PhaseLinkDropped Phase = "LINK_DROPPED"
)

// Params identifies one clone. Source and Target are the parent container
// endpoints. FileNameConvert overrides the datafile path remapping; when
// empty it is derived from the PDB names.
type Params struct {
	Source          ora.Endpoint
	Target          ora.Endpoint
	SourcePDB       string
	TargetPDB       string
	FileNameConvert [2]string
}

// Operation is the record of one clone invocation. It is created at clone
// start and mutated through the phases until the link is confirmed dropped.
type Operation struct {
	ID         string
	SourcePDB  string
	TargetPDB  string
	LinkName   string
	Phase      Phase
	StartedAt  time.Time
	FinishedAt time.Time
	// CleanupErr records a link-drop failure that accompanied an otherwise
	// successful clone. Secondary; never masks success.
	CleanupErr error
}

// Error is a fatal clone failure. Err is the original cause from the phase
// that failed; CleanupErr, if set, is the secondary failure of the link drop
// that was still attempted. The original cause is always primary.
type Error struct {
	Phase      Phase
	LinkName   string
	Err        error
	CleanupErr error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("clone failed during %s: %s", e.Phase, e.Err)
	if e.CleanupErr != nil {
		msg += fmt.Sprintf(" (additionally, dropping link %s failed: %s)", e.LinkName, e.CleanupErr)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Executor runs clone operations. Each phase acquires its own session on the
// target container.
type Executor struct {
	Connector ora.Connector
	// Progress receives human-readable status lines at phase boundaries.
	// Optional.
	Progress func(string)
}

// Run executes the clone to completion. Once the link exists the operation
// is not cancellable: it runs until the link is dropped, so no transient
// link can be orphaned. A leftover link from an earlier interrupted run is
// dropped before the create. On failure the returned error is an *Error
// carrying the original cause; the link drop is attempted exactly once on
// every post-link exit path.
func (e *Executor) Run(ctx context.Context, params Params) (*Operation, error) {
	op := &Operation{
		ID:        uuid.NewString(),
		SourcePDB: params.SourcePDB,
		TargetPDB: params.TargetPDB,
		LinkName:  fmt.Sprintf("CLONE_LINK_%s", strings.ToUpper(params.SourcePDB)),
		Phase:     PhaseIdle,
		StartedAt: time.Now(),
	}
	e.emit("Starting PDB clone operation...")

	e.emit(fmt.Sprintf("Creating database link: %s", op.LinkName))
	dropLink := fmt.Sprintf("DROP PUBLIC DATABASE LINK %s", op.LinkName)
	// The link may still exist from an interrupted run; the create would
	// then fail with ORA-00955.
	if err := e.execPhase(ctx, params.Target, dropLink); err != nil {
		logrus.Debugf("dropping leftover link %s: %s\n", op.LinkName, err)
	}
	err := e.execPhase(ctx, params.Target, fmt.Sprintf(
		"CREATE PUBLIC DATABASE LINK %s CONNECT TO CURRENT_USER USING '%s'",
		op.LinkName, params.Source.TNSDescriptor()))
	if err != nil {
		op.FinishedAt = time.Now()
		return op, &Error{Phase: PhaseLinkCreated, LinkName: op.LinkName, Err: err}
	}
	op.Phase = PhaseLinkCreated

	// The link now exists on the target. From here the operation must reach
	// the link drop even if the caller's context is cancelled.
	detached := context.WithoutCancel(ctx)

	convert := params.FileNameConvert
	if convert[0] == "" {
		convert = [2]string{
			fmt.Sprintf("/%s/", params.SourcePDB),
			fmt.Sprintf("/%s/", params.TargetPDB),
		}
	}

	steps := []struct {
		phase    Phase
		progress string
		stmt     string
	}{
		{
			PhaseCloning,
			fmt.Sprintf("Cloning PDB %s to %s...", params.SourcePDB, params.TargetPDB),
			fmt.Sprintf("CREATE PLUGGABLE DATABASE %s FROM %s@%s FILE_NAME_CONVERT = ('%s', '%s')",
				params.TargetPDB, params.SourcePDB, op.LinkName, convert[0], convert[1]),
		},
		{
			PhaseOpened,
			fmt.Sprintf("Opening PDB %s...", params.TargetPDB),
			fmt.Sprintf("ALTER PLUGGABLE DATABASE %s OPEN READ WRITE", params.TargetPDB),
		},
		{
			PhaseStateSaved,
			"Saving PDB state...",
			fmt.Sprintf("ALTER PLUGGABLE DATABASE %s SAVE STATE", params.TargetPDB),
		},
	}

	var phaseErr *Error
	for _, step := range steps {
		e.emit(step.progress)
		if err := e.execPhase(detached, params.Target, step.stmt); err != nil {
			phaseErr = &Error{Phase: step.phase, LinkName: op.LinkName, Err: err}
			break
		}
		op.Phase = step.phase
	}

	e.emit(fmt.Sprintf("Dropping database link: %s", op.LinkName))
	cleanupErr := e.execPhase(detached, params.Target, dropLink)
	op.Phase = PhaseLinkDropped
	op.FinishedAt = time.Now()

	if phaseErr != nil {
		phaseErr.CleanupErr = cleanupErr
		return op, phaseErr
	}
	if cleanupErr != nil {
		logrus.Warnf("clone succeeded but dropping link %s failed: %s\n", op.LinkName, cleanupErr)
		e.emit(fmt.Sprintf("WARNING: could not drop database link %s: %s", op.LinkName, cleanupErr))
		op.CleanupErr = cleanupErr
	}
	e.emit("PDB clone completed successfully!")
	return op, nil
}

func (e *Executor) execPhase(ctx context.Context, target ora.Endpoint, stmt string) error {
	return ora.WithSession(ctx, e.Connector, target, func(s ora.Session) error {
		return s.Exec(ctx, stmt)
	})
}

func (e *Executor) emit(msg string) {
	if e.Progress != nil {
		e.Progress(msg)
	}
}
