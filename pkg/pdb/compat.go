/*
 * Copyright (c) ArtechDB, Inc.
 */

package pdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/artechdb/pdbctl/pkg/ora"
)

// Violation is one named reason the target refused the descriptor document.
type Violation struct {
	Name    string
	Cause   string
	Type    string
	Message string
	Status  string
	Action  string
}

// CompatibilityResult is the target container's verdict on a descriptor
// document. Violations is populated only for a negative verdict, capped to
// the 20 most recent entries, newest first.
type CompatibilityResult struct {
	Compatible bool
	Violations []Violation
}

// violationCap bounds the violation fetch to the most recent entries.
const violationCap = 20

// CheckPlugCompatibility submits a descriptor document to the target
// container and returns its verdict. The session must be connected to the
// target's parent. Never mutates source or target state.
func CheckPlugCompatibility(ctx context.Context, s ora.Session, document []byte) (CompatibilityResult, error) {
	if len(document) == 0 {
		return CompatibilityResult{}, errors.New("descriptor document is empty")
	}

	verdict := ora.NewStringOut(8)
	err := s.Exec(ctx, `
		DECLARE
			v_compatible BOOLEAN;
		BEGIN
			v_compatible := DBMS_PDB.CHECK_PLUG_COMPATIBILITY(
				pdb_descr_xml => :xml_input
			);
			IF v_compatible THEN
				:result := 'TRUE';
			ELSE
				:result := 'FALSE';
			END IF;
		END;`,
		ora.Named("xml_input", ora.Clob(document)),
		ora.Named("result", verdict),
	)
	if err != nil {
		return CompatibilityResult{}, errors.Wrap(err, "running CHECK_PLUG_COMPATIBILITY")
	}

	if verdict.String() == "TRUE" {
		return CompatibilityResult{Compatible: true}, nil
	}

	violations, err := fetchViolations(ctx, s)
	if err != nil {
		return CompatibilityResult{}, errors.Wrap(err, "fetching plug-in violations")
	}
	return CompatibilityResult{Compatible: false, Violations: violations}, nil
}

func fetchViolations(ctx context.Context, s ora.Session) ([]Violation, error) {
	rows, err := s.Query(ctx, `
		SELECT name, cause, type, message, status, action
		FROM pdb_plug_in_violations
		WHERE status != 'RESOLVED'
		ORDER BY time DESC
		FETCH FIRST :1 ROWS ONLY`, violationCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Violation
	for rows.Next() {
		var v Violation
		if err := rows.Scan(&v.Name, &v.Cause, &v.Type, &v.Message, &v.Status, &v.Action); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
