/*
 * Copyright (c) ArtechDB, Inc.
 */

package pdb

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/artechdb/pdbctl/pkg/ora"
)

func TestCheckPlugCompatibilityRejectsEmptyDocument(t *testing.T) {
	_, err := CheckPlugCompatibility(context.Background(), &fakeSession{}, nil)
	assert.ErrorContains(t, err, "descriptor document is empty")
}

func TestCheckPlugCompatibilityCompatible(t *testing.T) {
	s := &fakeSession{
		execFn: func(stmt string, args ...interface{}) error {
			out := outBindFor(args, "result").(*ora.StringOut)
			out.SetString("TRUE")
			return nil
		},
	}
	result, err := CheckPlugCompatibility(context.Background(), s, []byte("<pdb/>"))
	assert.NilError(t, err)
	assert.Assert(t, result.Compatible)
	assert.Equal(t, len(result.Violations), 0)
}

func TestCheckPlugCompatibilityIncompatibleFetchesViolations(t *testing.T) {
	s := &fakeSession{
		execFn: func(stmt string, args ...interface{}) error {
			out := outBindFor(args, "result").(*ora.StringOut)
			out.SetString("FALSE")
			return nil
		},
		results: map[string][][]interface{}{
			"pdb_plug_in_violations": {
				{"SALESPDB", "OPTION", "ERROR", "APEX mismatch", "PENDING", "Install APEX"},
				{"SALESPDB", "Parameter", "WARNING", "CPU count differs", "PENDING", "Review"},
			},
		},
	}
	result, err := CheckPlugCompatibility(context.Background(), s, []byte("<pdb/>"))
	assert.NilError(t, err)
	assert.Assert(t, !result.Compatible)
	assert.Equal(t, len(result.Violations), 2)
	assert.Equal(t, result.Violations[0].Message, "APEX mismatch")
	assert.Equal(t, result.Violations[1].Type, "WARNING")
}
