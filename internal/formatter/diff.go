/*
 * Copyright (c) ArtechDB, Inc.
 */

package formatter

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/artechdb/pdbctl/pkg/postcheck"
)

// PrintDiffs renders the parameter comparison. When mismatchesOnly is set,
// matching parameters are suppressed.
func PrintDiffs(diffs []postcheck.ParameterDiff, mismatchesOnly bool) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Parameter", "Source", "Target", "Match"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	rows := 0
	for _, d := range diffs {
		if mismatchesOnly && d.Matches {
			continue
		}
		rows++
		match := "yes"
		colors := []tablewriter.Colors{{}, {}, {}, {tablewriter.FgGreenColor}}
		if !d.Matches {
			match = "no"
			colors = []tablewriter.Colors{
				{tablewriter.FgRedColor},
				{tablewriter.FgRedColor},
				{tablewriter.FgRedColor},
				{tablewriter.FgRedColor},
			}
		}
		table.Rich([]string{d.Name, d.SourceValue, d.TargetValue, match}, colors)
	}
	if rows == 0 {
		logrus.Info("No parameter differences found\n")
		return
	}
	table.Render()
}
