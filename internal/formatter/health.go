/*
 * Copyright (c) ArtechDB, Inc.
 */

package formatter

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/artechdb/pdbctl/pkg/healthcheck"
)

// PrintMetrics renders a health snapshot as a series of tables.
func PrintMetrics(m *healthcheck.Metrics) {
	logrus.Infof("Database: %s (%s, %s)\n", m.DBName, m.OpenMode, m.Role)
	logrus.Infof("Version:  %s\n", m.Version)
	logrus.Infof("Size:     %s\n\n", humanize.IBytes(uint64(m.SizeGB*(1<<30))))

	if len(m.Instances) > 0 {
		section("Instances", []string{"ID", "Instance", "Host"}, func(t *tablewriter.Table) {
			for _, in := range m.Instances {
				t.Append([]string{fmt.Sprintf("%d", in.ID), in.Name, in.Host})
			}
		})
	}
	if len(m.Sessions) > 0 {
		section("Sessions", []string{"Status", "Count"}, func(t *tablewriter.Table) {
			for _, s := range m.Sessions {
				t.Append([]string{s.Status, fmt.Sprintf("%d", s.Count)})
			}
		})
	}
	if len(m.Tablespaces) > 0 {
		section("Tablespace usage", []string{"Tablespace", "Used (GB)", "Total (GB)", "Used %"},
			func(t *tablewriter.Table) {
				for _, ts := range m.Tablespaces {
					t.Append([]string{
						ts.Name,
						fmt.Sprintf("%.2f", ts.UsedGB),
						fmt.Sprintf("%.2f", ts.TotalGB),
						fmt.Sprintf("%.2f", ts.PctUsed),
					})
				}
			})
	}
	if len(m.TempUsage) > 0 {
		section("Temp usage", []string{"Tablespace", "Used (GB)", "Free (GB)", "Used %"},
			func(t *tablewriter.Table) {
				for _, tu := range m.TempUsage {
					t.Append([]string{
						tu.Name,
						fmt.Sprintf("%.2f", tu.UsedGB),
						fmt.Sprintf("%.2f", tu.FreeGB),
						fmt.Sprintf("%.2f", tu.PctUsed),
					})
				}
			})
	}
	if len(m.PDBs) > 0 {
		section("Pluggable databases", []string{"Name", "Open mode", "Restricted", "Size (GB)"},
			func(t *tablewriter.Table) {
				for _, p := range m.PDBs {
					t.Append([]string{
						p.Name, p.OpenMode, p.Restricted, fmt.Sprintf("%.2f", p.SizeGB),
					})
				}
			})
	}
	if len(m.WaitEvents) > 0 {
		section("Top wait events", []string{"Event", "Total waits", "Time waited", "Avg wait"},
			func(t *tablewriter.Table) {
				for _, w := range m.WaitEvents {
					t.Append([]string{
						w.Event,
						fmt.Sprintf("%d", w.TotalWaits),
						fmt.Sprintf("%d", w.TimeWaited),
						fmt.Sprintf("%.2f", w.AverageWait),
					})
				}
			})
	}
	if len(m.InvalidObjects) > 0 {
		section("Invalid objects", []string{"Owner", "Type", "Count"}, func(t *tablewriter.Table) {
			for _, io := range m.InvalidObjects {
				t.Append([]string{io.Owner, io.ObjectType, fmt.Sprintf("%d", io.Count)})
			}
		})
	}
}

func section(title string, header []string, fill func(*tablewriter.Table)) {
	logrus.Infof("%s\n", title)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	fill(table)
	table.Render()
	logrus.Info("\n")
}
