/*
 * Copyright (c) ArtechDB, Inc.
 */

package clone

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/artechdb/pdbctl/cmd/util"
	"github.com/artechdb/pdbctl/internal/formatter"
	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/postcheck"
	"github.com/artechdb/pdbctl/pkg/precheck"
	"github.com/artechdb/pdbctl/pkg/report"
	"github.com/artechdb/pdbctl/pkg/validation"
)

var postcheckCloneCmd = &cobra.Command{
	Use:   "postcheck",
	Short: "Compare a cloned PDB against its source",
	Long: "Compare the full parameter set and service names of a cloned PDB " +
		"against its source. Read-only; exits non-zero when drift is detected.",
	Example: `pdbctl clone postcheck --source-host prod-scan --source-service PRODCDB \
	  --target-host dev-scan --target-service DEVCDB \
	  --source-pdb SALESPDB --target-pdb SALESCLONE`,
	Run: func(cmd *cobra.Command, args []string) {
		pair, err := util.ClonePairFromFlags(cmd)
		if err != nil {
			util.Fatal(err)
		}
		ctx, cancel := util.TimeoutContext()
		defer cancel()

		comparator := &postcheck.Comparator{
			Connector: ora.DefaultConnector{},
			Progress:  util.Progress(),
		}
		result, err := comparator.Run(ctx, postcheck.Params{
			Source:    pair.Source,
			Target:    pair.Target,
			SourcePDB: pair.SourcePDB,
			TargetPDB: pair.TargetPDB,
		})
		if err != nil {
			util.Fatal(err)
		}

		allParams, _ := cmd.Flags().GetBool("all-parameters")
		if !formatter.WriteOutput(result) {
			formatter.PrintReport(result.Report)
			formatter.PrintDiffs(result.Diffs, !allParams)
		}

		if html, _ := cmd.Flags().GetBool("html"); html {
			path, err := report.WriteValidation(viper.GetString("reportDir"),
				report.ValidationData{
					Title:       "PDB Clone Postcheck Report",
					GeneratedAt: time.Now(),
					Source: precheck.Facts{
						Endpoint:  pair.Source.String(),
						Container: pair.Source.Service,
						PDB:       pair.SourcePDB,
					},
					Target: precheck.Facts{
						Endpoint:  pair.Target.String(),
						Container: pair.Target.Service,
						PDB:       pair.TargetPDB,
					},
					Report:     result.Report,
					ParamDiffs: result.Diffs,
				})
			if err != nil {
				logrus.Warnf("Failed to write HTML report: %s\n", err)
			} else {
				logrus.Infof("HTML report written to %s\n", path)
			}
		}

		if result.Report.Overall() == validation.StatusFailed {
			logrus.Fatalf(formatter.Colorize(
				"PDB clone postcheck FAILED\n", formatter.RedColor))
		}
		logrus.Infof(formatter.Colorize(
			"PDB clone postcheck PASSED\n", formatter.GreenColor))
	},
}

func init() {
	util.AddClonePairFlags(postcheckCloneCmd)
	postcheckCloneCmd.Flags().Bool("all-parameters", false,
		"[Optional] List matching parameters as well as mismatches. (default false)")
	postcheckCloneCmd.Flags().Bool("html", true,
		"[Optional] Write an HTML validation report into the report directory. (default true)")
}
