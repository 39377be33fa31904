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
	"github.com/artechdb/pdbctl/pkg/precheck"
	"github.com/artechdb/pdbctl/pkg/report"
	"github.com/artechdb/pdbctl/pkg/validation"
)

var precheckCloneCmd = &cobra.Command{
	Use:   "precheck",
	Short: "Validate source and target compatibility before a PDB clone",
	Long: "Run the full pre-clone validation pipeline between the source and " +
		"target container databases. Every check runs even when earlier checks " +
		"fail; the command exits non-zero when the overall result is FAILED.",
	Example: `pdbctl clone precheck --source-host prod-scan --source-service PRODCDB \
	  --target-host dev-scan --target-service DEVCDB \
	  --source-pdb SALESPDB --target-pdb SALESCLONE`,
	Run: func(cmd *cobra.Command, args []string) {
		pair, err := util.ClonePairFromFlags(cmd)
		if err != nil {
			util.Fatal(err)
		}
		ctx, cancel := util.TimeoutContext()
		defer cancel()

		pipeline := &precheck.Pipeline{
			Connector: ora.DefaultConnector{},
			AuditDir:  viper.GetString("reportDir"),
			Progress:  util.Progress(),
		}
		result := pipeline.Run(ctx, precheck.Params{
			Source:    pair.Source,
			Target:    pair.Target,
			SourcePDB: pair.SourcePDB,
			TargetPDB: pair.TargetPDB,
		})

		if !formatter.WriteOutput(result) {
			formatter.PrintReport(result.Report)
		}

		if html, _ := cmd.Flags().GetBool("html"); html {
			path, err := report.WriteValidation(viper.GetString("reportDir"),
				report.ValidationData{
					Title:       "PDB Clone Precheck Report",
					GeneratedAt: time.Now(),
					Source:      result.Source,
					Target:      result.Target,
					Report:      result.Report,
					ParamDiffs:  result.ParamDiffs,
				})
			if err != nil {
				logrus.Warnf("Failed to write HTML report: %s\n", err)
			} else {
				logrus.Infof("HTML report written to %s\n", path)
			}
		}

		if result.Report.Overall() == validation.StatusFailed {
			logrus.Fatalf(formatter.Colorize(
				"PDB clone precheck FAILED\n", formatter.RedColor))
		}
		logrus.Infof(formatter.Colorize(
			"PDB clone precheck PASSED\n", formatter.GreenColor))
	},
}

func init() {
	util.AddClonePairFlags(precheckCloneCmd)
	precheckCloneCmd.Flags().Bool("html", true,
		"[Optional] Write an HTML validation report into the report directory. (default true)")
}
