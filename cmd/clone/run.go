/*
 * Copyright (c) ArtechDB, Inc.
 */

package clone

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/artechdb/pdbctl/cmd/util"
	"github.com/artechdb/pdbctl/internal/formatter"
	"github.com/artechdb/pdbctl/pkg/clone"
	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/precheck"
	"github.com/artechdb/pdbctl/pkg/validation"
)

var runCloneCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a remote PDB clone over a database link",
	Long: "Execute a remote PDB clone: create a database link on the target " +
		"container, clone the source PDB through it, open the new PDB, save " +
		"its state and drop the link. The validation pipeline runs first " +
		"unless --skip-precheck is set.",
	Example: `pdbctl clone run --source-host prod-scan --source-service PRODCDB \
	  --target-host dev-scan --target-service DEVCDB \
	  --source-pdb SALESPDB --target-pdb SALESCLONE`,
	Run: func(cmd *cobra.Command, args []string) {
		pair, err := util.ClonePairFromFlags(cmd)
		if err != nil {
			util.Fatal(err)
		}
		ctx, cancel := util.TimeoutContext()
		defer cancel()

		skipPrecheck, _ := cmd.Flags().GetBool("skip-precheck")
		if !skipPrecheck {
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
			formatter.PrintReport(result.Report)
			if result.Report.Overall() == validation.StatusFailed {
				logrus.Fatalf(formatter.Colorize(
					"Precheck FAILED, aborting clone. "+
						"Use --skip-precheck to override.\n", formatter.RedColor))
			}
		}

		force, _ := cmd.Flags().GetBool("force")
		err = util.ConfirmCommand(
			fmt.Sprintf("Are you sure you want to clone PDB %s (%s) to %s (%s)",
				pair.SourcePDB, pair.Source.Service,
				pair.TargetPDB, pair.Target.Service),
			force)
		if err != nil {
			util.Fatal(err)
		}

		from, _ := cmd.Flags().GetString("file-convert-from")
		to, _ := cmd.Flags().GetString("file-convert-to")

		s := spinner.New(spinner.CharSets[36], 100*time.Millisecond)
		s.Writer = os.Stderr
		s.Start()
		executor := &clone.Executor{
			Connector: ora.DefaultConnector{},
			Progress: func(msg string) {
				s.Suffix = " " + msg
			},
		}
		op, err := executor.Run(ctx, clone.Params{
			Source:          pair.Source,
			Target:          pair.Target,
			SourcePDB:       pair.SourcePDB,
			TargetPDB:       pair.TargetPDB,
			FileNameConvert: [2]string{from, to},
		})
		s.Stop()
		if err != nil {
			util.Fatal(err)
		}

		if op.CleanupErr != nil {
			logrus.Warnf(formatter.Colorize(
				fmt.Sprintf("Clone succeeded but dropping link %s failed: %s\n",
					op.LinkName, op.CleanupErr), formatter.YellowColor))
		}
		logrus.Infof(formatter.Colorize(
			fmt.Sprintf("PDB %s cloned to %s in %s (operation %s)\n",
				op.SourcePDB, op.TargetPDB,
				op.FinishedAt.Sub(op.StartedAt).Round(time.Second), op.ID),
			formatter.GreenColor))
	},
}

func init() {
	util.AddClonePairFlags(runCloneCmd)
	runCloneCmd.Flags().Bool("skip-precheck", false,
		"[Optional] Skip the validation pipeline before cloning. (default false)")
	runCloneCmd.Flags().BoolP("force", "f", false,
		"[Optional] Bypass the prompt for non-interactive usage.")
	runCloneCmd.Flags().String("file-convert-from", "",
		"[Optional] Datafile path fragment to replace on the target. "+
			"Derived from the PDB names when omitted.")
	runCloneCmd.Flags().String("file-convert-to", "",
		"[Optional] Replacement datafile path fragment on the target.")
	runCloneCmd.MarkFlagsRequiredTogether("file-convert-from", "file-convert-to")
}
