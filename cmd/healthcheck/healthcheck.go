/*
 * Copyright (c) ArtechDB, Inc.
 */

package healthcheck

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/artechdb/pdbctl/cmd/util"
	"github.com/artechdb/pdbctl/internal/formatter"
	"github.com/artechdb/pdbctl/pkg/healthcheck"
	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/report"
)

// HealthCheckCmd collects a read-only health snapshot of one database
var HealthCheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Collect a read-only health snapshot of a database",
	Long: "Collect version, size, session, tablespace, PDB and invalid " +
		"object metrics from a database. Read-only.",
	Example: `pdbctl healthcheck --host prod-scan --service PRODCDB`,
	Run: func(cmd *cobra.Command, args []string) {
		ep, err := util.EndpointFromFlags(cmd, "")
		if err != nil {
			util.Fatal(err)
		}
		ctx, cancel := util.TimeoutContext()
		defer cancel()

		collector := &healthcheck.Collector{
			Connector: ora.DefaultConnector{},
			Progress:  util.Progress(),
		}
		metrics, err := collector.Run(ctx, ep)
		if err != nil {
			util.Fatal(err)
		}

		if !formatter.WriteOutput(metrics) {
			formatter.PrintMetrics(metrics)
		}

		if html, _ := cmd.Flags().GetBool("html"); html {
			path, err := report.WriteHealth(viper.GetString("reportDir"),
				report.HealthData{
					GeneratedAt: time.Now(),
					Endpoint:    ep.String(),
					Metrics:     metrics,
				})
			if err != nil {
				logrus.Warnf("Failed to write HTML report: %s\n", err)
			} else {
				logrus.Infof("HTML report written to %s\n", path)
			}
		}
	},
}

func init() {
	util.AddSingleEndpointFlags(HealthCheckCmd)
	HealthCheckCmd.Flags().Bool("html", false,
		"[Optional] Write an HTML health report into the report directory. (default false)")
}
