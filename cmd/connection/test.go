/*
 * Copyright (c) ArtechDB, Inc.
 */

package connection

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/artechdb/pdbctl/cmd/util"
	"github.com/artechdb/pdbctl/internal/formatter"
	"github.com/artechdb/pdbctl/pkg/ora"
)

var testConnectionCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connectivity and authentication against an endpoint",
	Example: `pdbctl connection test --host prod-scan --service PRODCDB
pdbctl connection test --host prod-scan --service PRODCDB --auth password --user system`,
	Run: func(cmd *cobra.Command, args []string) {
		ep, err := util.EndpointFromFlags(cmd, "")
		if err != nil {
			util.Fatal(err)
		}
		ctx, cancel := util.TimeoutContext()
		defer cancel()

		var message string
		err = ora.WithSession(ctx, ora.DefaultConnector{}, ep,
			func(s ora.Session) error {
				return s.QueryRow(ctx,
					`SELECT 'Connection successful' FROM dual`).Scan(&message)
			})
		if err != nil {
			util.Fatal(err)
		}
		logrus.Infof(formatter.Colorize(
			fmt.Sprintf("%s: %s\n", ep.String(), message), formatter.GreenColor))
	},
}

func init() {
	util.AddSingleEndpointFlags(testConnectionCmd)
}
