/*
 * Copyright (c) ArtechDB, Inc.
 */

package diagnose

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/artechdb/pdbctl/cmd/util"
	"github.com/artechdb/pdbctl/internal/formatter"
	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/pdb"
)

// DiagnoseCmd inspects how a database exposes DBMS_PDB.DESCRIBE
var DiagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Inspect the DBMS_PDB surface of a database",
	Long: "Inspect how a database exposes DBMS_PDB to the connected user: " +
		"package status, procedure inventory, the DESCRIBE overload catalog " +
		"with its classified calling conventions, and the session privileges " +
		"the clone workflow needs.",
	Example: `pdbctl diagnose --host prod-scan --service PRODCDB`,
	Run: func(cmd *cobra.Command, args []string) {
		ep, err := util.EndpointFromFlags(cmd, "")
		if err != nil {
			util.Fatal(err)
		}
		ctx, cancel := util.TimeoutContext()
		defer cancel()

		var diagnosis *pdb.Diagnosis
		err = ora.WithSession(ctx, ora.DefaultConnector{}, ep,
			func(s ora.Session) error {
				var err error
				diagnosis, err = pdb.Diagnose(ctx, s)
				return err
			})
		if err != nil {
			util.Fatal(err)
		}

		if formatter.WriteOutput(diagnosis) {
			return
		}
		printDiagnosis(diagnosis)

		if diagnosis.Usable() {
			logrus.Infof(formatter.Colorize(
				"Remote describe is usable from this session\n", formatter.GreenColor))
			return
		}
		logrus.Fatalf(formatter.Colorize(
			"Remote describe is NOT usable from this session\n", formatter.RedColor))
	},
}

func printDiagnosis(d *pdb.Diagnosis) {
	logrus.Infof(formatter.Colorize("DBMS_PDB package status:\n", formatter.BlueColor))
	objects := tablewriter.NewWriter(os.Stdout)
	objects.SetHeader([]string{"Object Type", "Status"})
	for _, o := range d.Objects {
		objects.Append([]string{o.Type, o.Status})
	}
	objects.Render()

	logrus.Infof("\nProcedures: %s\n", strings.Join(d.Procedures, ", "))

	logrus.Infof(formatter.Colorize("\nDESCRIBE overload catalog:\n", formatter.BlueColor))
	catalog := tablewriter.NewWriter(os.Stdout)
	catalog.SetHeader([]string{"Overload", "Position", "Argument", "Data Type", "In/Out"})
	for _, a := range d.Signature {
		catalog.Append([]string{
			a.Overload, fmt.Sprintf("%d", a.Position), a.Name, a.DataType, a.Direction,
		})
	}
	catalog.Render()

	logrus.Infof(formatter.Colorize("\nCalling conventions:\n", formatter.BlueColor))
	for _, shape := range d.Shapes {
		logrus.Infof("  overload %s: %s (pdb name argument: %t)\n",
			shape.Overload, shape.Kind, shape.HasNameArg)
	}
	if len(d.Shapes) == 0 {
		logrus.Infof("  none recognized\n")
	}

	if len(d.MissingPrivileges) > 0 {
		logrus.Infof(formatter.Colorize(
			fmt.Sprintf("\nMissing privileges: %s\n",
				strings.Join(d.MissingPrivileges, ", ")), formatter.YellowColor))
	}
}

func init() {
	util.AddSingleEndpointFlags(DiagnoseCmd)
}
