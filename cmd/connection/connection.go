/*
 * Copyright (c) ArtechDB, Inc.
 */

package connection

import (
	"github.com/spf13/cobra"
)

// ConnectionCmd set of commands are used to probe database connectivity
var ConnectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "Probe database connectivity",
	Long:  "Probe connectivity and authentication against a database endpoint.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	ConnectionCmd.AddCommand(testConnectionCmd)
}
