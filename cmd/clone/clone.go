/*
 * Copyright (c) ArtechDB, Inc.
 */

package clone

import (
	"github.com/spf13/cobra"
)

// CloneCmd set of commands are used to validate and execute remote PDB
// clones between container databases
var CloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Validate and execute remote PDB clones",
	Long: "Validate and execute remote PDB clones between Oracle container " +
		"databases, and verify the result afterwards.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	CloneCmd.AddCommand(precheckCloneCmd)
	CloneCmd.AddCommand(runCloneCmd)
	CloneCmd.AddCommand(postcheckCloneCmd)
}
