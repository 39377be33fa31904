/*
 * Copyright (c) ArtechDB, Inc.
 */

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/artechdb/pdbctl/cmd/clone"
	"github.com/artechdb/pdbctl/cmd/connection"
	"github.com/artechdb/pdbctl/cmd/diagnose"
	"github.com/artechdb/pdbctl/cmd/healthcheck"
	"github.com/artechdb/pdbctl/internal/config"
	"github.com/artechdb/pdbctl/internal/formatter"
	"github.com/artechdb/pdbctl/internal/log"

	"github.com/common-nighthawk/go-figure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "pdbctl",
	Short: "pdbctl - Command line tools to validate, clone and monitor " +
		"Oracle pluggable databases (PDBs).",
	Long: `
	pdbctl automates remote PDB cloning between Oracle container databases:
	it validates source and target compatibility before the clone, executes
	the clone over a database link, verifies the result afterwards, and
	reports on the health of the databases involved.`,

	Run: func(cmd *cobra.Command, args []string) {
		myFigure := figure.NewFigure("pdbctl", "", true)
		myFigure.Print()
		logrus.Printf("\n")
		cmd.Help()
	},
}

// called on module init
func init() {
	cobra.OnInitialize(initConfig)
	cobra.EnableCaseInsensitive = true

	setDefaults()
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Full path to a specific configuration file for pdbctl. "+
			"Defaults to '$HOME/.pdbctl/.pdbctl.yaml'.")
	rootCmd.PersistentFlags().StringP("output", "o", formatter.TableFormatKey,
		"Select the desired output format. Allowed values: table, json, pretty, yaml.")
	rootCmd.PersistentFlags().StringP("logLevel", "l", "info",
		"Select the desired log level format. Allowed values: debug, info, warn, error, fatal.")
	rootCmd.PersistentFlags().Bool("debug", false, "Use debug mode, same as --logLevel debug.")
	rootCmd.PersistentFlags().
		Bool("disable-color", false, "Disable colors in output. (default false)")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Minute,
		"Database operation timeout, example: 5m, 1h.")
	rootCmd.PersistentFlags().String("report-dir", ".",
		"Directory where HTML reports and describe audit files are written.")
	rootCmd.PersistentFlags().String("log-file", "",
		"Mirror log output into this file, rotated by size. Disabled when empty.")

	//Bind peristents flags to viper
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("logLevel", rootCmd.PersistentFlags().Lookup("logLevel"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("disable-color", rootCmd.PersistentFlags().Lookup("disable-color"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("reportDir", rootCmd.PersistentFlags().Lookup("report-dir"))
	viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.AddCommand(clone.CloneCmd)
	rootCmd.AddCommand(connection.ConnectionCmd)
	rootCmd.AddCommand(healthcheck.HealthCheckCmd)
	rootCmd.AddCommand(diagnose.DiagnoseCmd)

	addGroupsCmd(rootCmd)
}

// Execute commands
func Execute(version string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("pdbctl version: {{.Version}}\n")
	if err := rootCmd.Execute(); err != nil {
		// Set log level and formatter for this error
		log.SetLogLevel(viper.GetString("logLevel"), viper.GetBool("debug"))
		logrus.Fatal(formatter.Colorize(err.Error()+"\n", formatter.RedColor))
	}
}

func setDefaults() {
	viper.SetDefault("output", formatter.TableFormatKey)
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("debug", false)
	viper.SetDefault("disable-color", false)
	viper.SetDefault("timeout", 10*time.Minute)
	viper.SetDefault("reportDir", ".")
	viper.SetDefault("logFile", "")
}

func addGroupsCmd(rootCmd *cobra.Command) {

	rootCmd.AddGroup(
		&cobra.Group{
			ID:    "clone",
			Title: "Clone Operation Commands",
		},
	)

	clone.CloneCmd.GroupID = "clone"

	rootCmd.AddGroup(
		&cobra.Group{
			ID:    "diagnostics",
			Title: "Diagnostic Commands",
		},
	)

	connection.ConnectionCmd.GroupID = "diagnostics"
	healthcheck.HealthCheckCmd.GroupID = "diagnostics"
	diagnose.DiagnoseCmd.GroupID = "diagnostics"
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		homeDir, err := os.Stat(home)
		if err != nil {
			cobra.CheckErr(err)
		}
		homePerms := homeDir.Mode().Perm()
		os.Mkdir(home+"/.pdbctl", homePerms)
		// Search config in home directory with name ".pdbctl" (without extension).
		viper.AddConfigPath(home + "/.pdbctl")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pdbctl")
		viper.SetConfigFile(home + "/.pdbctl/.pdbctl.yaml")
	}

	//Will check every environment variable starting with PDBCTL_
	viper.SetEnvPrefix("pdbctl")
	//Read all enviromnent variable that match PDBCTL_ENVNAME
	viper.AutomaticEnv() // read in environment variables that match
	// Set log level and formatter
	log.SetLogLevel(viper.GetString("logLevel"), viper.GetBool("debug"))
	if output := viper.GetString("output"); !formatter.IsValidOutputType(output) {
		logrus.Fatalf("%s", formatter.Colorize(
			fmt.Sprintf("Invalid output format %q, allowed values: table, json, pretty, yaml\n",
				output), formatter.RedColor))
	}
	if logFile := viper.GetString("logFile"); logFile != "" {
		log.EnableFileLogging(logFile)
	}
	// If a config file is found, validate and read it in.
	if err := viper.ReadInConfig(); err == nil {
		if err := config.Validate(viper.ConfigFileUsed()); err != nil {
			logrus.Fatalf("%s", formatter.Colorize(err.Error()+"\n", formatter.RedColor))
		}
		logrus.Debugf("Using config file: %s\n", viper.ConfigFileUsed())
	}
}
