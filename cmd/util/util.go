/*
 * Copyright (c) ArtechDB, Inc.
 */

package util

import (
	"context"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/artechdb/pdbctl/internal/formatter"
	"github.com/artechdb/pdbctl/pkg/ora"
)

var errAborted = errors.New("command aborted")

// Progress returns the advisory text sink handed to the engine packages.
func Progress() func(string) {
	return func(msg string) {
		logrus.Info(msg + "\n")
	}
}

// TimeoutContext returns the per-operation context. The database layer has
// no timeout policy of its own, so every command runs under this
// conservative default.
func TimeoutContext() (context.Context, context.CancelFunc) {
	d := viper.GetDuration("timeout")
	if d <= 0 {
		d = 10 * time.Minute
	}
	return context.WithTimeout(context.Background(), d)
}

// ConfirmCommand prompts for confirmation before a mutating operation,
// unless bypass is set.
func ConfirmCommand(message string, bypass bool) error {
	if bypass {
		return nil
	}
	response := false
	prompt := &survey.Confirm{
		Message: message,
	}
	err := survey.AskOne(prompt, &response)
	if err != nil {
		return err
	}
	if !response {
		return errAborted
	}
	return nil
}

// AddEndpointFlags registers the connection flags for one endpoint under the
// given prefix ("source", "target" or "" for a single-endpoint command).
func AddEndpointFlags(cmd *cobra.Command, prefix string) {
	p := flagPrefix(prefix)
	cmd.Flags().String(p+"host", "", "[Required] Database host or SCAN address.")
	cmd.Flags().Int(p+"port", 1521, "[Optional] Database listener port.")
	cmd.Flags().String(p+"service", "",
		"[Required] Service name of the container database (CDB).")
	cmd.Flags().String(p+"user", "",
		"[Optional] Database username. Required for password authentication.")
	cmd.Flags().String(p+"password", "",
		"[Optional] Database password. Prompted for when omitted under password authentication.")
	cmd.MarkFlagRequired(p + "host")
	cmd.MarkFlagRequired(p + "service")
}

// EndpointFromFlags builds the endpoint for the given prefix, validating the
// flag combination once and prompting for a missing password.
func EndpointFromFlags(cmd *cobra.Command, prefix string) (ora.Endpoint, error) {
	p := flagPrefix(prefix)
	host, err := cmd.Flags().GetString(p + "host")
	if err != nil {
		return ora.Endpoint{}, err
	}
	port, err := cmd.Flags().GetInt(p + "port")
	if err != nil {
		return ora.Endpoint{}, err
	}
	service, err := cmd.Flags().GetString(p + "service")
	if err != nil {
		return ora.Endpoint{}, err
	}
	auth, err := cmd.Flags().GetString("auth")
	if err != nil {
		return ora.Endpoint{}, err
	}

	if ora.AuthMode(auth) == ora.AuthExternal {
		return ora.NewExternalAuth(host, port, service)
	}
	if ora.AuthMode(auth) != ora.AuthUserPassword {
		return ora.Endpoint{}, errors.Errorf(
			"unknown auth mode %q, allowed values: %s, %s",
			auth, ora.AuthExternal, ora.AuthUserPassword)
	}

	user, err := cmd.Flags().GetString(p + "user")
	if err != nil {
		return ora.Endpoint{}, err
	}
	password, err := cmd.Flags().GetString(p + "password")
	if err != nil {
		return ora.Endpoint{}, err
	}
	if password == "" {
		prompt := &survey.Password{
			Message: "Password for " + user + "@" + host + "/" + service + ":",
		}
		if err := survey.AskOne(prompt, &password); err != nil {
			return ora.Endpoint{}, err
		}
	}
	return ora.NewUserPassword(host, port, service, user, password)
}

func flagPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + "-"
}

// AddClonePairFlags registers the source/target endpoint flags plus the PDB
// names shared by the clone subcommands.
func AddClonePairFlags(cmd *cobra.Command) {
	cmd.Flags().SortFlags = false
	cmd.Flags().String("auth", string(ora.AuthExternal),
		"[Optional] Authentication mode. Allowed values: external, password.")
	AddEndpointFlags(cmd, "source")
	AddEndpointFlags(cmd, "target")
	cmd.Flags().String("source-pdb", "", "[Required] Name of the PDB to clone.")
	cmd.Flags().String("target-pdb", "", "[Required] Name of the PDB to create.")
	cmd.MarkFlagRequired("source-pdb")
	cmd.MarkFlagRequired("target-pdb")
}

// AddSingleEndpointFlags registers the connection flags for commands that
// target one database.
func AddSingleEndpointFlags(cmd *cobra.Command) {
	cmd.Flags().SortFlags = false
	cmd.Flags().String("auth", string(ora.AuthExternal),
		"[Optional] Authentication mode. Allowed values: external, password.")
	AddEndpointFlags(cmd, "")
}

// ClonePair is the resolved source/target parameter set of a clone
// subcommand.
type ClonePair struct {
	Source    ora.Endpoint
	Target    ora.Endpoint
	SourcePDB string
	TargetPDB string
}

// ClonePairFromFlags resolves the flags registered by AddClonePairFlags.
func ClonePairFromFlags(cmd *cobra.Command) (ClonePair, error) {
	var pair ClonePair
	var err error
	if pair.Source, err = EndpointFromFlags(cmd, "source"); err != nil {
		return pair, err
	}
	if pair.Target, err = EndpointFromFlags(cmd, "target"); err != nil {
		return pair, err
	}
	if pair.SourcePDB, err = cmd.Flags().GetString("source-pdb"); err != nil {
		return pair, err
	}
	if pair.TargetPDB, err = cmd.Flags().GetString("target-pdb"); err != nil {
		return pair, err
	}
	return pair, nil
}

// Fatal logs err in red and exits.
func Fatal(err error) {
	logrus.Fatalf(formatter.Colorize(err.Error()+"\n", formatter.RedColor))
}
