/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package formatter renders command output: colored status tables for check
// reports, parameter diffs and health metrics, plus json/pretty/yaml
// marshaling for machine consumption.
package formatter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/artechdb/pdbctl/pkg/validation"
)

// Format keys used to specify certain kinds of output formats
const (
	TableFormatKey  = "table"
	JSONFormatKey   = "json"
	PrettyFormatKey = "pretty"
	YAMLFormatKey   = "yaml"

	// GreenColor for colored output
	GreenColor = "green"
	// RedColor for colored output
	RedColor = "red"
	// BlueColor for colored output
	BlueColor = "blue"
	// YellowColor for colored output
	YellowColor = "yellow"
)

// IsValidOutputType reports whether t is one of the supported output keys.
func IsValidOutputType(t string) bool {
	return slices.Contains(
		[]string{TableFormatKey, JSONFormatKey, PrettyFormatKey, YAMLFormatKey}, t)
}

// IsOutputType compares t with the output type configured for this run.
func IsOutputType(t string) bool {
	return viper.GetString("output") == t
}

// Colorize the message accoring the colors var
func Colorize(message string, colors string) string {
	//If Colors is disable return the message as it is.
	if viper.GetBool("disable-color") {
		color.NoColor = true
	}
	switch colors {
	case GreenColor:
		return color.GreenString(message)
	case RedColor:
		return color.RedString(message)
	case BlueColor:
		return color.BlueString(message)
	case YellowColor:
		return color.YellowString(message)
	default:
		return message
	}
}

// StatusColor maps a check status to its display color.
func StatusColor(status validation.Status) string {
	switch status {
	case validation.StatusPass:
		return GreenColor
	case validation.StatusFailed:
		return RedColor
	default:
		return YellowColor
	}
}

func statusCellColors(status validation.Status) []tablewriter.Colors {
	var c tablewriter.Colors
	switch status {
	case validation.StatusPass:
		c = tablewriter.Colors{tablewriter.FgGreenColor}
	case validation.StatusFailed:
		c = tablewriter.Colors{tablewriter.FgRedColor}
	default:
		c = tablewriter.Colors{tablewriter.FgYellowColor}
	}
	return []tablewriter.Colors{c, c, c, c, c}
}

// PrintReport renders a validation report as a colored table followed by the
// overall verdict.
func PrintReport(report validation.Report) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Check", "Status", "Source", "Target"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	for i, c := range report.Checks {
		data := []string{
			fmt.Sprintf("%d", i+1), c.Name, string(c.Status), c.SourceValue, c.TargetValue,
		}
		table.Rich(data, statusCellColors(c.Status))
	}
	table.Render()

	overall := report.Overall()
	logrus.Infof("Overall: %s\n",
		Colorize(string(overall), StatusColor(overall)))

	for _, c := range report.Checks {
		if len(c.Violations) > 0 {
			logrus.Infof("\nPlug-in violations reported for '%s':\n", c.Name)
			printViolations(c)
		}
	}
}

func printViolations(c validation.Check) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Violation", "Type", "Message", "Action"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetRowLine(true)
	for _, v := range c.Violations {
		table.Append([]string{v.Name, v.Type, v.Message, v.Action})
	}
	table.Render()
}

// WriteOutput marshals v according to the configured output format. Returns
// false when the format is table and nothing was written.
func WriteOutput(v interface{}) bool {
	switch {
	case IsOutputType(JSONFormatKey):
		b, err := json.Marshal(v)
		if err != nil {
			logrus.Fatalf(Colorize(err.Error()+"\n", RedColor))
		}
		fmt.Println(string(b))
		return true
	case IsOutputType(PrettyFormatKey):
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			logrus.Fatalf(Colorize(err.Error()+"\n", RedColor))
		}
		fmt.Println(string(b))
		return true
	case IsOutputType(YAMLFormatKey):
		b, err := yaml.Marshal(v)
		if err != nil {
			logrus.Fatalf(Colorize(err.Error()+"\n", RedColor))
		}
		fmt.Print(string(b))
		return true
	default:
		return false
	}
}
