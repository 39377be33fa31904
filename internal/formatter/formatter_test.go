/*
 * Copyright (c) ArtechDB, Inc.
 */

package formatter

import (
	"testing"

	"github.com/spf13/viper"
	"gotest.tools/v3/assert"

	"github.com/artechdb/pdbctl/pkg/validation"
)

func TestIsValidOutputType(t *testing.T) {
	for _, valid := range []string{"table", "json", "pretty", "yaml"} {
		assert.Assert(t, IsValidOutputType(valid), "type=%q", valid)
	}
	assert.Assert(t, !IsValidOutputType("xml"))
	assert.Assert(t, !IsValidOutputType(""))
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, StatusColor(validation.StatusPass), GreenColor)
	assert.Equal(t, StatusColor(validation.StatusFailed), RedColor)
	assert.Equal(t, StatusColor(validation.StatusSkipped), YellowColor)
}

func TestColorizeDisabled(t *testing.T) {
	viper.Set("disable-color", true)
	defer viper.Set("disable-color", false)
	assert.Equal(t, Colorize("plain", RedColor), "plain")
}

func TestColorizeUnknownColorPassesThrough(t *testing.T) {
	assert.Equal(t, Colorize("as is", "magenta"), "as is")
}

func TestIsOutputType(t *testing.T) {
	viper.Set("output", JSONFormatKey)
	defer viper.Set("output", TableFormatKey)
	assert.Assert(t, IsOutputType(JSONFormatKey))
	assert.Assert(t, !IsOutputType(TableFormatKey))
}

func TestWriteOutputDispatchesOnConfiguredFormat(t *testing.T) {
	defer viper.Set("output", TableFormatKey)

	for _, machine := range []string{JSONFormatKey, PrettyFormatKey, YAMLFormatKey} {
		viper.Set("output", machine)
		assert.Assert(t, WriteOutput(map[string]string{"k": "v"}), "format=%q", machine)
	}

	viper.Set("output", TableFormatKey)
	assert.Assert(t, !WriteOutput(map[string]string{"k": "v"}))
}
