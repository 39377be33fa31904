/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package config validates the pdbctl configuration file against an
// embedded JSON schema before any command consumes it.
package config

import (
	_ "embed"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

//go:embed pdbctl-schema.json
var schema string

// Validate checks the YAML config file at path against the schema and
// returns an error listing every violation.
func Validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return errors.Wrapf(err, "config file %s is not valid YAML", path)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to validate config file")
	}
	if result.Valid() {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("config file " + path + " is invalid:")
	for _, desc := range result.Errors() {
		sb.WriteString("\n  " + desc.String())
	}
	return errors.New(sb.String())
}
