/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package report renders the HTML artifacts for precheck, postcheck and
// healthcheck runs.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"

	"github.com/artechdb/pdbctl/pkg/healthcheck"
	"github.com/artechdb/pdbctl/pkg/postcheck"
	"github.com/artechdb/pdbctl/pkg/precheck"
	"github.com/artechdb/pdbctl/pkg/validation"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ValidationData feeds the precheck/postcheck report template: connection
// metadata, the verification checks with violations, and the parameter
// comparison.
type ValidationData struct {
	Title       string
	GeneratedAt time.Time
	Source      precheck.Facts
	Target      precheck.Facts
	Report      validation.Report
	ParamDiffs  []postcheck.ParameterDiff
}

// HealthData feeds the healthcheck report template.
type HealthData struct {
	GeneratedAt time.Time
	Endpoint    string
	Metrics     *healthcheck.Metrics
}

// WriteValidation renders a precheck or postcheck report into dir and
// returns the absolute file path.
func WriteValidation(dir string, data ValidationData) (string, error) {
	name := fmt.Sprintf("%s_%s_%s_%s_pdb_validation_report_%s.html",
		data.Source.Container, data.Source.PDB,
		data.Target.Container, data.Target.PDB,
		data.GeneratedAt.Format("20060102_150405"))
	return render(dir, name, "validation.html.tmpl", data)
}

// WriteHealth renders a healthcheck report into dir and returns the
// absolute file path.
func WriteHealth(dir string, data HealthData) (string, error) {
	name := fmt.Sprintf("%s_db_health_report_%s.html",
		data.Metrics.DBName, data.GeneratedAt.Format("20060102_150405"))
	return render(dir, name, "health.html.tmpl", data)
}

func render(dir, name, templateName string, data interface{}) (string, error) {
	tmpl, err := template.New(templateName).
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/"+templateName)
	if err != nil {
		return "", errors.Wrap(err, "parsing report template")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "rendering report")
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", errors.Wrap(err, "creating report directory")
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", errors.Wrap(err, "writing report")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}
