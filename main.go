/*
 * Copyright (c) ArtechDB, Inc.
 */

package main

import (
	_ "embed"
	"strings"

	"github.com/artechdb/pdbctl/cmd"
	"github.com/artechdb/pdbctl/internal/log"
)

//go:embed version.txt
var version string

func main() {
	log.SetFormatter()
	cmd.Execute(strings.TrimSpace(version))
}
