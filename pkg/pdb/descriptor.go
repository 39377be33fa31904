/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package pdb implements the container-level primitives behind PDB clone
// validation: descriptor negotiation over DBMS_PDB.DESCRIBE, the plug
// compatibility verdict, and storage quota values.
package pdb

import (
	"context"

	"github.com/artechdb/pdbctl/pkg/ora"
)

// Instance is one database instance hosting a container.
type Instance struct {
	ID   int
	Name string
	Host string
}

// Descriptor is the live metadata of one pluggable database, read from its
// parent container's connection. Never persisted.
type Descriptor struct {
	Container string
	Name      string
	OpenMode  string
	SizeBytes int64
	Instances []Instance
}

// SizeGB returns the datafile footprint in gigabytes.
func (d Descriptor) SizeGB() float64 {
	return float64(d.SizeBytes) / (1 << 30)
}

// ReadInstances lists the instances of the connected container, RAC-aware.
func ReadInstances(ctx context.Context, s ora.Session) ([]Instance, error) {
	rows, err := s.Query(ctx, `
		SELECT inst_id, instance_name, host_name
		FROM gv$instance
		ORDER BY inst_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		var in Instance
		if err := rows.Scan(&in.ID, &in.Name, &in.Host); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// ReadOpenMode returns the open mode of the named PDB and whether it exists.
// The name match is case-insensitive on both sides.
func ReadOpenMode(ctx context.Context, s ora.Session, pdbName string) (string, bool, error) {
	rows, err := s.Query(ctx, `
		SELECT open_mode
		FROM v$pdbs
		WHERE UPPER(name) = UPPER(:1)`, pdbName)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return "", false, rows.Err()
	}
	var mode string
	if err := rows.Scan(&mode); err != nil {
		return "", false, err
	}
	return mode, true, nil
}

// ReadSizeBytes sums the datafile bytes of the named PDB. Returns 0 when the
// PDB does not exist or has no datafiles.
func ReadSizeBytes(ctx context.Context, s ora.Session, pdbName string) (int64, error) {
	var size *int64
	err := s.QueryRow(ctx, `
		SELECT SUM(bytes)
		FROM v$datafile
		WHERE con_id = (SELECT con_id FROM v$pdbs WHERE UPPER(name) = UPPER(:1))`,
		pdbName).Scan(&size)
	if err != nil {
		return 0, err
	}
	if size == nil {
		return 0, nil
	}
	return *size, nil
}

// ReadDescriptor assembles the full descriptor of one PDB from its parent
// container's session.
func ReadDescriptor(ctx context.Context, s ora.Session, container, pdbName string) (Descriptor, error) {
	d := Descriptor{Container: container, Name: pdbName}

	instances, err := ReadInstances(ctx, s)
	if err != nil {
		return d, err
	}
	d.Instances = instances

	mode, found, err := ReadOpenMode(ctx, s, pdbName)
	if err != nil {
		return d, err
	}
	if found {
		d.OpenMode = mode
	}

	size, err := ReadSizeBytes(ctx, s, pdbName)
	if err != nil {
		return d, err
	}
	d.SizeBytes = size
	return d, nil
}
