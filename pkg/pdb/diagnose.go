/*
 * Copyright (c) ArtechDB, Inc.
 */

package pdb

import (
	"context"

	"github.com/thoas/go-funk"

	"github.com/artechdb/pdbctl/pkg/ora"
)

// PackageObject is the dictionary status of one DBMS_PDB object.
type PackageObject struct {
	Type   string
	Status string
}

// clonePrivileges are the system privileges the clone workflow exercises.
var clonePrivileges = []string{
	"CREATE PLUGGABLE DATABASE",
	"CREATE PUBLIC DATABASE LINK",
	"DROP PUBLIC DATABASE LINK",
}

// Diagnosis is the full picture of how a database exposes DBMS_PDB to the
// connected user: object status, procedure inventory, the DESCRIBE argument
// catalog with its classified calling conventions, and the session
// privileges the clone workflow needs.
type Diagnosis struct {
	Objects           []PackageObject
	Procedures        []string
	Signature         []SignatureArg
	Shapes            []Shape
	Privileges        []string
	MissingPrivileges []string
}

// Usable reports whether a remote client could drive a clone through this
// session: at least one document-output DESCRIBE overload and no missing
// privilege.
func (d *Diagnosis) Usable() bool {
	if len(d.MissingPrivileges) > 0 {
		return false
	}
	for _, shape := range d.Shapes {
		if shape.Kind == ShapeDocumentOutput {
			return true
		}
	}
	return false
}

// Diagnose inspects the data dictionary for the DBMS_PDB surface visible to
// the session. Read-only.
func Diagnose(ctx context.Context, s ora.Session) (*Diagnosis, error) {
	d := &Diagnosis{}

	rows, err := s.Query(ctx, `
		SELECT object_type, status
		FROM all_objects
		WHERE owner = 'SYS'
		AND object_name = 'DBMS_PDB'
		ORDER BY object_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o PackageObject
		if err := rows.Scan(&o.Type, &o.Status); err != nil {
			return nil, err
		}
		d.Objects = append(d.Objects, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	procRows, err := s.Query(ctx, `
		SELECT DISTINCT procedure_name
		FROM all_procedures
		WHERE owner = 'SYS'
		AND object_name = 'DBMS_PDB'
		AND procedure_name IS NOT NULL
		ORDER BY procedure_name`)
	if err != nil {
		return nil, err
	}
	defer procRows.Close()
	for procRows.Next() {
		var name string
		if err := procRows.Scan(&name); err != nil {
			return nil, err
		}
		d.Procedures = append(d.Procedures, name)
	}
	if err := procRows.Err(); err != nil {
		return nil, err
	}

	if d.Signature, err = ReadDescribeSignature(ctx, s); err != nil {
		return nil, err
	}
	d.Shapes = ClassifyShapes(d.Signature)

	privRows, err := s.Query(ctx, `SELECT privilege FROM session_privs ORDER BY privilege`)
	if err != nil {
		return nil, err
	}
	defer privRows.Close()
	for privRows.Next() {
		var priv string
		if err := privRows.Scan(&priv); err != nil {
			return nil, err
		}
		d.Privileges = append(d.Privileges, priv)
	}
	if err := privRows.Err(); err != nil {
		return nil, err
	}

	for _, required := range clonePrivileges {
		if !funk.ContainsString(d.Privileges, required) {
			d.MissingPrivileges = append(d.MissingPrivileges, required)
		}
	}
	return d, nil
}
