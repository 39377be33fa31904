/*
 * Copyright (c) ArtechDB, Inc.
 */

package pdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/artechdb/pdbctl/pkg/ora"
)

// ShapeKind classifies a DBMS_PDB.DESCRIBE overload by how it returns the
// descriptor document.
type ShapeKind int

const (
	// ShapeDocumentOutput returns the document through a CLOB output
	// parameter, readable by a remote client.
	ShapeDocumentOutput ShapeKind = iota
	// ShapeFileInput writes the document to a file path on the server
	// filesystem, which a remote client cannot read back.
	ShapeFileInput
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeDocumentOutput:
		return "document output"
	case ShapeFileInput:
		return "file input"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Shape is one calling convention the remote server exposes for the
// describe operation.
type Shape struct {
	Kind       ShapeKind
	HasNameArg bool
	Overload   string
}

// ProbeError reports that the signature catalog could not be queried at all.
// Finding zero shapes is not an error and yields (nil, nil).
type ProbeError struct {
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probing DBMS_PDB.DESCRIBE signature: %s", e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// SignatureArg is one row of the ALL_ARGUMENTS projection for DESCRIBE.
type SignatureArg struct {
	Name      string
	Position  int
	DataType  string
	Direction string
	Overload  string
}

// ProbeDescribeShapes inspects ALL_ARGUMENTS for the overloads of
// SYS.DBMS_PDB.DESCRIBE and classifies each one. The session must be
// connected to the source container's parent. No side effects.
func ProbeDescribeShapes(ctx context.Context, s ora.Session) ([]Shape, error) {
	args, err := ReadDescribeSignature(ctx, s)
	if err != nil {
		return nil, &ProbeError{Err: err}
	}
	return ClassifyShapes(args), nil
}

// ClassifyShapes groups the raw argument rows by overload and classifies
// each overload, preserving catalog order. Unrecognized overloads are
// dropped.
func ClassifyShapes(args []SignatureArg) []Shape {
	byOverload := map[string][]SignatureArg{}
	var order []string
	for _, a := range args {
		if _, seen := byOverload[a.Overload]; !seen {
			order = append(order, a.Overload)
		}
		byOverload[a.Overload] = append(byOverload[a.Overload], a)
	}

	var shapes []Shape
	for _, ov := range order {
		if shape, ok := classifyOverload(ov, byOverload[ov]); ok {
			shapes = append(shapes, shape)
		}
	}
	return shapes
}

// ReadDescribeSignature lists the raw DESCRIBE argument catalog, ordered by
// overload then position.
func ReadDescribeSignature(ctx context.Context, s ora.Session) ([]SignatureArg, error) {
	rows, err := s.Query(ctx, `
		SELECT NVL(argument_name, 'RETURN_VALUE'), position, data_type, in_out, NVL(overload, '1')
		FROM all_arguments
		WHERE owner = 'SYS'
		AND package_name = 'DBMS_PDB'
		AND object_name = 'DESCRIBE'
		ORDER BY overload NULLS FIRST, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignatureArg
	for rows.Next() {
		var a SignatureArg
		if err := rows.Scan(&a.Name, &a.Position, &a.DataType, &a.Direction, &a.Overload); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// classifyOverload keys off the first parameter: a CLOB OUT is the document
// convention, a VARCHAR2 IN whose name mentions FILE is the server-filesystem
// convention. Anything else is unrecognized and dropped.
func classifyOverload(overload string, args []SignatureArg) (Shape, bool) {
	var first *SignatureArg
	hasNameArg := false
	for i := range args {
		if args[i].Position == 1 {
			first = &args[i]
		}
		if strings.EqualFold(args[i].Name, "PDB_NAME") {
			hasNameArg = true
		}
	}
	if first == nil {
		return Shape{}, false
	}
	switch {
	case first.DataType == "CLOB" && first.Direction == "OUT":
		return Shape{Kind: ShapeDocumentOutput, HasNameArg: hasNameArg, Overload: overload}, true
	case first.DataType == "VARCHAR2" && first.Direction == "IN" &&
		strings.Contains(strings.ToUpper(first.Name), "FILE"):
		return Shape{Kind: ShapeFileInput, HasNameArg: hasNameArg, Overload: overload}, true
	default:
		return Shape{}, false
	}
}
