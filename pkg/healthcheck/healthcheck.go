/*
 * Copyright (c) ArtechDB, Inc.
 */

// Package healthcheck collects read-only health metrics from one database:
// identity, instances, size, sessions, tablespace and temp usage, PDB
// inventory, wait events and invalid objects. Optional sections degrade to
// empty on permission or version gaps instead of failing the run.
package healthcheck

import (
	"context"
	"fmt"

	"github.com/artechdb/pdbctl/pkg/ora"
	"github.com/artechdb/pdbctl/pkg/pdb"
)

// SessionCount is the session total for one status.
type SessionCount struct {
	Status string
	Count  int
}

// Tablespace is the usage of one permanent tablespace.
type Tablespace struct {
	Name    string
	UsedGB  float64
	TotalGB float64
	PctUsed float64
}

// TempUsage is the usage of one temporary tablespace.
type TempUsage struct {
	Name    string
	UsedGB  float64
	FreeGB  float64
	PctUsed float64
}

// PDBInfo is one pluggable database in the inventory.
type PDBInfo struct {
	Name       string
	OpenMode   string
	Restricted string
	SizeGB     float64
}

// WaitEvent is one non-idle system wait event.
type WaitEvent struct {
	Event       string
	TotalWaits  int64
	TimeWaited  int64
	AverageWait float64
}

// InvalidObjects is the invalid-object count for one owner and type.
type InvalidObjects struct {
	Owner      string
	ObjectType string
	Count      int
}

// Metrics is the full health snapshot of one database.
type Metrics struct {
	Version        string
	DBName         string
	OpenMode       string
	Role           string
	Instances      []pdb.Instance
	SizeGB         float64
	Sessions       []SessionCount
	Tablespaces    []Tablespace
	TempUsage      []TempUsage
	PDBs           []PDBInfo
	WaitEvents     []WaitEvent
	InvalidObjects []InvalidObjects
}

// Collector gathers health metrics over a single scoped session.
type Collector struct {
	Connector ora.Connector
	// Progress receives human-readable status lines. Optional.
	Progress func(string)
}

// Run collects all metrics from the endpoint. Identity queries must succeed;
// every other section is best-effort.
func (c *Collector) Run(ctx context.Context, ep ora.Endpoint) (*Metrics, error) {
	var m *Metrics
	err := ora.WithSession(ctx, c.Connector, ep, func(s ora.Session) error {
		var err error
		m, err = c.collect(ctx, s)
		return err
	})
	return m, err
}

func (c *Collector) collect(ctx context.Context, s ora.Session) (*Metrics, error) {
	c.emit("Gathering database health metrics...")
	m := &Metrics{}

	if err := s.QueryRow(ctx,
		`SELECT banner FROM v$version WHERE ROWNUM = 1`).Scan(&m.Version); err != nil {
		return nil, err
	}
	if err := s.QueryRow(ctx,
		`SELECT name, open_mode, database_role FROM v$database`).
		Scan(&m.DBName, &m.OpenMode, &m.Role); err != nil {
		return nil, err
	}

	instances, err := pdb.ReadInstances(ctx, s)
	if err != nil {
		return nil, err
	}
	m.Instances = instances

	var sizeGB *float64
	if err := s.QueryRow(ctx,
		`SELECT ROUND(SUM(bytes)/1024/1024/1024, 2) FROM v$datafile`).Scan(&sizeGB); err != nil {
		return nil, err
	}
	if sizeGB != nil {
		m.SizeGB = *sizeGB
	}

	c.section("sessions", func() error { return c.readSessions(ctx, s, m) })
	c.section("tablespace usage", func() error { return c.readTablespaces(ctx, s, m) })
	c.section("temp usage", func() error { return c.readTempUsage(ctx, s, m) })
	c.section("PDB inventory", func() error { return c.readPDBs(ctx, s, m) })
	c.section("wait events", func() error { return c.readWaitEvents(ctx, s, m) })
	c.section("invalid objects", func() error { return c.readInvalidObjects(ctx, s, m) })

	c.emit("Health check data collection completed")
	return m, nil
}

// section runs one optional collection step, downgrading failure to a
// progress warning.
func (c *Collector) section(name string, fn func() error) {
	if err := fn(); err != nil {
		c.emit(fmt.Sprintf("Warning: could not gather %s: %s", name, err))
	}
}

func (c *Collector) readSessions(ctx context.Context, s ora.Session, m *Metrics) error {
	rows, err := s.Query(ctx, `SELECT status, COUNT(*) FROM v$session GROUP BY status`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var sc SessionCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return err
		}
		m.Sessions = append(m.Sessions, sc)
	}
	return rows.Err()
}

func (c *Collector) readTablespaces(ctx context.Context, s ora.Session, m *Metrics) error {
	rows, err := s.Query(ctx, `
		SELECT tablespace_name,
		       ROUND(used_space * 8192 / 1024 / 1024 / 1024, 2),
		       ROUND(tablespace_size * 8192 / 1024 / 1024 / 1024, 2),
		       ROUND(used_percent, 2)
		FROM dba_tablespace_usage_metrics
		ORDER BY used_percent DESC`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ts Tablespace
		if err := rows.Scan(&ts.Name, &ts.UsedGB, &ts.TotalGB, &ts.PctUsed); err != nil {
			return err
		}
		m.Tablespaces = append(m.Tablespaces, ts)
	}
	return rows.Err()
}

func (c *Collector) readTempUsage(ctx context.Context, s ora.Session, m *Metrics) error {
	rows, err := s.Query(ctx, `
		SELECT tablespace_name,
		       ROUND(SUM(bytes_used) / 1024 / 1024 / 1024, 2),
		       ROUND(SUM(bytes_free) / 1024 / 1024 / 1024, 2),
		       ROUND(SUM(bytes_used) * 100 / NULLIF(SUM(bytes_used + bytes_free), 0), 2)
		FROM v$temp_space_header
		GROUP BY tablespace_name
		ORDER BY 4 DESC`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var tu TempUsage
		var pct *float64
		if err := rows.Scan(&tu.Name, &tu.UsedGB, &tu.FreeGB, &pct); err != nil {
			return err
		}
		if pct != nil {
			tu.PctUsed = *pct
		}
		m.TempUsage = append(m.TempUsage, tu)
	}
	return rows.Err()
}

func (c *Collector) readPDBs(ctx context.Context, s ora.Session, m *Metrics) error {
	rows, err := s.Query(ctx, `
		SELECT name, open_mode, restricted, ROUND(total_size/1024/1024/1024, 2)
		FROM v$pdbs
		ORDER BY name`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var p PDBInfo
		var restricted *string
		if err := rows.Scan(&p.Name, &p.OpenMode, &restricted, &p.SizeGB); err != nil {
			return err
		}
		if restricted != nil {
			p.Restricted = *restricted
		}
		m.PDBs = append(m.PDBs, p)
	}
	return rows.Err()
}

func (c *Collector) readWaitEvents(ctx context.Context, s ora.Session, m *Metrics) error {
	rows, err := s.Query(ctx, `
		SELECT event, total_waits, time_waited, average_wait
		FROM v$system_event
		WHERE wait_class != 'Idle'
		ORDER BY time_waited DESC
		FETCH FIRST 10 ROWS ONLY`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var w WaitEvent
		if err := rows.Scan(&w.Event, &w.TotalWaits, &w.TimeWaited, &w.AverageWait); err != nil {
			return err
		}
		m.WaitEvents = append(m.WaitEvents, w)
	}
	return rows.Err()
}

func (c *Collector) readInvalidObjects(ctx context.Context, s ora.Session, m *Metrics) error {
	rows, err := s.Query(ctx, `
		SELECT owner, object_type, COUNT(*)
		FROM dba_objects
		WHERE status = 'INVALID'
		AND owner NOT IN ('SYS', 'SYSTEM', 'AUDSYS', 'LBACSYS', 'XDB')
		GROUP BY owner, object_type
		ORDER BY 3 DESC`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var io InvalidObjects
		if err := rows.Scan(&io.Owner, &io.ObjectType, &io.Count); err != nil {
			return err
		}
		m.InvalidObjects = append(m.InvalidObjects, io)
	}
	return rows.Err()
}

func (c *Collector) emit(msg string) {
	if c.Progress != nil {
		c.Progress(msg)
	}
}
