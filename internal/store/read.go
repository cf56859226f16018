package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/world"
)

// LoadWorld rebuilds the world stored under name over model m.
// Returns an error wrapping sql.ErrNoRows if no such world exists.
//
// The model must declare every type, rule and function the world uses;
// the world's own checks run again as it is rebuilt.
func (s *Store) LoadWorld(ctx context.Context, name string, m *ir.Model) (*world.Partial, error) {
	var closed bool
	var identifiers string
	err := s.db.QueryRowContext(ctx, `
		SELECT closed, identifiers FROM worlds WHERE name = ?
	`, name).Scan(&closed, &identifiers)
	if err != nil {
		return nil, fmt.Errorf("load world %s: %w", name, err)
	}

	w := world.NewPartial(m)
	w.Closed = closed
	ids, err := unmarshalNames(identifiers)
	if err != nil {
		return nil, fmt.Errorf("load world %s: %w", name, err)
	}
	w.SetIdentifiers(ids...)

	if err := s.loadObjects(ctx, name, w); err != nil {
		return nil, fmt.Errorf("load world %s: %w", name, err)
	}
	if err := s.loadApps(ctx, name, w); err != nil {
		return nil, fmt.Errorf("load world %s: %w", name, err)
	}
	if err := s.loadValues(ctx, name, w); err != nil {
		return nil, fmt.Errorf("load world %s: %w", name, err)
	}
	return w, nil
}

func (s *Store) loadObjects(ctx context.Context, worldName string, w *world.Partial) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type FROM world_objects
		WHERE world = ?
		ORDER BY seq ASC
	`, worldName)
	if err != nil {
		return fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return fmt.Errorf("scan object: %w", err)
		}
		if _, err := w.NewObject(typ, name); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate objects: %w", err)
	}
	return nil
}

func (s *Store) loadApps(ctx context.Context, worldName string, w *world.Partial) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, args, objects, undetermined FROM world_apps
		WHERE world = ?
		ORDER BY seq ASC
	`, worldName)
	if err != nil {
		return fmt.Errorf("query apps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rule, argsJSON, objectsJSON string
		var undetermined bool
		if err := rows.Scan(&rule, &argsJSON, &objectsJSON, &undetermined); err != nil {
			return fmt.Errorf("scan app: %w", err)
		}
		args, err := unmarshalArgs(argsJSON)
		if err != nil {
			return err
		}
		app := ir.RuleApp{Rule: rule, Args: args}
		if undetermined {
			if err := w.SetUndetermined(app); err != nil {
				return err
			}
			continue
		}

		names, err := unmarshalNames(objectsJSON)
		if err != nil {
			return err
		}
		objs := make([]ir.Object, len(names))
		for i, n := range names {
			o, ok := w.Lookup(n)
			if !ok {
				return fmt.Errorf("app %s: %w %q", app, world.ErrUnknownObject, n)
			}
			objs[i] = o
		}
		if err := w.SetSatisfiers(app, objs...); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate apps: %w", err)
	}
	return nil
}

func (s *Store) loadValues(ctx context.Context, worldName string, w *world.Partial) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT func, args, value FROM world_values
		WHERE world = ?
		ORDER BY seq ASC
	`, worldName)
	if err != nil {
		return fmt.Errorf("query values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fn, argsJSON, valueJSON string
		if err := rows.Scan(&fn, &argsJSON, &valueJSON); err != nil {
			return fmt.Errorf("scan value: %w", err)
		}
		args, err := unmarshalArgs(argsJSON)
		if err != nil {
			return err
		}
		v, err := unmarshalValue(valueJSON)
		if err != nil {
			return err
		}
		if err := w.SetValue(fn, args, v); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate values: %w", err)
	}
	return nil
}

// ListWorlds returns the stored world names in binary order.
// Returns an empty slice (not nil) if none are stored.
func (s *Store) ListWorlds(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM worlds ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query worlds: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan world: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate worlds: %w", err)
	}
	return names, nil
}

// ReadRun retrieves a run and its results by id.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, world, query, type, state, rounds, error
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT value FROM run_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: query results: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return Run{}, fmt.Errorf("read run %s: scan result: %w", id, err)
		}
		v, err := unmarshalValue(data)
		if err != nil {
			return Run{}, fmt.Errorf("read run %s: %w", id, err)
		}
		run.Results = append(run.Results, v)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("read run %s: iterate results: %w", id, err)
	}
	return run, nil
}

// ReadRuns returns the runs recorded against a world, without their
// results, ordered by seq. Returns an empty slice (not nil) if none exist.
func (s *Store) ReadRuns(ctx context.Context, worldName string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT id, seq, world, query, type, state, rounds, error
		FROM runs
		WHERE world = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, worldName)
}

// ReadAllRuns returns every recorded run, without results, ordered by seq.
// Runs against fixture files have no stored world, so ListWorlds does not
// reach them.
func (s *Store) ReadAllRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT id, seq, world, query, type, state, rounds, error
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.Seq, &run.World, &run.Query, &run.Type, &run.State, &run.Rounds, &run.Error)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}
