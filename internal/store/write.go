package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/objgen/internal/ir"
	"github.com/roach88/objgen/internal/world"
)

// SaveWorld stores w under name, replacing any world already stored under
// that name. Objects, applications and values keep their insertion order.
func (s *Store) SaveWorld(ctx context.Context, name string, w *world.Partial) error {
	identifiers, err := marshalNames(w.Identifiers())
	if err != nil {
		return fmt.Errorf("save world %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save world %s: begin tx: %w", name, err)
	}
	defer tx.Rollback() // No-op if committed

	// ON DELETE CASCADE clears the old objects, applications and values.
	if _, err := tx.ExecContext(ctx, `DELETE FROM worlds WHERE name = ?`, name); err != nil {
		return fmt.Errorf("save world %s: delete: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO worlds (name, closed, identifiers) VALUES (?, ?, ?)
	`, name, w.Closed, identifiers); err != nil {
		return fmt.Errorf("save world %s: %w", name, err)
	}

	for i, o := range w.Objects() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO world_objects (world, seq, name, type) VALUES (?, ?, ?, ?)
		`, name, i+1, o.Name, o.Type); err != nil {
			return fmt.Errorf("save world %s: object %s: %w", name, o.Name, err)
		}
	}

	for i, rec := range w.Apps() {
		if err := insertApp(ctx, tx, name, int64(i+1), rec); err != nil {
			return fmt.Errorf("save world %s: %w", name, err)
		}
	}

	for i, rec := range w.Values() {
		if err := insertValue(ctx, tx, name, int64(i+1), rec); err != nil {
			return fmt.Errorf("save world %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save world %s: commit: %w", name, err)
	}
	return nil
}

func insertApp(ctx context.Context, tx *sql.Tx, worldName string, seq int64, rec world.AppRecord) error {
	id, err := rec.App.ID()
	if err != nil {
		return fmt.Errorf("app %s: %w", rec.App, err)
	}
	args, err := marshalArgs(rec.App.Args)
	if err != nil {
		return fmt.Errorf("app %s: %w", rec.App, err)
	}
	objNames := make([]string, len(rec.Objects))
	for i, o := range rec.Objects {
		objNames[i] = o.Name
	}
	objects, err := marshalNames(objNames)
	if err != nil {
		return fmt.Errorf("app %s: %w", rec.App, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO world_apps (world, seq, app_id, rule, args, objects, undetermined)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, worldName, seq, id, rec.App.Rule, args, objects, rec.Undetermined)
	if err != nil {
		return fmt.Errorf("app %s: %w", rec.App, err)
	}
	return nil
}

func insertValue(ctx context.Context, tx *sql.Tx, worldName string, seq int64, rec world.ValueRecord) error {
	label := ir.FormatApp(rec.Func, rec.Args)
	id, err := ir.FuncAppID(rec.Func, rec.Args)
	if err != nil {
		return fmt.Errorf("value %s: %w", label, err)
	}
	args, err := marshalArgs(rec.Args)
	if err != nil {
		return fmt.Errorf("value %s: %w", label, err)
	}
	value, err := marshalValue(rec.Value)
	if err != nil {
		return fmt.Errorf("value %s: %w", label, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO world_values (world, seq, func_id, func, args, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`, worldName, seq, id, rec.Func, args, value)
	if err != nil {
		return fmt.Errorf("value %s: %w", label, err)
	}
	return nil
}

// RecordRun stores a run and its results in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: recording the same run
// id twice keeps the first record and returns inserted=false.
//
// A zero Seq is replaced by one past the highest recorded seq.
func (s *Store) RecordRun(ctx context.Context, run Run) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("record run %s: begin tx: %w", run.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	seq := run.Seq
	if seq == 0 {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
			return false, fmt.Errorf("record run %s: next seq: %w", run.ID, err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, world, query, type, state, rounds, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, seq, run.World, run.Query, run.Type, run.State, run.Rounds, run.Error)
	if err != nil {
		return false, fmt.Errorf("record run %s: %w", run.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record run %s: rows affected: %w", run.ID, err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	for i, v := range run.Results {
		value, err := marshalValue(v)
		if err != nil {
			return false, fmt.Errorf("record run %s: result %d: %w", run.ID, i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_results (run_id, seq, value) VALUES (?, ?, ?)
		`, run.ID, i+1, value); err != nil {
			return false, fmt.Errorf("record run %s: result %d: %w", run.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("record run %s: commit: %w", run.ID, err)
	}
	return true, nil
}
