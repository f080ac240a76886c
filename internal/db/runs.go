package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/models"
)

// CreateRun inserts a run in the running state.
func (d *DB) CreateRun(ctx context.Context, run models.Run) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO dispatch_runs (id, account, pairs, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.Account, run.Pairs, config.RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	slog.Debug("run recorded", "runID", run.ID, "account", run.Account)
	return nil
}

// RecordGroup upserts the latest snapshot of an offer group.
func (d *DB) RecordGroup(ctx context.Context, runID string, snap models.GroupSnapshot) error {
	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO offer_groups (run_id, name, pairs, item_count, offer_id, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, name) DO UPDATE SET
		     pairs = excluded.pairs,
		     item_count = excluded.item_count,
		     offer_id = excluded.offer_id,
		     status = excluded.status,
		     error = excluded.error,
		     updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		runID, snap.Name, strings.Join(snap.Pairs, ","), snap.ItemCount, snap.OfferID, string(snap.Status), snap.Error,
	)
	if err != nil {
		return fmt.Errorf("record group %s of run %s: %w", snap.Name, runID, err)
	}

	slog.Debug("group recorded",
		"runID", runID,
		"group", snap.Name,
		"status", snap.Status,
	)
	return nil
}

// FinishRun marks a run finished with its exit code.
func (d *DB) FinishRun(ctx context.Context, runID string, exitCode, itemCount int, errMsg string) error {
	result, err := d.conn.ExecContext(ctx,
		`UPDATE dispatch_runs
		 SET status = ?, exit_code = ?, item_count = ?, error = ?, finished_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		 WHERE id = ?`,
		config.RunStatusFinished, exitCode, itemCount, errMsg, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("finish run %s: %w", runID, config.ErrRunNotFound)
	}

	slog.Info("run finished",
		"runID", runID,
		"exitCode", exitCode,
		"items", itemCount,
	)
	return nil
}

// ListRuns returns the most recent runs first, without their groups.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = config.RunsDefaultLimit
	}
	if limit > config.RunsMaxLimit {
		limit = config.RunsMaxLimit
	}

	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, account, pairs, status, exit_code, item_count, error, started_at, COALESCE(finished_at, '')
		 FROM dispatch_runs
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.Run, 0)
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

// GetRun returns one run with its groups, or config.ErrRunNotFound.
func (d *DB) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT id, account, pairs, status, exit_code, item_count, error, started_at, COALESCE(finished_at, '')
		 FROM dispatch_runs WHERE id = ?`,
		runID,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, config.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	groups, err := d.listGroups(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Groups = groups
	return &run, nil
}

func (d *DB) listGroups(ctx context.Context, runID string) ([]models.GroupSnapshot, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT name, pairs, item_count, offer_id, status, error
		 FROM offer_groups WHERE run_id = ? ORDER BY name`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query groups of run %s: %w", runID, err)
	}
	defer rows.Close()

	var groups []models.GroupSnapshot
	for rows.Next() {
		var (
			g      models.GroupSnapshot
			pairs  string
			status string
		)
		if err := rows.Scan(&g.Name, &pairs, &g.ItemCount, &g.OfferID, &status, &g.Error); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		if pairs != "" {
			g.Pairs = strings.Split(pairs, ",")
		}
		g.Status = models.GroupStatus(status)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (models.Run, error) {
	var (
		run      models.Run
		exitCode sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.Account, &run.Pairs, &run.Status, &exitCode,
		&run.ItemCount, &run.Error, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scan run: %w", err)
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		run.ExitCode = &code
	}
	return run, nil
}
