package repository

import (
	"context"
	"fmt"

	"stock-insight/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateAnalysisRun creates a new analysis run record
func (r *Repository) CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	if err := r.checkDB(); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO analysis_runs (id, symbol, status, started_at)
		VALUES ($1, $2, $3, $4)
	`, run.ID, run.Symbol, run.Status, run.StartedAt)

	if err != nil {
		return fmt.Errorf("failed to create analysis run: %w", err)
	}

	return nil
}

// UpdateAnalysisRun updates an existing analysis run
func (r *Repository) UpdateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	if err := r.checkDB(); err != nil {
		return err
	}

	_, err := r.db.Exec(ctx, `
		UPDATE analysis_runs
		SET status = $2, error_message = $3, completed_at = $4
		WHERE id = $1
	`, run.ID, run.Status, run.Error, run.CompletedAt)

	if err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}

	return nil
}

// GetAnalysisRun returns a single analysis run by ID
func (r *Repository) GetAnalysisRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}

	var run models.AnalysisRun
	var errorMessage *string

	err := r.db.QueryRow(ctx, `
		SELECT id, symbol, status, error_message, started_at, completed_at
		FROM analysis_runs WHERE id = $1
	`, id).Scan(&run.ID, &run.Symbol, &run.Status, &errorMessage, &run.StartedAt, &run.CompletedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis run: %w", err)
	}

	if errorMessage != nil {
		run.Error = *errorMessage
	}

	return &run, nil
}

// GetAnalysisRuns returns recent analysis runs with optional status filtering
func (r *Repository) GetAnalysisRuns(ctx context.Context, status models.AnalysisRunStatus, limit int) ([]models.AnalysisRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	var rows pgx.Rows
	var err error

	if status == "" {
		rows, err = r.db.Query(ctx, `
			SELECT id, symbol, status, error_message, started_at, completed_at
			FROM analysis_runs
			ORDER BY started_at DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT id, symbol, status, error_message, started_at, completed_at
			FROM analysis_runs
			WHERE status = $1
			ORDER BY started_at DESC
			LIMIT $2
		`, status, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	return scanAnalysisRuns(rows)
}

// GetRecentRunsForSymbol returns recent analysis runs for a specific symbol
func (r *Repository) GetRecentRunsForSymbol(ctx context.Context, symbol string, limit int) ([]models.AnalysisRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, symbol, status, error_message, started_at, completed_at
		FROM analysis_runs
		WHERE symbol = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer rows.Close()

	return scanAnalysisRuns(rows)
}

func scanAnalysisRuns(rows pgx.Rows) ([]models.AnalysisRun, error) {
	var runs []models.AnalysisRun
	for rows.Next() {
		var run models.AnalysisRun
		var errorMessage *string

		err := rows.Scan(&run.ID, &run.Symbol, &run.Status, &errorMessage, &run.StartedAt, &run.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}

		if errorMessage != nil {
			run.Error = *errorMessage
		}

		runs = append(runs, run)
	}

	return runs, nil
}
