package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-insight/models"
	"stock-insight/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveAnalysis persists a completed analysis as a nested document.
// Structured sections are stored as JSONB so the full result round-trips
// without a column per metric.
func (r *Repository) SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "analyses")

	info, err := json.Marshal(result.Info)
	if err != nil {
		return fmt.Errorf("failed to marshal info: %w", err)
	}
	fundamentals, err := json.Marshal(result.Fundamentals)
	if err != nil {
		return fmt.Errorf("failed to marshal fundamentals: %w", err)
	}
	estimates, err := json.Marshal(result.Estimates)
	if err != nil {
		return fmt.Errorf("failed to marshal estimates: %w", err)
	}
	blended, err := json.Marshal(result.Blended)
	if err != nil {
		return fmt.Errorf("failed to marshal blended valuation: %w", err)
	}

	technicals, err := marshalOptional(result.Technicals)
	if err != nil {
		return fmt.Errorf("failed to marshal technicals: %w", err)
	}
	risk, err := marshalOptional(result.Risk)
	if err != nil {
		return fmt.Errorf("failed to marshal risk metrics: %w", err)
	}
	recommendation, err := marshalOptional(result.Recommendation)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation: %w", err)
	}

	var commentary []byte
	if len(result.Commentary) > 0 {
		commentary, err = json.Marshal(result.Commentary)
		if err != nil {
			return fmt.Errorf("failed to marshal commentary: %w", err)
		}
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO analyses (id, symbol, info, fundamentals, estimates, blended,
			technicals, risk, recommendation, commentary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, result.ID, result.Symbol, info, fundamentals, estimates, blended,
		technicals, risk, recommendation, commentary, result.CreatedAt)

	if err != nil {
		metrics.RecordDBError("insert", "analyses")
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// marshalOptional marshals a pointer, mapping nil to SQL NULL
func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// GetAnalysis returns a single analysis by ID
func (r *Repository) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		SELECT id, symbol, info, fundamentals, estimates, blended,
			   technicals, risk, recommendation, commentary, created_at
		FROM analyses WHERE id = $1
	`, id)

	result, err := scanAnalysis(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}

	return result, nil
}

// GetLatestAnalysis returns the most recent analysis for a symbol
func (r *Repository) GetLatestAnalysis(ctx context.Context, symbol string) (*models.AnalysisResult, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		SELECT id, symbol, info, fundamentals, estimates, blended,
			   technicals, risk, recommendation, commentary, created_at
		FROM analyses
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, symbol)

	result, err := scanAnalysis(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest analysis: %w", err)
	}

	return result, nil
}

// GetAnalyses returns the most recent analyses across all symbols
func (r *Repository) GetAnalyses(ctx context.Context, limit int) ([]models.AnalysisResult, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "analyses")

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, symbol, info, fundamentals, estimates, blended,
			   technicals, risk, recommendation, commentary, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		metrics.RecordDBError("select", "analyses")
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var results []models.AnalysisResult
	for rows.Next() {
		result, err := scanAnalysis(rows)
		if err != nil {
			metrics.RecordDBError("select", "analyses")
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		results = append(results, *result)
	}

	return results, nil
}

// scanAnalysis scans an analysis row into an AnalysisResult
func scanAnalysis(row pgx.Row) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	var info, fundamentals, estimates, blended []byte
	var technicals, risk, recommendation, commentary []byte

	err := row.Scan(&result.ID, &result.Symbol, &info, &fundamentals, &estimates, &blended,
		&technicals, &risk, &recommendation, &commentary, &result.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(info, &result.Info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal info: %w", err)
	}
	if err := json.Unmarshal(fundamentals, &result.Fundamentals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fundamentals: %w", err)
	}
	if err := json.Unmarshal(estimates, &result.Estimates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal estimates: %w", err)
	}
	if err := json.Unmarshal(blended, &result.Blended); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blended valuation: %w", err)
	}

	if len(technicals) > 0 {
		result.Technicals = &models.TechnicalIndicators{}
		if err := json.Unmarshal(technicals, result.Technicals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal technicals: %w", err)
		}
	}
	if len(risk) > 0 {
		result.Risk = &models.RiskMetrics{}
		if err := json.Unmarshal(risk, result.Risk); err != nil {
			return nil, fmt.Errorf("failed to unmarshal risk metrics: %w", err)
		}
	}
	if len(recommendation) > 0 {
		result.Recommendation = &models.Recommendation{}
		if err := json.Unmarshal(recommendation, result.Recommendation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendation: %w", err)
		}
	}
	if len(commentary) > 0 {
		if err := json.Unmarshal(commentary, &result.Commentary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal commentary: %w", err)
		}
	}

	return &result, nil
}
