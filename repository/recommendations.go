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

// GetRecommendations returns recommendations filtered by category
func (r *Repository) GetRecommendations(ctx context.Context, category models.RecommendationCategory, limit int) ([]models.Recommendation, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "recommendations")

	if limit <= 0 {
		limit = 50
	}

	var rows pgx.Rows
	var err error

	if category == "" {
		rows, err = r.db.Query(ctx, `
			SELECT id, symbol, category, score, confidence, low_confidence, reason, factors, created_at
			FROM recommendations
			ORDER BY created_at DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT id, symbol, category, score, confidence, low_confidence, reason, factors, created_at
			FROM recommendations
			WHERE category = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, category, limit)
	}

	if err != nil {
		metrics.RecordDBError("select", "recommendations")
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			metrics.RecordDBError("select", "recommendations")
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, *rec)
	}

	return recs, nil
}

// scanRecommendation scans a recommendation row into a Recommendation struct
func scanRecommendation(row pgx.Row) (*models.Recommendation, error) {
	var rec models.Recommendation
	var factorsJSON []byte
	var reason *string

	err := row.Scan(&rec.ID, &rec.Symbol, &rec.Category, &rec.Score, &rec.Confidence,
		&rec.LowConfidence, &reason, &factorsJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if reason != nil {
		rec.Reason = *reason
	}

	if len(factorsJSON) > 0 {
		if err := json.Unmarshal(factorsJSON, &rec.Factors); err != nil {
			// Unreadable factors do not invalidate the verdict itself
			rec.Factors = nil
		}
	}

	return &rec, nil
}

// GetRecommendation returns a single recommendation by ID
func (r *Repository) GetRecommendation(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		SELECT id, symbol, category, score, confidence, low_confidence, reason, factors, created_at
		FROM recommendations WHERE id = $1
	`, id)

	rec, err := scanRecommendation(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation: %w", err)
	}

	return rec, nil
}

// GetLatestRecommendation returns the most recent recommendation for a symbol
func (r *Repository) GetLatestRecommendation(ctx context.Context, symbol string) (*models.Recommendation, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		SELECT id, symbol, category, score, confidence, low_confidence, reason, factors, created_at
		FROM recommendations
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, symbol)

	rec, err := scanRecommendation(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest recommendation: %w", err)
	}

	return rec, nil
}

// CreateRecommendation creates a new recommendation
func (r *Repository) CreateRecommendation(ctx context.Context, rec *models.Recommendation) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "recommendations")

	factorsJSON, err := json.Marshal(rec.Factors)
	if err != nil {
		metrics.RecordDBError("insert", "recommendations")
		return fmt.Errorf("failed to marshal factors: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO recommendations (id, symbol, category, score, confidence, low_confidence, reason, factors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.Symbol, rec.Category, rec.Score, rec.Confidence,
		rec.LowConfidence, rec.Reason, factorsJSON, rec.CreatedAt)

	if err != nil {
		metrics.RecordDBError("insert", "recommendations")
		return fmt.Errorf("failed to create recommendation: %w", err)
	}

	return nil
}
