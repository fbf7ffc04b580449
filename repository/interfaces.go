package repository

import (
	"context"
	"time"

	"stock-insight/internal/settings"
	"stock-insight/models"

	"github.com/google/uuid"
)

// RepositoryInterface defines all repository operations
type RepositoryInterface interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error

	// Analyses
	SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error)
	GetLatestAnalysis(ctx context.Context, symbol string) (*models.AnalysisResult, error)
	GetAnalyses(ctx context.Context, limit int) ([]models.AnalysisResult, error)

	// Analysis runs
	CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
	UpdateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
	GetAnalysisRun(ctx context.Context, id uuid.UUID) (*models.AnalysisRun, error)
	GetAnalysisRuns(ctx context.Context, status models.AnalysisRunStatus, limit int) ([]models.AnalysisRun, error)
	GetRecentRunsForSymbol(ctx context.Context, symbol string, limit int) ([]models.AnalysisRun, error)

	// Recommendations
	GetRecommendations(ctx context.Context, category models.RecommendationCategory, limit int) ([]models.Recommendation, error)
	GetRecommendation(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	GetLatestRecommendation(ctx context.Context, symbol string) (*models.Recommendation, error)
	CreateRecommendation(ctx context.Context, rec *models.Recommendation) error

	// Cache
	GetCachedData(ctx context.Context, symbol, dataType string) (map[string]interface{}, error)
	SetCachedData(ctx context.Context, symbol, dataType string, data map[string]interface{}, ttl time.Duration) error
	InvalidateCache(ctx context.Context, symbol, dataType string) error
	InvalidateAllCacheForSymbol(ctx context.Context, symbol string) error
	CleanExpiredCache(ctx context.Context) (int64, error)
}

// Compile-time interface verification
var (
	_ RepositoryInterface          = (*Repository)(nil)
	_ settings.RepositoryInterface = (*Repository)(nil)
)
