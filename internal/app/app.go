package app

import (
	"context"
	"fmt"

	"stock-insight/config"
	"stock-insight/internal/settings"
	"stock-insight/models"

	"github.com/google/uuid"
)

// RepositoryInterface defines the repository operations needed by App
type RepositoryInterface interface {
	Close()
	Health(ctx context.Context) error
	GetAnalyses(ctx context.Context, limit int) ([]models.AnalysisResult, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error)
	GetLatestAnalysis(ctx context.Context, symbol string) (*models.AnalysisResult, error)
	GetRecommendations(ctx context.Context, category models.RecommendationCategory, limit int) ([]models.Recommendation, error)
	GetRecommendation(ctx context.Context, id uuid.UUID) (*models.Recommendation, error)
	GetLatestRecommendation(ctx context.Context, symbol string) (*models.Recommendation, error)
	GetAnalysisRuns(ctx context.Context, status models.AnalysisRunStatus, limit int) ([]models.AnalysisRun, error)
}

// AnalyzerInterface defines the analysis operations
type AnalyzerInterface interface {
	Analyze(ctx context.Context, symbol string) (*models.AnalysisResult, error)
}

// App struct holds application dependencies using interfaces for testability
type App struct {
	ctx         context.Context
	cfg         *config.Config
	repo        RepositoryInterface
	analyzer    AnalyzerInterface
	settings    *settings.Store
	analysisSem chan struct{}
}

// New creates a new App application struct
func New(cfg *config.Config, repo RepositoryInterface, analyzer AnalyzerInterface) *App {
	return &App{
		cfg:         cfg,
		repo:        repo,
		analyzer:    analyzer,
		analysisSem: make(chan struct{}, cfg.Analysis.ConcurrencyLimit),
	}
}

// Startup is called when the app starts
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
}

// Shutdown is called when the app is closing
func (a *App) Shutdown(ctx context.Context) {
	if a.repo != nil {
		a.repo.Close()
	}
}

// Repo returns the repository interface for API handlers
func (a *App) Repo() RepositoryInterface {
	return a.repo
}

// SetSettings attaches the settings store
func (a *App) SetSettings(store *settings.Store) {
	a.settings = store
}

// Settings returns the settings store for API handlers
func (a *App) Settings() *settings.Store {
	return a.settings
}

// AnalyzeStock runs the full analysis pipeline for a symbol
func (a *App) AnalyzeStock(symbol string) (*models.AnalysisResult, error) {
	if a.analyzer == nil {
		return nil, fmt.Errorf("analyzer not initialized")
	}

	select {
	case a.analysisSem <- struct{}{}:
		defer func() { <-a.analysisSem }()
	default:
		return nil, fmt.Errorf("analysis queue full, too many concurrent requests - try again later")
	}

	return a.analyzer.Analyze(a.ctx, symbol)
}

// GetAnalyses returns recent analysis results
func (a *App) GetAnalyses(limit int) ([]models.AnalysisResult, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.repo.GetAnalyses(a.ctx, limit)
}

// GetAnalysisByID returns a single analysis result by ID
func (a *App) GetAnalysisByID(id string) (*models.AnalysisResult, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	uuid, err := ParseUUID(id)
	if err != nil {
		return nil, err
	}

	return a.repo.GetAnalysis(a.ctx, uuid)
}

// GetLatestAnalysis returns the most recent analysis for a symbol
func (a *App) GetLatestAnalysis(symbol string) (*models.AnalysisResult, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.repo.GetLatestAnalysis(a.ctx, symbol)
}

// GetRecommendations returns recent recommendations, optionally filtered by category
func (a *App) GetRecommendations(category string, limit int) ([]models.Recommendation, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.repo.GetRecommendations(a.ctx, models.RecommendationCategory(category), limit)
}

// GetRecommendationByID returns a single recommendation by ID
func (a *App) GetRecommendationByID(id string) (*models.Recommendation, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	uuid, err := ParseUUID(id)
	if err != nil {
		return nil, err
	}

	return a.repo.GetRecommendation(a.ctx, uuid)
}

// GetLatestRecommendation returns the most recent recommendation for a symbol
func (a *App) GetLatestRecommendation(symbol string) (*models.Recommendation, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.repo.GetLatestRecommendation(a.ctx, symbol)
}

// GetAnalysisRuns returns recent analysis runs, optionally filtered by status
func (a *App) GetAnalysisRuns(status string, limit int) ([]models.AnalysisRun, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return a.repo.GetAnalysisRuns(a.ctx, models.AnalysisRunStatus(status), limit)
}

// ParseUUID parses a string UUID into a [16]byte
func ParseUUID(id string) ([16]byte, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return [16]byte{}, fmt.Errorf("invalid UUID: %w", err)
	}
	return parsed, nil
}

// AnalysisSemCapacity returns the capacity of the analysis semaphore (for testing)
func (a *App) AnalysisSemCapacity() int {
	return cap(a.analysisSem)
}
