package models

import (
	"time"

	"github.com/google/uuid"
)

// Commentary is narrative output from one LLM provider. Numeric
// results never depend on it.
type Commentary struct {
	Provider    string `json:"provider"`
	Report      string `json:"report,omitempty"`
	Thesis      string `json:"thesis,omitempty"`
	RiskSummary string `json:"risk_summary,omitempty"`
	Err         string `json:"error,omitempty"`
}

// AnalysisResult is the full output of one analysis request, shaped
// as a single nested document for rendering or storage.
type AnalysisResult struct {
	ID             uuid.UUID            `json:"id"`
	Symbol         string               `json:"symbol"`
	Info           StockInfo            `json:"info"`
	Fundamentals   StockFundamentals    `json:"fundamentals"`
	Estimates      []ValuationEstimate  `json:"estimates"`
	Blended        BlendedValuation     `json:"blended"`
	Technicals     *TechnicalIndicators `json:"technicals,omitempty"`
	Risk           *RiskMetrics         `json:"risk,omitempty"`
	Recommendation *Recommendation      `json:"recommendation"`
	Commentary     []Commentary         `json:"commentary,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Estimate returns the estimate for the given model, or nil if the
// engine did not emit one.
func (r *AnalysisResult) Estimate(model ValuationModel) *ValuationEstimate {
	for i := range r.Estimates {
		if r.Estimates[i].Model == model {
			return &r.Estimates[i]
		}
	}
	return nil
}

// AnalysisRunStatus tracks the lifecycle of a persisted analysis.
type AnalysisRunStatus string

const (
	AnalysisRunStatusRunning   AnalysisRunStatus = "running"
	AnalysisRunStatusCompleted AnalysisRunStatus = "completed"
	AnalysisRunStatusFailed    AnalysisRunStatus = "failed"
)

// AnalysisRun records one analysis attempt for auditing.
type AnalysisRun struct {
	ID          uuid.UUID         `json:"id"`
	Symbol      string            `json:"symbol"`
	Status      AnalysisRunStatus `json:"status"`
	Error       string            `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// NewAnalysisRun creates a run in the running state.
func NewAnalysisRun(symbol string) *AnalysisRun {
	return &AnalysisRun{
		ID:        uuid.New(),
		Symbol:    symbol,
		Status:    AnalysisRunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Complete marks the run as finished.
func (r *AnalysisRun) Complete() {
	now := time.Now()
	r.Status = AnalysisRunStatusCompleted
	r.CompletedAt = &now
}

// Fail marks the run as failed with the given error.
func (r *AnalysisRun) Fail(err error) {
	now := time.Now()
	r.Status = AnalysisRunStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.CompletedAt = &now
}
