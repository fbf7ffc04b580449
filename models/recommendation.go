package models

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationCategory is a discrete rating derived from the score.
type RecommendationCategory string

const (
	CategoryStrongBuy  RecommendationCategory = "strong_buy"
	CategoryBuy        RecommendationCategory = "buy"
	CategoryHold       RecommendationCategory = "hold"
	CategorySell       RecommendationCategory = "sell"
	CategoryStrongSell RecommendationCategory = "strong_sell"
)

// Rank orders categories from most bearish (0) to most bullish (4),
// used to assert monotonicity of the scoring thresholds.
func (c RecommendationCategory) Rank() int {
	switch c {
	case CategoryStrongSell:
		return 0
	case CategorySell:
		return 1
	case CategoryHold:
		return 2
	case CategoryBuy:
		return 3
	case CategoryStrongBuy:
		return 4
	}
	return -1
}

// Factor is one contributing signal with its sign and weight.
type Factor struct {
	Description string  `json:"description"`
	Sign        int     `json:"sign"` // +1 bullish, -1 bearish
	Weight      float64 `json:"weight"`
}

// Recommendation is the final scored verdict for one analysis.
type Recommendation struct {
	ID            uuid.UUID              `json:"id"`
	Symbol        string                 `json:"symbol"`
	Category      RecommendationCategory `json:"category"`
	Score         float64                `json:"score"`      // -100..100
	Confidence    float64                `json:"confidence"` // 0..100
	LowConfidence bool                   `json:"low_confidence"`
	Reason        string                 `json:"reason,omitempty"` // set when confidence is capped
	Factors       []Factor               `json:"factors"`
	CreatedAt     time.Time              `json:"created_at"`
}

// NewRecommendation stamps identity and creation time onto a scored result.
func NewRecommendation(symbol string, category RecommendationCategory, score float64) *Recommendation {
	return &Recommendation{
		ID:        uuid.New(),
		Symbol:    symbol,
		Category:  category,
		Score:     score,
		CreatedAt: time.Now(),
	}
}
