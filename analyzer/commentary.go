package analyzer

import (
	"context"
	"fmt"
	"strings"

	"stock-insight/models"
	"stock-insight/observability"
	"stock-insight/services"
)

// Commentor is one LLM backend that can narrate an analysis
type Commentor struct {
	Name    string
	Service services.LLMService
}

const commentarySystemPrompt = `You are an equity research analyst. You receive the numeric output of a quantitative stock analysis: fair-value estimates from several valuation models, a blended fair value, technical indicators, risk metrics, and a scored recommendation.

Write commentary that explains the numbers. Do not contradict them or invent figures that are not in the input.

Respond with JSON matching this schema:
{
  "report": "two to four paragraphs walking through the valuation, technicals, and risk picture",
  "thesis": "one paragraph stating the investment thesis implied by the recommendation",
  "risk_summary": "one paragraph on the main risks to that thesis"
}`

// commentaryPayload is the structured response requested from the LLM
type commentaryPayload struct {
	Report      string `json:"report"`
	Thesis      string `json:"thesis"`
	RiskSummary string `json:"risk_summary"`
}

// OrderCommentors returns the commentors with the preferred provider
// first, preserving relative order of the rest.
func OrderCommentors(preferred string, commentors []Commentor) []Commentor {
	ordered := make([]Commentor, 0, len(commentors))
	for _, c := range commentors {
		if c.Name == preferred {
			ordered = append(ordered, c)
		}
	}
	for _, c := range commentors {
		if c.Name != preferred {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// generateCommentary asks the first available provider for commentary,
// falling back down the chain on failure. Failed attempts are reported
// in the result so callers can see which providers were tried.
func (a *Analyzer) generateCommentary(ctx context.Context, result *models.AnalysisResult) []models.Commentary {
	metrics := observability.GetMetrics()
	prompt := buildCommentaryPrompt(result)

	var attempts []models.Commentary
	for i, c := range a.commentors {
		timer := metrics.NewTimer()

		var payload commentaryPayload
		err := c.Service.InvokeStructured(ctx, commentarySystemPrompt, prompt, &payload)
		timer.ObserveCommentary(c.Name)

		if err != nil {
			metrics.RecordCommentaryError(c.Name, "invoke_failed")
			observability.Warn("commentary generation failed",
				"symbol", result.Symbol, "provider", c.Name, "error", err)
			attempts = append(attempts, models.Commentary{
				Provider: c.Name,
				Err:      err.Error(),
			})

			if i < len(a.commentors)-1 {
				next := a.commentors[i+1].Name
				metrics.RecordCommentaryFallback(c.Name, next)
				observability.Info("falling back to next commentary provider",
					"symbol", result.Symbol, "from", c.Name, "to", next)
			}
			continue
		}

		attempts = append(attempts, models.Commentary{
			Provider:    c.Name,
			Report:      payload.Report,
			Thesis:      payload.Thesis,
			RiskSummary: payload.RiskSummary,
		})
		return attempts
	}

	observability.Warn("all commentary providers failed", "symbol", result.Symbol)
	return attempts
}

// buildCommentaryPrompt renders the analysis as plain text for the LLM
func buildCommentaryPrompt(result *models.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbol: %s", result.Symbol)
	if result.Info.Name != "" {
		fmt.Fprintf(&b, " (%s)", result.Info.Name)
	}
	b.WriteString("\n")
	if result.Info.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", result.Info.Sector)
	}
	fmt.Fprintf(&b, "Current price: %.2f\n\n", result.Fundamentals.Price)

	b.WriteString("Valuation estimates:\n")
	for _, est := range result.Estimates {
		if est.Applicable {
			fmt.Fprintf(&b, "- %s: fair value %.2f\n", est.Model, est.FairValue)
		} else {
			fmt.Fprintf(&b, "- %s: not applicable (%s)\n", est.Model, est.Reason)
		}
	}
	fmt.Fprintf(&b, "Blended fair value: %.2f (%d models, spread %.1f%%)\n",
		result.Blended.FairValue, result.Blended.ModelCount, result.Blended.SpreadPct*100)
	fmt.Fprintf(&b, "Upside vs price: %.1f%%\n\n",
		result.Blended.Upside(result.Fundamentals.Price)*100)

	if result.Technicals != nil {
		t := result.Technicals
		fmt.Fprintf(&b, "Technicals: RSI %.1f, price vs 50-day %.1f%%, price vs 200-day %.1f%%, annualized volatility %.1f%%\n",
			t.RSI, t.PriceVsSMA50, t.PriceVsSMA200, t.Volatility*100)
	}
	if result.Risk != nil {
		r := result.Risk
		fmt.Fprintf(&b, "Risk: max drawdown %.1f%%, daily VaR(95) %.2f%%, Sharpe %.2f, Sortino %.2f\n",
			r.MaxDrawdown*100, r.VaR95*100, r.SharpeRatio, r.SortinoRatio)
	}

	if rec := result.Recommendation; rec != nil {
		fmt.Fprintf(&b, "\nRecommendation: %s (score %.1f, confidence %.0f%%)\n",
			rec.Category, rec.Score, rec.Confidence)
		if rec.Reason != "" {
			fmt.Fprintf(&b, "Caveat: %s\n", rec.Reason)
		}
		for _, f := range rec.Factors {
			fmt.Fprintf(&b, "- %s\n", f.Description)
		}
	}

	return b.String()
}
