package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"stock-insight/config"
	"stock-insight/internal/app"
	"stock-insight/internal/settings"
	"stock-insight/services"

	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "unknown",
		},
	}

	if h.app.Repo() != nil {
		ctx := r.Context()
		if err := h.app.Repo().Health(ctx); err == nil {
			status["services"].(map[string]string)["database"] = "connected"
		} else {
			status["services"].(map[string]string)["database"] = "disconnected"
			status["status"] = "degraded"
		}
	} else {
		status["services"].(map[string]string)["database"] = "not_configured"
	}

	// Add circuit breaker status
	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus

	// Check if any breakers are open (degraded state)
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// HandleAnalyzeStock triggers analysis of a stock
func (h *Handler) HandleAnalyzeStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		_ = json.NewDecoder(r.Body).Decode(&req)
	} else {
		_ = r.ParseForm()
		req.Symbol = r.FormValue("symbol")
	}

	if req.Symbol == "" {
		h.jsonError(w, "Symbol is required", http.StatusBadRequest)
		return
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))

	if err := h.ValidateSymbol(req.Symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.app.AnalyzeStock(req.Symbol)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, result)
}

// HandleGetAnalyses returns recent analysis results
func (h *Handler) HandleGetAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := h.ParseLimitParam(r, 50)

	analyses, err := h.app.GetAnalyses(limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// HandleGetAnalysis returns a single analysis result by ID
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.jsonError(w, "Missing analysis ID", http.StatusBadRequest)
		return
	}

	result, err := h.app.GetAnalysisByID(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if result == nil {
		h.jsonError(w, "Analysis not found", http.StatusNotFound)
		return
	}

	h.jsonResponse(w, result)
}

// HandleGetLatestAnalysis returns the most recent analysis for a symbol
func (h *Handler) HandleGetLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if err := h.ValidateSymbol(symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.app.GetLatestAnalysis(symbol)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if result == nil {
		h.jsonError(w, "No analysis found for symbol", http.StatusNotFound)
		return
	}

	h.jsonResponse(w, result)
}

// HandleGetRecommendations returns recommendations, optionally filtered by category
func (h *Handler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := h.ParseLimitParam(r, 50)
	category := r.URL.Query().Get("category")

	recs, err := h.app.GetRecommendations(category, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, recs)
}

// HandleGetRecommendation returns a single recommendation by ID
func (h *Handler) HandleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.jsonError(w, "Missing recommendation ID", http.StatusBadRequest)
		return
	}

	rec, err := h.app.GetRecommendationByID(id)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if rec == nil {
		h.jsonError(w, "Recommendation not found", http.StatusNotFound)
		return
	}

	h.jsonResponse(w, rec)
}

// HandleGetLatestRecommendation returns the most recent recommendation for a symbol
func (h *Handler) HandleGetLatestRecommendation(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if err := h.ValidateSymbol(symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.app.GetLatestRecommendation(symbol)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if rec == nil {
		h.jsonError(w, "No recommendation found for symbol", http.StatusNotFound)
		return
	}

	h.jsonResponse(w, rec)
}

// HandleGetAnalysisRuns returns recent analysis runs
func (h *Handler) HandleGetAnalysisRuns(w http.ResponseWriter, r *http.Request) {
	limit := h.ParseLimitParam(r, 50)
	status := r.URL.Query().Get("status")

	runs, err := h.app.GetAnalysisRuns(status, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, runs)
}

// HandleGetSettings returns masked API key settings
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settingsStore := h.app.Settings()
	if settingsStore == nil {
		h.jsonError(w, "Settings not available", http.StatusServiceUnavailable)
		return
	}

	h.jsonResponse(w, settingsStore.GetMaskedSettings())
}

// HandleUpdateAPIKey updates a single API key configuration
func (h *Handler) HandleUpdateAPIKey(w http.ResponseWriter, r *http.Request) {
	settingsStore := h.app.Settings()
	if settingsStore == nil {
		h.jsonError(w, "Settings not available", http.StatusServiceUnavailable)
		return
	}

	var req settings.APIKeyConfig
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.jsonError(w, "Invalid JSON request", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.jsonError(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		req.ServiceName = settings.ServiceName(r.FormValue("service_name"))
		req.APIKey = r.FormValue("api_key")
		req.APISecret = r.FormValue("api_secret")
		req.BaseURL = r.FormValue("base_url")
		req.Region = r.FormValue("region")
		req.ModelID = r.FormValue("model_id")
	}

	if req.ServiceName == "" {
		h.jsonError(w, "Service name is required", http.StatusBadRequest)
		return
	}

	// Check if at least one field has a value to update
	hasUpdate := req.APIKey != "" || req.APISecret != "" || req.BaseURL != "" || req.Region != "" || req.ModelID != ""
	if !hasUpdate {
		h.jsonResponse(w, map[string]string{"status": "no changes", "service": string(req.ServiceName)})
		return
	}

	// Merge with existing config to preserve fields not being updated
	existingConfig := settingsStore.GetAPIKey(req.ServiceName)
	if existingConfig != nil {
		if req.APIKey == "" {
			req.APIKey = existingConfig.APIKey
		}
		if req.APISecret == "" {
			req.APISecret = existingConfig.APISecret
		}
		if req.BaseURL == "" {
			req.BaseURL = existingConfig.BaseURL
		}
		if req.Region == "" {
			req.Region = existingConfig.Region
		}
		if req.ModelID == "" {
			req.ModelID = existingConfig.ModelID
		}
	}

	if err := settingsStore.SetAPIKey(&req); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]string{"status": "saved", "service": string(req.ServiceName)})
}

// HandleTestAPIKey tests if an API key is valid
func (h *Handler) HandleTestAPIKey(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	if service == "" {
		h.jsonError(w, "Service name is required", http.StatusBadRequest)
		return
	}

	settingsStore := h.app.Settings()
	if settingsStore == nil {
		h.jsonError(w, "Settings not available", http.StatusServiceUnavailable)
		return
	}

	serviceName := settings.ServiceName(service)
	config := settingsStore.GetAPIKey(serviceName)
	if config == nil {
		h.jsonError(w, "Service not configured", http.StatusNotFound)
		return
	}

	validator := settings.NewValidator()
	result, err := validator.ValidateAPIKey(r.Context(), config)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, result)
}

// HandleDeleteAPIKey removes an API key configuration
func (h *Handler) HandleDeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	if service == "" {
		h.jsonError(w, "Service name is required", http.StatusBadRequest)
		return
	}

	settingsStore := h.app.Settings()
	if settingsStore == nil {
		h.jsonError(w, "Settings not available", http.StatusServiceUnavailable)
		return
	}

	serviceName := settings.ServiceName(service)
	if err := settingsStore.DeleteAPIKey(serviceName); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]string{"status": "deleted", "service": service})
}

// HandleResetSettings removes all API key configurations
func (h *Handler) HandleResetSettings(w http.ResponseWriter, r *http.Request) {
	settingsStore := h.app.Settings()
	if settingsStore == nil {
		h.jsonError(w, "Settings not available", http.StatusServiceUnavailable)
		return
	}

	if err := settingsStore.ResetAll(); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]string{"status": "reset"})
}

// Helper functions

// ValidateSymbol validates a stock symbol
func (h *Handler) ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	if len(symbol) > 10 {
		return fmt.Errorf("symbol too long (max 10 characters)")
	}

	matched, _ := regexp.MatchString("^[A-Z0-9.-]+$", symbol)
	if !matched {
		return fmt.Errorf("invalid symbol format (alphanumeric, dots, and dashes only)")
	}

	return nil
}

// ParseLimitParam parses the limit query parameter
func (h *Handler) ParseLimitParam(r *http.Request, defaultLimit int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// AnalyzeRequest represents a stock analysis request
type AnalyzeRequest struct {
	Symbol string `json:"symbol"`
}
