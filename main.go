package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-insight/analyzer"
	"stock-insight/config"
	"stock-insight/internal/api"
	"stock-insight/internal/app"
	"stock-insight/internal/settings"
	"stock-insight/observability"
	"stock-insight/repository"
	"stock-insight/services"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("no .env file found, using environment variables")
	}

	production := os.Getenv("APP_ENV") == "production"
	observability.InitLogger(production)
	observability.InitMetrics()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()

	// Initialize database (optional, analysis still works without persistence)
	var repo *repository.Repository
	if cfg.HasDatabase() {
		repo, err = repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			observability.Warn("failed to initialize database, continuing without persistence", "error", err)
			repo = nil
		} else {
			observability.Info("connected to database")
		}
	} else {
		observability.Warn("DATABASE_URL not set, analyses will not be persisted")
	}

	// Initialize settings store, backed by the database when available
	var settingsRepo settings.RepositoryInterface
	if repo != nil {
		settingsRepo = repo
	}
	settingsStore, err := settings.NewStore(os.Getenv("SETTINGS_DIR"), os.Getenv("SETTINGS_PASSPHRASE"), settingsRepo)
	if err != nil {
		observability.Warn("failed to initialize settings store", "error", err)
		settingsStore = nil
	}

	// Market data providers, in fallback order
	yahoo := services.NewYahooService(cfg.Yahoo.BaseURL)
	marketProviders := []analyzer.NamedProvider{
		{Name: "yahoo", Provider: yahoo},
	}
	historyProviders := []analyzer.NamedHistoryProvider{
		{Name: "yahoo", Provider: yahoo},
	}

	if cfg.HasAlphaVantage() {
		av := services.NewAlphaVantageService(cfg.AlphaVantage.APIKey)
		marketProviders = append(marketProviders, analyzer.NamedProvider{Name: "alphavantage", Provider: av})
	} else {
		observability.Warn("ALPHA_VANTAGE_API_KEY not set, Alpha Vantage fallback unavailable")
	}

	if cfg.HasAlpaca() {
		alpaca := services.NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)
		historyProviders = append(historyProviders, analyzer.NamedHistoryProvider{Name: "alpaca", Provider: alpaca})
	} else {
		observability.Warn("Alpaca credentials not set, Alpaca history fallback unavailable")
	}

	// Commentary providers
	var commentors []analyzer.Commentor

	if cfg.HasOpenAI() {
		openaiService, err := services.NewOpenAIService(cfg)
		if err != nil {
			observability.Warn("failed to initialize OpenAI service", "error", err)
		} else {
			commentors = append(commentors, analyzer.Commentor{Name: "openai", Service: openaiService})
		}
	}

	if cfg.HasGrok() {
		grokService, err := services.NewGrokService(cfg)
		if err != nil {
			observability.Warn("failed to initialize Grok service", "error", err)
		} else {
			commentors = append(commentors, analyzer.Commentor{Name: "grok", Service: grokService})
		}
	}

	if cfg.HasBedrock() {
		bedrockService, err := services.NewBedrockService(ctx, cfg.Bedrock.Region, cfg.Bedrock.ModelID)
		if err != nil {
			observability.Warn("failed to initialize Bedrock service", "error", err)
		} else {
			commentors = append(commentors, analyzer.Commentor{Name: "bedrock", Service: bedrockService})
		}
	}

	if len(commentors) == 0 {
		observability.Warn("no LLM providers configured, commentary disabled")
	}
	commentors = analyzer.OrderCommentors(cfg.Analysis.PreferredCommentor, commentors)

	// Wire the analyzer and application
	var analyzerRepo analyzer.Repository
	var appRepo app.RepositoryInterface
	if repo != nil {
		analyzerRepo = repo
		appRepo = repo
	}

	stockAnalyzer := analyzer.New(cfg, marketProviders, historyProviders, commentors, analyzerRepo)
	if repo != nil {
		stockAnalyzer.SetCache(repo)
	}

	application := app.New(cfg, appRepo, stockAnalyzer)
	application.Startup(ctx)
	if settingsStore != nil {
		application.SetSettings(settingsStore)
	}

	// HTTP server
	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.Analysis.TimeoutSeconds+10) * time.Second,
	}

	go func() {
		observability.Info("starting server", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("server stopped")
}
