package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/alin/internal/cache"
	"github.com/bobmcallan/alin/internal/clients/claude"
	"github.com/bobmcallan/alin/internal/clients/eodhd"
	"github.com/bobmcallan/alin/internal/clients/gemini"
	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/seed"
	"github.com/bobmcallan/alin/internal/services/commentary"
	"github.com/bobmcallan/alin/internal/services/insights"
	"github.com/bobmcallan/alin/internal/services/metrics"
	"github.com/bobmcallan/alin/internal/services/portfolio"
	"github.com/bobmcallan/alin/internal/services/signal"
	"github.com/bobmcallan/alin/internal/services/valuation"
	"github.com/bobmcallan/alin/internal/signals"
	"github.com/bobmcallan/alin/internal/storage"
)

// App holds all initialized services, clients, and the MCP server.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Store             interfaces.KVStore
	Market            interfaces.MarketDataClient
	LLM               interfaces.LLMClient
	Seed              *seed.Data
	Thresholds        signals.Thresholds
	ValuationService  interfaces.ValuationService
	SignalService     interfaces.SignalService
	PortfolioService  interfaces.PortfolioService
	InsightService    interfaces.InsightService
	MetricService     interfaces.MetricService
	CommentaryService interfaces.CommentaryService
	MCPServer         *server.MCPServer
	StartupTime       time.Time

	scheduler *Scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration, opens storage and the external clients, and
// builds every service. configPath may be empty, in which case ALIN_CONFIG,
// then alin.toml next to the binary, then config/alin.toml are tried.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("ALIN_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "alin.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/alin.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Badger.Path != "" && !filepath.IsAbs(config.Storage.Badger.Path) {
		config.Storage.Badger.Path = filepath.Join(binDir, config.Storage.Badger.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	missing, err := config.CheckRequired()
	if err != nil {
		return nil, err
	}
	for _, name := range missing {
		logger.Warn().Str("setting", name).Msg("Required setting missing; market data requests will fail")
	}

	ctx := context.Background()

	store, err := storage.New(ctx, logger, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	eodhdClient := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithLogger(logger),
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithExchange(config.Clients.EODHD.Exchange),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	)
	market := cache.NewMarketData(eodhdClient, config.Cache.GetQuoteTTL(), config.Cache.GetHistoryTTL())

	llm := newLLMClient(ctx, config.Clients.LLM, logger)

	a, err := Build(ctx, config, logger, store, market, llm)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

// newLLMClient returns the configured provider's client, or nil when its
// key is missing.
func newLLMClient(ctx context.Context, cfg common.LLMConfig, logger *common.Logger) interfaces.LLMClient {
	switch cfg.Provider {
	case common.ProviderClaude:
		if cfg.ClaudeAPIKey == "" {
			logger.Warn().Msg("Claude API key not configured - commentary will be unavailable")
			return nil
		}
		return claude.NewClient(cfg.ClaudeAPIKey, []claude.ClientOption{
			claude.WithModel(cfg.ClaudeModel),
			claude.WithLogger(logger),
		})

	case common.ProviderGemini, "":
		if cfg.GeminiAPIKey == "" {
			logger.Warn().Msg("Gemini API key not configured - commentary will be unavailable")
			return nil
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey,
			gemini.WithModel(cfg.GeminiModel),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
			return nil
		}
		return client
	}
	return nil
}

// Build wires services over already-opened dependencies and seeds the
// public portfolio when it is missing. llm may be nil.
func Build(
	ctx context.Context,
	config *common.Config,
	logger *common.Logger,
	store interfaces.KVStore,
	market interfaces.MarketDataClient,
	llm interfaces.LLMClient,
) (*App, error) {
	startupStart := time.Now()

	data, err := seed.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load seed data: %w", err)
	}

	thresholds := signals.DefaultThresholds

	valuationService := valuation.NewService(market, data.Allocation, logger)
	signalService := signal.NewService(market, thresholds, logger)
	portfolioService := portfolio.NewService(store, market, logger)
	insightService := insights.NewService(portfolioService, signalService, thresholds, logger)
	metricService := metrics.NewService(store, market, logger)

	commentaryService := commentary.NewService(
		portfolioService,
		insightService,
		llm,
		store,
		config.Cache.GetCommentaryTTL(),
		config.Clients.LLM.MaxTokens,
		logger,
	)

	if _, err := seed.SeedPublicPortfolio(ctx, portfolioService, data, logger); err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		"alin",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:            config,
		Logger:            logger,
		Store:             store,
		Market:            market,
		LLM:               llm,
		Seed:              data,
		Thresholds:        thresholds,
		ValuationService:  valuationService,
		SignalService:     signalService,
		PortfolioService:  portfolioService,
		InsightService:    insightService,
		MetricService:     metricService,
		CommentaryService: commentaryService,
		MCPServer:         mcpServer,
		StartupTime:       startupStart,
	}

	a.registerTools()

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Store = nil
	}
}

// StartScheduler launches the daily metric snapshot job when enabled.
func (a *App) StartScheduler() error {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Snapshot scheduler disabled")
		return nil
	}
	s := NewScheduler(a.PortfolioService, a.Market, a.MetricService, a.Logger)
	if err := s.Start(a.Config.Scheduler.SnapshotCron); err != nil {
		return fmt.Errorf("failed to start snapshot scheduler: %w", err)
	}
	a.scheduler = s
	return nil
}
