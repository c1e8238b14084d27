package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ennish0079/fpl-dashboard/external/fpl"
	"github.com/ennish0079/fpl-dashboard/internal/config"
	"github.com/ennish0079/fpl-dashboard/internal/infrastructure/repository/sqlite"
	"github.com/ennish0079/fpl-dashboard/internal/interfaces/httpapi"
	"github.com/ennish0079/fpl-dashboard/internal/platform/cache"
	"github.com/ennish0079/fpl-dashboard/internal/platform/logging"
	"github.com/ennish0079/fpl-dashboard/internal/platform/resilience"
	"github.com/ennish0079/fpl-dashboard/internal/usecase"
)

// App bundles the HTTP server with the services main needs to drive
// directly, plus the resources that must be closed on shutdown.
type App struct {
	Server         *http.Server
	RefreshService *usecase.RefreshService

	store  *sqlite.Store
	logger *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open stats store: %w", err)
	}

	playerRepo := sqlite.NewPlayerRepository(store)
	historyRepo := sqlite.NewHistoryRepository(store)
	schemaManager := sqlite.NewSchemaManager(store)

	fplClient := fpl.NewClient(fpl.ClientConfig{
		BaseURL:            cfg.FPLBaseURL,
		Timeout:            cfg.FPLTimeout,
		MaxRetries:         cfg.FPLMaxRetries,
		RequestsPerSec:     cfg.FPLRequestsPerSec,
		InsecureSkipVerify: cfg.FPLInsecureSkipVerify,
		Logger:             logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	queryService := usecase.NewStatsQueryService(
		playerRepo,
		historyRepo,
		cache.NewStore(cfg.LoadCacheTTL),
		cfg.CacheEnabled,
		logger,
	)

	refreshService := usecase.NewRefreshService(
		fplClient,
		playerRepo,
		historyRepo,
		schemaManager,
		store,
		cfg.StalenessThreshold,
		cfg.RefreshWorkers,
		logger,
		usecase.WithRefreshCompleted(func() {
			queryService.Invalidate(context.Background())
		}),
	)

	handler := httpapi.NewHandler(queryService, refreshService, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:         server,
		RefreshService: refreshService,
		store:          store,
		logger:         logger,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}
