package main

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/bitechdev/AdminSpec/pkg/adminspec"
	"github.com/bitechdev/AdminSpec/pkg/common"
	"github.com/bitechdev/AdminSpec/pkg/config"
	"github.com/bitechdev/AdminSpec/pkg/crud"
	"github.com/bitechdev/AdminSpec/pkg/dbmanager"
	"github.com/bitechdev/AdminSpec/pkg/errortracking"
	"github.com/bitechdev/AdminSpec/pkg/logger"
	"github.com/bitechdev/AdminSpec/pkg/metrics"
	"github.com/bitechdev/AdminSpec/pkg/middleware"
	"github.com/bitechdev/AdminSpec/pkg/models"
	"github.com/bitechdev/AdminSpec/pkg/server"
)

func main() {
	manager := config.NewManager()
	if err := manager.Load(); err != nil {
		logger.Init(true)
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	cfg, err := manager.GetConfig()
	if err != nil {
		logger.Init(true)
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	if cfg.Logger.Path != "" {
		logger.UpdateLoggerPath(cfg.Logger.Path, cfg.Logger.Dev)
	} else {
		logger.Init(cfg.Logger.Dev)
	}
	setupErrorTracking(cfg)
	defer func() {
		if err := logger.CloseErrorTracking(); err != nil {
			logger.Warn("Failed to close error tracking: %v", err)
		}
	}()

	db, err := dbmanager.Open(cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			logger.Error("Failed to migrate database: %v", err)
			os.Exit(1)
		}
	}

	registry := crud.GetDefaultRegistry()
	if err := models.RegisterAll(registry); err != nil {
		logger.Error("Failed to register models: %v", err)
		os.Exit(1)
	}

	router := mux.NewRouter()
	handler := adminspec.NewHandler(db, registry, cfg.IsDevelopment())

	if cfg.Metrics.Enabled {
		metrics.SetProvider(metrics.NewPrometheusProvider())
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, metrics.GetProvider().Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	adminspec.SetupMuxRoutes(api, handler)

	corsConfig := common.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig = common.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: cfg.CORS.AllowedMethods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
			MaxAge:         cfg.CORS.MaxAge,
		}
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Middleware.RateLimitRPS, cfg.Middleware.RateLimitBurst)
	sizeLimiter := middleware.NewRequestSizeLimiter(cfg.Middleware.MaxRequestSize)

	var chain http.Handler = router
	chain = sizeLimiter.Middleware(chain)
	chain = rateLimiter.Middleware(chain)
	chain = common.CORSMiddleware(corsConfig)(chain)
	if cfg.Metrics.Enabled {
		chain = metrics.HTTPMiddleware(chain)
	}
	chain = middleware.RequestID(chain)
	chain = middleware.PanicRecovery(chain)

	srv := server.NewGracefulServer(server.Config{
		Addr:            cfg.Server.Addr,
		Handler:         chain,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
	})
	router.HandleFunc("/health", srv.HealthCheckHandler()).Methods(http.MethodGet)

	logger.Info("AdminSpec serving resources %v on %s", registry.Resources(), cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error: %v", err)
		os.Exit(1)
	}
}

func setupErrorTracking(cfg *config.Config) {
	if !cfg.ErrorTracking.Enabled {
		logger.InitErrorTracking(errortracking.NewNoOpProvider())
		return
	}
	switch cfg.ErrorTracking.Provider {
	case "sentry":
		provider, err := errortracking.NewSentryProvider(errortracking.SentryConfig{
			DSN:         cfg.ErrorTracking.DSN,
			Environment: cfg.ErrorTracking.Environment,
			Release:     cfg.ErrorTracking.Release,
			Debug:       cfg.ErrorTracking.Debug,
			SampleRate:  cfg.ErrorTracking.SampleRate,
		})
		if err != nil {
			logger.Warn("Failed to initialize sentry, falling back to noop: %v", err)
			logger.InitErrorTracking(errortracking.NewNoOpProvider())
			return
		}
		logger.InitErrorTracking(provider)
	default:
		logger.InitErrorTracking(errortracking.NewNoOpProvider())
	}
}
