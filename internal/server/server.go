// Package server assembles the Solace HTTP API from configuration.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/soaringjerry/Solace/internal/api"
	"github.com/soaringjerry/Solace/internal/assessment"
	"github.com/soaringjerry/Solace/internal/db"
	"github.com/soaringjerry/Solace/internal/log"
	"github.com/soaringjerry/Solace/internal/metrics"
	"github.com/soaringjerry/Solace/internal/middleware"
	"github.com/soaringjerry/Solace/internal/services"
	"github.com/soaringjerry/Solace/internal/utils"
)

// Store is what the services need from a backend.
type Store interface {
	services.HistoryStore
	services.SubjectStore
	CountEntries() (int, error)
}

// App is an assembled server. Close releases the backing store.
type App struct {
	Handler     http.Handler
	Assessments *services.AssessmentService
	Store       Store
	Registry    *prometheus.Registry

	cfg    Config
	logger *log.Logger
	db     *sql.DB
}

// LoadCatalog reads the YAML catalog at path, or builds the default catalog.
func LoadCatalog(path string) (*assessment.Catalog, error) {
	if path == "" {
		return assessment.DefaultCatalog(), nil
	}
	return assessment.LoadCatalogFile(path)
}

// OpenStore opens SQLite when SQLitePath is set, otherwise a memory store
// snapshotted to SnapshotPath (if any).
func OpenStore(cfg Config, logger *log.Logger) (Store, *sql.DB, error) {
	if cfg.SQLitePath == "" {
		s, err := api.NewMemoryStoreFromPath(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using memory store", "snapshot", cfg.SnapshotPath)
		return s, nil, nil
	}
	var sealer *db.Sealer
	if cfg.SealKey != "" {
		var err error
		if sealer, err = db.NewSealer(cfg.SealKey); err != nil {
			return nil, nil, err
		}
	} else {
		logger.Warn("SOLACE_SEAL_KEY not set, free-text answers are stored in plain text")
	}
	conn, err := db.Open(cfg.SQLitePath, cfg.MigrationsDir)
	if err != nil {
		return nil, nil, err
	}
	s, err := db.NewSQLiteStore(conn, sealer)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	legacy := cfg.LegacyExport
	if legacy == "" {
		legacy = cfg.SnapshotPath
	}
	if _, err := ImportLegacy(legacy, s, logger); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("legacy import: %w", err)
	}
	logger.Info("using sqlite store", "path", cfg.SQLitePath, "sealed", sealer != nil)
	return s, conn, nil
}

// New wires every service and the HTTP handler chain.
func New(cfg Config, logger *log.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	catalog, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	store, conn, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	reg, m := metrics.NewRegistry()

	assessments := services.NewAssessmentService(catalog, assessment.DefaultEngine(), store,
		services.WithLogger(logger.With("component", "assessments")),
		services.WithMetrics(m),
		services.WithSessionTTL(cfg.SessionTTL))
	history := services.NewHistoryService(store, catalog, loc)
	var shares *services.ShareService
	if cfg.ShareSecret != "" {
		if shares, err = services.NewShareService(history, cfg.ShareSecret); err != nil {
			if conn != nil {
				conn.Close()
			}
			return nil, err
		}
	} else {
		logger.Info("SOLACE_SHARE_SECRET not set, share links disabled")
	}

	mux := http.NewServeMux()
	api.NewRouter(api.Deps{
		Assessments: assessments,
		History:     history,
		Exports:     services.NewExportService(store, catalog),
		Shares:      shares,
		Subjects:    services.NewSubjectDataService(store, logger.With("component", "subjects"), m),
		Logger:      logger,
	}).Register(mux)
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/health", healthHandler(cfg, store))
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"commit": cfg.Commit, "build_time": cfg.BuildTime})
	})
	if err := mountFrontend(mux, cfg, logger); err != nil {
		logger.WithError(err).Warn("frontend not mounted")
	}

	var h http.Handler = mux
	h = middleware.LocaleMiddleware(h)
	h = middleware.NoStore(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.SecureHeaders(h)
	h = middleware.Instrument(m, api.RouteOf)(h)

	return &App{
		Handler:     h,
		Assessments: assessments,
		Store:       store,
		Registry:    reg,
		cfg:         cfg,
		logger:      logger,
		db:          conn,
	}, nil
}

func healthHandler(cfg Config, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		status := http.StatusOK
		ok := true
		if _, err := store.CountEntries(); err != nil {
			status, ok = http.StatusServiceUnavailable, false
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         ok,
			"name":       "Solace API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	}
}

// mountFrontend serves static files from StaticDir, or proxies / to a dev
// server at DevFrontendURL.
func mountFrontend(mux *http.ServeMux, cfg Config, logger *log.Logger) error {
	switch {
	case cfg.StaticDir != "":
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	case cfg.DevFrontendURL != "":
		u, err := url.Parse(cfg.DevFrontendURL)
		if err != nil {
			return fmt.Errorf("invalid SOLACE_DEV_FRONTEND_URL %q: %w", cfg.DevFrontendURL, err)
		}
		rp := httputil.NewSingleHostReverseProxy(u)
		rp.ModifyResponse = func(res *http.Response) error {
			res.Header.Set("Cache-Control", "no-store, max-age=0")
			return nil
		}
		mux.Handle("/", rp)
		logger.Info("proxying frontend", "url", u.String())
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go a.Assessments.Run(pruneCtx, a.cfg.PruneInterval)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("solace server listening", "addr", a.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
