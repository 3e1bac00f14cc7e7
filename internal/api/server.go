// Package api exposes the battle engine over HTTP: simulations and ghost
// challenges, signed battle archives with verification and websocket replay,
// seed scans, and scripted campaigns.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/MJE43/rune-ration-replay-go/internal/catalog"
	"github.com/MJE43/rune-ration-replay-go/internal/scan"
	"github.com/MJE43/rune-ration-replay-go/internal/signing"
	"github.com/MJE43/rune-ration-replay-go/internal/store"
	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

// Options configure a Server. Catalog is required; a nil DB disables the
// archive endpoints and a nil Signer stores battles unsigned.
type Options struct {
	Catalog            *catalog.Source
	DB                 store.DB
	Signer             *signing.Signer
	Scanner            *scan.Scanner
	Logger             *slog.Logger
	ReplayInterval     time.Duration
	CampaignMaxBattles int
	RequestTimeout     time.Duration
}

// Server handles HTTP requests
type Server struct {
	catalog      *catalog.Source
	db           store.DB
	signer       *signing.Signer
	scanner      *scan.Scanner
	validate     *validator.Validate
	upgrader     websocket.Upgrader
	errorHandler *ErrorHandler
	monitor      *HealthMonitor
	logger       *slog.Logger

	replayInterval     time.Duration
	campaignMaxBattles int
	requestTimeout     time.Duration
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	scanner := opts.Scanner
	if scanner == nil {
		scanner = scan.NewScanner(0, 30*time.Second, version.EngineVersion)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.CampaignMaxBattles <= 0 {
		opts.CampaignMaxBattles = 500
	}
	if opts.ReplayInterval < 0 {
		opts.ReplayInterval = 0
	}

	s := &Server{
		catalog:      opts.Catalog,
		db:           opts.DB,
		signer:       opts.Signer,
		scanner:      scanner,
		validate:     newValidator(),
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		errorHandler: NewErrorHandler(logger, opts.RequestTimeout),
		monitor:      NewHealthMonitor(),
		logger:       logger,

		replayInterval:     opts.ReplayInterval,
		campaignMaxBattles: opts.CampaignMaxBattles,
		requestTimeout:     opts.RequestTimeout,
	}

	logger.Info("api_server_created",
		"engine_version", version.EngineVersion,
		"database_enabled", s.db != nil,
		"signing_enabled", s.signer != nil,
		"ghosts", len(s.catalog.Current().Ghosts()),
	)
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(s.CORSMiddleware)

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		// Websocket replays outlive the request timeout, and scans carry their
		// own deadline from timeout_ms.
		r.Get("/battles/{id}/replay", s.handleReplay)
		r.Post("/scan", s.handleScan)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))

			r.Get("/catalog", s.handleCatalog)
			r.Get("/ghosts", s.handleListGhosts)
			r.Post("/ghosts/{id}/challenge", s.handleChallenge)
			r.Post("/simulate", s.handleSimulate)
			r.Post("/verify", s.handleVerify)

			r.Get("/scans/{id}", s.handleGetScan)
			r.Get("/scans/{id}/hits", s.handleGetScanHits)
			r.Get("/scans/{id}/export", s.handleExportScanHits)

			r.Get("/battles", s.handleListBattles)
			r.Get("/battles/{id}", s.handleGetBattle)

			r.Post("/campaigns", s.handleRunCampaign)
			r.Get("/campaigns/{id}", s.handleGetCampaign)
		})
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", version.EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response_encode_failed", "error", err)
	}
}

// requireDB writes a 503 and returns false when no store is configured.
func (s *Server) requireDB(w http.ResponseWriter, r *http.Request) bool {
	if s.db != nil {
		return true
	}
	s.errorHandler.HandleTypedError(w, r, http.StatusServiceUnavailable, ErrTypeServiceUnavailable,
		"battle archive is not configured", nil)
	return false
}
