// Package server assembles the document store, registries, application
// services and HTTP surface into one runnable unit.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	appchat "agency-data-service/internal/app/chat"
	appclients "agency-data-service/internal/app/clients"
	appclubs "agency-data-service/internal/app/clubs"
	"agency-data-service/internal/app/records"
	"agency-data-service/internal/config"
	"agency-data-service/internal/docstore"
	"agency-data-service/internal/docstore/postgres"
	"agency-data-service/internal/domain/activities"
	"agency-data-service/internal/domain/chat"
	"agency-data-service/internal/domain/clients"
	"agency-data-service/internal/domain/clubs"
	"agency-data-service/internal/domain/contracts"
	"agency-data-service/internal/domain/sponsors"
	"agency-data-service/internal/domain/transfers"
	"agency-data-service/internal/enrich"
	"agency-data-service/internal/enrich/fixture"
	"agency-data-service/internal/errqueue"
	internalhttp "agency-data-service/internal/http"
	"agency-data-service/internal/http/handlers"
	"agency-data-service/internal/http/middleware"
	"agency-data-service/internal/logging"
	"agency-data-service/internal/metrics"
	"agency-data-service/internal/registry"
)

var metricsSetup = metrics.Setup

// Server owns every long-lived component and shuts them down in order.
type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	errs          *errqueue.Queue
	registries    *registrySet
	httpServer    httpServer
	metricsServer httpServer
	metricsStop   func(context.Context) error
}

// New constructs a fully wired server from configuration.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger)

	store, err := buildStore(cfg, logger)
	if err != nil {
		stopMetrics(metricsShutdown, logger)
		return nil, err
	}
	blobs := buildBlobs(cfg)
	errs := errqueue.New()

	regs, err := openRegistries(ctx, store, errs, logger, recorder)
	if err != nil {
		regs.close()
		stopMetrics(metricsShutdown, logger)
		return nil, err
	}

	provider, providerName := buildProvider(cfg, logger)
	handler := buildHandler(cfg, store, blobs, regs, provider, providerName, errs, logger, recorder)
	wrapped := middleware.LoggingMiddleware(resolveLogger(logger), recorder, internalhttp.NewRouter(handler))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      wrapped,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		errs:          errs,
		registries:    regs,
		httpServer:    stdServer{srv: srv},
		metricsServer: metricsSrv,
		metricsStop:   metricsShutdown,
	}, nil
}

// registrySet groups one registry per mirrored collection so startup and
// shutdown treat them uniformly.
type registrySet struct {
	clients    *registry.Registry[clients.Client]
	clubs      *registry.Registry[clubs.Club]
	contracts  *registry.Registry[contracts.Contract]
	transfers  *registry.Registry[transfers.Transfer]
	processes  *registry.Registry[transfers.Process]
	sponsors   *registry.Registry[sponsors.Sponsor]
	activities *registry.Registry[activities.Activity]
	chats      *registry.Registry[chat.Chat]
}

func openRegistries(ctx context.Context, store docstore.Store, errs *errqueue.Queue, logger *slog.Logger, recorder *metrics.Recorder) (*registrySet, error) {
	regs := &registrySet{}

	steps := []func() error{
		func() (err error) {
			regs.clients, err = registry.Open(ctx, registry.Options[clients.Client]{
				Store: store, Spec: docstore.QuerySpec{Collection: clients.Collection, OrderBy: "givenName"},
				Decode: clients.Decode, Errors: errs, Logger: logger, Metrics: recorder,
			})
			return err
		},
		func() (err error) {
			regs.clubs, err = registry.Open(ctx, registry.Options[clubs.Club]{
				Store: store, Spec: docstore.QuerySpec{Collection: clubs.Collection, OrderBy: "name"},
				Decode: clubs.Decode, Errors: errs, Logger: logger, Metrics: recorder,
			})
			return err
		},
		func() (err error) {
			regs.contracts, err = registry.Open(ctx, registry.Options[contracts.Contract]{
				Store: store, Spec: docstore.QuerySpec{Collection: contracts.Collection, OrderBy: "start", Descending: true},
				Decode: contracts.Decode, Errors: errs, Logger: logger, Metrics: recorder,
			})
			return err
		},
		func() (err error) {
			regs.transfers, err = registry.Open(ctx, registry.Options[transfers.Transfer]{
				Store: store, Spec: docstore.QuerySpec{Collection: transfers.Collection, OrderBy: "date", Descending: true},
				Decode: transfers.Decode, Errors: errs, Logger: logger, Metrics: recorder,
			})
			return err
		},
		func() (err error) {
			regs.processes, err = registry.Open(ctx, registry.Options[transfers.Process]{
				Store: store, Spec: docstore.QuerySpec{Collection: transfers.ProcessCollection, OrderBy: "updatedAt", Descending: true},
				Decode: transfers.DecodeProcess, Errors: errs, Logger: logger, Metrics: recorder,
			})
			return err
		},
		func() (err error) {
			regs.sponsors, err = registry.Open(ctx, registry.Options[sponsors.Sponsor]{
				Store: store, Spec: docstore.QuerySpec{Collection: sponsors.Collection, OrderBy: "name"},
				Decode: sponsors.Decode, Errors: errs, Logger: logger, Metrics: recorder,
			})
			return err
		},
		func() (err error) {
			regs.activities, err = registry.Open(ctx, registry.Options[activities.Activity]{
				Store: store, Spec: docstore.QuerySpec{Collection: activities.Collection, OrderBy: "date", Descending: true},
				Decode: activities.Decode, Errors: errs, Logger: logger, Metrics: recorder,
			})
			return err
		},
		func() (err error) {
			regs.chats, err = registry.Open(ctx, registry.Options[chat.Chat]{
				Store: store, Spec: docstore.QuerySpec{Collection: chat.Collection, OrderBy: "updatedAt", Descending: true},
				Decode: chat.Decode, Errors: errs, Logger: logger, Metrics: recorder,
			})
			return err
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return regs, err
		}
	}
	return regs, nil
}

func (r *registrySet) statuses() []registry.Status {
	if r == nil {
		return nil
	}
	out := make([]registry.Status, 0, 8)
	if r.clients != nil {
		out = append(out, r.clients.Status())
	}
	if r.clubs != nil {
		out = append(out, r.clubs.Status())
	}
	if r.contracts != nil {
		out = append(out, r.contracts.Status())
	}
	if r.transfers != nil {
		out = append(out, r.transfers.Status())
	}
	if r.processes != nil {
		out = append(out, r.processes.Status())
	}
	if r.sponsors != nil {
		out = append(out, r.sponsors.Status())
	}
	if r.activities != nil {
		out = append(out, r.activities.Status())
	}
	if r.chats != nil {
		out = append(out, r.chats.Status())
	}
	return out
}

func (r *registrySet) close() {
	if r == nil {
		return
	}
	if r.clients != nil {
		r.clients.Close()
	}
	if r.clubs != nil {
		r.clubs.Close()
	}
	if r.contracts != nil {
		r.contracts.Close()
	}
	if r.transfers != nil {
		r.transfers.Close()
	}
	if r.processes != nil {
		r.processes.Close()
	}
	if r.sponsors != nil {
		r.sponsors.Close()
	}
	if r.activities != nil {
		r.activities.Close()
	}
	if r.chats != nil {
		r.chats.Close()
	}
}

func buildStore(cfg config.Config, logger *slog.Logger) (docstore.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		return postgres.Open(postgres.Config{
			DSN:          cfg.Store.PostgresDSN,
			PollInterval: time.Duration(cfg.Store.PollInterval),
			Logger:       logger,
		})
	default:
		return docstore.NewMemoryStore(), nil
	}
}

func buildBlobs(cfg config.Config) docstore.BlobStore {
	if cfg.Content.Dir != "" {
		return docstore.NewFSBlobStore(cfg.Content.Dir)
	}
	return docstore.NewMemoryBlobStore()
}

func buildProvider(cfg config.Config, logger *slog.Logger) (enrich.Provider, string) {
	switch cfg.Enrich.Provider {
	case "http":
		client := enrich.NewHTTPClient(enrich.Config{
			BaseURL: cfg.Enrich.BaseURL,
			APIKey:  cfg.Enrich.APIKey,
			Name:    "http",
		})
		return enrich.NewRetryingProvider(client, logger, 0, 0), "http"
	default:
		return fixture.New(), "fixture"
	}
}

func buildHandler(cfg config.Config, store docstore.Store, blobs docstore.BlobStore, regs *registrySet, provider enrich.Provider, providerName string, errs *errqueue.Queue, logger *slog.Logger, recorder *metrics.Recorder) *handlers.Handler {
	clientSvc := appclients.NewService(appclients.Config{
		Store:         store,
		Blobs:         blobs,
		Registry:      regs.clients,
		Provider:      provider,
		ProviderName:  providerName,
		EnrichTimeout: time.Duration(cfg.Enrich.Timeout),
		Errors:        errs,
		Logger:        logger,
		Metrics:       recorder,
	})
	clubSvc := appclubs.NewService(appclubs.Config{
		Store:    store,
		Blobs:    blobs,
		Registry: regs.clubs,
		Errors:   errs,
		Logger:   logger,
		Metrics:  recorder,
	})
	chatSvc := appchat.NewService(appchat.Config{
		Store:    store,
		Registry: regs.chats,
		Errors:   errs,
		Logger:   logger,
		Metrics:  recorder,
	})

	return handlers.NewHandler(handlers.Config{
		Clients: clientSvc,
		Clubs:   clubSvc,
		Contracts: records.NewService(records.Config[contracts.Contract]{
			Store:    store,
			Codec:    records.Codec[contracts.Contract]{Collection: contracts.Collection, Decode: contracts.Decode, Encode: contracts.Encode},
			Registry: regs.contracts,
			Errors:   errs,
			Logger:   logger,
			Metrics:  recorder,
		}),
		Transfers: records.NewService(records.Config[transfers.Transfer]{
			Store:    store,
			Codec:    records.Codec[transfers.Transfer]{Collection: transfers.Collection, Decode: transfers.Decode, Encode: transfers.Encode},
			Registry: regs.transfers,
			Errors:   errs,
			Logger:   logger,
			Metrics:  recorder,
		}),
		Processes: records.NewService(records.Config[transfers.Process]{
			Store:    store,
			Codec:    records.Codec[transfers.Process]{Collection: transfers.ProcessCollection, Decode: transfers.DecodeProcess, Encode: transfers.EncodeProcess},
			Registry: regs.processes,
			Errors:   errs,
			Logger:   logger,
			Metrics:  recorder,
		}),
		Sponsors: records.NewService(records.Config[sponsors.Sponsor]{
			Store:    store,
			Codec:    records.Codec[sponsors.Sponsor]{Collection: sponsors.Collection, Decode: sponsors.Decode, Encode: sponsors.Encode},
			Registry: regs.sponsors,
			Errors:   errs,
			Logger:   logger,
			Metrics:  recorder,
		}),
		Activities: records.NewService(records.Config[activities.Activity]{
			Store:    store,
			Codec:    records.Codec[activities.Activity]{Collection: activities.Collection, Decode: activities.Decode, Encode: activities.Encode},
			Registry: regs.activities,
			Errors:   errs,
			Logger:   logger,
			Metrics:  recorder,
		}),
		Chats:    chatSvc,
		Blobs:    blobs,
		Errors:   errs,
		Statuses: regs.statuses,
		Logger:   logger,
	})
}

// Run starts the HTTP and metrics servers, then waits for context
// cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics shutdown failed", "error", err)
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	// Registries close before the HTTP server drains so no handler
	// observes a half-closed subscription.
	s.registries.close()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger) (*metrics.Recorder, httpServer, func(context.Context) error) {
	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		if logger != nil {
			logger.Warn("metrics setup failed, continuing without telemetry", "err", err)
		}
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = stdServer{
			srv: &http.Server{
				Addr:    ":" + recCfg.Port,
				Handler: handler,
			},
		}
	}
	return rec, metricsSrv, shutdown
}

// stopMetrics releases the telemetry reader when startup fails after
// buildMetrics has already set it up.
func stopMetrics(shutdown func(context.Context) error, logger *slog.Logger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil && logger != nil {
		logger.Warn("metrics shutdown failed", "error", err)
	}
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if logger != nil {
			logger.Info("starting "+name+" server", slog.String("addr", srv.Addr()))
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Warn(name+" server failed", "error", err)
			}
			if onError != nil {
				onError(err)
			}
		}
	}()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return logging.NewLogger(logging.Config{})
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
