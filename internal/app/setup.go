// Package app wires the inventory service together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/procurehub/internal/catalog"
	"github.com/abgdnv/procurehub/internal/config"
	"github.com/abgdnv/procurehub/internal/inventory"
	"github.com/abgdnv/procurehub/internal/notify"
	"github.com/abgdnv/procurehub/internal/pipeline"
	grpcImpl "github.com/abgdnv/procurehub/internal/transport/grpc"
	"github.com/abgdnv/procurehub/internal/transport/rest"
	"github.com/abgdnv/procurehub/pkg/bootstrap"
	"github.com/abgdnv/procurehub/pkg/messaging"
	"github.com/abgdnv/procurehub/pkg/nats"
	"github.com/abgdnv/procurehub/pkg/server"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
)

type Dependencies struct {
	Store    *inventory.Store
	Pipeline *pipeline.Pipeline
	Health   *grpcImpl.Health
	Metrics  http.Handler
	Logger   *slog.Logger
}

// SetupDependencies builds the store and the pipeline. The store reports its
// lifecycle to the gRPC health service.
func SetupDependencies(remote inventory.RemoteCatalog, notifier inventory.Notifier, metrics http.Handler, logger *slog.Logger) *Dependencies {
	health := grpcImpl.NewHealth()
	store := inventory.NewStore(remote, logger,
		inventory.WithNotifier(notifier),
		inventory.WithStateObserver(health.Observe),
	)
	return &Dependencies{
		Store:    store,
		Pipeline: pipeline.New(pipeline.SeedDeals(time.Now()), logger),
		Health:   health,
		Metrics:  metrics,
		Logger:   logger,
	}
}

// SetupCatalog builds the configured RemoteCatalog. Postgres and HTTP backends are wrapped
// in the circuit breaker. The returned func releases backend resources.
func SetupCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (inventory.RemoteCatalog, func(), error) {
	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		db := cfg.Catalog.Database
		if db.Migrate {
			if err := catalog.Migrate(db.URL, logger); err != nil {
				return nil, nil, err
			}
		}
		pool, err := bootstrap.NewDbPool(ctx, db.URL, db.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Successfully connected to the catalog database")
		return catalog.NewResilient(catalog.NewPgCatalog(pool), cfg.Resilience, logger), pool.Close, nil
	case config.BackendHTTP:
		return catalog.NewResilient(catalog.NewHTTPCatalog(cfg.Catalog.HTTP), cfg.Resilience, logger), func() {}, nil
	case config.BackendNone:
		logger.Warn("No remote catalog configured, changes are kept in memory only")
		return catalog.Offline{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog backend: %s", cfg.Catalog.Backend)
	}
}

// SetupNotifier always logs notifications and, when NATS is enabled, publishes them to JetStream.
func SetupNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (inventory.Notifier, func(), error) {
	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if !cfg.NATS.Enabled {
		return notifiers, func() {}, nil
	}

	nc, err := nats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if err := nats.EnsureStream(ctx, js, cfg.NATS.Stream, messaging.ProductsSubjects); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Publishing inventory events to NATS", "stream", cfg.NATS.Stream)
	notifiers = append(notifiers, notify.NewEventNotifier(nats.NewNatsPublisher(js), cfg.NATS.Timeout, logger))
	return notifiers, func() { _ = nc.Drain() }, nil
}

// SetupHttpHandler builds the router with every route. Used by tests as well.
func SetupHttpHandler(deps *Dependencies, opts ...server.RouterOption) http.Handler {
	mux := server.NewChiRouter(deps.Logger, opts...)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.Store, deps.Logger).RegisterRoutes(mux)
	rest.NewPipelineHandler(deps.Pipeline, deps.Logger).RegisterRoutes(mux)
	if deps.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	handler := SetupHttpHandler(deps,
		server.WithHeartbeat("/livez"),
		server.WithRequestTimeout(cfg.HTTPServer.Timeout.Request),
	)
	return server.NewHTTPServer(httpCfg, config.ServiceName, handler)
}

// SetupGrpcServer creates the gRPC server exposing the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, deps.Health.Register)
}
