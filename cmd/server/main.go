// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in the internal service
// packages.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dataportal/internal/access"
	accesshandler "dataportal/internal/access/handler"
	audithandler "dataportal/internal/audit/handler"
	"dataportal/internal/grant"
	granthandler "dataportal/internal/grant/handler"
	"dataportal/internal/platform/config"
	"dataportal/internal/platform/httpserver"
	"dataportal/internal/platform/logger"
	"dataportal/internal/platform/metrics"
	platformpg "dataportal/internal/platform/postgres"
	platformredis "dataportal/internal/platform/redis"
	"dataportal/internal/request"
	requesthandler "dataportal/internal/request/handler"
	httptransport "dataportal/internal/transport/http"
	"dataportal/pkg/platform/audit"
	auditkafka "dataportal/pkg/platform/audit/kafka"
	auditpublisher "dataportal/pkg/platform/audit/publisher"
	auditmemory "dataportal/pkg/platform/audit/store/memory"
	auditpg "dataportal/pkg/platform/audit/store/postgres"
	auditworker "dataportal/pkg/platform/audit/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	defer stores.close()

	m := metrics.New()

	// Audit pipeline: synchronous fail-closed store append, optional
	// asynchronous Kafka mirror for downstream consumers.
	publisherOpts := []auditpublisher.Option{
		auditpublisher.WithLogger(log),
		auditpublisher.WithMetrics(m),
	}
	var mirrorInbox chan audit.Event
	if len(cfg.KafkaBrokers) > 0 {
		mirrorInbox = make(chan audit.Event, 256)
		publisherOpts = append(publisherOpts, auditpublisher.WithMirror(mirrorInbox))
	}
	auditor := auditpublisher.New(stores.audit, publisherOpts...)

	grants := grant.NewService(stores.grants, auditor, m, log)
	requests := request.NewService(stores.requests, grants, auditor, m, log)
	resolver := access.NewResolver(grants, m, log)

	if cfg.SeedDemoData {
		seedDemoData(ctx, requests, log)
	}

	router := httptransport.NewRouter(log, m, cfg.RequestTimeout,
		requesthandler.New(requests, log),
		granthandler.New(grants, log),
		accesshandler.New(resolver, log),
		audithandler.New(auditor, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	if mirrorInbox != nil {
		mirror, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer mirror.Close()
		worker := auditworker.New(mirror, mirrorInbox, log)
		g.Go(func() error { return worker.Run(ctx) })
	}

	g.Go(func() error {
		log.Info("starting dataportal", "addr", cfg.Addr, "store", cfg.StoreBackend, "grant_store", cfg.GrantBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type storeSet struct {
	requests request.Store
	grants   grant.Store
	audit    audit.Store
	closers  []func() error
}

func (s *storeSet) close() {
	for _, fn := range s.closers {
		_ = fn()
	}
}

// buildStores validates the configured backends before connecting anything:
// an operator asking for a durable store must never silently receive a
// volatile one.
func buildStores(cfg config.Server) (*storeSet, error) {
	switch cfg.StoreBackend {
	case "memory", "postgres":
	default:
		return nil, fmt.Errorf("unknown store backend %q (want memory or postgres)", cfg.StoreBackend)
	}
	switch cfg.GrantBackend {
	case "memory", "postgres", "redis":
	default:
		return nil, fmt.Errorf("unknown grant store backend %q (want memory, postgres, or redis)", cfg.GrantBackend)
	}
	if cfg.GrantBackend == "postgres" && cfg.StoreBackend != "postgres" {
		return nil, fmt.Errorf("grant store backend postgres requires store backend postgres")
	}

	stores := &storeSet{}

	switch cfg.StoreBackend {
	case "postgres":
		db, err := platformpg.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, db.Close)
		stores.requests = request.NewPostgresStore(db)
		stores.audit = auditpg.New(db)
		if cfg.GrantBackend == "postgres" {
			stores.grants = grant.NewPostgresStore(db)
		}
	case "memory":
		stores.requests = request.NewInMemoryStore()
		stores.audit = auditmemory.NewInMemoryStore()
	}

	switch cfg.GrantBackend {
	case "redis":
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, client.Close)
		stores.grants = grant.NewRedisStore(client.Client)
	case "memory":
		stores.grants = grant.NewInMemoryStore()
	}
	return stores, nil
}

// seedDemoData submits one demo request through the normal path so the
// audit trail stays consistent with the stored state.
func seedDemoData(ctx context.Context, requests *request.Service, log *slog.Logger) {
	req, err := requests.Submit(ctx, request.SubmitInput{
		RequesterSubject: "user@company.com",
		ResourceRef:      "bigquery://demo.retail.sales_daily_gold",
		AccessLevel:      "READER",
		Reason:           "Need the dataset for analysis and reporting.",
	})
	if err != nil {
		log.Warn("demo seed failed", "error", err)
		return
	}
	log.Info("seeded demo access request", "request_id", req.ID)
}
