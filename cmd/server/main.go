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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"idverify/internal/document"
	documenthandler "idverify/internal/document/handler"
	documentmetrics "idverify/internal/document/metrics"
	"idverify/internal/document/store"
	"idverify/internal/extraction"
	jwttoken "idverify/internal/jwt_token"
	"idverify/internal/platform/config"
	"idverify/internal/platform/httpserver"
	"idverify/internal/platform/logger"
	"idverify/internal/platform/metrics"
	httptransport "idverify/internal/transport/http"
	"idverify/internal/verification"
	audit "idverify/pkg/platform/audit"
	"idverify/pkg/platform/middleware/auth"
	"idverify/pkg/requestcontext"
)

// main wires dependencies from the environment and runs the HTTP server,
// the record purger and the security audit worker until a signal arrives.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error("idverify stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var cleanup cleanupStack
	defer cleanup.run(log)

	engine, err := buildEngine(ctx, cfg.OCR, log, &cleanup)
	if err != nil {
		return err
	}
	sealer, err := buildSealer(cfg.Records, log)
	if err != nil {
		return err
	}
	backend, err := buildRecordStore(ctx, cfg, sealer, log, &cleanup)
	if err != nil {
		return err
	}
	auditing, err := buildAudit(ctx, cfg.Audit, backend, reg, log, &cleanup)
	if err != nil {
		return err
	}

	opts := []document.Option{
		document.WithExtractor(extraction.New()),
		document.WithVerifier(verification.New(verification.WithAcceptThreshold(cfg.Verification.AcceptThreshold))),
		document.WithAuditPublisher(auditing.publisher),
		document.WithMetrics(documentmetrics.New(reg)),
		document.WithLogger(log),
		document.WithTracer(otel.Tracer("idverify/document")),
		document.WithRecordTTL(cfg.Records.TTL),
		document.WithMinTokenConfidence(cfg.OCR.MinTokenConfidence),
	}
	if backend.transactor != nil {
		opts = append(opts, document.WithTransactor(backend.transactor))
	}
	svc := document.New(engine, backend.store, opts...)

	routerOpts := httptransport.Options{
		Logger:    log,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		RateLimit: buildRateLimit(cfg.RateLimit, backend, log),
		Health:    backend.health,
	}
	if cfg.AuthEnabled() {
		jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
		routerOpts.Validator = jwttoken.NewJWTServiceAdapter(jwtService)
		routerOpts.AuthOptions = []auth.Option{auth.WithFailureHook(authFailureAuditor(auditing.publisher, log))}
	} else {
		log.Warn("JWT_SIGNING_KEY not set, verification routes are unauthenticated")
	}
	router := httptransport.NewRouter(routerOpts,
		documenthandler.New(svc, log, cfg.MaxUploadBytes),
	)
	srv := httpserver.New(cfg.Addr, router, httptransport.DefaultRequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting idverify",
			"addr", cfg.Addr,
			"ocr_engine", engine.Name(),
			"record_store", cfg.Records.Store,
			"auth", cfg.AuthEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		store.NewPurger(backend.store, log,
			store.WithPurgeInterval(cfg.Records.PurgeInterval),
			store.WithOnPurge(svc.RecordsPurged),
		).Run(gctx)
		return nil
	})
	g.Go(func() error {
		auditing.worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// authFailureAuditor records rejected bearer tokens as security events.
func authFailureAuditor(publisher audit.Publisher, log *slog.Logger) auth.FailureHook {
	return func(ctx context.Context, reason string) {
		err := publisher.Emit(ctx, audit.Event{
			Category:  audit.EventAuthFailed.Category(),
			Timestamp: requestcontext.Now(ctx),
			Action:    audit.EventAuthFailed.String(),
			RequestID: requestcontext.RequestID(ctx),
			Decision:  "denied",
			Reason:    reason,
		})
		if err != nil {
			log.WarnContext(ctx, "failed to emit audit event", "action", audit.EventAuthFailed, "error", err)
		}
	}
}
