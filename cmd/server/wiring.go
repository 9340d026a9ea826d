package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"idverify/internal/document"
	"idverify/internal/document/store"
	"idverify/internal/ocr"
	"idverify/internal/ocr/tesseract"
	"idverify/internal/ocr/vision"
	"idverify/internal/platform/config"
	"idverify/internal/platform/redis"
	"idverify/internal/ratelimit"
	httptransport "idverify/internal/transport/http"
	audit "idverify/pkg/platform/audit"
	"idverify/pkg/platform/audit/publisher"
	"idverify/pkg/platform/audit/publishers/compliance"
	"idverify/pkg/platform/audit/publishers/kafka"
	"idverify/pkg/platform/audit/publishers/ops"
	"idverify/pkg/platform/audit/publishers/security"
	auditmemory "idverify/pkg/platform/audit/store/memory"
	auditpostgres "idverify/pkg/platform/audit/store/postgres"
	"idverify/pkg/platform/audit/worker"
	"idverify/pkg/platform/circuit"
	"idverify/pkg/platform/secrets"
	txcontext "idverify/pkg/platform/tx"
)

// cleanupStack closes resources in reverse order of acquisition.
type cleanupStack []func() error

func (c *cleanupStack) push(fn func() error) {
	*c = append(*c, fn)
}

func (c *cleanupStack) run(log *slog.Logger) {
	for i := len(*c) - 1; i >= 0; i-- {
		if err := (*c)[i](); err != nil {
			log.Warn("cleanup failed", "error", err)
		}
	}
}

func buildEngine(ctx context.Context, cfg config.OCRConfig, log *slog.Logger, cleanup *cleanupStack) (ocr.Engine, error) {
	local := tesseract.New(tesseract.WithLanguages(cfg.Languages...), tesseract.WithLogger(log))
	if cfg.Engine != config.EngineVision {
		return local, nil
	}

	remote, err := vision.New(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("init vision engine: %w", err)
	}
	cleanup.push(remote.Close)
	if cfg.Fallback != config.EngineTesseract {
		return remote, nil
	}
	breaker := circuit.New("ocr-vision")
	return ocr.NewFallbackEngine(remote, local, breaker, log), nil
}

func buildSealer(cfg config.RecordsConfig, log *slog.Logger) (*secrets.Sealer, error) {
	var (
		key []byte
		err error
	)
	if cfg.EncryptionKey != "" {
		key, err = secrets.ParseKey(cfg.EncryptionKey)
	} else {
		log.Warn("ENCRYPTION_KEY not set, sealing records with an ephemeral key")
		key, err = secrets.GenerateKey()
	}
	if err != nil {
		return nil, err
	}
	return secrets.NewSealer(key)
}

// recordBackend is the selected record store plus what shares its
// connection: an optional transaction runner, the SQL or Redis handle and
// health checks.
type recordBackend struct {
	store      document.RecordStore
	transactor document.Transactor
	db         *sql.DB
	redis      *goredis.Client
	health     map[string]httptransport.HealthCheck
}

func buildRecordStore(ctx context.Context, cfg config.Server, sealer *secrets.Sealer, log *slog.Logger, cleanup *cleanupStack) (*recordBackend, error) {
	switch cfg.Records.Store {
	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		cleanup.push(client.Close)
		return &recordBackend{
			store:  store.NewRedisStore(client.Client, sealer),
			redis:  client.Client,
			health: map[string]httptransport.HealthCheck{"redis": client.Health},
		}, nil

	case config.StorePostgres:
		db, err := sql.Open("pgx", cfg.Records.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		cleanup.push(db.Close)
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		pg := store.NewPostgresStore(db, sealer)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		return &recordBackend{
			store:      pg,
			transactor: txcontext.NewRunner(db, txcontext.DefaultTimeout),
			db:         db,
			health:     map[string]httptransport.HealthCheck{"postgres": db.PingContext},
		}, nil

	default:
		log.Info("keeping verification records in memory")
		return &recordBackend{store: store.NewInMemoryStore(sealer)}, nil
	}
}

// auditPipeline is the category router plus the worker that drains the
// buffered security events.
type auditPipeline struct {
	publisher audit.Publisher
	worker    *worker.Worker
}

// buildAudit picks the sink: Kafka when brokers are configured, otherwise
// the records database so document audit commits with its record, otherwise
// memory.
func buildAudit(ctx context.Context, cfg config.AuditConfig, backend *recordBackend, reg prometheus.Registerer, log *slog.Logger, cleanup *cleanupStack) (*auditPipeline, error) {
	var sink audit.Store
	switch {
	case len(cfg.KafkaBrokers) > 0:
		k, err := kafka.New(ctx, cfg.KafkaBrokers, cfg.Topic, log)
		if err != nil {
			return nil, err
		}
		cleanup.push(func() error {
			k.Close()
			return nil
		})
		sink = k
	case backend.db != nil:
		pg := auditpostgres.New(backend.db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		sink = pg
	default:
		sink = auditmemory.NewInMemoryStore()
	}

	buffer := security.NewRingBuffer(security.DefaultCapacity)
	router := publisher.NewPublisher(
		compliance.New(sink, compliance.WithLogger(log), compliance.WithMetrics(compliance.NewMetrics(reg))),
		publisher.WithOps(ops.New(sink, ops.WithLogger(log), ops.WithMetrics(ops.NewMetrics(reg)))),
		publisher.WithSecurity(security.New(buffer)),
	)
	return &auditPipeline{
		publisher: router,
		worker:    worker.NewWorker(sink, buffer, worker.WithLogger(log)),
	}, nil
}

// buildRateLimit shares windows through Redis when the records already live
// there.
func buildRateLimit(cfg config.RateLimitConfig, backend *recordBackend, log *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled() {
		log.Info("rate limiting disabled")
		return nil
	}
	var st ratelimit.Store = ratelimit.NewInMemoryStore()
	if backend.redis != nil {
		st = ratelimit.NewRedisStore(backend.redis)
	}
	return ratelimit.New(st, cfg.Requests, cfg.Window, log).Middleware
}
