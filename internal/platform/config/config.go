package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Record store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// OCR engines.
const (
	EngineTesseract = "tesseract"
	EngineVision    = "vision"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	OCR          OCRConfig
	Verification VerificationConfig
	Records      RecordsConfig
	Redis        RedisConfig
	Audit        AuditConfig
	RateLimit    RateLimitConfig

	// problems collects values that failed to parse and were replaced by
	// their defaults.
	problems []error
}

type OCRConfig struct {
	Engine             string
	Languages          []string
	MinTokenConfidence float64
	CredentialsFile    string
	// Fallback names an engine used while the primary is failing.
	Fallback           string
}

type VerificationConfig struct {
	AcceptThreshold float64
}

// RecordsConfig controls how verification records are kept.
type RecordsConfig struct {
	Store         string
	TTL           time.Duration
	PurgeInterval time.Duration
	DatabaseURL   string
	// EncryptionKey is base64; empty means an ephemeral key is generated.
	EncryptionKey string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig bounds requests per client. Requests <= 0 disables it.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func (r RateLimitConfig) Enabled() bool {
	return r.Requests > 0
}

type AuditConfig struct {
	KafkaBrokers  []string
	Topic         string
	ConsumerGroup string
}

// FromEnv builds a Server config from environment variables so main stays
// lean. A .env file in the working directory is loaded first when present;
// real environment variables win over it.
func FromEnv() Server {
	_ = godotenv.Load()

	var cfg Server
	cfg.Addr = getString("IDVERIFY_ADDR", ":8080")
	cfg.LogLevel = getString("LOG_LEVEL", "info")
	cfg.LogFormat = getString("LOG_FORMAT", "json")
	cfg.MaxUploadBytes = cfg.getInt64("MAX_UPLOAD_BYTES", 10<<20)
	cfg.ShutdownTimeout = cfg.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")
	cfg.JWTIssuer = getString("JWT_ISSUER", "idverify")
	cfg.JWTAudience = getString("JWT_AUDIENCE", "idverify-api")

	cfg.OCR = OCRConfig{
		Engine:             strings.ToLower(getString("OCR_ENGINE", EngineTesseract)),
		Languages:          getList("OCR_LANGUAGES", []string{"eng"}),
		MinTokenConfidence: cfg.getFloat("OCR_MIN_TOKEN_CONFIDENCE", 60),
		CredentialsFile:    os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Fallback:           strings.ToLower(strings.TrimSpace(os.Getenv("OCR_FALLBACK_ENGINE"))),
	}
	cfg.Verification = VerificationConfig{
		AcceptThreshold: cfg.getFloat("VERIFY_ACCEPT_THRESHOLD", 0.6),
	}
	cfg.Records = RecordsConfig{
		Store:         strings.ToLower(getString("RECORD_STORE", StoreMemory)),
		TTL:           cfg.getDuration("RECORD_TTL", 5*time.Minute),
		PurgeInterval: cfg.getDuration("PURGE_INTERVAL", time.Minute),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
	}
	cfg.Redis = RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     int(cfg.getInt64("REDIS_POOL_SIZE", 10)),
		MinIdleConns: int(cfg.getInt64("REDIS_MIN_IDLE_CONNS", 2)),
		DialTimeout:  cfg.getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  cfg.getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: cfg.getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
	cfg.Audit = AuditConfig{
		KafkaBrokers:  getList("KAFKA_BROKERS", nil),
		Topic:         os.Getenv("AUDIT_TOPIC"),
		ConsumerGroup: os.Getenv("AUDIT_CONSUMER_GROUP"),
	}
	cfg.RateLimit = RateLimitConfig{
		Requests: int(cfg.getInt64("RATE_LIMIT_REQUESTS", 60)),
		Window:   cfg.getDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
	return cfg
}

// Validate reports unparseable values and inconsistent combinations.
func (c Server) Validate() error {
	errs := append([]error(nil), c.problems...)

	switch c.OCR.Engine {
	case EngineTesseract:
	case EngineVision:
		if c.OCR.CredentialsFile == "" {
			errs = append(errs, errors.New("OCR_ENGINE=vision requires GOOGLE_APPLICATION_CREDENTIALS"))
		}
	default:
		errs = append(errs, fmt.Errorf("OCR_ENGINE must be %q or %q, got %q", EngineTesseract, EngineVision, c.OCR.Engine))
	}

	if c.OCR.Fallback != "" && (c.OCR.Fallback != EngineTesseract || c.OCR.Engine == EngineTesseract) {
		errs = append(errs, fmt.Errorf("OCR_FALLBACK_ENGINE may only be %q behind the vision engine", EngineTesseract))
	}

	switch c.Records.Store {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("RECORD_STORE=redis requires REDIS_URL"))
		}
	case StorePostgres:
		if c.Records.DatabaseURL == "" {
			errs = append(errs, errors.New("RECORD_STORE=postgres requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("RECORD_STORE must be one of memory, redis, postgres, got %q", c.Records.Store))
	}

	if t := c.Verification.AcceptThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("VERIFY_ACCEPT_THRESHOLD must be in (0, 1], got %v", t))
	}
	if c.Records.TTL <= 0 {
		errs = append(errs, errors.New("RECORD_TTL must be positive"))
	}
	if c.RateLimit.Enabled() && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether verification routes require a bearer token.
func (c Server) AuthEnabled() bool {
	return c.JWTSigningKey != ""
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '+' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c *Server) getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.problems = append(c.problems, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (c *Server) getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.problems = append(c.problems, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (c *Server) getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		c.problems = append(c.problems, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}
