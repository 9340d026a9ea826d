package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"IDVERIFY_ADDR", "LOG_LEVEL", "LOG_FORMAT", "MAX_UPLOAD_BYTES", "SHUTDOWN_TIMEOUT",
		"JWT_SIGNING_KEY", "JWT_ISSUER", "JWT_AUDIENCE",
		"OCR_ENGINE", "OCR_FALLBACK_ENGINE", "OCR_LANGUAGES", "OCR_MIN_TOKEN_CONFIDENCE", "GOOGLE_APPLICATION_CREDENTIALS",
		"VERIFY_ACCEPT_THRESHOLD", "RECORD_STORE", "RECORD_TTL", "PURGE_INTERVAL",
		"DATABASE_URL", "ENCRYPTION_KEY", "REDIS_URL", "KAFKA_BROKERS", "AUDIT_TOPIC",
		"AUDIT_CONSUMER_GROUP", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, EngineTesseract, cfg.OCR.Engine)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, 60.0, cfg.OCR.MinTokenConfidence)
	assert.Equal(t, 0.6, cfg.Verification.AcceptThreshold)
	assert.Equal(t, StoreMemory, cfg.Records.Store)
	assert.Equal(t, 5*time.Minute, cfg.Records.TTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.AuthEnabled())
	assert.Empty(t, cfg.Audit.KafkaBrokers)
	assert.Equal(t, RateLimitConfig{Requests: 60, Window: time.Minute}, cfg.RateLimit)
	assert.True(t, cfg.RateLimit.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_ENGINE", "Vision")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/gcp.json")
	t.Setenv("OCR_FALLBACK_ENGINE", "tesseract")
	t.Setenv("OCR_LANGUAGES", "eng+fra")
	t.Setenv("RECORD_STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/idverify")
	t.Setenv("RECORD_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("JWT_SIGNING_KEY", "secret")

	cfg := FromEnv()

	assert.Equal(t, EngineVision, cfg.OCR.Engine)
	assert.Equal(t, []string{"eng", "fra"}, cfg.OCR.Languages)
	assert.Equal(t, EngineTesseract, cfg.OCR.Fallback)
	assert.Equal(t, StorePostgres, cfg.Records.Store)
	assert.Equal(t, 90*time.Second, cfg.Records.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.KafkaBrokers)
	assert.True(t, cfg.AuthEnabled())
	require.NoError(t, cfg.Validate())
}

func TestInvalidValuesFallBackAndFailValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("RECORD_TTL", "five minutes")
	t.Setenv("VERIFY_ACCEPT_THRESHOLD", "high")

	cfg := FromEnv()

	assert.Equal(t, 5*time.Minute, cfg.Records.TTL)
	assert.Equal(t, 0.6, cfg.Verification.AcceptThreshold)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECORD_TTL")
	assert.Contains(t, err.Error(), "VERIFY_ACCEPT_THRESHOLD")
}

func TestValidateRejectsInconsistentBackends(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"redis without url", map[string]string{"RECORD_STORE": "redis"}, "REDIS_URL"},
		{"postgres without dsn", map[string]string{"RECORD_STORE": "postgres"}, "DATABASE_URL"},
		{"unknown store", map[string]string{"RECORD_STORE": "mongo"}, "RECORD_STORE"},
		{"vision without credentials", map[string]string{"OCR_ENGINE": "vision"}, "GOOGLE_APPLICATION_CREDENTIALS"},
		{"unknown engine", map[string]string{"OCR_ENGINE": "easyocr"}, "OCR_ENGINE"},
		{"fallback behind tesseract", map[string]string{"OCR_FALLBACK_ENGINE": "tesseract"}, "OCR_FALLBACK_ENGINE"},
		{"threshold out of range", map[string]string{"VERIFY_ACCEPT_THRESHOLD": "1.5"}, "VERIFY_ACCEPT_THRESHOLD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			err := FromEnv().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRateLimitCanBeDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	t.Setenv("RATE_LIMIT_WINDOW", "0s")

	cfg := FromEnv()

	assert.False(t, cfg.RateLimit.Enabled())
	require.NoError(t, cfg.Validate())

	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	require.Error(t, FromEnv().Validate())
}
