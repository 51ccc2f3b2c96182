package utils

import (
	"testing"

	"github.com/codemate-vn/codemate-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestGetEnvReturnsRawValue(t *testing.T) {
	log := testLogger(t)

	t.Setenv("JWT_SECRET_KEY", "super-secret-value")
	t.Setenv("POSTGRES_HOST", "db.internal")

	// redaction applies to the log line only, never the returned value
	if got := GetEnv("JWT_SECRET_KEY", "", log); got != "super-secret-value" {
		t.Fatalf("GetEnv(JWT_SECRET_KEY) = %q", got)
	}
	if got := GetEnv("POSTGRES_HOST", "", log); got != "db.internal" {
		t.Fatalf("GetEnv(POSTGRES_HOST) = %q", got)
	}
	if got := GetEnv("MISSING_VAR", "fallback", log); got != "fallback" {
		t.Fatalf("GetEnv(MISSING_VAR) = %q", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	log := testLogger(t)

	t.Setenv("CHAT_RATE_LIMIT", "30")
	t.Setenv("NOT_A_NUMBER", "thirty")

	if got := GetEnvAsInt("CHAT_RATE_LIMIT", 10, log); got != 30 {
		t.Fatalf("GetEnvAsInt(CHAT_RATE_LIMIT) = %d", got)
	}
	if got := GetEnvAsInt("NOT_A_NUMBER", 10, log); got != 10 {
		t.Fatalf("GetEnvAsInt(NOT_A_NUMBER) = %d", got)
	}
	if got := GetEnvAsInt("MISSING_VAR", 10, log); got != 10 {
		t.Fatalf("GetEnvAsInt(MISSING_VAR) = %d", got)
	}
}

func TestIsSecretEnv(t *testing.T) {
	t.Parallel()

	secret := []string{"JWT_SECRET_KEY", "OPENAI_API_KEY", "REDIS_PASSWORD", "GOOGLE_APPLICATION_CREDENTIALS", "ACCESS_TOKEN_TTL_SECRET"}
	for _, key := range secret {
		if !isSecretEnv(key) {
			t.Errorf("isSecretEnv(%q) = false, want true", key)
		}
	}
	plain := []string{"POSTGRES_HOST", "POSTGRES_PORT", "ENVIRONMENT", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR"}
	for _, key := range plain {
		if isSecretEnv(key) {
			t.Errorf("isSecretEnv(%q) = true, want false", key)
		}
	}

	if got := loggable("JWT_SECRET_KEY", "hunter2"); got != "[REDACTED]" {
		t.Fatalf("loggable(JWT_SECRET_KEY) = %q", got)
	}
	if got := loggable("POSTGRES_HOST", "db.internal"); got != "db.internal" {
		t.Fatalf("loggable(POSTGRES_HOST) = %q", got)
	}
}
