package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; unset optional backends (postgres, redis,
// kafka) leave the corresponding fields empty and the wiring falls back to
// in-memory implementations.
type Server struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string
}

// ProgressCacheTTL bounds how long a computed progress report may be served
// from cache. Writes invalidate eagerly; the TTL is a backstop.
var ProgressCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("RESIMED_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	auditTopic := os.Getenv("RESIMED_AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "resimed.audit"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("RESIMED_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		PostgresDSN:   os.Getenv("RESIMED_POSTGRES_DSN"),
		RedisURL:      os.Getenv("RESIMED_REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    auditTopic,
		JWTSigningKey: jwtSigningKey,
	}
}
