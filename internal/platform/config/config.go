// Package config loads the process-wide gateway configuration. The snapshot
// is built once at startup and never mutated, so concurrent reads need no
// synchronization.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

// DirectoryLookupTTL bounds how long a resolved user location may be served
// from cache before the directory is consulted again.
var DirectoryLookupTTL = 5 * time.Minute

// Gateway captures the full gateway configuration.
type Gateway struct {
	Addr string

	// SharedSecret signs trust tokens and derives the credential cipher key.
	// It must match the secret configured on every federation node.
	SharedSecret string

	// MasterAdmins are uids that always stay on the master node.
	// Matched exactly, case-sensitive.
	MasterAdmins []string

	// SAMLUIDAttr and SAMLLocationAttr name the federated attributes the
	// identity extractor reads. An empty location attribute disables the
	// direct location hint and forces directory lookup.
	SAMLUIDAttr      string
	SAMLLocationAttr string

	// Directory selects the user directory provider: "lookup" (remote
	// lookup server) or "postgres" (local mapping table).
	Directory   string
	LookupURL   string
	PostgresDSN string

	Redis RedisConfig

	// Kafka audit sink; auditing falls back to the in-memory store when no
	// brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string

	// ExchangeTimeout bounds the outbound app-token call so a stale node
	// cannot hang the login path.
	ExchangeTimeout time.Duration
}

// RedisConfig carries connection settings for the optional lookup cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Gateway config from environment variables so main stays
// lean. It fails fast on values that would only surface as confusing
// runtime errors later.
func FromEnv() (Gateway, error) {
	cfg := Gateway{
		Addr:             getenv("FEDGATE_ADDR", ":8080"),
		SharedSecret:     os.Getenv("FEDGATE_SHARED_SECRET"),
		SAMLUIDAttr:      os.Getenv("FEDGATE_SAML_UID_ATTR"),
		SAMLLocationAttr: os.Getenv("FEDGATE_SAML_LOCATION_ATTR"),
		Directory:        getenv("FEDGATE_DIRECTORY", "lookup"),
		LookupURL:        os.Getenv("FEDGATE_LOOKUP_URL"),
		PostgresDSN:      os.Getenv("FEDGATE_POSTGRES_DSN"),
		KafkaTopic:       getenv("FEDGATE_KAFKA_TOPIC", "fedgate.audit"),
		ExchangeTimeout:  getduration("FEDGATE_EXCHANGE_TIMEOUT", 10*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("FEDGATE_REDIS_URL"),
			PoolSize:     getint("FEDGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("FEDGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  getduration("FEDGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("FEDGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("FEDGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}

	if admins := os.Getenv("FEDGATE_MASTER_ADMINS"); admins != "" {
		for _, uid := range strings.Split(admins, ",") {
			if uid = strings.TrimSpace(uid); uid != "" {
				cfg.MasterAdmins = append(cfg.MasterAdmins, uid)
			}
		}
	}
	if brokers := os.Getenv("FEDGATE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.SharedSecret == "" {
		return cfg, fmt.Errorf("FEDGATE_SHARED_SECRET is required")
	}
	switch cfg.Directory {
	case "lookup":
		if !govalidator.IsRequestURL(cfg.LookupURL) {
			return cfg, fmt.Errorf("FEDGATE_LOOKUP_URL %q is not a valid URL", cfg.LookupURL)
		}
	case "postgres":
		if cfg.PostgresDSN == "" {
			return cfg, fmt.Errorf("FEDGATE_POSTGRES_DSN is required for the postgres directory")
		}
	default:
		return cfg, fmt.Errorf("FEDGATE_DIRECTORY must be \"lookup\" or \"postgres\", got %q", cfg.Directory)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
