package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MemoryDSN selects the in-process store instead of Postgres.
const MemoryDSN = "memory://"

// Config holds the process settings read from the environment.
type Config struct {
	DBDSN         string
	Environment   string
	HTTPAddr      string
	MigrationsDir string

	LocalTimezone string
	Holidays      string

	MaterializeWeeks    int
	MaterializeInterval time.Duration

	RedisAddr string
	LockTTL   time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	TelegramToken string
}

// Load reads .env when present, then the process environment. Every missing
// or malformed variable is reported at once.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		DBDSN:               p.required("DB_DSN"),
		Environment:         p.str("ENV", "development"),
		HTTPAddr:            p.str("HTTP_ADDR", ":8080"),
		MigrationsDir:       p.str("MIGRATIONS_DIR", "migrations"),
		LocalTimezone:       p.str("LOCAL_TIMEZONE", "UTC"),
		Holidays:            p.str("HOLIDAYS", ""),
		MaterializeWeeks:    p.integer("MATERIALIZE_WEEKS", 4),
		MaterializeInterval: p.duration("MATERIALIZE_INTERVAL", 24*time.Hour),
		RedisAddr:           p.str("REDIS_ADDR", ""),
		LockTTL:             p.duration("LOCK_TTL", 10*time.Second),
		KafkaBrokers:        splitList(p.str("KAFKA_BROKERS", "")),
		KafkaTopic:          p.str("KAFKA_TOPIC", "availability-events"),
		TelegramToken:       p.str("TELEGRAM_TOKEN", ""),
	}

	if _, err := time.LoadLocation(cfg.LocalTimezone); err != nil {
		p.invalid("LOCAL_TIMEZONE", err.Error())
	}
	if cfg.MaterializeWeeks < 0 {
		p.invalid("MATERIALIZE_WEEKS", "must not be negative")
	}
	if cfg.MaterializeInterval <= 0 {
		p.invalid("MATERIALIZE_INTERVAL", "must be positive")
	}
	if cfg.LockTTL <= 0 {
		p.invalid("LOCK_TTL", "must be positive")
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UseMemoryStore reports whether DB_DSN selects the in-process store.
func (c *Config) UseMemoryStore() bool {
	return c.DBDSN == MemoryDSN
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves LocalTimezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.LocalTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type parser struct {
	getenv  func(string) string
	missing []string
	bad     []string
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) required(key string) string {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		p.missing = append(p.missing, key)
	}
	return v
}

func (p *parser) integer(key string, def int) int {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.invalid(key, "must be an integer")
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.invalid(key, "must be a duration such as 30s or 24h")
		return def
	}
	return d
}

func (p *parser) invalid(key, msg string) {
	p.bad = append(p.bad, key+" "+msg)
}

func (p *parser) err() error {
	var errs []error
	if len(p.missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required env: %s", strings.Join(p.missing, ", ")))
	}
	if len(p.bad) > 0 {
		errs = append(errs, fmt.Errorf("invalid env: %s", strings.Join(p.bad, "; ")))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
