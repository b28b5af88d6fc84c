package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/soaringjerry/Solace/internal/utils"
)

// Config is everything needed to assemble and run the HTTP server.
type Config struct {
	Addr           string
	SQLitePath     string
	MigrationsDir  string
	SnapshotPath   string
	LegacyExport   string
	CatalogPath    string
	SealKey        string
	ShareSecret    string
	SessionTTL     time.Duration
	PruneInterval  time.Duration
	Timezone       string
	CORSOrigins    []string
	StaticDir      string
	DevFrontendURL string
	LogLevel       string
	LogFormat      string
	Commit         string
	BuildTime      string
}

// ConfigFromEnv reads SOLACE_* variables.
func ConfigFromEnv() Config {
	return Config{
		Addr:           utils.SafeEnv("SOLACE_ADDR", ":8080"),
		SQLitePath:     utils.SafeEnv("SOLACE_SQLITE_PATH", ""),
		MigrationsDir:  utils.SafeEnv("SOLACE_MIGRATIONS_DIR", ""),
		SnapshotPath:   utils.SafeEnv("SOLACE_DB_PATH", ""),
		LegacyExport:   utils.SafeEnv("SOLACE_LEGACY_EXPORT", ""),
		CatalogPath:    utils.SafeEnv("SOLACE_CATALOG", ""),
		SealKey:        utils.SafeEnv("SOLACE_SEAL_KEY", ""),
		ShareSecret:    utils.SafeEnv("SOLACE_SHARE_SECRET", ""),
		SessionTTL:     utils.EnvDuration("SOLACE_SESSION_TTL", 2*time.Hour),
		PruneInterval:  utils.EnvDuration("SOLACE_PRUNE_INTERVAL", time.Minute),
		Timezone:       utils.SafeEnv("SOLACE_TIMEZONE", "UTC"),
		CORSOrigins:    splitList(utils.SafeEnv("SOLACE_CORS_ORIGINS", "")),
		StaticDir:      utils.SafeEnv("SOLACE_STATIC_DIR", ""),
		DevFrontendURL: utils.SafeEnv("SOLACE_DEV_FRONTEND_URL", ""),
		LogLevel:       utils.SafeEnv("SOLACE_LOG_LEVEL", "info"),
		LogFormat:      utils.SafeEnv("SOLACE_LOG_FORMAT", "json"),
		Commit:         utils.SafeEnv("SOLACE_COMMIT", ""),
		BuildTime:      utils.SafeEnv("SOLACE_BUILD_TIME", ""),
	}
}

// Location resolves Timezone for history bucketing.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
