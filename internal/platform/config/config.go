package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SscSPs/bizledger/internal/core/domain"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	StorageDriver      string
	MigrationsPath     string
	JWTSecret          string
	JWTIssuer          string
	RateLimit          string
	CORSAllowedOrigins []string
	ChartCacheTTL      time.Duration
	PostingRunStuckAt  time.Duration
	PostingRulesFile   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "bizledger")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CHART_CACHE_TTL", "30s")
	v.SetDefault("POSTING_RUN_STUCK_AFTER", "15m")
	v.SetDefault("POSTING_RULES_FILE", "")
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:      v.GetString("PGSQL_URL"),
		Port:             v.GetString("PORT"),
		IsProduction:     v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:    v.GetBool("ENABLE_DB_CHECK"),
		StorageDriver:    strings.ToLower(v.GetString("STORAGE_DRIVER")),
		MigrationsPath:   v.GetString("MIGRATIONS_PATH"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTIssuer:        v.GetString("JWT_ISSUER"),
		RateLimit:        v.GetString("RATE_LIMIT"),
		PostingRulesFile: v.GetString("POSTING_RULES_FILE"),
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	var err error
	if cfg.ChartCacheTTL, err = parseDuration(v, "CHART_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.PostingRunStuckAt, err = parseDuration(v, "POSTING_RUN_STUCK_AFTER"); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("PGSQL_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageDriverMemory:
		if cfg.IsProduction {
			return nil, errors.New("STORAGE_DRIVER=memory is not allowed in production")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-only-insecure-secret"
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, v.GetString(key), err)
	}
	return d, nil
}

// LoadPostingRules reads the rule book from a YAML, TOML or JSON file.
// An empty path yields the built-in rules.
func LoadPostingRules(path string) (domain.PostingRules, error) {
	if path == "" {
		return domain.DefaultPostingRules(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return domain.PostingRules{}, fmt.Errorf("failed to read posting rules %s: %w", path, err)
	}

	var rules domain.PostingRules
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.DateOnly),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&rules, hook); err != nil {
		return domain.PostingRules{}, fmt.Errorf("failed to decode posting rules %s: %w", path, err)
	}
	// viper lower-cases map keys; tax codes are matched upper-case.
	taxAccounts := make(map[string]string, len(rules.TaxAccounts))
	for code, account := range rules.TaxAccounts {
		taxAccounts[strings.ToUpper(code)] = account
	}
	rules.TaxAccounts = taxAccounts

	for i, r := range rules.Rules {
		if r.Type == "" || r.DebitAccountCode == "" || r.CreditAccountCode == "" {
			return domain.PostingRules{}, fmt.Errorf("posting rule %d in %s is incomplete", i+1, path)
		}
		if r.TaxSide == "" {
			rules.Rules[i].TaxSide = domain.Credit
		} else {
			rules.Rules[i].TaxSide = domain.Side(strings.ToUpper(string(r.TaxSide)))
		}
		if !rules.Rules[i].TaxSide.IsValid() {
			return domain.PostingRules{}, fmt.Errorf("posting rule %q has invalid tax_side %q", r.Type, r.TaxSide)
		}
	}
	return rules, nil
}
