package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		// Per-IP HTTP rate limiting (separate from the per-provider upstream throttle)
		RateLimitPerSecond  int `envconfig:"RATE_LIMIT_PER_SECOND" default:"5"`
		RateLimitBurstLimit int `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"10"`

		// Token required for maintenance endpoints (/maintenance/*)
		AdminAccessToken string `envconfig:"ADMIN_ACCESS_TOKEN" default:""`

		// Ephemeral response cache
		ListingsCacheTTLInSeconds int `envconfig:"LISTINGS_CACHE_TTL_IN_SECONDS" default:"300"`
		ListingsCacheMaxEntries   int `envconfig:"LISTINGS_CACHE_MAX_ENTRIES" default:"512"`

		// Persistent item store
		StorePath              string `envconfig:"STORE_PATH" default:"data/listings.db"`
		RetentionDays          int    `envconfig:"RETENTION_DAYS" default:"30"`
		PurgeIntervalInSeconds int    `envconfig:"PURGE_INTERVAL_IN_SECONDS" default:"86400"`

		// Duga (JSON provider) credentials and limits
		DugaAppID            string `envconfig:"DUGA_APP_ID" default:""`
		DugaAgentID          string `envconfig:"DUGA_AGENT_ID" default:""`
		DugaRatePerMinute    int    `envconfig:"DUGA_RATE_PER_MINUTE" default:"10"`
		DugaTimeoutInSeconds int    `envconfig:"DUGA_TIMEOUT_IN_SECONDS" default:"10"`

		// Sokmil (XML provider) credentials and limits
		SokmilAPIKey           string `envconfig:"SOKMIL_API_KEY" default:""`
		SokmilAffiliateID      string `envconfig:"SOKMIL_AFFILIATE_ID" default:""`
		SokmilRatePerMinute    int    `envconfig:"SOKMIL_RATE_PER_MINUTE" default:"60"`
		SokmilTimeoutInSeconds int    `envconfig:"SOKMIL_TIMEOUT_IN_SECONDS" default:"15"`

		// Circuit breaker
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"`
	}

	FeatureFlags struct {
		StoreCompression bool `envconfig:"FF_STORE_COMPRESSION" default:"true"`
	}
}

// DugaConfigured reports whether both Duga credentials are present after
// whitespace stripping.
func (c Config) DugaConfigured() bool {
	return strings.TrimSpace(c.Configuration.DugaAppID) != "" &&
		strings.TrimSpace(c.Configuration.DugaAgentID) != ""
}

// SokmilConfigured reports whether both Sokmil credentials are present after
// whitespace stripping.
func (c Config) SokmilConfigured() bool {
	return strings.TrimSpace(c.Configuration.SokmilAPIKey) != "" &&
		strings.TrimSpace(c.Configuration.SokmilAffiliateID) != ""
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
