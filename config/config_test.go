package config

import (
	"os"
	"testing"
)

func TestConfigDefaultValues(t *testing.T) {
	// Clear any existing env vars that might interfere
	envVars := []string{
		"RATE_LIMIT_PER_SECOND",
		"RATE_LIMIT_BURST_LIMIT",
		"LISTINGS_CACHE_TTL_IN_SECONDS",
		"LISTINGS_CACHE_MAX_ENTRIES",
		"STORE_PATH",
		"RETENTION_DAYS",
		"DUGA_RATE_PER_MINUTE",
		"DUGA_TIMEOUT_IN_SECONDS",
		"SOKMIL_RATE_PER_MINUTE",
		"SOKMIL_TIMEOUT_IN_SECONDS",
		"FF_STORE_COMPRESSION",
	}

	originalValues := make(map[string]string)
	for _, key := range envVars {
		originalValues[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	defer func() {
		for key, value := range originalValues {
			if value != "" {
				os.Setenv(key, value)
			}
		}
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{
			name:     "RateLimitPerSecond default",
			got:      cfg.Configuration.RateLimitPerSecond,
			expected: 5,
		},
		{
			name:     "RateLimitBurstLimit default",
			got:      cfg.Configuration.RateLimitBurstLimit,
			expected: 10,
		},
		{
			name:     "ListingsCacheTTLInSeconds default",
			got:      cfg.Configuration.ListingsCacheTTLInSeconds,
			expected: 300,
		},
		{
			name:     "ListingsCacheMaxEntries default",
			got:      cfg.Configuration.ListingsCacheMaxEntries,
			expected: 512,
		},
		{
			name:     "StorePath default",
			got:      cfg.Configuration.StorePath,
			expected: "data/listings.db",
		},
		{
			name:     "RetentionDays default",
			got:      cfg.Configuration.RetentionDays,
			expected: 30,
		},
		{
			name:     "DugaRatePerMinute default",
			got:      cfg.Configuration.DugaRatePerMinute,
			expected: 10,
		},
		{
			name:     "DugaTimeoutInSeconds default",
			got:      cfg.Configuration.DugaTimeoutInSeconds,
			expected: 10,
		},
		{
			name:     "SokmilRatePerMinute default",
			got:      cfg.Configuration.SokmilRatePerMinute,
			expected: 60,
		},
		{
			name:     "SokmilTimeoutInSeconds default",
			got:      cfg.Configuration.SokmilTimeoutInSeconds,
			expected: 15,
		},
		{
			name:     "StoreCompression default",
			got:      cfg.FeatureFlags.StoreCompression,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestConfigEnvironmentOverrides(t *testing.T) {
	os.Setenv("RATE_LIMIT_PER_SECOND", "2")
	os.Setenv("RATE_LIMIT_BURST_LIMIT", "4")
	os.Setenv("LISTINGS_CACHE_TTL_IN_SECONDS", "60")
	os.Setenv("RETENTION_DAYS", "7")
	os.Setenv("ADMIN_ACCESS_TOKEN", "test_token_123")
	os.Setenv("DUGA_RATE_PER_MINUTE", "3")
	os.Setenv("SOKMIL_TIMEOUT_IN_SECONDS", "30")
	os.Setenv("FF_STORE_COMPRESSION", "false")

	defer func() {
		os.Unsetenv("RATE_LIMIT_PER_SECOND")
		os.Unsetenv("RATE_LIMIT_BURST_LIMIT")
		os.Unsetenv("LISTINGS_CACHE_TTL_IN_SECONDS")
		os.Unsetenv("RETENTION_DAYS")
		os.Unsetenv("ADMIN_ACCESS_TOKEN")
		os.Unsetenv("DUGA_RATE_PER_MINUTE")
		os.Unsetenv("SOKMIL_TIMEOUT_IN_SECONDS")
		os.Unsetenv("FF_STORE_COMPRESSION")
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{
			name:     "RateLimitPerSecond override",
			got:      cfg.Configuration.RateLimitPerSecond,
			expected: 2,
		},
		{
			name:     "RateLimitBurstLimit override",
			got:      cfg.Configuration.RateLimitBurstLimit,
			expected: 4,
		},
		{
			name:     "ListingsCacheTTLInSeconds override",
			got:      cfg.Configuration.ListingsCacheTTLInSeconds,
			expected: 60,
		},
		{
			name:     "RetentionDays override",
			got:      cfg.Configuration.RetentionDays,
			expected: 7,
		},
		{
			name:     "AdminAccessToken override",
			got:      cfg.Configuration.AdminAccessToken,
			expected: "test_token_123",
		},
		{
			name:     "DugaRatePerMinute override",
			got:      cfg.Configuration.DugaRatePerMinute,
			expected: 3,
		},
		{
			name:     "SokmilTimeoutInSeconds override",
			got:      cfg.Configuration.SokmilTimeoutInSeconds,
			expected: 30,
		},
		{
			name:     "StoreCompression override",
			got:      cfg.FeatureFlags.StoreCompression,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestDugaConfigured(t *testing.T) {
	tests := []struct {
		name     string
		appID    string
		agentID  string
		expected bool
	}{
		{name: "both set", appID: "app", agentID: "agent", expected: true},
		{name: "missing app id", appID: "", agentID: "agent", expected: false},
		{name: "missing agent id", appID: "app", agentID: "", expected: false},
		{name: "whitespace only", appID: "   ", agentID: "agent", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("DUGA_APP_ID", tt.appID)
			os.Setenv("DUGA_AGENT_ID", tt.agentID)
			defer func() {
				os.Unsetenv("DUGA_APP_ID")
				os.Unsetenv("DUGA_AGENT_ID")
			}()

			cfg, err := load()
			if err != nil {
				t.Fatalf("Failed to load config: %v", err)
			}

			if cfg.DugaConfigured() != tt.expected {
				t.Errorf("DugaConfigured() = %v, want %v", cfg.DugaConfigured(), tt.expected)
			}
		})
	}
}

func TestSokmilConfigured(t *testing.T) {
	os.Setenv("SOKMIL_API_KEY", "key")
	os.Setenv("SOKMIL_AFFILIATE_ID", "  ")
	defer func() {
		os.Unsetenv("SOKMIL_API_KEY")
		os.Unsetenv("SOKMIL_AFFILIATE_ID")
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.SokmilConfigured() {
		t.Error("Expected SokmilConfigured to be false with whitespace-only affiliate id")
	}

	os.Setenv("SOKMIL_AFFILIATE_ID", "aff-001")
	cfg, err = load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.SokmilConfigured() {
		t.Error("Expected SokmilConfigured to be true with both credentials set")
	}
}

func TestGet(t *testing.T) {
	cfg := Get()

	if cfg.Configuration.RateLimitPerSecond == 0 && cfg.Configuration.RateLimitBurstLimit == 0 {
		t.Error("Expected Get() to return initialized config, got zero values")
	}
}

func TestMustLoad(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("mustLoad() panicked: %v", r)
		}
	}()

	cfg := mustLoad()

	if cfg.Configuration.RateLimitPerSecond <= 0 {
		t.Error("Expected mustLoad to return valid config with positive RateLimitPerSecond")
	}
}
