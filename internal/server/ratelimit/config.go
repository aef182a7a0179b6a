package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit applied to one route group. Path ending in "/" matches
// by prefix, which is how path-token routes like /api/v1/user/{uid}/{idToken} share
// one bucket per client.
type EndpointConfig struct {
	Path   string
	Method string
	// Limit is requests per Window; 0 means unlimited.
	Limit  int
	Window time.Duration
	// Burst defaults to Limit.
	Burst  int
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// LoadConfig reads RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	auth := getEnvInt("RATE_LIMIT_AUTH_LIMIT", 20)
	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         getEnvDuration("RATE_LIMIT_IDLE_TTL", time.Hour),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(auth),
	}
}

// DefaultEndpointConfigs returns the fittrack route limits. authLimit bounds login
// and registration attempts per minute.
func DefaultEndpointConfigs(authLimit int) []EndpointConfig {
	authBurst := max(authLimit/4, 1)
	return []EndpointConfig{
		// credential endpoints
		{Path: "/api/v1/login/email", Method: "POST", Limit: authLimit, Window: time.Minute, Burst: authBurst},
		{Path: "/api/v1/register/email", Method: "POST", Limit: authLimit, Window: time.Minute, Burst: authBurst},

		// writes
		{Path: "/api/v1/user/routine/create", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/v1/user/routine/single/", Method: "PUT", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/api/v1/user/routine/single/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/user/displayname/", Method: "PUT", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/v1/user/", Method: "PUT", Limit: 120, Window: time.Minute, Burst: 20},

		// reads fall through to the default; /status is unlimited in the matcher
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of client addresses.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
