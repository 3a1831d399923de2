package config

import (
	"time"
)

// TreasuryForecastHorizon is the default number of forecast months.
//
// Set via env:
// - TREASURY_FORECAST_HORIZON=4
func TreasuryForecastHorizon() int {
	n := intFromEnv("TREASURY_FORECAST_HORIZON", 4)
	if n <= 0 {
		return 4
	}
	return n
}

// TreasuryRefreshDebounce is the quiet period after the last change event before recomputing.
//
// Set via env:
// - TREASURY_REFRESH_DEBOUNCE_MS=2000
func TreasuryRefreshDebounce() time.Duration {
	ms := intFromEnv("TREASURY_REFRESH_DEBOUNCE_MS", 2000)
	if ms <= 0 {
		ms = 2000
	}
	return time.Duration(ms) * time.Millisecond
}

// TreasuryCacheEnabled turns on the Redis snapshot cache.
//
// Set via env:
// - ENABLE_TREASURY_CACHE=true
func TreasuryCacheEnabled() bool {
	return envBoolDefault("ENABLE_TREASURY_CACHE", false)
}

// Env: TREASURY_CACHE_TTL_SECONDS (default 300s)
func TreasuryCacheTTL() time.Duration {
	ttl := intFromEnv("TREASURY_CACHE_TTL_SECONDS", 300)
	if ttl <= 0 {
		ttl = 300
	}
	return time.Duration(ttl) * time.Second
}

// Env: TREASURY_RECENT_TX_LIMIT (default 10)
func TreasuryRecentTransactionLimit() int {
	n := intFromEnv("TREASURY_RECENT_TX_LIMIT", 10)
	if n <= 0 {
		return 10
	}
	return n
}

// TreasuryPublishChanges makes model hooks publish row changes to the treasury topic.
// Leave off where the database emits change events itself.
//
// Set via env:
// - TREASURY_PUBLISH_CHANGES=true
func TreasuryPublishChanges() bool {
	return envBoolDefault("TREASURY_PUBLISH_CHANGES", false)
}
