// Package cogconfig loads the tunables governing ByteSource chunk sizing,
// cache budgets, concurrency, and timeouts. AWS/GCS credential variables are
// read directly via os.Getenv elsewhere (GDAL/VSI conventions, not viper
// namespaced); this package covers everything else.
package cogconfig

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the reader's tunables, bound from COG_-prefixed environment
// variables with viper, falling back to the defaults below.
type Config struct {
	ChunkSizeLocalBytes  int64 `mapstructure:"COG_CHUNK_SIZE_LOCAL_BYTES"`
	ChunkSizeRemoteBytes int64 `mapstructure:"COG_CHUNK_SIZE_REMOTE_BYTES"`
	CacheBudgetBytes     int64 `mapstructure:"COG_CACHE_BUDGET_BYTES"`
	DecodedTileCacheSize int   `mapstructure:"COG_DECODED_TILE_CACHE_SIZE"`
	MaxConcurrentFetches int   `mapstructure:"COG_MAX_CONCURRENT_FETCHES"`
	RequestTimeoutSecs   int   `mapstructure:"COG_REQUEST_TIMEOUT_SECONDS"`
}

// Load reads COG_-prefixed environment variables into a Config, applying
// defaults for anything unset.
func Load() *Config {
	viper.AutomaticEnv()

	viper.BindEnv("COG_CHUNK_SIZE_LOCAL_BYTES")
	viper.BindEnv("COG_CHUNK_SIZE_REMOTE_BYTES")
	viper.BindEnv("COG_CACHE_BUDGET_BYTES")
	viper.BindEnv("COG_DECODED_TILE_CACHE_SIZE")
	viper.BindEnv("COG_MAX_CONCURRENT_FETCHES")
	viper.BindEnv("COG_REQUEST_TIMEOUT_SECONDS")

	viper.SetDefault("COG_CHUNK_SIZE_LOCAL_BYTES", int64(16<<10))
	viper.SetDefault("COG_CHUNK_SIZE_REMOTE_BYTES", int64(1<<20))
	viper.SetDefault("COG_CACHE_BUDGET_BYTES", int64(64<<20))
	viper.SetDefault("COG_DECODED_TILE_CACHE_SIZE", 256)
	viper.SetDefault("COG_MAX_CONCURRENT_FETCHES", 8)
	viper.SetDefault("COG_REQUEST_TIMEOUT_SECONDS", 30)

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		log.Fatalf("cogconfig: failed to unmarshal config: %v", err)
	}
	return cfg
}
