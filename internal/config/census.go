package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/precinct-atlas/internal/census"
)

// LoadCensusConfig builds the Census client configuration. The API key falls
// back to CENSUS_API_KEY. The result is not validated; the client does that.
func LoadCensusConfig() census.Config {
	cfg := census.DefaultConfig()

	cfg.APIKey = viper.GetString("census.api_key")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("CENSUS_API_KEY")
	}
	if v := viper.GetInt("census.year"); v > 0 {
		cfg.Year = v
	}
	if v := viper.GetString("census.dataset"); v != "" {
		cfg.Dataset = v
	}
	if v := viper.GetString("census.base_url"); v != "" {
		cfg.BaseURL = v
	}
	if viper.IsSet("census.timeout") {
		cfg.Timeout = viper.GetDuration("census.timeout")
	}
	if viper.IsSet("census.cache_ttl") {
		cfg.CacheTTL = viper.GetDuration("census.cache_ttl")
	}
	return cfg
}
