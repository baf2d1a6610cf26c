package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Engine tunables.
	ExactMatchTolerance decimal.Decimal
	FuzzyNameThreshold  decimal.Decimal
	MinMatchConfidence  decimal.Decimal
	BatchMaxParallel    int
}

// LoadConfig loads configuration from environment variables and a .env file
// if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("EXACT_MATCH_TOLERANCE", "0.01")
	viper.SetDefault("FUZZY_NAME_THRESHOLD", "70")
	viper.SetDefault("MIN_MATCH_CONFIDENCE", "70")
	viper.SetDefault("BATCH_MAX_PARALLEL", 4)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.ExactMatchTolerance = decimalSetting("EXACT_MATCH_TOLERANCE", "0.01")
	cfg.FuzzyNameThreshold = decimalSetting("FUZZY_NAME_THRESHOLD", "70")
	cfg.MinMatchConfidence = decimalSetting("MIN_MATCH_CONFIDENCE", "70")

	cfg.BatchMaxParallel = viper.GetInt("BATCH_MAX_PARALLEL")
	if cfg.BatchMaxParallel <= 0 {
		cfg.BatchMaxParallel = 4
	}

	return cfg, nil
}

// decimalSetting parses a decimal env value, falling back to the default on
// garbage input rather than failing startup.
func decimalSetting(key, fallback string) decimal.Decimal {
	raw := viper.GetString(key)
	value, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		return decimal.RequireFromString(fallback)
	}
	return value
}
