// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("COMBADGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a Config populated with the reference heuristic values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// ApplyDefaults sets the reference values for every unset field. The
// heuristic weights below are the calibrated defaults the scoring
// formulas were tuned with.
func ApplyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "combadge"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Catalog.TemplateDir == "" {
		cfg.Catalog.TemplateDir = "templates"
	}
	if cfg.Catalog.StatsStore == "" {
		cfg.Catalog.StatsStore = "memory"
	}

	if cfg.Intent.PatternWeight == 0 {
		cfg.Intent.PatternWeight = 0.3
	}
	if cfg.Intent.KeywordScale == 0 {
		cfg.Intent.KeywordScale = 0.1
	}
	if cfg.Intent.NegationPenaltyMax == 0 {
		cfg.Intent.NegationPenaltyMax = 0.8
	}
	if cfg.Intent.SecondaryThreshold == 0 {
		cfg.Intent.SecondaryThreshold = 0.4
	}
	if cfg.Intent.CompetitionPenalty == 0 {
		cfg.Intent.CompetitionPenalty = 0.1
	}
	if cfg.Intent.UnknownFloor == 0 {
		cfg.Intent.UnknownFloor = 0.1
	}
	if cfg.Intent.TemporalClueBoost == 0 {
		cfg.Intent.TemporalClueBoost = 0.2
	}
	if cfg.Intent.ClockTimeClueBoost == 0 {
		cfg.Intent.ClockTimeClueBoost = 0.15
	}
	if cfg.Intent.FleetIDClueBoost == 0 {
		cfg.Intent.FleetIDClueBoost = 0.25
	}

	if cfg.Entity.MinConfidence == 0 {
		cfg.Entity.MinConfidence = 0.3
	}
	if cfg.Entity.ValidationPenalty == 0 {
		cfg.Entity.ValidationPenalty = 0.7
	}
	if cfg.Entity.ContextBoost == 0 {
		cfg.Entity.ContextBoost = 0.1
	}
	if cfg.Entity.ContextRadius == 0 {
		cfg.Entity.ContextRadius = 50
	}
	if cfg.Entity.ContextWindow == 0 {
		cfg.Entity.ContextWindow = 20
	}

	if cfg.Confidence.IntentClarityWeight == 0 {
		cfg.Confidence.IntentClarityWeight = 0.25
	}
	if cfg.Confidence.EntityCompletenessWeight == 0 {
		cfg.Confidence.EntityCompletenessWeight = 0.20
	}
	if cfg.Confidence.EntityQualityWeight == 0 {
		cfg.Confidence.EntityQualityWeight = 0.15
	}
	if cfg.Confidence.PatternStrengthWeight == 0 {
		cfg.Confidence.PatternStrengthWeight = 0.15
	}
	if cfg.Confidence.ContextCoherenceWeight == 0 {
		cfg.Confidence.ContextCoherenceWeight = 0.10
	}
	if cfg.Confidence.TextQualityWeight == 0 {
		cfg.Confidence.TextQualityWeight = 0.10
	}
	if cfg.Confidence.AmbiguityAbsenceWeight == 0 {
		cfg.Confidence.AmbiguityAbsenceWeight = 0.03
	}
	if cfg.Confidence.ValidationSuccessWeight == 0 {
		cfg.Confidence.ValidationSuccessWeight = 0.02
	}
	if cfg.Confidence.AmbiguousIntentPenalty == 0 {
		cfg.Confidence.AmbiguousIntentPenalty = 0.2
	}
	if cfg.Confidence.ValidationFailurePenalty == 0 {
		cfg.Confidence.ValidationFailurePenalty = 0.3
	}
	if cfg.Confidence.LowTextQualityPenalty == 0 {
		cfg.Confidence.LowTextQualityPenalty = 0.1
	}
	if cfg.Confidence.WeakPatternPenalty == 0 {
		cfg.Confidence.WeakPatternPenalty = 0.15
	}

	if cfg.Selector.IntentAlignmentWeight == 0 {
		cfg.Selector.IntentAlignmentWeight = 0.30
	}
	if cfg.Selector.EntityCoverageWeight == 0 {
		cfg.Selector.EntityCoverageWeight = 0.25
	}
	if cfg.Selector.KeywordMatchWeight == 0 {
		cfg.Selector.KeywordMatchWeight = 0.20
	}
	if cfg.Selector.CategoryFitWeight == 0 {
		cfg.Selector.CategoryFitWeight = 0.10
	}
	if cfg.Selector.PopularityWeight == 0 {
		cfg.Selector.PopularityWeight = 0.10
	}
	if cfg.Selector.RecencyWeight == 0 {
		cfg.Selector.RecencyWeight = 0.05
	}
	if cfg.Selector.PartialMatchPenalty == 0 {
		cfg.Selector.PartialMatchPenalty = 0.3
	}
	if cfg.Selector.ExactMatchThreshold == 0 {
		cfg.Selector.ExactMatchThreshold = 0.9
	}
	if cfg.Selector.MinScoreThreshold == 0 {
		cfg.Selector.MinScoreThreshold = 0.3
	}
	if cfg.Selector.FallbackScale == 0 {
		cfg.Selector.FallbackScale = 0.7
	}
	if len(cfg.Selector.CategoryPriority) == 0 {
		cfg.Selector.CategoryPriority = []string{
			"vehicle_operations",
			"maintenance",
			"reservations",
			"parking",
		}
	}

	if cfg.Generator.CacheTTLSeconds == 0 {
		cfg.Generator.CacheTTLSeconds = 3600
	}
	if cfg.Generator.ErrorPenalty == 0 {
		cfg.Generator.ErrorPenalty = 0.1
	}
	if cfg.Generator.ErrorPenaltyCap == 0 {
		cfg.Generator.ErrorPenaltyCap = 0.5
	}
	if cfg.Generator.MissingFieldPenalty == 0 {
		cfg.Generator.MissingFieldPenalty = 0.2
	}
	if cfg.Generator.EntityQualityScale == 0 {
		cfg.Generator.EntityQualityScale = 0.2
	}

	if cfg.Validator.DatePastYears == 0 {
		cfg.Validator.DatePastYears = 10
	}
	if cfg.Validator.DateFutureYears == 0 {
		cfg.Validator.DateFutureYears = 5
	}
	if cfg.Validator.BusinessHourStart == 0 {
		cfg.Validator.BusinessHourStart = 7
	}
	if cfg.Validator.BusinessHourEnd == 0 {
		cfg.Validator.BusinessHourEnd = 18
	}
	if cfg.Validator.LocationNameMin == 0 {
		cfg.Validator.LocationNameMin = 2
	}
	if cfg.Validator.LocationNameMax == 0 {
		cfg.Validator.LocationNameMax = 100
	}

	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 30
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = 3
	}
	if cfg.API.RetryDelayMS == 0 {
		cfg.API.RetryDelayMS = 500
	}
	if cfg.API.BreakerThreshold == 0 {
		cfg.API.BreakerThreshold = 5
	}
	if cfg.API.BreakerCooldownSeconds == 0 {
		cfg.API.BreakerCooldownSeconds = 60
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Catalog.TemplateDir == "" {
		return fmt.Errorf("catalog.template_dir is required")
	}

	if cfg.Catalog.StatsStore != "memory" && cfg.Catalog.StatsStore != "redis" {
		return fmt.Errorf("catalog.stats_store must be memory or redis, got %q", cfg.Catalog.StatsStore)
	}

	if cfg.Catalog.StatsStore == "redis" && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when catalog.stats_store is redis")
	}

	factorSum := cfg.Confidence.IntentClarityWeight +
		cfg.Confidence.EntityCompletenessWeight +
		cfg.Confidence.EntityQualityWeight +
		cfg.Confidence.PatternStrengthWeight +
		cfg.Confidence.ContextCoherenceWeight +
		cfg.Confidence.TextQualityWeight +
		cfg.Confidence.AmbiguityAbsenceWeight +
		cfg.Confidence.ValidationSuccessWeight
	if factorSum < 0.99 || factorSum > 1.01 {
		return fmt.Errorf("confidence factor weights must sum to 1.0, got %.3f", factorSum)
	}

	criteriaSum := cfg.Selector.IntentAlignmentWeight +
		cfg.Selector.EntityCoverageWeight +
		cfg.Selector.KeywordMatchWeight +
		cfg.Selector.CategoryFitWeight +
		cfg.Selector.PopularityWeight +
		cfg.Selector.RecencyWeight
	if criteriaSum < 0.99 || criteriaSum > 1.01 {
		return fmt.Errorf("selector criteria weights must sum to 1.0, got %.3f", criteriaSum)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
