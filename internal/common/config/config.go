// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Intent     IntentConfig     `mapstructure:"intent"`
	Entity     EntityConfig     `mapstructure:"entity"`
	Confidence ConfidenceConfig `mapstructure:"confidence"`
	Selector   SelectorConfig   `mapstructure:"selector"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Validator  ValidatorConfig  `mapstructure:"validator"`
	API        APIConfig        `mapstructure:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// APIConfig holds fleet API submission settings.
type APIConfig struct {
	BaseURL                string `mapstructure:"base_url"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	MaxRetries             int    `mapstructure:"max_retries"`
	RetryDelayMS           int    `mapstructure:"retry_delay_ms"`
	BreakerThreshold       int    `mapstructure:"breaker_threshold"`        // consecutive failures before the breaker opens
	BreakerCooldownSeconds int    `mapstructure:"breaker_cooldown_seconds"` // open duration before a trial request
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// CatalogConfig holds template catalog settings.
type CatalogConfig struct {
	TemplateDir string `mapstructure:"template_dir"`
	StatsStore  string `mapstructure:"stats_store"` // "memory" or "redis"
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntentConfig holds classification scoring weights.
type IntentConfig struct {
	PatternWeight      float64 `mapstructure:"pattern_weight"`        // per regex pattern hit
	KeywordScale       float64 `mapstructure:"keyword_scale"`         // multiplier on summed keyword weights
	NegationPenaltyMax float64 `mapstructure:"negation_penalty_max"`  // cap on negation subtraction
	SecondaryThreshold float64 `mapstructure:"secondary_threshold"`   // min score to report a secondary intent
	CompetitionPenalty float64 `mapstructure:"competition_penalty"`   // per-secondary reduction of overall confidence
	UnknownFloor       float64 `mapstructure:"unknown_floor"`         // minimum score assigned to the unknown intent
	TemporalClueBoost  float64 `mapstructure:"temporal_clue_boost"`   // temporal reference in text
	ClockTimeClueBoost float64 `mapstructure:"clock_time_clue_boost"` // am/pm clock time in text
	FleetIDClueBoost   float64 `mapstructure:"fleet_id_clue_boost"`   // fleet identifier shape in text
}

// EntityConfig holds extraction thresholds.
type EntityConfig struct {
	MinConfidence     float64 `mapstructure:"min_confidence"`     // entities below this are dropped
	ValidationPenalty float64 `mapstructure:"validation_penalty"` // multiplier when format validation fails
	ContextBoost      float64 `mapstructure:"context_boost"`      // added when a context cue is nearby
	ContextRadius     int     `mapstructure:"context_radius"`     // chars scanned around a match for cues
	ContextWindow     int     `mapstructure:"context_window"`     // chars of surrounding text recorded
}

// ConfidenceConfig holds the factor weights and risk penalties.
type ConfidenceConfig struct {
	IntentClarityWeight      float64 `mapstructure:"intent_clarity_weight"`
	EntityCompletenessWeight float64 `mapstructure:"entity_completeness_weight"`
	EntityQualityWeight      float64 `mapstructure:"entity_quality_weight"`
	PatternStrengthWeight    float64 `mapstructure:"pattern_strength_weight"`
	ContextCoherenceWeight   float64 `mapstructure:"context_coherence_weight"`
	TextQualityWeight        float64 `mapstructure:"text_quality_weight"`
	AmbiguityAbsenceWeight   float64 `mapstructure:"ambiguity_absence_weight"`
	ValidationSuccessWeight  float64 `mapstructure:"validation_success_weight"`

	AmbiguousIntentPenalty   float64 `mapstructure:"ambiguous_intent_penalty"`
	ValidationFailurePenalty float64 `mapstructure:"validation_failure_penalty"`
	LowTextQualityPenalty    float64 `mapstructure:"low_text_quality_penalty"`
	WeakPatternPenalty       float64 `mapstructure:"weak_pattern_penalty"`
}

// SelectorConfig holds the matching criteria weights and strategy thresholds.
type SelectorConfig struct {
	IntentAlignmentWeight float64 `mapstructure:"intent_alignment_weight"`
	EntityCoverageWeight  float64 `mapstructure:"entity_coverage_weight"`
	KeywordMatchWeight    float64 `mapstructure:"keyword_match_weight"`
	CategoryFitWeight     float64 `mapstructure:"category_fit_weight"`
	PopularityWeight      float64 `mapstructure:"popularity_weight"`
	RecencyWeight         float64 `mapstructure:"recency_weight"`

	PartialMatchPenalty float64  `mapstructure:"partial_match_penalty"` // per missing required entity
	ExactMatchThreshold float64  `mapstructure:"exact_match_threshold"` // minimum score for an exact match
	MinScoreThreshold   float64  `mapstructure:"min_score_threshold"`   // floor for best-fit selection
	FallbackScale       float64  `mapstructure:"fallback_scale"`        // threshold multiplier in fallback mode
	CategoryPriority    []string `mapstructure:"category_priority"`     // fallback tie-break order
}

// GeneratorConfig holds payload generation settings.
type GeneratorConfig struct {
	CacheTTLSeconds     int     `mapstructure:"cache_ttl_seconds"`     // parsed template cache TTL
	ErrorPenalty        float64 `mapstructure:"error_penalty"`         // per generation error
	ErrorPenaltyCap     float64 `mapstructure:"error_penalty_cap"`     // max total error penalty
	MissingFieldPenalty float64 `mapstructure:"missing_field_penalty"` // per missing required field
	EntityQualityScale  float64 `mapstructure:"entity_quality_scale"`  // scale on avg entity confidence delta
}

// ValidatorConfig holds payload validation settings.
type ValidatorConfig struct {
	Strict         bool `mapstructure:"strict"`
	FailOnWarnings bool `mapstructure:"fail_on_warnings"`

	DatePastYears     int `mapstructure:"date_past_years"`     // oldest plausible date
	DateFutureYears   int `mapstructure:"date_future_years"`   // furthest plausible date
	BusinessHourStart int `mapstructure:"business_hour_start"` // maintenance scheduling window
	BusinessHourEnd   int `mapstructure:"business_hour_end"`
	LocationNameMin   int `mapstructure:"location_name_min"`
	LocationNameMax   int `mapstructure:"location_name_max"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus exposure settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
