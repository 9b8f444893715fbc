package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds application configuration.
type Config struct {
	// ExtractionBackend selects the extraction service: "heuristic" (local,
	// deterministic) or "openai". Defaults to heuristic so the tool works
	// without credentials.
	ExtractionBackend string `json:"extraction_backend"`

	// OpenAIAPIKey authenticates the openai backend. The OPENAI_API_KEY
	// environment variable takes precedence over the file value.
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`

	// OpenAIModel is the chat-completions model for the openai backend.
	OpenAIModel string `json:"openai_model,omitempty"`

	// ExtractionTimeoutSeconds bounds a single extraction call. Expiry
	// surfaces EXTRACTION_UNAVAILABLE rather than blocking.
	ExtractionTimeoutSeconds int `json:"extraction_timeout_seconds"`

	// EnvelopeMatchThreshold is the minimum number of shared normalized
	// keywords for a card to match an existing envelope. An exact hint-name
	// match always wins regardless of this value.
	EnvelopeMatchThreshold int `json:"envelope_match_threshold"`

	// ConflictWindowHours is the scheduling-conflict window. The default
	// of 24 buckets due dates by calendar day.
	ConflictWindowHours int `json:"conflict_window_hours"`

	// CompletionRateAlertThreshold triggers a pattern suggestion when an
	// envelope's completion rate falls below it.
	CompletionRateAlertThreshold float64 `json:"completion_rate_alert_threshold"`

	// UrgentCountAlertThreshold triggers a pattern suggestion when an
	// envelope accumulates this many active urgent cards.
	UrgentCountAlertThreshold int `json:"urgent_count_alert_threshold"`

	// AnalysisIntervalSeconds drives `attache think --watch`. Zero means
	// analysis only runs on demand.
	AnalysisIntervalSeconds int `json:"analysis_interval_seconds,omitempty"`

	// ContextDecayPerDay is the multiplicative relevance decay applied per
	// elapsed day when the user context is refined.
	ContextDecayPerDay float64 `json:"context_decay_per_day"`

	// ContextMinScore drops context entries whose decayed score falls
	// below it.
	ContextMinScore float64 `json:"context_min_score"`

	// ContextMaxEntries caps the total number of context entries,
	// lowest-scored dropped first.
	ContextMaxEntries int `json:"context_max_entries"`

	// WriteRetries bounds retries on transient lock contention before a
	// write surfaces PERSISTENCE_FAILURE.
	WriteRetries int `json:"write_retries"`

	// DBMaxOpenConns limits open database connections. If set to 1, all
	// database access is serialized. 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections. 0 means use sql.DB
	// default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from
	// registration. Unknown names are ignored.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ExtractionBackend:            "heuristic",
		OpenAIModel:                  "gpt-4o-mini",
		ExtractionTimeoutSeconds:     30,
		EnvelopeMatchThreshold:       1,
		ConflictWindowHours:          24,
		CompletionRateAlertThreshold: 0.3,
		UrgentCountAlertThreshold:    3,
		ContextDecayPerDay:           0.95,
		ContextMinScore:              0.05,
		ContextMaxEntries:            50,
		WriteRetries:                 3,
	}
}

// ExtractionTimeout returns the extraction timeout as a duration.
func (c *Config) ExtractionTimeout() time.Duration {
	return time.Duration(c.ExtractionTimeoutSeconds) * time.Second
}

// ConflictWindow returns the conflict window as a duration.
func (c *Config) ConflictWindow() time.Duration {
	return time.Duration(c.ConflictWindowHours) * time.Hour
}

// Load loads configuration from baseDir/config.json, merged over
// defaults. Returns defaults if the file doesn't exist. The baseDir
// parameter allows tests to use t.TempDir() instead of ~/.attache.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)

	// Environment always wins for the credential
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		merged.OpenAIAPIKey = key
	}
	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs. Overlay values take
// precedence for non-zero scalars; arrays are merged.
func Merge(base, overlay *Config) *Config {
	result := *base

	if overlay.ExtractionBackend != "" {
		result.ExtractionBackend = overlay.ExtractionBackend
	}
	if overlay.OpenAIAPIKey != "" {
		result.OpenAIAPIKey = overlay.OpenAIAPIKey
	}
	if overlay.OpenAIModel != "" {
		result.OpenAIModel = overlay.OpenAIModel
	}
	if overlay.ExtractionTimeoutSeconds != 0 {
		result.ExtractionTimeoutSeconds = overlay.ExtractionTimeoutSeconds
	}
	if overlay.EnvelopeMatchThreshold != 0 {
		result.EnvelopeMatchThreshold = overlay.EnvelopeMatchThreshold
	}
	if overlay.ConflictWindowHours != 0 {
		result.ConflictWindowHours = overlay.ConflictWindowHours
	}
	if overlay.CompletionRateAlertThreshold != 0 {
		result.CompletionRateAlertThreshold = overlay.CompletionRateAlertThreshold
	}
	if overlay.UrgentCountAlertThreshold != 0 {
		result.UrgentCountAlertThreshold = overlay.UrgentCountAlertThreshold
	}
	if overlay.AnalysisIntervalSeconds != 0 {
		result.AnalysisIntervalSeconds = overlay.AnalysisIntervalSeconds
	}
	if overlay.ContextDecayPerDay != 0 {
		result.ContextDecayPerDay = overlay.ContextDecayPerDay
	}
	if overlay.ContextMinScore != 0 {
		result.ContextMinScore = overlay.ContextMinScore
	}
	if overlay.ContextMaxEntries != 0 {
		result.ContextMaxEntries = overlay.ContextMaxEntries
	}
	if overlay.WriteRetries != 0 {
		result.WriteRetries = overlay.WriteRetries
	}
	if overlay.DBMaxOpenConns != 0 {
		result.DBMaxOpenConns = overlay.DBMaxOpenConns
	}
	if overlay.DBMaxIdleConns != 0 {
		result.DBMaxIdleConns = overlay.DBMaxIdleConns
	}
	if len(overlay.DisabledTools) > 0 {
		result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	}

	return &result
}

// mergeStringSlice combines two slices and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
