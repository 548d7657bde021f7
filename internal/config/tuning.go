package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// SeverityThresholds holds the three ordered boundaries separating the
// four compensation severity tiers. A raw value at or below Mild grades
// as minimal; each boundary is an exclusive lower bound for the next
// tier, so a value exactly equal to Severe grades as moderate.
type SeverityThresholds struct {
	Mild     float64 `json:"mild"`
	Moderate float64 `json:"moderate"`
	Severe   float64 `json:"severe"`
}

// Validate checks that thresholds are positive and strictly increasing.
func (t SeverityThresholds) Validate() error {
	if t.Mild <= 0 {
		return fmt.Errorf("mild threshold must be positive, got %g", t.Mild)
	}
	if t.Moderate <= t.Mild {
		return fmt.Errorf("moderate threshold %g must exceed mild %g", t.Moderate, t.Mild)
	}
	if t.Severe <= t.Moderate {
		return fmt.Errorf("severe threshold %g must exceed moderate %g", t.Severe, t.Moderate)
	}
	return nil
}

// TuningConfig represents the root configuration for pipeline tuning
// parameters. Fields are pointers so that partial JSON configs are safe:
// the Get* methods provide fallback defaults for any fields left nil.
type TuningConfig struct {
	// One-Euro smoothing params
	MinCutoff *float64 `json:"min_cutoff,omitempty"`
	Beta      *float64 `json:"beta,omitempty"`
	DCutoff   *float64 `json:"d_cutoff,omitempty"`

	// Global minimum landmark confidence
	VisibilityThreshold *float64 `json:"visibility_threshold,omitempty"`

	// Frame cache params
	CacheMaxSize *int    `json:"cache_max_size,omitempty"`
	CacheTTL     *string `json:"cache_ttl,omitempty"` // duration string like "500ms"

	// Temporal analyzer params
	WindowSize        *int               `json:"window_size,omitempty"`
	JumpThresholdDeg  *float64           `json:"jump_threshold_deg,omitempty"`
	JumpThresholdsDeg map[string]float64 `json:"jump_thresholds_deg,omitempty"` // per-joint overrides

	// Debounce params
	Persistence           *string           `json:"persistence,omitempty"`    // duration string like "400ms"
	ResetTimeout          *string           `json:"reset_timeout,omitempty"`  // duration string like "500ms"
	PersistenceBySeverity map[string]string `json:"persistence_by_severity,omitempty"` // tier name -> duration string

	// Compensation severity thresholds
	AngleThresholds    *SeverityThresholds           `json:"angle_thresholds,omitempty"`    // degrees
	DistanceThresholds *SeverityThresholds           `json:"distance_thresholds,omitempty"` // centimetres
	RuleThresholds     map[string]SeverityThresholds `json:"rule_thresholds,omitempty"`     // per-rule overrides
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath. It searches for the file in the current directory and
// common parent directories. Panics if the file cannot be loaded,
// intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/motion/m2filter/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// severityNames are the tier keys accepted in persistence_by_severity.
var severityNames = map[string]bool{
	"minimal":  true,
	"mild":     true,
	"moderate": true,
	"severe":   true,
}

// Validate checks that the configuration values are valid. Invalid
// configuration is fatal at pipeline construction time: it is surfaced
// here immediately rather than deferred to per-frame processing.
func (c *TuningConfig) Validate() error {
	if c.MinCutoff != nil && *c.MinCutoff <= 0 {
		return fmt.Errorf("min_cutoff must be positive, got %g", *c.MinCutoff)
	}
	if c.Beta != nil && *c.Beta < 0 {
		return fmt.Errorf("beta must be non-negative, got %g", *c.Beta)
	}
	if c.DCutoff != nil && *c.DCutoff <= 0 {
		return fmt.Errorf("d_cutoff must be positive, got %g", *c.DCutoff)
	}
	if c.VisibilityThreshold != nil {
		if *c.VisibilityThreshold < 0 || *c.VisibilityThreshold > 1 {
			return fmt.Errorf("visibility_threshold must be in [0,1], got %g", *c.VisibilityThreshold)
		}
	}
	if c.CacheMaxSize != nil && *c.CacheMaxSize < 1 {
		return fmt.Errorf("cache_max_size must be at least 1, got %d", *c.CacheMaxSize)
	}
	if c.CacheTTL != nil && *c.CacheTTL != "" {
		if _, err := time.ParseDuration(*c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl '%s': %w", *c.CacheTTL, err)
		}
	}
	if c.WindowSize != nil && *c.WindowSize < 2 {
		return fmt.Errorf("window_size must be at least 2, got %d", *c.WindowSize)
	}
	if c.JumpThresholdDeg != nil && *c.JumpThresholdDeg <= 0 {
		return fmt.Errorf("jump_threshold_deg must be positive, got %g", *c.JumpThresholdDeg)
	}
	for joint, v := range c.JumpThresholdsDeg {
		if v <= 0 {
			return fmt.Errorf("jump_thresholds_deg[%s] must be positive, got %g", joint, v)
		}
	}
	if c.Persistence != nil && *c.Persistence != "" {
		d, err := time.ParseDuration(*c.Persistence)
		if err != nil {
			return fmt.Errorf("invalid persistence '%s': %w", *c.Persistence, err)
		}
		if d < 0 {
			return fmt.Errorf("persistence must be non-negative, got %v", d)
		}
	}
	if c.ResetTimeout != nil && *c.ResetTimeout != "" {
		d, err := time.ParseDuration(*c.ResetTimeout)
		if err != nil {
			return fmt.Errorf("invalid reset_timeout '%s': %w", *c.ResetTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("reset_timeout must be positive, got %v", d)
		}
	}
	for tier, s := range c.PersistenceBySeverity {
		if !severityNames[tier] {
			return fmt.Errorf("unknown severity tier %q in persistence_by_severity", tier)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid persistence_by_severity[%s] '%s': %w", tier, s, err)
		}
		if d < 0 {
			return fmt.Errorf("persistence_by_severity[%s] must be non-negative, got %v", tier, d)
		}
	}
	if c.AngleThresholds != nil {
		if err := c.AngleThresholds.Validate(); err != nil {
			return fmt.Errorf("angle_thresholds: %w", err)
		}
	}
	if c.DistanceThresholds != nil {
		if err := c.DistanceThresholds.Validate(); err != nil {
			return fmt.Errorf("distance_thresholds: %w", err)
		}
	}
	for rule, t := range c.RuleThresholds {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("rule_thresholds[%s]: %w", rule, err)
		}
	}
	return nil
}

// GetMinCutoff returns the min_cutoff value or the default.
func (c *TuningConfig) GetMinCutoff() float64 {
	if c.MinCutoff == nil {
		return 1.0
	}
	return *c.MinCutoff
}

// GetBeta returns the beta value or the default.
func (c *TuningConfig) GetBeta() float64 {
	if c.Beta == nil {
		return 0.007
	}
	return *c.Beta
}

// GetDCutoff returns the d_cutoff value or the default.
func (c *TuningConfig) GetDCutoff() float64 {
	if c.DCutoff == nil {
		return 1.0
	}
	return *c.DCutoff
}

// GetVisibilityThreshold returns the visibility_threshold value or the default.
func (c *TuningConfig) GetVisibilityThreshold() float64 {
	if c.VisibilityThreshold == nil {
		return 0.5
	}
	return *c.VisibilityThreshold
}

// GetCacheMaxSize returns the cache_max_size value or the default.
func (c *TuningConfig) GetCacheMaxSize() int {
	if c.CacheMaxSize == nil {
		return 64
	}
	return *c.CacheMaxSize
}

// GetCacheTTL parses and returns the CacheTTL as a time.Duration.
func (c *TuningConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == nil || *c.CacheTTL == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.CacheTTL)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetWindowSize returns the window_size value or the default.
func (c *TuningConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return 30
	}
	return *c.WindowSize
}

// GetJumpThresholdDeg returns the per-joint jump threshold, falling back
// to the global default when no override exists for the joint.
func (c *TuningConfig) GetJumpThresholdDeg(joint string) float64 {
	if v, ok := c.JumpThresholdsDeg[joint]; ok {
		return v
	}
	if c.JumpThresholdDeg == nil {
		return 30.0
	}
	return *c.JumpThresholdDeg
}

// GetPersistence parses and returns the default required persistence duration.
func (c *TuningConfig) GetPersistence() time.Duration {
	if c.Persistence == nil || *c.Persistence == "" {
		return 400 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.Persistence)
	if err != nil {
		return 400 * time.Millisecond
	}
	return d
}

// GetResetTimeout parses and returns the debounce reset timeout.
func (c *TuningConfig) GetResetTimeout() time.Duration {
	if c.ResetTimeout == nil || *c.ResetTimeout == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.ResetTimeout)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetPersistenceForSeverity returns the tier-specific persistence duration
// when configured, falling back to the default persistence otherwise.
func (c *TuningConfig) GetPersistenceForSeverity(tier string) time.Duration {
	if s, ok := c.PersistenceBySeverity[tier]; ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return c.GetPersistence()
}

// GetAngleThresholds returns the angular severity thresholds (degrees) or
// the clinically-reviewed defaults.
func (c *TuningConfig) GetAngleThresholds() SeverityThresholds {
	if c.AngleThresholds == nil {
		return SeverityThresholds{Mild: 5, Moderate: 10, Severe: 20}
	}
	return *c.AngleThresholds
}

// GetDistanceThresholds returns the linear severity thresholds (centimetres)
// or the clinically-reviewed defaults.
func (c *TuningConfig) GetDistanceThresholds() SeverityThresholds {
	if c.DistanceThresholds == nil {
		return SeverityThresholds{Mild: 1, Moderate: 2, Severe: 5}
	}
	return *c.DistanceThresholds
}

// GetRuleThresholds returns per-rule threshold overrides when configured,
// falling back to the unit-appropriate defaults.
func (c *TuningConfig) GetRuleThresholds(rule string, angular bool) SeverityThresholds {
	if t, ok := c.RuleThresholds[rule]; ok {
		return t
	}
	if angular {
		return c.GetAngleThresholds()
	}
	return c.GetDistanceThresholds()
}
