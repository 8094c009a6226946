package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RunConfig represents the tunable parameters of a correction run.
// All fields are pointers so a partial JSON file overrides only the
// keys it names; the Get* methods supply defaults for the rest.
type RunConfig struct {
	// Rasterizer params
	DX           *float64 `json:"dx,omitempty"`            // grid step, microns
	TargetPoints *int     `json:"target_points,omitempty"` // auto-resolution point budget
	AutoRes      *bool    `json:"auto_res,omitempty"`

	// Deconvolution params
	MaxIter   *int     `json:"max_iter,omitempty"`
	WindowVal *float64 `json:"window_val,omitempty"` // ringing-suppression smoothing factor

	// Layering params
	Dvals []float64 `json:"dvals,omitempty"` // ascending dose thresholds, dose-to-clear units

	// Fracturing params
	SubfieldSize        *int `json:"subfield_size,omitempty"` // max tile edge, grid cells
	MaxFractureAttempts *int `json:"max_fracture_attempts,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRunConfig returns a RunConfig with all fields set to nil.
// Every parameter then resolves to its built-in default.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// LoadRunConfig loads a RunConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *RunConfig) Validate() error {
	if c.DX != nil && *c.DX <= 0 {
		return fmt.Errorf("dx must be positive, got %f", *c.DX)
	}

	if c.TargetPoints != nil && *c.TargetPoints < 1 {
		return fmt.Errorf("target_points must be at least 1, got %d", *c.TargetPoints)
	}

	if c.MaxIter != nil && *c.MaxIter < 0 {
		return fmt.Errorf("max_iter must be non-negative, got %d", *c.MaxIter)
	}

	if c.WindowVal != nil && *c.WindowVal <= 0 {
		return fmt.Errorf("window_val must be positive, got %f", *c.WindowVal)
	}

	if len(c.Dvals) == 1 {
		return fmt.Errorf("dvals needs at least 2 thresholds, got 1")
	}
	for i := 1; i < len(c.Dvals); i++ {
		if c.Dvals[i] <= c.Dvals[i-1] {
			return fmt.Errorf("dvals must be strictly ascending, got %v", c.Dvals)
		}
	}

	if c.SubfieldSize != nil && *c.SubfieldSize < 1 {
		return fmt.Errorf("subfield_size must be at least 1, got %d", *c.SubfieldSize)
	}

	if c.MaxFractureAttempts != nil && *c.MaxFractureAttempts < 1 {
		return fmt.Errorf("max_fracture_attempts must be at least 1, got %d", *c.MaxFractureAttempts)
	}

	return nil
}

// GetDX returns the dx value or the default.
func (c *RunConfig) GetDX() float64 {
	if c.DX == nil {
		return 0.1 // default, microns
	}
	return *c.DX
}

// GetTargetPoints returns the target_points value or the default.
func (c *RunConfig) GetTargetPoints() int {
	if c.TargetPoints == nil {
		return 1000000 // default
	}
	return *c.TargetPoints
}

// GetAutoRes returns the auto_res value or the default.
func (c *RunConfig) GetAutoRes() bool {
	if c.AutoRes == nil {
		return true // default: resolution auto-tuning enabled
	}
	return *c.AutoRes
}

// GetMaxIter returns the max_iter value or the default.
func (c *RunConfig) GetMaxIter() int {
	if c.MaxIter == nil {
		return 6 // default
	}
	return *c.MaxIter
}

// GetWindowVal returns the window_val value or the default.
func (c *RunConfig) GetWindowVal() float64 {
	if c.WindowVal == nil {
		return 10.0 // default
	}
	return *c.WindowVal
}

// GetDvals returns the dose thresholds or the default ladder of 15
// levels from 1.0 to 2.4 dose-to-clear.
func (c *RunConfig) GetDvals() []float64 {
	if len(c.Dvals) == 0 {
		dvals := make([]float64, 15)
		for i := range dvals {
			dvals[i] = 1.0 + 0.1*float64(i)
		}
		return dvals
	}
	out := make([]float64, len(c.Dvals))
	copy(out, c.Dvals)
	return out
}

// GetSubfieldSize returns the subfield_size value or the default.
func (c *RunConfig) GetSubfieldSize() int {
	if c.SubfieldSize == nil {
		return 500 // default, grid cells
	}
	return *c.SubfieldSize
}

// GetMaxFractureAttempts returns the max_fracture_attempts value or the default.
func (c *RunConfig) GetMaxFractureAttempts() int {
	if c.MaxFractureAttempts == nil {
		return 8 // default
	}
	return *c.MaxFractureAttempts
}

// MarshalResolved returns the fully resolved configuration as JSON,
// with every default applied, for the run record.
func (c *RunConfig) MarshalResolved() ([]byte, error) {
	resolved := RunConfig{
		DX:                  ptrFloat64(c.GetDX()),
		TargetPoints:        ptrInt(c.GetTargetPoints()),
		AutoRes:             ptrBool(c.GetAutoRes()),
		MaxIter:             ptrInt(c.GetMaxIter()),
		WindowVal:           ptrFloat64(c.GetWindowVal()),
		Dvals:               c.GetDvals(),
		SubfieldSize:        ptrInt(c.GetSubfieldSize()),
		MaxFractureAttempts: ptrInt(c.GetMaxFractureAttempts()),
	}
	return json.Marshal(&resolved)
}
