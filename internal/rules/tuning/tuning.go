package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	BlockDurationMs      int64 `yaml:"block_duration_ms"`
	InitialBuildingLevel int64 `yaml:"initial_building_level"`

	// Building price is floor((num/den)^level).
	PriceBaseNumerator   int64 `yaml:"price_base_numerator"`
	PriceBaseDenominator int64 `yaml:"price_base_denominator"`

	ShipCost int64 `yaml:"ship_cost"`

	OrbitWindowBlocks   int64 `yaml:"orbit_window_blocks"`
	LandingWindowBlocks int64 `yaml:"landing_window_blocks"`
}

func Default() Tuning {
	return Tuning{
		BlockDurationMs:      10_000,
		InitialBuildingLevel: 20,
		PriceBaseNumerator:   6,
		PriceBaseDenominator: 5,
		ShipCost:             1,
		OrbitWindowBlocks:    10,
		LandingWindowBlocks:  20,
	}
}

// Load overlays the YAML file at path onto the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.BlockDurationMs <= 0:
		return fmt.Errorf("block_duration_ms must be positive")
	case t.InitialBuildingLevel < 0:
		return fmt.Errorf("initial_building_level must not be negative")
	case t.PriceBaseNumerator <= 0 || t.PriceBaseDenominator <= 0:
		return fmt.Errorf("price base must be positive")
	case t.ShipCost < 0:
		return fmt.Errorf("ship_cost must not be negative")
	case t.OrbitWindowBlocks < 0:
		return fmt.Errorf("orbit_window_blocks must not be negative")
	case t.OrbitWindowBlocks > t.LandingWindowBlocks:
		return fmt.Errorf("orbit_window_blocks (%d) exceeds landing_window_blocks (%d)", t.OrbitWindowBlocks, t.LandingWindowBlocks)
	}
	return nil
}

func (t Tuning) BlockDuration() time.Duration {
	return time.Duration(t.BlockDurationMs) * time.Millisecond
}

func (t Tuning) PriceBase() float64 {
	return float64(t.PriceBaseNumerator) / float64(t.PriceBaseDenominator)
}
