package flash

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Broadphase selection values for Config
const (
	BroadphaseTree = "tree"
	BroadphaseGrid = "grid"
)

// Config holds the solver and world tuning knobs. Units are pixels with
// ~100 px per meter, Y up.
type Config struct {
	GravityX float32 `yaml:"gravity_x"`
	GravityY float32 `yaml:"gravity_y"`

	VelocityIterations int  `yaml:"velocity_iterations"`
	PositionIterations int  `yaml:"position_iterations"`
	WarmStarting       bool `yaml:"warm_starting"`

	ContactHertz        float32 `yaml:"contact_hertz"`
	ContactDampingRatio float32 `yaml:"contact_damping_ratio"`

	RestitutionThreshold float32 `yaml:"restitution_threshold"`
	MaxLinearVelocity    float32 `yaml:"max_linear_velocity"`

	Broadphase   string  `yaml:"broadphase"`
	GridCellSize float32 `yaml:"grid_cell_size"`
}

// DefaultConfig returns the tuning the engine ships with
func DefaultConfig() Config {
	return Config{
		GravityY:             -9.81 * 100, // Y-up, pixel scale
		VelocityIterations:   8,
		PositionIterations:   10,
		WarmStarting:         true,
		ContactHertz:         120,
		ContactDampingRatio:  1.0, // critical damping
		RestitutionThreshold: 1.0 * 100,
		MaxLinearVelocity:    2000 * 100,
		Broadphase:           BroadphaseTree,
		GridCellSize:         64,
	}
}

// LoadConfig reads a Config from a YAML file. A missing file yields the
// defaults and no error; a malformed file is an error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), nil
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
