package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFixedStep   = 1.0 / 60
	DefaultMaxSubSteps = 3
	DefaultIterations  = 10
	DefaultGravity     = -9.82
	DefaultThreshold   = 1.5
)

var ErrInvalidConfig = errors.New("invalid config")

type Vec3 [3]float64

type Config struct {
	World           WorldConfig     `yaml:"world"`
	ContactMaterial ContactConfig   `yaml:"contact_material"`
	Materials       MaterialsConfig `yaml:"materials"`
	Audio           AudioConfig     `yaml:"audio"`
	EnvironmentMap  string          `yaml:"environment_map"`
	Floor           FloorConfig     `yaml:"floor"`
	ObjectMaterial  SurfaceConfig   `yaml:"object_material"`
	Lights          LightsConfig    `yaml:"lights"`
	Camera          CameraConfig    `yaml:"camera"`
	Window          WindowConfig    `yaml:"window"`
	Spawn           SpawnConfig     `yaml:"spawn"`
	Startup         []ObjectConfig  `yaml:"startup"`
	Seed            int64           `yaml:"seed"`
}

type WorldConfig struct {
	Gravity         Vec3    `yaml:"gravity"`
	Broadphase      string  `yaml:"broadphase"`
	AllowSleep      bool    `yaml:"allow_sleep"`
	FixedStep       float64 `yaml:"fixed_step"`
	MaxSubSteps     int     `yaml:"max_sub_steps"`
	Iterations      int     `yaml:"iterations"`
	SleepSpeedLimit float64 `yaml:"sleep_speed_limit"`
	SleepTimeLimit  float64 `yaml:"sleep_time_limit"`
}

type ContactConfig struct {
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// MaterialsConfig assigns named materials to the floor and to spawned
// objects. When disabled every contact uses the default contact material.
type MaterialsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Floor   string `yaml:"floor"`
	Objects string `yaml:"objects"`
}

type AudioConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Backend   string  `yaml:"backend"`
	Sound     string  `yaml:"sound"`
	Threshold float64 `yaml:"threshold"`
}

type SurfaceConfig struct {
	Color           string  `yaml:"color"`
	Metalness       float64 `yaml:"metalness"`
	Roughness       float64 `yaml:"roughness"`
	EnvMapIntensity float64 `yaml:"env_map_intensity"`
}

type FloorConfig struct {
	Size    float64       `yaml:"size"`
	Surface SurfaceConfig `yaml:"surface"`
}

type LightsConfig struct {
	AmbientIntensity     float64 `yaml:"ambient_intensity"`
	DirectionalIntensity float64 `yaml:"directional_intensity"`
	DirectionalPosition  Vec3    `yaml:"directional_position"`
	ShadowMapSize        int     `yaml:"shadow_map_size"`
	ShadowFar            float64 `yaml:"shadow_far"`
	ShadowExtent         float64 `yaml:"shadow_extent"`
}

type CameraConfig struct {
	Fov      float64 `yaml:"fov"`
	Near     float64 `yaml:"near"`
	Far      float64 `yaml:"far"`
	Position Vec3    `yaml:"position"`
	Damping  float64 `yaml:"damping"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	FPS    int    `yaml:"fps"`
}

// SpawnConfig bounds the randomized debug spawns.
type SpawnConfig struct {
	MaxRadius float64 `yaml:"max_radius"`
	MaxSize   float64 `yaml:"max_size"`
	Spread    float64 `yaml:"spread"`
	Height    float64 `yaml:"height"`
}

type ObjectConfig struct {
	Shape    string  `yaml:"shape"`
	Radius   float64 `yaml:"radius,omitempty"`
	Size     Vec3    `yaml:"size,omitempty"`
	Position Vec3    `yaml:"position"`
}

func DefaultConfig() *Config {
	return &Config{
		World: WorldConfig{
			Gravity:         Vec3{0, DefaultGravity, 0},
			Broadphase:      "sap",
			AllowSleep:      true,
			FixedStep:       DefaultFixedStep,
			MaxSubSteps:     DefaultMaxSubSteps,
			Iterations:      DefaultIterations,
			SleepSpeedLimit: 0.1,
			SleepTimeLimit:  1,
		},
		ContactMaterial: ContactConfig{Friction: 0.1, Restitution: 0.7},
		Materials:       MaterialsConfig{Floor: "concrete", Objects: "plastic"},
		Audio: AudioConfig{
			Enabled:   true,
			Backend:   "raylib",
			Sound:     "static/sounds/hit.wav",
			Threshold: DefaultThreshold,
		},
		EnvironmentMap: "static/textures/environmentMaps/0",
		Floor: FloorConfig{
			Size:    10,
			Surface: SurfaceConfig{Color: "#777777", Metalness: 0.3, Roughness: 0.4, EnvMapIntensity: 0.5},
		},
		ObjectMaterial: SurfaceConfig{Color: "#ffffff", Metalness: 0.3, Roughness: 0.4, EnvMapIntensity: 1},
		Lights: LightsConfig{
			AmbientIntensity:     0.7,
			DirectionalIntensity: 0.2,
			DirectionalPosition:  Vec3{5, 5, 5},
			ShadowMapSize:        1024,
			ShadowFar:            15,
			ShadowExtent:         7,
		},
		Camera: CameraConfig{
			Fov:      75,
			Near:     0.1,
			Far:      100,
			Position: Vec3{-3, 3, 3},
			Damping:  0.05,
		},
		Window: WindowConfig{Width: 1280, Height: 720, Title: "physbox", FPS: 60},
		Spawn:  SpawnConfig{MaxRadius: 0.5, MaxSize: 1, Spread: 3, Height: 3},
		Startup: []ObjectConfig{
			{Shape: "box", Size: Vec3{1, 1, 1}, Position: Vec3{2, 5, 2}},
			{Shape: "sphere", Radius: 0.5, Position: Vec3{0, 3, 0}},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings the run loop depends on. Shape dimensions
// of startup objects are not checked.
func (c *Config) Validate() error {
	w := c.World
	switch {
	case w.FixedStep <= 0:
		return fmt.Errorf("%w: fixed_step must be positive, got %g", ErrInvalidConfig, w.FixedStep)
	case w.MaxSubSteps < 1:
		return fmt.Errorf("%w: max_sub_steps must be at least 1, got %d", ErrInvalidConfig, w.MaxSubSteps)
	case w.Iterations < 1:
		return fmt.Errorf("%w: iterations must be at least 1, got %d", ErrInvalidConfig, w.Iterations)
	case w.Broadphase != "sap" && w.Broadphase != "naive":
		return fmt.Errorf("%w: unknown broadphase %q", ErrInvalidConfig, w.Broadphase)
	case c.ContactMaterial.Friction < 0:
		return fmt.Errorf("%w: friction must not be negative", ErrInvalidConfig)
	case c.ContactMaterial.Restitution < 0:
		return fmt.Errorf("%w: restitution must not be negative", ErrInvalidConfig)
	}
	for i, o := range c.Startup {
		if o.Shape != "sphere" && o.Shape != "box" {
			return fmt.Errorf("%w: startup[%d]: unknown shape %q", ErrInvalidConfig, i, o.Shape)
		}
	}
	return nil
}
