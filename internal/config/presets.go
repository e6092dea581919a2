package config

import "sort"

// Presets modify the default config in place.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"bouncy": func(c *Config) {
		c.ContactMaterial.Restitution = 0.95
		c.ContactMaterial.Friction = 0.05
	},
	"ice": func(c *Config) {
		c.ContactMaterial.Friction = 0
		c.ContactMaterial.Restitution = 0.2
	},
	"moon": func(c *Config) {
		c.World.Gravity = Vec3{0, -1.62, 0}
		c.Spawn.Height = 5
	},
	"naive": func(c *Config) {
		c.World.Broadphase = "naive"
		c.World.AllowSleep = false
	},
}

// GetPreset returns a fresh default config with the named preset applied,
// or nil when the preset does not exist.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
