package sim

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/physbox/internal/config"
)

type (
	SpawnFunc       func(s *Simulator, obj config.ObjectConfig) *TrackedObject
	RandomSpawnFunc func(s *Simulator) *TrackedObject
)

// Catalog maps shape names to spawn factories.
type Catalog struct {
	shapes map[string]SpawnFunc
	random map[string]RandomSpawnFunc
}

func NewCatalog() *Catalog {
	c := &Catalog{
		shapes: make(map[string]SpawnFunc),
		random: make(map[string]RandomSpawnFunc),
	}

	c.shapes[string(ShapeSphere)] = func(s *Simulator, obj config.ObjectConfig) *TrackedObject {
		return s.SpawnSphere(obj.Radius, mgl64.Vec3(obj.Position))
	}
	c.shapes[string(ShapeBox)] = func(s *Simulator, obj config.ObjectConfig) *TrackedObject {
		return s.SpawnBox(obj.Size[0], obj.Size[1], obj.Size[2], mgl64.Vec3(obj.Position))
	}

	c.random[string(ShapeSphere)] = (*Simulator).SpawnRandomSphere
	c.random[string(ShapeBox)] = (*Simulator).SpawnRandomBox

	return c
}

func (c *Catalog) Spawn(s *Simulator, obj config.ObjectConfig) (*TrackedObject, error) {
	fn, ok := c.shapes[obj.Shape]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, obj.Shape)
	}
	return fn(s, obj), nil
}

func (c *Catalog) SpawnRandom(s *Simulator, name string) (*TrackedObject, error) {
	fn, ok := c.random[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, name)
	}
	return fn(s), nil
}

func (c *Catalog) List() []string {
	names := make([]string, 0, len(c.shapes))
	for name := range c.shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
