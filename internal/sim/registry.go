package sim

import (
	"github.com/google/uuid"

	"github.com/san-kum/physbox/internal/physics"
	"github.com/san-kum/physbox/internal/scene"
)

// TrackedObject pairs a mesh with the body that drives it.
type TrackedObject struct {
	ID         uuid.UUID
	Shape      Shape
	Dimensions Dimensions
	Mesh       *scene.Mesh
	Body       *physics.Body

	sub physics.Subscription
}

func (o *TrackedObject) Subscription() physics.Subscription { return o.sub }

func (o *TrackedObject) State() ObjectState {
	return ObjectState{
		ID:         o.ID,
		Shape:      o.Shape,
		Dimensions: o.Dimensions,
		Position:   o.Body.Position,
		Quaternion: o.Body.Quaternion,
		Velocity:   o.Body.Velocity,
		Sleeping:   o.Body.IsSleeping(),
	}
}

// Registry keeps tracked objects in spawn order.
type Registry struct {
	objects []*TrackedObject
}

func (r *Registry) Len() int { return len(r.objects) }

// Each visits objects in spawn order.
func (r *Registry) Each(fn func(*TrackedObject)) {
	for _, o := range r.objects {
		fn(o)
	}
}

func (r *Registry) Objects() []*TrackedObject {
	out := make([]*TrackedObject, len(r.objects))
	copy(out, r.objects)
	return out
}

func (r *Registry) Find(id uuid.UUID) (*TrackedObject, bool) {
	for _, o := range r.objects {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

func (r *Registry) add(o *TrackedObject) {
	r.objects = append(r.objects, o)
}

// drain empties the registry and returns what it held.
func (r *Registry) drain() []*TrackedObject {
	out := r.objects
	r.objects = nil
	return out
}
