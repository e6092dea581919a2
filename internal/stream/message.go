package stream

import (
	"github.com/san-kum/physbox/internal/sim"
)

type Object struct {
	ID         string     `json:"id"`
	Shape      string     `json:"shape"`
	Radius     float64    `json:"radius,omitempty"`
	Size       [3]float64 `json:"size,omitempty"`
	Position   [3]float64 `json:"position"`
	Quaternion [4]float64 `json:"quaternion"`
	Sleeping   bool       `json:"sleeping"`
}

// FrameMessage is sent to viewers. Quaternions are ordered x, y, z, w.
type FrameMessage struct {
	Type    string   `json:"type"`
	Index   uint64   `json:"index"`
	Time    float64  `json:"time"`
	Objects []Object `json:"objects"`
}

// Command is what viewers send: action is "sphere", "box" or "reset".
type Command struct {
	Action string `json:"action"`
}

func objects(f sim.Frame) []Object {
	out := make([]Object, 0, len(f.Objects))
	for _, o := range f.Objects {
		obj := Object{
			ID:         o.ID.String(),
			Shape:      string(o.Shape),
			Position:   o.Position,
			Quaternion: [4]float64{o.Quaternion.V[0], o.Quaternion.V[1], o.Quaternion.V[2], o.Quaternion.W},
			Sleeping:   o.Sleeping,
		}
		if o.Shape == sim.ShapeSphere {
			obj.Radius = o.Dimensions.Radius
		} else {
			obj.Size = [3]float64{o.Dimensions.Width, o.Dimensions.Height, o.Dimensions.Depth}
		}
		out = append(out, obj)
	}
	return out
}
