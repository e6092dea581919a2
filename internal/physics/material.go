package physics

// Material names a surface kind. Contact properties are defined per pair of
// materials through ContactMaterial.
type Material struct {
	Name string
}

func NewMaterial(name string) *Material { return &Material{Name: name} }

// ContactMaterial holds the friction and restitution used when two
// materials touch. A and B may be nil for the world default.
type ContactMaterial struct {
	A, B        *Material
	Friction    float64
	Restitution float64
}

type materialPair struct {
	a, b *Material
}
