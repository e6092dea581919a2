package scene

// Scene holds meshes in insertion order plus lighting and an optional
// environment map. It is not safe for concurrent use.
type Scene struct {
	Ambient     AmbientLight
	Directional DirectionalLight
	Environment *CubeTexture

	meshes []*Mesh
	index  map[uint64]int
}

func New() *Scene {
	return &Scene{index: make(map[uint64]int)}
}

// Add appends m. Adding a mesh twice is a no-op.
func (s *Scene) Add(m *Mesh) {
	if _, ok := s.index[m.ID]; ok {
		return
	}
	s.index[m.ID] = len(s.meshes)
	s.meshes = append(s.meshes, m)
}

// Remove reports whether m was in the scene.
func (s *Scene) Remove(m *Mesh) bool {
	i, ok := s.index[m.ID]
	if !ok {
		return false
	}
	s.meshes = append(s.meshes[:i], s.meshes[i+1:]...)
	delete(s.index, m.ID)
	for j := i; j < len(s.meshes); j++ {
		s.index[s.meshes[j].ID] = j
	}
	return true
}

func (s *Scene) Contains(m *Mesh) bool {
	_, ok := s.index[m.ID]
	return ok
}

// Meshes returns a copy of the mesh list.
func (s *Scene) Meshes() []*Mesh {
	out := make([]*Mesh, len(s.meshes))
	copy(out, s.meshes)
	return out
}

func (s *Scene) Len() int { return len(s.meshes) }

// Lights returns the scene's lights, ambient first.
func (s *Scene) Lights() []Light {
	return []Light{&s.Ambient, &s.Directional}
}

// Renderer draws a scene from a camera.
type Renderer interface {
	Render(s *Scene, cam *PerspectiveCamera)
}
