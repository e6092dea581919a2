package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CubeFaces lists cube map faces in the order they are loaded.
var CubeFaces = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

// CubeTexture names the six images of an environment map.
type CubeTexture struct {
	Dir   string
	Faces [6]string
}

func NewCubeTexture(dir, ext string) *CubeTexture {
	t := &CubeTexture{Dir: dir}
	for i, f := range CubeFaces {
		t.Faces[i] = filepath.Join(dir, f+ext)
	}
	return t
}

// Check returns an error listing faces that cannot be read.
func (t *CubeTexture) Check() error {
	var errs []error
	for _, f := range t.Faces {
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("cube face %s: %w", filepath.Base(f), err))
		}
	}
	return errors.Join(errs...)
}
