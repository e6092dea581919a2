package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/physbox/internal/scene"
)

const skyboxScale = 50

const (
	skyboxVS = `#version 330
in vec3 vertexPosition;
uniform mat4 matProjection;
uniform mat4 matView;
out vec3 fragPosition;
void main() {
  fragPosition = vertexPosition;
  mat4 rotView = mat4(mat3(matView));
  vec4 clipPos = matProjection * rotView * vec4(vertexPosition, 1.0);
  gl_Position = clipPos.xyww;
}
`
	skyboxFS = `#version 330
in vec3 fragPosition;
out vec4 finalColor;
uniform samplerCube environmentMap;
void main() {
  finalColor = vec4(texture(environmentMap, fragPosition).rgb, 1.0);
}
`
)

type skybox struct {
	tex  rl.Texture2D
	mesh rl.Mesh
	mtl  rl.Material
}

// loadSkybox packs the six faces into a horizontal strip in px, nx, py,
// ny, pz, nz order and uploads it as a cube map.
func loadSkybox(env *scene.CubeTexture) (*skybox, error) {
	if err := env.Check(); err != nil {
		return nil, err
	}

	var faces [6]*rl.Image
	defer func() {
		for _, img := range faces {
			if img != nil {
				rl.UnloadImage(img)
			}
		}
	}()
	for i, path := range env.Faces {
		img := rl.LoadImage(path)
		if img == nil || img.Width <= 0 || img.Height <= 0 {
			return nil, fmt.Errorf("load cube face %s", path)
		}
		if i > 0 && (img.Width != faces[0].Width || img.Height != faces[0].Height) {
			rl.UnloadImage(img)
			return nil, fmt.Errorf("cube face %s: size %dx%d differs from %dx%d",
				path, img.Width, img.Height, faces[0].Width, faces[0].Height)
		}
		faces[i] = img
	}

	size := faces[0].Width
	strip := rl.GenImageColor(int(size)*6, int(size), rl.Black)
	defer rl.UnloadImage(strip)
	src := rl.NewRectangle(0, 0, float32(size), float32(size))
	for i, img := range faces {
		dst := rl.NewRectangle(float32(int32(i)*size), 0, float32(size), float32(size))
		rl.ImageDraw(strip, img, src, dst, rl.White)
	}

	tex := rl.LoadTextureCubemap(strip, rl.CubemapLayoutLineHorizontal)
	if !rl.IsTextureValid(tex) {
		return nil, fmt.Errorf("upload cube map from %s", env.Dir)
	}

	shader := rl.LoadShaderFromMemory(skyboxVS, skyboxFS)
	if !rl.IsShaderValid(shader) {
		rl.UnloadTexture(tex)
		return nil, fmt.Errorf("compile skybox shader")
	}
	rl.SetShaderValue(shader, rl.GetShaderLocation(shader, "environmentMap"), []float32{rl.MapCubemap}, rl.ShaderUniformInt)

	sb := &skybox{
		tex:  tex,
		mesh: rl.GenMeshCube(1, 1, 1),
		mtl:  rl.LoadMaterialDefault(),
	}
	sb.mtl.Shader = shader
	rl.SetMaterialTexture(&sb.mtl, rl.MapCubemap, tex)
	return sb, nil
}

func (s *skybox) draw(at rl.Vector3) {
	rl.DisableDepthMask()
	rl.DisableBackfaceCulling()
	scale := rl.MatrixScale(skyboxScale, skyboxScale, skyboxScale)
	trans := rl.MatrixTranslate(at.X, at.Y, at.Z)
	rl.DrawMesh(s.mesh, s.mtl, rl.MatrixMultiply(scale, trans))
	rl.EnableBackfaceCulling()
	rl.EnableDepthMask()
}

func (s *skybox) unload() {
	rl.UnloadTexture(s.tex)
	rl.UnloadShader(s.mtl.Shader)
}
