package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetramc/tetramc/mc"
)

func writeScene(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const cubeScene = `
mesh:
  cube:
    nx: 5
    ny: 5
    nz: 5
    spacing: 2
    tag: 1
media:
  - {mua: 0, mus: 0, g: 0, n: 1}
  - {mua: 0.01, mus: 1.0, g: 0.9, n: 1.37}
source:
  type: pencil
  pos: [5, 5, 0.5]
  dir: [0, 0, 1]
detectors:
  - pos: [5, 5, 0]
    radius: 2
`

func TestLoadScene_Cube(t *testing.T) {
	mesh, media, src, dets, err := LoadScene(writeScene(t, cubeScene))
	require.NoError(t, err)

	assert.Equal(t, 6*5*5*5, len(mesh.Elems))
	require.Len(t, media, 2)
	assert.Equal(t, float32(1.37), media[1].N)

	assert.Equal(t, mc.SrcPencil, src.Type)
	assert.GreaterOrEqual(t, src.InitElem, int32(0))
	assert.InDelta(t, 1.0, float64(src.Dir.Norm()), 1e-5)

	require.Len(t, dets, 1)
	assert.Equal(t, float32(2), dets[0].Radius)
}

func TestLoadScene_InlineMesh(t *testing.T) {
	scene := `
mesh:
  nodes:
    - [0, 0, 0]
    - [1, 0, 0]
    - [0, 1, 0]
    - [0, 0, 1]
  elems:
    - [0, 1, 2, 3]
  tags: [1]
media:
  - {mua: 0, mus: 0, g: 0, n: 1}
  - {mua: 0.01, mus: 1.0, g: 0.9, n: 1.37}
source:
  pos: [0.2, 0.2, 0.2]
  dir: [0, 0, 1]
`
	mesh, _, src, dets, err := LoadScene(writeScene(t, scene))
	require.NoError(t, err)
	assert.Len(t, mesh.Elems, 1)
	// omitted source type defaults to a pencil beam
	assert.Equal(t, mc.SrcPencil, src.Type)
	assert.Equal(t, int32(0), src.InitElem)
	assert.Empty(t, dets)
}

func TestLoadScene_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, _, _, err := LoadScene(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("malformed yaml", func(t *testing.T) {
		_, _, _, _, err := LoadScene(writeScene(t, "mesh: ["))
		assert.Error(t, err)
	})
	t.Run("no mesh definition", func(t *testing.T) {
		scene := `
media:
  - {mua: 0, mus: 0, g: 0, n: 1}
source:
  pos: [0, 0, 0]
  dir: [0, 0, 1]
`
		_, _, _, _, err := LoadScene(writeScene(t, scene))
		assert.Error(t, err)
	})
	t.Run("empty media table", func(t *testing.T) {
		scene := `
mesh:
  cube: {nx: 2, ny: 2, nz: 2, spacing: 1, tag: 1}
source:
  pos: [1, 1, 1]
  dir: [0, 0, 1]
`
		_, _, _, _, err := LoadScene(writeScene(t, scene))
		assert.Error(t, err)
	})
	t.Run("source outside mesh", func(t *testing.T) {
		scene := `
mesh:
  cube: {nx: 2, ny: 2, nz: 2, spacing: 1, tag: 1}
media:
  - {mua: 0, mus: 0, g: 0, n: 1}
  - {mua: 0.01, mus: 1.0, g: 0.9, n: 1.37}
source:
  pos: [10, 10, 10]
  dir: [0, 0, 1]
`
		_, _, _, _, err := LoadScene(writeScene(t, scene))
		assert.Error(t, err)
	})
}
