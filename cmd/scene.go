package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tetramc/tetramc/mc"
)

// Scene is the YAML description of a simulation setup: the mesh (either an
// inline node/element list or a cube-grid shorthand), the medium table,
// the source and the detector list.
type Scene struct {
	Mesh struct {
		Cube *struct {
			Nx      int     `yaml:"nx,omitempty"`
			Ny      int     `yaml:"ny,omitempty"`
			Nz      int     `yaml:"nz,omitempty"`
			Spacing float32 `yaml:"spacing"`
			Tag     int32   `yaml:"tag"`
		} `yaml:"cube,omitempty"`
		Nodes [][3]float32 `yaml:"nodes,omitempty"`
		Elems [][4]int32   `yaml:"elems,omitempty"`
		Tags  []int32      `yaml:"tags,omitempty"`
	} `yaml:"mesh"`

	Media []struct {
		Mua float32 `yaml:"mua"`
		Mus float32 `yaml:"mus"`
		G   float32 `yaml:"g"`
		N   float32 `yaml:"n"`
	} `yaml:"media"`

	Source struct {
		Type    string     `yaml:"type"`
		Pos     [3]float32 `yaml:"pos"`
		Dir     [3]float32 `yaml:"dir"`
		Param1  [4]float32 `yaml:"param1,omitempty"`
		Param2  [4]float32 `yaml:"param2,omitempty"`
		Pattern []float32  `yaml:"pattern,omitempty"`
		Nx      int        `yaml:"nx,omitempty"`
		Ny      int        `yaml:"ny,omitempty"`
	} `yaml:"source"`

	Detectors []struct {
		Pos    [3]float32 `yaml:"pos"`
		Radius float32    `yaml:"radius"`
	} `yaml:"detectors,omitempty"`
}

// LoadScene parses a scene file and assembles the engine inputs.
func LoadScene(path string) (*mc.Mesh, []mc.Medium, *mc.Source, []mc.Detector, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("scene: %w", err)
	}
	var sc Scene
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return sc.Build()
}

// Build assembles the mesh, medium table, source and detectors.
func (sc *Scene) Build() (*mc.Mesh, []mc.Medium, *mc.Source, []mc.Detector, error) {
	var mesh *mc.Mesh
	var err error
	switch {
	case sc.Mesh.Cube != nil:
		c := sc.Mesh.Cube
		mesh, err = mc.NewCubeMesh(c.Nx, c.Ny, c.Nz, c.Spacing, c.Tag)
	case len(sc.Mesh.Nodes) > 0:
		nodes := make([]mc.Vec3, len(sc.Mesh.Nodes))
		for i, n := range sc.Mesh.Nodes {
			nodes[i] = mc.Vec3{X: n[0], Y: n[1], Z: n[2]}
		}
		mesh, err = mc.NewMesh(nodes, sc.Mesh.Elems, sc.Mesh.Tags)
	default:
		err = fmt.Errorf("scene: mesh requires either a cube shorthand or explicit nodes/elems")
	}
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if len(sc.Media) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("scene: empty media table")
	}
	media := make([]mc.Medium, len(sc.Media))
	for i, m := range sc.Media {
		media[i] = mc.Medium{Mua: m.Mua, Mus: m.Mus, G: m.G, N: m.N}
	}

	src := &mc.Source{
		Type:      mc.SourceType(sc.Source.Type),
		Pos:       mc.Vec3{X: sc.Source.Pos[0], Y: sc.Source.Pos[1], Z: sc.Source.Pos[2]},
		Dir:       mc.Vec3{X: sc.Source.Dir[0], Y: sc.Source.Dir[1], Z: sc.Source.Dir[2]}.Normalize(),
		Param1:    sc.Source.Param1,
		Param2:    sc.Source.Param2,
		Pattern:   sc.Source.Pattern,
		PatternNx: sc.Source.Nx,
		PatternNy: sc.Source.Ny,
	}
	if src.Type == "" {
		src.Type = mc.SrcPencil
	}
	src.InitElem = mesh.Locate(src.Pos, 0)
	if src.InitElem < 0 {
		return nil, nil, nil, nil, fmt.Errorf("scene: source position %v is outside the mesh", src.Pos)
	}

	dets := make([]mc.Detector, len(sc.Detectors))
	for i, d := range sc.Detectors {
		dets[i] = mc.Detector{
			Pos:    mc.Vec3{X: d.Pos[0], Y: d.Pos[1], Z: d.Pos[2]},
			Radius: d.Radius,
		}
	}
	return mesh, media, src, dets, nil
}
