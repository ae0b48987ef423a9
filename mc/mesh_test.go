package mc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// singleTetMesh builds a one-element mesh over the unit tetrahedron.
func singleTetMesh(t *testing.T) *Mesh {
	t.Helper()
	nodes := []Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	}
	m, err := NewMesh(nodes, [][4]int32{{0, 1, 2, 3}}, []int32{1})
	require.NoError(t, err)
	return m
}

func TestNewMesh_Validation(t *testing.T) {
	nodes := []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tests := []struct {
		name  string
		nodes []Vec3
		elems [][4]int32
		tags  []int32
	}{
		{"no nodes", nil, [][4]int32{{0, 1, 2, 3}}, []int32{1}},
		{"no elements", nodes, nil, nil},
		{"tag count mismatch", nodes, [][4]int32{{0, 1, 2, 3}}, []int32{1, 2}},
		{"node index out of range", nodes, [][4]int32{{0, 1, 2, 9}}, []int32{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMesh(tt.nodes, tt.elems, tt.tags)
			assert.Error(t, err)
		})
	}
}

func TestCubeMesh_Counts(t *testing.T) {
	m, err := NewCubeMesh(2, 2, 2, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 27, len(m.Nodes))
	assert.Equal(t, 6*8, len(m.Elems))
	// 6 cube sides x 2x2 cell faces x 2 triangles per square face
	nbound := 0
	for _, fnb := range m.FaceNb {
		for _, nb := range fnb {
			if nb == boundary {
				nbound++
			}
		}
	}
	assert.Equal(t, 6*2*2*2, nbound)
}

func TestFaceNeighbors_Symmetry(t *testing.T) {
	m, err := NewCubeMesh(3, 3, 3, 0.5, 1)
	require.NoError(t, err)
	for e, fnb := range m.FaceNb {
		for _, nb := range fnb {
			if nb == boundary {
				continue
			}
			// the neighbor must point back at e exactly once
			back := 0
			for _, nb2 := range m.FaceNb[nb] {
				if nb2 == int32(e) {
					back++
				}
			}
			assert.Equal(t, 1, back, "element %d neighbor %d asymmetric", e, nb)
		}
	}
}

func TestElementVolumes_SumToDomain(t *testing.T) {
	m, err := NewCubeMesh(3, 2, 4, 1, 1)
	require.NoError(t, err)
	var total, nodal float32
	for _, v := range m.EVol {
		total += v
	}
	for _, v := range m.NVol {
		nodal += v
	}
	assert.InDelta(t, 24.0, float64(total), 1e-3)
	assert.InDelta(t, 24.0, float64(nodal), 1e-3)
}

func TestBary_SumsToOne(t *testing.T) {
	m := singleTetMesh(t)
	points := []Vec3{
		{0.25, 0.25, 0.25},
		{0.1, 0.1, 0.1},
		{0, 0, 0},     // vertex
		{0.5, 0.5, 0}, // edge midpoint
	}
	for _, p := range points {
		bc := m.Bary(0, p)
		sum := bc[0] + bc[1] + bc[2] + bc[3]
		assert.InDelta(t, 1.0, float64(sum), 1e-5)
	}
}

func TestContains(t *testing.T) {
	m := singleTetMesh(t)
	tests := []struct {
		name string
		p    Vec3
		want bool
	}{
		{"interior", Vec3{0.2, 0.2, 0.2}, true},
		{"vertex", Vec3{0, 0, 0}, true},
		{"face point", Vec3{0.3, 0.3, 0}, true},
		{"outside", Vec3{1, 1, 1}, false},
		{"just outside a face", Vec3{0.5, 0.5, 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Contains(0, tt.p, 1e-5))
		})
	}
}

func TestLocate(t *testing.T) {
	m, err := NewCubeMesh(2, 2, 2, 1, 1)
	require.NoError(t, err)
	p := Vec3{1.1, 0.7, 1.6}
	eid := m.Locate(p, 0)
	require.GreaterOrEqual(t, eid, int32(0))
	assert.True(t, m.Contains(eid, p, 1e-5))

	// hint on the containing element short-circuits
	assert.Equal(t, eid, m.Locate(p, eid))

	// outside the mesh
	assert.Equal(t, int32(-1), m.Locate(Vec3{5, 5, 5}, 0))
}

func TestDensify10Node(t *testing.T) {
	m := singleTetMesh(t)
	m.Densify10Node()

	// one tetrahedron has 6 unique edges
	require.Len(t, m.Elem2, 1)
	assert.Equal(t, 4+6, len(m.Nodes))

	// every mid-edge node sits at its edge midpoint
	el := m.Elems[0]
	for ed, pair := range edgePairs {
		mid := m.Nodes[m.Elem2[0][ed]]
		want := m.Nodes[el[pair[0]]].Add(m.Nodes[el[pair[1]]]).Scale(0.5)
		assert.Equal(t, want, mid)
	}
}

func TestDensify10Node_SharedEdgesDeduplicated(t *testing.T) {
	// two tets sharing a face share that face's three edges
	nodes := []Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1},
	}
	m, err := NewMesh(nodes, [][4]int32{{0, 1, 2, 3}, {1, 2, 3, 4}}, []int32{1, 1})
	require.NoError(t, err)
	m.Densify10Node()
	// 6 + 6 edges with 3 shared: 9 unique mid nodes
	assert.Equal(t, 5+9, len(m.Nodes))
}
