package mc

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// Vec3 is a single-precision 3-D vector. All geometric and radiometric
// arithmetic in the engine is single precision; only accumulators are
// float64.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float32   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Norm() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns v scaled to unit length; the zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

func (v Vec3) DistTo(o Vec3) float32 { return v.Sub(o).Norm() }

// faceOrder lists the three local node indices of each of a tetrahedron's
// four faces. Face f is opposite local node 3-f.
var faceOrder = [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}

// edgePairs lists the six undirected edges of a tetrahedron by local node
// index, in the order mid-edge nodes are appended during densification.
var edgePairs = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

// boundary marks a face with no neighboring element.
const boundary int32 = -1

// Mesh is a static tetrahedral mesh. It is immutable during a simulation
// run and shared read-only by all workers.
type Mesh struct {
	Nodes  []Vec3     // node coordinates
	Elems  [][4]int32 // 0-based node indices per element
	Tags   []int32    // medium/region tag per element; 0 = background void
	FaceNb [][4]int32 // neighbor element per local face; boundary = -1
	Elem2  [][6]int32 // mid-edge node indices for 10-node elements (nil unless densified)

	EVol []float32 // element volumes
	NVol []float32 // nodal volumes (quarter of incident element volumes)
}

// NewMesh assembles a mesh from nodes, elements and per-element medium
// tags, builds the face-neighbor table and precomputes volumes.
func NewMesh(nodes []Vec3, elems [][4]int32, tags []int32) (*Mesh, error) {
	if len(nodes) == 0 || len(elems) == 0 {
		return nil, fmt.Errorf("mesh: need at least one node and one element (got %d nodes, %d elements)", len(nodes), len(elems))
	}
	if len(tags) != len(elems) {
		return nil, fmt.Errorf("mesh: %d medium tags for %d elements", len(tags), len(elems))
	}
	m := &Mesh{Nodes: nodes, Elems: elems, Tags: tags}
	for eid, el := range elems {
		for _, n := range el {
			if n < 0 || int(n) >= len(nodes) {
				return nil, fmt.Errorf("mesh: element %d references node %d out of range", eid, n)
			}
		}
	}
	if err := m.BuildFaceNeighbors(); err != nil {
		return nil, err
	}
	m.computeVolumes()
	return m, nil
}

type faceKey [3]int32

func sortedFace(a, b, c int32) faceKey {
	f := []int32{a, b, c}
	sort.Slice(f, func(i, j int) bool { return f[i] < f[j] })
	return faceKey{f[0], f[1], f[2]}
}

type faceOwner struct {
	elem int32
	face int8
}

// BuildFaceNeighbors constructs the face-neighbor table by keying each
// face on its sorted node triplet and pairing the two elements that share
// the identical triplet. A face with a single owner is a mesh boundary.
// The resulting relation is symmetric.
func (m *Mesh) BuildFaceNeighbors() error {
	owners := make(map[faceKey][]faceOwner, 2*len(m.Elems))
	for i, el := range m.Elems {
		for f, fo := range faceOrder {
			k := sortedFace(el[fo[0]], el[fo[1]], el[fo[2]])
			owners[k] = append(owners[k], faceOwner{elem: int32(i), face: int8(f)})
		}
	}
	m.FaceNb = make([][4]int32, len(m.Elems))
	for i := range m.FaceNb {
		m.FaceNb[i] = [4]int32{boundary, boundary, boundary, boundary}
	}
	nbound := 0
	for k, fs := range owners {
		switch len(fs) {
		case 1:
			nbound++
		case 2:
			m.FaceNb[fs[0].elem][fs[0].face] = fs[1].elem
			m.FaceNb[fs[1].elem][fs[1].face] = fs[0].elem
		default:
			return fmt.Errorf("mesh: face %v shared by %d elements", k, len(fs))
		}
	}
	logrus.Debugf("mesh: %d elements, %d boundary faces", len(m.Elems), nbound)
	return nil
}

// signedVolume6 returns six times the signed volume of tetrahedron (a,b,c,d).
func signedVolume6(a, b, c, d Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a))
}

func (m *Mesh) computeVolumes() {
	m.EVol = make([]float32, len(m.Elems))
	m.NVol = make([]float32, len(m.Nodes))
	for i, el := range m.Elems {
		v := signedVolume6(m.Nodes[el[0]], m.Nodes[el[1]], m.Nodes[el[2]], m.Nodes[el[3]]) / 6
		if v < 0 {
			v = -v
		}
		m.EVol[i] = v
		if m.Tags[i] <= 0 {
			continue
		}
		for _, n := range el {
			m.NVol[n] += v * 0.25
		}
	}
}

// Centroid returns the centroid of element eid.
func (m *Mesh) Centroid(eid int32) Vec3 {
	el := m.Elems[eid]
	c := m.Nodes[el[0]].Add(m.Nodes[el[1]]).Add(m.Nodes[el[2]]).Add(m.Nodes[el[3]])
	return c.Scale(0.25)
}

// Bary returns the barycentric coordinates of p with respect to element
// eid. Coordinates sum to 1; any negative component means p is outside.
func (m *Mesh) Bary(eid int32, p Vec3) [4]float32 {
	el := m.Elems[eid]
	a, b, c, d := m.Nodes[el[0]], m.Nodes[el[1]], m.Nodes[el[2]], m.Nodes[el[3]]
	v := signedVolume6(a, b, c, d)
	if v == 0 {
		return [4]float32{0.25, 0.25, 0.25, 0.25}
	}
	inv := 1 / v
	return [4]float32{
		signedVolume6(p, b, c, d) * inv,
		signedVolume6(a, p, c, d) * inv,
		signedVolume6(a, b, p, d) * inv,
		signedVolume6(a, b, c, p) * inv,
	}
}

// Contains reports whether p lies inside (or on the boundary of, within
// tolerance eps) element eid.
func (m *Mesh) Contains(eid int32, p Vec3, eps float32) bool {
	bc := m.Bary(eid, p)
	for _, w := range bc {
		if w < -eps {
			return false
		}
	}
	return true
}

// Locate finds the element containing p, trying the hint element first,
// then its face neighbors, then a full scan. Returns -1 when p is outside
// the mesh.
func (m *Mesh) Locate(p Vec3, hint int32) int32 {
	const eps = 1e-5
	if hint >= 0 && int(hint) < len(m.Elems) {
		if m.Contains(hint, p, eps) {
			return hint
		}
		for _, nb := range m.FaceNb[hint] {
			if nb != boundary && m.Contains(nb, p, eps) {
				return nb
			}
		}
	}
	for i := range m.Elems {
		if m.Contains(int32(i), p, eps) {
			return int32(i)
		}
	}
	return -1
}

// Densify10Node upgrades the mesh to quadratic (10-node) elements by
// inserting one node at the midpoint of every unique undirected edge.
// Element connectivity is unchanged beyond the appended mid-edge
// references in Elem2.
func (m *Mesh) Densify10Node() {
	type edge struct{ a, b int32 }
	index := make(map[edge]int32, 2*len(m.Nodes))
	m.Elem2 = make([][6]int32, len(m.Elems))
	for i, el := range m.Elems {
		for ed, pair := range edgePairs {
			n1, n2 := el[pair[0]], el[pair[1]]
			if n1 > n2 {
				n1, n2 = n2, n1
			}
			key := edge{n1, n2}
			mid, ok := index[key]
			if !ok {
				mid = int32(len(m.Nodes))
				index[key] = mid
				m.Nodes = append(m.Nodes, m.Nodes[n1].Add(m.Nodes[n2]).Scale(0.5))
			}
			m.Elem2[i][ed] = mid
		}
	}
	logrus.Debugf("mesh: densified to 10-node elements, %d mid-edge nodes added", len(index))
}

// cubeCorner offsets of a unit hexahedral cell, indexed by bitmask
// (bit0 = x, bit1 = y, bit2 = z).
var cubeCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
}

// kuhnTets splits a hexahedral cell into six tetrahedra that all share the
// 0–7 main diagonal, which keeps faces conforming across neighboring cells.
var kuhnTets = [6][4]int{
	{0, 1, 3, 7}, {0, 3, 2, 7}, {0, 2, 6, 7},
	{0, 6, 4, 7}, {0, 4, 5, 7}, {0, 5, 1, 7},
}

// NewCubeMesh builds a nx×ny×nz grid of unit cells of the given spacing,
// each split into six conforming tetrahedra, all tagged with the same
// medium tag. The mesh spans [0, nx*spacing] × [0, ny*spacing] ×
// [0, nz*spacing].
func NewCubeMesh(nx, ny, nz int, spacing float32, tag int32) (*Mesh, error) {
	if nx < 1 || ny < 1 || nz < 1 || spacing <= 0 {
		return nil, fmt.Errorf("mesh: invalid cube dimensions %dx%dx%d spacing %g", nx, ny, nz, spacing)
	}
	nodeID := func(i, j, k int) int32 {
		return int32((k*(ny+1)+j)*(nx+1) + i)
	}
	nodes := make([]Vec3, (nx+1)*(ny+1)*(nz+1))
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				nodes[nodeID(i, j, k)] = Vec3{float32(i) * spacing, float32(j) * spacing, float32(k) * spacing}
			}
		}
	}
	elems := make([][4]int32, 0, 6*nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				var corner [8]int32
				for c, off := range cubeCorners {
					corner[c] = nodeID(i+off[0], j+off[1], k+off[2])
				}
				for _, t := range kuhnTets {
					elems = append(elems, [4]int32{corner[t[0]], corner[t[1]], corner[t[2]], corner[t[3]]})
				}
			}
		}
	}
	tags := make([]int32, len(elems))
	for i := range tags {
		tags[i] = tag
	}
	return NewMesh(nodes, elems, tags)
}
