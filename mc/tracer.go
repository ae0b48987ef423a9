package mc

import "fmt"

// Tie-break policy for rays degenerate with respect to a face: nudge the
// photon by fixPhoton of the local scale toward the element centroid and
// retry, at most maxTrial times.
const (
	maxTrial  = 3
	fixPhoton = 1e-3
)

// Exit describes how a ray leaves a tetrahedron.
type Exit struct {
	Face  int     // local face index (0..3) the ray crosses
	Point Vec3    // exit point on that face
	Dist  float32 // distance along the ray to the exit point, always >= 0
}

// RayTracer resolves the exit face of a ray starting inside an element.
// Implementations are interchangeable and selected at configuration time.
//
// TraceToExit returns ok=false when the ray remains degenerate after the
// retry budget; the caller abandons the photon (a counted anomaly, never a
// run failure).
type RayTracer interface {
	TraceToExit(eid int32, pos, dir Vec3) (Exit, bool)
	// FaceNormal returns the unit outward normal of a local face, used for
	// the reflection/refraction split at medium interfaces.
	FaceNormal(eid int32, face int) Vec3
}

// NewTracer builds the tracer implementation named by method
// ("plucker" or "badouel").
func NewTracer(method Method, mesh *Mesh) (RayTracer, error) {
	switch method {
	case MethodPlucker:
		return NewPluckerTracer(mesh), nil
	case MethodBadouel:
		return NewBadouelTracer(mesh), nil
	default:
		return nil, fmt.Errorf("tracer: unknown method %q", method)
	}
}

// orientFaces returns the four faces of element eid wound so that their
// right-hand normals point out of the element.
func orientFaces(m *Mesh, eid int32) [4][3]int32 {
	el := m.Elems[eid]
	var faces [4][3]int32
	for f, fo := range faceOrder {
		a, b, c := el[fo[0]], el[fo[1]], el[fo[2]]
		opp := el[3-f] // the node not on face f
		n := m.Nodes[b].Sub(m.Nodes[a]).Cross(m.Nodes[c].Sub(m.Nodes[a]))
		if n.Dot(m.Nodes[opp].Sub(m.Nodes[a])) > 0 {
			b, c = c, b
		}
		faces[f] = [3]int32{a, b, c}
	}
	return faces
}

// nudge moves p a small step toward the element centroid, lifting it off a
// degenerate face, edge or vertex.
func nudge(m *Mesh, eid int32, p Vec3) Vec3 {
	return p.Add(m.Centroid(eid).Sub(p).Scale(fixPhoton))
}

// === Badouel tracer ===

// BadouelTracer finds the exit face by intersecting the ray with the four
// outward-oriented face planes and keeping the nearest positive crossing.
type BadouelTracer struct {
	mesh    *Mesh
	faces   [][4][3]int32 // per element, outward-wound face nodes
	normals [][4]Vec3     // per element, unit outward face normals
}

func NewBadouelTracer(m *Mesh) *BadouelTracer {
	t := &BadouelTracer{
		mesh:    m,
		faces:   make([][4][3]int32, len(m.Elems)),
		normals: make([][4]Vec3, len(m.Elems)),
	}
	for i := range m.Elems {
		t.faces[i] = orientFaces(m, int32(i))
		for f, fn := range t.faces[i] {
			a, b, c := m.Nodes[fn[0]], m.Nodes[fn[1]], m.Nodes[fn[2]]
			t.normals[i][f] = b.Sub(a).Cross(c.Sub(a)).Normalize()
		}
	}
	return t
}

// FaceNormal returns the unit outward normal of local face f of element eid.
func (t *BadouelTracer) FaceNormal(eid int32, f int) Vec3 { return t.normals[eid][f] }

func (t *BadouelTracer) TraceToExit(eid int32, pos, dir Vec3) (Exit, bool) {
	p := pos
	for trial := 0; trial < maxTrial; trial++ {
		bestFace := -1
		bestDist := float32(0)
		for f := 0; f < 4; f++ {
			n := t.normals[eid][f]
			den := dir.Dot(n)
			if den <= 0 {
				// moving parallel to or away from this face plane
				continue
			}
			a := t.mesh.Nodes[t.faces[eid][f][0]]
			d := a.Sub(p).Dot(n) / den
			if d < 0 {
				d = 0
			}
			if bestFace < 0 || d < bestDist {
				bestFace, bestDist = f, d
			}
		}
		if bestFace >= 0 {
			return Exit{Face: bestFace, Point: p.Add(dir.Scale(bestDist)), Dist: bestDist}, true
		}
		p = nudge(t.mesh, eid, p)
	}
	return Exit{}, false
}

// === Plücker tracer ===

// PluckerTracer classifies the exit face with permuted inner products of
// the ray's Plücker coordinates against each face's edge lines, then
// interpolates the exit point from the products themselves.
type PluckerTracer struct {
	mesh  *Mesh
	faces [][4][3]int32
}

func NewPluckerTracer(m *Mesh) *PluckerTracer {
	t := &PluckerTracer{mesh: m, faces: make([][4][3]int32, len(m.Elems))}
	for i := range m.Elems {
		t.faces[i] = orientFaces(m, int32(i))
	}
	return t
}

// FaceNormal returns the unit outward normal of local face f of element eid.
func (t *PluckerTracer) FaceNormal(eid int32, f int) Vec3 {
	fn := t.faces[eid][f]
	a, b, c := t.mesh.Nodes[fn[0]], t.mesh.Nodes[fn[1]], t.mesh.Nodes[fn[2]]
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// side computes the permuted inner product of the ray (u, v=pos×dir·...)
// with the directed edge a→b.
func pluckerSide(dir, moment, a, b Vec3) float32 {
	e := b.Sub(a)
	em := a.Cross(b)
	return dir.Dot(em) + moment.Dot(e)
}

func (t *PluckerTracer) TraceToExit(eid int32, pos, dir Vec3) (Exit, bool) {
	p := pos
	for trial := 0; trial < maxTrial; trial++ {
		moment := p.Cross(dir)
		for f := 0; f < 4; f++ {
			fn := t.faces[eid][f]
			a, b, c := t.mesh.Nodes[fn[0]], t.mesh.Nodes[fn[1]], t.mesh.Nodes[fn[2]]
			// For an outward-wound face an outward crossing makes all
			// three products non-negative; the entry face comes out all
			// non-positive and is skipped naturally.
			w0 := pluckerSide(dir, moment, a, b)
			w1 := pluckerSide(dir, moment, b, c)
			w2 := pluckerSide(dir, moment, c, a)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			if w0 == 0 && w1 == 0 && w2 == 0 {
				// ray lies in the face plane
				continue
			}
			sum := w0 + w1 + w2
			// barycentric weights on the face: product opposite each vertex
			u0 := w1 / sum
			u1 := w2 / sum
			u2 := w0 / sum
			exit := a.Scale(u0).Add(b.Scale(u1)).Add(c.Scale(u2))
			d := exit.Sub(p).Dot(dir)
			if d < 0 {
				d = 0
			}
			return Exit{Face: f, Point: exit, Dist: d}, true
		}
		p = nudge(t.mesh, eid, p)
	}
	return Exit{}, false
}
