package mc

import (
	"fmt"
	"math"
)

// SourceType names a photon launch geometry. The subset here covers the
// launch patterns the transport loop consumes; wide-field types reduce to
// planar/pattern launches.
type SourceType string

const (
	SrcPencil    SourceType = "pencil"    // collimated: fixed position and direction
	SrcIsotropic SourceType = "isotropic" // point source, uniform over the sphere
	SrcCone      SourceType = "cone"      // uniform within a half-angle around Dir
	SrcPlanar    SourceType = "planar"    // uniform over the quad (Pos, Param1, Param2)
	SrcPattern   SourceType = "pattern"   // planar with a 2-D launch-weight pattern
)

// Source describes where and how photons enter the mesh.
type Source struct {
	Type SourceType
	Pos  Vec3 // launch position (pencil/isotropic/cone) or quad origin
	Dir  Vec3 // launch direction; must be unit length

	Param1 [4]float32 // cone: half-angle (rad) in [0]; planar/pattern: first edge vector in [0..2]
	Param2 [4]float32 // planar/pattern: second edge vector in [0..2]

	Pattern   []float32 // row-major PatternNx × PatternNy launch weights
	PatternNx int
	PatternNy int

	// InitElem is the element containing Pos (0-based); launches off the
	// quad are located starting from this hint.
	InitElem int32
}

// Validate checks source consistency against the mesh.
func (s *Source) Validate(mesh *Mesh) error {
	switch s.Type {
	case SrcPencil, SrcIsotropic, SrcCone, SrcPlanar, SrcPattern:
	default:
		return fmt.Errorf("source: unsupported type %q", s.Type)
	}
	d2 := s.Dir.Dot(s.Dir)
	if math.Abs(float64(d2)-1) > 1e-5 {
		return fmt.Errorf("source: direction must be a unit vector, |d|^2=%g", d2)
	}
	if s.Type == SrcPattern {
		if s.PatternNx <= 0 || s.PatternNy <= 0 || len(s.Pattern) != s.PatternNx*s.PatternNy {
			return fmt.Errorf("source: pattern dimensions %dx%d do not match %d weights",
				s.PatternNx, s.PatternNy, len(s.Pattern))
		}
	}
	if s.InitElem < 0 || int(s.InitElem) >= len(mesh.Elems) {
		return fmt.Errorf("source: initial element %d out of range", s.InitElem)
	}
	return nil
}

// Launch samples one photon's initial position, direction and weight.
func (s *Source) Launch(rs *Stream) (pos, dir Vec3, weight float32) {
	switch s.Type {
	case SrcIsotropic:
		ct := 2*rs.NextZenith() - 1
		phi := 2 * math.Pi * float64(rs.NextAzimuth())
		st := float32(math.Sqrt(float64(1 - ct*ct)))
		dir = Vec3{st * float32(math.Cos(phi)), st * float32(math.Sin(phi)), ct}
		return s.Pos, dir, 1
	case SrcCone:
		cmax := float32(math.Cos(float64(s.Param1[0])))
		ct := cmax + (1-cmax)*rs.NextZenith()
		phi := 2 * math.Pi * float64(rs.NextAzimuth())
		return s.Pos, rotateDir(s.Dir, ct, float32(phi)), 1
	case SrcPlanar, SrcPattern:
		u := rs.Uniform01()
		v := rs.Uniform01()
		v1 := Vec3{s.Param1[0], s.Param1[1], s.Param1[2]}
		v2 := Vec3{s.Param2[0], s.Param2[1], s.Param2[2]}
		pos = s.Pos.Add(v1.Scale(u)).Add(v2.Scale(v))
		weight = 1
		if s.Type == SrcPattern {
			ix := int(u * float32(s.PatternNx))
			iy := int(v * float32(s.PatternNy))
			if ix >= s.PatternNx {
				ix = s.PatternNx - 1
			}
			if iy >= s.PatternNy {
				iy = s.PatternNy - 1
			}
			weight = s.Pattern[iy*s.PatternNx+ix]
		}
		return pos, s.Dir, weight
	default: // pencil
		return s.Pos, s.Dir, 1
	}
}

// rotateDir rotates a unit direction by zenith cosine ct and azimuth phi
// about its own axis, the usual local-frame spin used by both source cones
// and scattering.
func rotateDir(d Vec3, ct, phi float32) Vec3 {
	st := float32(math.Sqrt(math.Max(0, float64(1-ct*ct))))
	sp, cp := math.Sincos(float64(phi))
	sinp, cosp := float32(sp), float32(cp)

	if d.Z > 0.99999 || d.Z < -0.99999 {
		// near-axial: the frame below degenerates
		sign := float32(1)
		if d.Z < 0 {
			sign = -1
		}
		return Vec3{st * cosp, st * sinp, sign * ct}
	}
	tmp := float32(math.Sqrt(float64(1 - d.Z*d.Z)))
	return Vec3{
		st*(d.X*d.Z*cosp-d.Y*sinp)/tmp + d.X*ct,
		st*(d.Y*d.Z*cosp+d.X*sinp)/tmp + d.Y*ct,
		-st*cosp*tmp + d.Z*ct,
	}.Normalize()
}
