package mc

import "math"

// logRNGMax substitutes for -ln(0) when a uniform draw lands exactly on
// zero, keeping sampled scattering lengths finite.
const logRNGMax = 22.1807097779182

// Seed is the complete, fixed-size state of a Stream. Saving a photon's
// Seed at launch and later restoring it reproduces the photon's entire
// trajectory bit for bit.
type Seed [2]uint64

// Stream is a per-worker pseudorandom generator (xorshift128+) producing
// the physically-meaningful draws the transport loop consumes.
//
// Two streams seeded with the same (globalSeed, index) pair produce
// bit-identical sequences. A Stream is exclusively owned by one worker and
// must never be shared.
type Stream struct {
	s Seed
}

// splitmix64 is the seed expander; it turns correlated seed inputs into
// well-distributed initial states.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// NewStream creates a stream derived deterministically from a global seed
// and a stream index (worker id or photon id).
func NewStream(globalSeed, index uint64) *Stream {
	rs := &Stream{}
	rs.Reseed(globalSeed, index)
	return rs
}

// Reseed re-derives the stream state from (globalSeed, index). Reseeding a
// worker's stream with the photon index makes a photon's trajectory
// independent of how photons are partitioned across workers.
func (rs *Stream) Reseed(globalSeed, index uint64) {
	h := splitmix64(globalSeed ^ index*0x9e3779b97f4a7c15)
	rs.s[0] = splitmix64(h)
	rs.s[1] = splitmix64(h ^ 0xda3e39cb94b95bdb)
	if rs.s[0] == 0 && rs.s[1] == 0 {
		// all-zero is the one forbidden xorshift state
		rs.s[0] = 0x9e3779b97f4a7c15
	}
}

// State returns a copy of the stream state, suitable for later Restore.
func (rs *Stream) State() Seed { return rs.s }

// Restore rewinds the stream to a previously captured state.
func (rs *Stream) Restore(seed Seed) { rs.s = seed }

func (rs *Stream) next() uint64 {
	x := rs.s[0]
	y := rs.s[1]
	rs.s[0] = y
	x ^= x << 23
	x ^= x >> 17
	x ^= y ^ (y >> 26)
	rs.s[1] = x
	return x + y
}

// Uniform01 returns a uniform draw in [0,1) with 24 bits of precision,
// matching the single-precision arithmetic of the transport loop.
func (rs *Stream) Uniform01() float32 {
	return float32(rs.next()>>40) * (1.0 / (1 << 24))
}

// NextScatterLength draws a dimensionless scattering length -ln(u). The
// u==0 edge case maps to a large fixed constant instead of +Inf.
func (rs *Stream) NextScatterLength() float32 {
	u := rs.Uniform01()
	if u == 0 {
		return logRNGMax
	}
	return float32(-math.Log(float64(u)))
}

// NextAzimuth draws the uniform variate for the next azimuthal angle.
func (rs *Stream) NextAzimuth() float32 { return rs.Uniform01() }

// NextZenith draws the uniform variate for the next zenith angle.
func (rs *Stream) NextZenith() float32 { return rs.Uniform01() }

// NextReflect draws the variate for the Fresnel reflection test.
func (rs *Stream) NextReflect() float32 { return rs.Uniform01() }

// NextRoulette draws the variate for the Russian roulette survival test.
func (rs *Stream) NextRoulette() float32 { return rs.Uniform01() }
