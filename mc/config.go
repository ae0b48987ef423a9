package mc

import (
	"fmt"
	"runtime"
)

// Method selects the ray-tetrahedron tracing algorithm.
type Method string

const (
	MethodPlucker Method = "plucker"
	MethodBadouel Method = "badouel"
)

// Config is the immutable run configuration. A validated copy is passed by
// value into the engine; nothing in the package keeps module-level state.
type Config struct {
	Photons int64  // number of photon histories to launch
	Seed    uint64 // global RNG seed

	TStart float32 // start of the time-gate window (s)
	TEnd   float32 // end of the time-gate window (s)
	TStep  float32 // time-gate width (s)
	MaxGate int    // number of time gates; computed by Validate

	MinEnergy    float32 // weight threshold that triggers Russian roulette
	RouletteSize float32 // 1/RouletteSize survival probability, weight boost factor

	Reflect  bool    // apply Fresnel reflection at refractive-index mismatches
	Specular bool    // probabilistic specular reflection on first void→medium entry
	VoidTime bool    // clock runs while traversing background (tag 0) elements
	Nout     float32 // refractive index of the space outside the mesh

	BasisOrder int    // 0 = piecewise-constant (per element), 1 = linear (per node)
	Method     Method // tracer implementation
	Workers    int    // worker goroutines; 0 = runtime.NumCPU()
	UnitInMM   float32 // mesh length unit in mm; scales mua/mus at validation

	SaveDet  bool // record detected photons
	SaveExit bool // include exit position/direction in detector records
	SaveSeed bool // include launch RNG seed in detector records (enables replay)
	Momentum bool // accumulate per-medium momentum transfer

	Normalize bool // convert raw deposits to fluence after the run
}

// DefaultConfig returns the standard run defaults.
func DefaultConfig() Config {
	return Config{
		Photons:      100000,
		Seed:         0x623F9A9E,
		TStart:       0,
		TEnd:         5e-9,
		TStep:        5e-9,
		MinEnergy:    1e-6,
		RouletteSize: 10,
		Reflect:      true,
		VoidTime:     true,
		Nout:         1,
		BasisOrder:   1,
		Method:       MethodPlucker,
		UnitInMM:     1,
		Normalize:    true,
	}
}

// Validate checks the configuration against the mesh and detector list and
// returns a completed copy (MaxGate filled in, flag dependencies resolved).
// The receiver is not modified.
func (c Config) Validate(mesh *Mesh, dets []Detector) (Config, error) {
	if c.Photons <= 0 {
		return c, fmt.Errorf("config: photon count must be positive, got %d", c.Photons)
	}
	if c.TStart > c.TEnd || c.TStep <= 0 {
		return c, fmt.Errorf("config: incorrect time gate settings tstart=%g tend=%g tstep=%g", c.TStart, c.TEnd, c.TStep)
	}
	if c.TStep > c.TEnd-c.TStart {
		c.TStep = c.TEnd - c.TStart
	}
	c.MaxGate = int((c.TEnd-c.TStart)/c.TStep + 0.5)
	if c.MaxGate < 1 {
		c.MaxGate = 1
	}
	if c.RouletteSize <= 1 {
		return c, fmt.Errorf("config: roulette size must be > 1, got %g", c.RouletteSize)
	}
	if c.MinEnergy < 0 || c.MinEnergy >= 1 {
		return c, fmt.Errorf("config: min energy must be in [0,1), got %g", c.MinEnergy)
	}
	if c.BasisOrder != 0 && c.BasisOrder != 1 {
		return c, fmt.Errorf("config: basis order must be 0 or 1, got %d", c.BasisOrder)
	}
	if c.Method == "" {
		c.Method = MethodPlucker
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Nout <= 0 {
		c.Nout = 1
	}
	if c.UnitInMM <= 0 {
		c.UnitInMM = 1
	}
	if len(dets) == 0 {
		c.SaveDet = false
	}
	if !c.SaveDet {
		// exit/seed/momentum records only exist inside detector records
		c.SaveExit = false
		c.SaveSeed = false
		c.Momentum = false
	}
	if mesh == nil || len(mesh.Elems) == 0 {
		return c, fmt.Errorf("config: a populated mesh is required")
	}
	return c, nil
}
