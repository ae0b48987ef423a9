package mc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Engine runs photon histories over a mesh. The mesh, medium table, source
// and detector list are read-only for the lifetime of the engine; all
// mutable state lives in per-worker privates.
type Engine struct {
	cfg    Config
	mesh   *Mesh
	media  []Medium // validated, unit-scaled copy
	src    *Source
	dets   []Detector
	tracer RayTracer
}

// worker owns everything one goroutine needs to run photons without
// synchronization: a random stream, a private full-size accumulator, a
// capped detection buffer, scratch path accumulators and scalar tallies.
type worker struct {
	cfg    *Config
	mesh   *Mesh
	media  []Medium
	src    *Source
	dets   []Detector
	tracer RayTracer

	rs     *Stream
	accum  *Accumulator
	det    *detBuffer
	tscale float32 // time per unit path length, s/mesh-unit (before n)

	pathlen []float32
	mom     []float32

	replaySeeds  []Seed
	depositScale float64

	launched float64
	absorbed float64
	exited   float64
	residual float64

	raytet     int64
	nAbsorbed  int64
	nExited    int64
	nTimedOut  int64
	nTraceFail int64
}

// New validates the configuration, mesh, media, source and detectors and
// builds an engine. The media slice is copied and scaled by UnitInMM and is
// never mutated; validation does remap any negative detector-sentinel tags
// in mesh.Tags in place (see ValidateMedia).
func New(cfg Config, mesh *Mesh, media []Medium, src *Source, dets []Detector) (*Engine, error) {
	cfg, err := cfg.Validate(mesh, dets)
	if err != nil {
		return nil, err
	}
	media, err = ValidateMedia(mesh, media)
	if err != nil {
		return nil, err
	}
	if err := src.Validate(mesh); err != nil {
		return nil, err
	}
	if cfg.UnitInMM != 1 {
		scaled := make([]Medium, len(media))
		copy(scaled, media)
		for i := 1; i < len(scaled); i++ {
			scaled[i].Mua *= cfg.UnitInMM
			scaled[i].Mus *= cfg.UnitInMM
		}
		media = scaled
	}
	tracer, err := NewTracer(cfg.Method, mesh)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, mesh: mesh, media: media, src: src, dets: dets, tracer: tracer}, nil
}

// Config returns the validated configuration the engine runs with.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) newWorker() *worker {
	spatial := len(e.mesh.Nodes)
	if e.cfg.BasisOrder == 0 {
		spatial = len(e.mesh.Elems)
	}
	return &worker{
		cfg:          &e.cfg,
		mesh:         e.mesh,
		media:        e.media,
		src:          e.src,
		dets:         e.dets,
		tracer:       e.tracer,
		rs:           NewStream(e.cfg.Seed, 0),
		accum:        NewAccumulator(spatial, e.cfg.MaxGate),
		det:          newDetBuffer(),
		tscale:       e.cfg.UnitInMM * rc0,
		pathlen:      make([]float32, len(e.media)-1),
		mom:          make([]float32, len(e.media)-1),
		depositScale: 1,
	}
}

// Run launches the configured photon population across the worker pool
// and reduces the per-worker results into a single Result.
//
// Photons are partitioned into contiguous slices with the remainder spread
// over the first workers. A shared error flag provides cooperative
// cancellation: a worker that panics marks the run failed, every other
// worker finishes its in-flight photon and drains, and Run reports the
// failure instead of partial results.
func (e *Engine) Run() (*Result, error) {
	return e.run(e.cfg.Photons, nil, nil)
}

func (e *Engine) run(photons int64, seeds []Seed, weights []float32) (*Result, error) {
	nw := e.cfg.Workers
	if int64(nw) > photons {
		nw = int(photons)
	}
	workers := make([]*worker, nw)
	for i := range workers {
		workers[i] = e.newWorker()
		workers[i].replaySeeds = seeds
	}

	base := photons / int64(nw)
	rem := photons % int64(nw)

	var failed atomic.Bool
	var done atomic.Int64
	logEvery := photons / 10
	if logEvery == 0 {
		logEvery = 1
	}

	var wg sync.WaitGroup
	wg.Add(nw)
	start := int64(0)
	for i := 0; i < nw; i++ {
		n := base
		if int64(i) < rem {
			n++
		}
		w := workers[i]
		lo, hi := start, start+n
		start = hi
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.Errorf("worker failed: %v", r)
					failed.Store(true)
				}
			}()
			for id := lo; id < hi; id++ {
				if failed.Load() {
					return
				}
				if weights != nil {
					w.depositScale = float64(weights[id])
				}
				w.onePhoton(id)
				if c := done.Add(1); c%logEvery == 0 {
					logrus.Debugf("simulated %d/%d photons", c, photons)
				}
			}
		}()
	}
	wg.Wait()

	if failed.Load() {
		return nil, fmt.Errorf("engine: run aborted after worker failure")
	}

	// single-threaded reduction pass
	res := &Result{
		Fluence: workers[0].accum,
		MaxGate: e.cfg.MaxGate,
		TStep:   e.cfg.TStep,
	}
	for i, w := range workers {
		if i > 0 {
			res.Fluence.Merge(w.accum)
		}
		res.Detections = append(res.Detections, w.det.recs...)
		res.Stats.LaunchedWeight += w.launched
		res.Stats.AbsorbedWeight += w.absorbed
		res.Stats.ExitedWeight += w.exited
		res.Stats.ResidualWeight += w.residual
		res.Stats.RayTetTests += w.raytet
		res.Stats.Absorbed += w.nAbsorbed
		res.Stats.Exited += w.nExited
		res.Stats.TimedOut += w.nTimedOut
		res.Stats.TraceFailures += w.nTraceFail
		res.Stats.DroppedDetections += w.det.dropped
	}
	logrus.Infof("simulated %d photons: absorbed %.2f%%, %d detected, %d ray-tet tests",
		photons, 100*res.Stats.AbsorbedWeight/max(res.Stats.LaunchedWeight, 1e-30),
		len(res.Detections), res.Stats.RayTetTests)

	if e.cfg.Normalize {
		res.NormalizeFluence(e.mesh, e.media, e.cfg)
	}
	return res, nil
}
