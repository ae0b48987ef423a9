package mc

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Stats holds run-wide tallies reduced from all workers.
type Stats struct {
	LaunchedWeight float64 // total launched weight (photon count for unit sources)
	AbsorbedWeight float64 // total weight deposited into the mesh
	ExitedWeight   float64 // total weight carried out through boundary faces
	ResidualWeight float64 // weight of photons terminated at the time cutoff or abandoned

	Absorbed int64 // photons terminated by roulette
	Exited   int64 // photons that left the mesh
	TimedOut int64 // photons that outlived the last time gate
	TraceFailures     int64 // photons abandoned after tracer retries
	RayTetTests       int64 // ray-tetrahedron traces performed (diagnostics)
	DroppedDetections int64 // detections lost to full per-worker buffers
}

// Result is the merged output of a run: the time-gated fluence field, the
// detection table and the run statistics.
type Result struct {
	Fluence    *Accumulator // [spatial × MaxGate]; raw deposits until normalized
	Detections []DetRecord
	Stats      Stats

	MaxGate    int
	TStep      float32
	Normalized bool
}

// AbsorbedFraction returns the fraction of launched energy absorbed in the
// mesh.
func (r *Result) AbsorbedFraction() float64 {
	if r.Stats.LaunchedWeight == 0 {
		return 0
	}
	return r.Stats.AbsorbedWeight / r.Stats.LaunchedWeight
}

// Seeds extracts the launch seeds of detected photons, optionally filtered
// to a single detector (det < 0 keeps all), paired with their exit
// weights. The two slices feed Engine.Replay.
func (r *Result) Seeds(det int) ([]Seed, []float32) {
	var seeds []Seed
	var weights []float32
	for _, rec := range r.Detections {
		if det >= 0 && rec.Detector != det {
			continue
		}
		seeds = append(seeds, rec.Seed)
		weights = append(weights, rec.Weight)
	}
	return seeds, weights
}

// NormalizeFluence converts raw deposited energy to fluence:
// Φ = E / (μa · V · Δt · E_launched), per element for the constant basis
// and per node (with volume-weighted mean μa over incident elements) for
// the linear basis. Regions with zero absorption are left as raw deposits.
func (r *Result) NormalizeFluence(mesh *Mesh, media []Medium, cfg Config) {
	if r.Normalized || r.Stats.LaunchedWeight == 0 {
		return
	}
	scale := 1 / (float64(cfg.TStep) * r.Stats.LaunchedWeight)
	if cfg.BasisOrder == 0 {
		for e := range mesh.Elems {
			mua := float64(media[mesh.Tags[e]].Mua)
			den := mua * float64(mesh.EVol[e])
			if den <= 0 {
				continue
			}
			for g := 0; g < r.MaxGate; g++ {
				r.Fluence.Data[e*r.MaxGate+g] *= scale / den
			}
		}
	} else {
		// volume-weighted mean absorption per node
		nmua := make([]float64, len(mesh.Nodes))
		for e, el := range mesh.Elems {
			if mesh.Tags[e] <= 0 {
				continue
			}
			w := float64(mesh.EVol[e]) * 0.25 * float64(media[mesh.Tags[e]].Mua)
			for _, n := range el {
				nmua[n] += w
			}
		}
		for n := range mesh.Nodes {
			// nmua is the volume integral of μa over the nodal volume, which
			// is exactly the μ̄a·V denominator
			den := nmua[n]
			if den <= 0 {
				continue
			}
			for g := 0; g < r.MaxGate; g++ {
				r.Fluence.Data[n*r.MaxGate+g] *= scale / den
			}
		}
	}
	r.Normalized = true
}

// Print logs a human-readable summary, in the spirit of the simulator's
// end-of-run report.
func (r *Result) Print() {
	fmt.Println("=== Transport Statistics ===")
	fmt.Printf("Launched weight      : %.1f\n", r.Stats.LaunchedWeight)
	fmt.Printf("Absorbed fraction    : %.4f\n", r.AbsorbedFraction())
	fmt.Printf("Exited weight        : %.1f\n", r.Stats.ExitedWeight)
	fmt.Printf("Detected photons     : %d (%d dropped)\n", len(r.Detections), r.Stats.DroppedDetections)
	fmt.Printf("Ray-tet tests        : %d\n", r.Stats.RayTetTests)
	fmt.Printf("Trace failures       : %d\n", r.Stats.TraceFailures)
	if len(r.Detections) > 0 {
		ws := make([]float64, len(r.Detections))
		for i, d := range r.Detections {
			ws[i] = float64(d.Weight)
		}
		mean, std := stat.MeanStdDev(ws, nil)
		fmt.Printf("Detected weight      : mean %.4g, stddev %.4g\n", mean, std)
	}
}
