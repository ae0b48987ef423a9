// Package mc implements a Monte Carlo photon transport engine on
// tetrahedral meshes.
//
// # Reading Guide
//
// Start with these three files to understand the transport kernel:
//   - photon.go: the per-photon state machine (launch → propagate →
//     face crossing → scatter → roulette → termination)
//   - tracer.go: ray–tetrahedron exit-face resolution (Plücker and
//     Badouel variants behind the RayTracer interface)
//   - engine.go: the worker pool, per-worker accumulation, and the
//     single-pass reduction that merges worker results
//
// # Architecture
//
// The mesh (mesh.go) and medium table (medium.go) are read-only for the
// whole run. Each worker owns a private random stream (rng.go), a private
// full-size accumulator (accumulator.go) and a capped detection buffer
// (detector.go); the only synchronization points are the final merges.
// Replay mode (replay.go) re-traces previously detected photons from their
// recorded stream seeds.
package mc
