package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tetramc/tetramc/mc"
)

var (
	// CLI flags mapping onto the run configuration
	scenePath    string  // YAML scene description (mesh, media, source, detectors)
	photons      int64   // Number of photon histories
	seed         uint64  // Global RNG seed
	logLevel     string  // Log verbosity level
	tstart       float32 // Start of the time-gate window (s)
	tend         float32 // End of the time-gate window (s)
	tstep        float32 // Time-gate width (s)
	minEnergy    float32 // Weight threshold triggering Russian roulette
	rouletteSize float32 // Roulette survival boost factor
	reflect      bool    // Fresnel reflection at index mismatches
	specular     bool    // Probabilistic specular reflection on first entry
	voidTime     bool    // Clock runs in background elements
	basisOrder   int     // 0 = per-element, 1 = per-node accumulation
	method       string  // Ray tracer implementation
	workers      int     // Worker goroutines (0 = NumCPU)
	unitInMM     float32 // Mesh length unit in mm
	nout         float32 // Refractive index outside the mesh
	saveDet      bool    // Record detected photons
	saveExit     bool    // Include exit position/direction in records
	saveSeed     bool    // Include launch RNG seeds in records (enables replay)
	momentum     bool    // Accumulate per-medium momentum transfer
	normalize    bool    // Convert raw deposits to fluence
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "tetramc",
	Short: "Monte Carlo photon transport on tetrahedral meshes",
}

// runCmd executes a forward simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a forward photon transport simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if scenePath == "" {
			logrus.Fatalf("No scene file provided (--scene). Exiting.")
		}
		mesh, media, src, dets, err := LoadScene(scenePath)
		if err != nil {
			logrus.Fatalf("unable to load scene: %v", err)
		}

		cfg := mc.DefaultConfig()
		cfg.Photons = photons
		cfg.Seed = seed
		cfg.TStart = tstart
		cfg.TEnd = tend
		cfg.TStep = tstep
		cfg.MinEnergy = minEnergy
		cfg.RouletteSize = rouletteSize
		cfg.Reflect = reflect
		cfg.Specular = specular
		cfg.VoidTime = voidTime
		cfg.BasisOrder = basisOrder
		cfg.Method = mc.Method(method)
		cfg.Workers = workers
		cfg.UnitInMM = unitInMM
		cfg.Nout = nout
		cfg.SaveDet = saveDet
		cfg.SaveExit = saveExit
		cfg.SaveSeed = saveSeed
		cfg.Momentum = momentum
		cfg.Normalize = normalize

		engine, err := mc.New(cfg, mesh, media, src, dets)
		if err != nil {
			logrus.Fatalf("invalid simulation setup: %v", err)
		}

		logrus.Infof("Starting simulation: %d photons, %d elements, seed %#x",
			cfg.Photons, len(mesh.Elems), cfg.Seed)
		startTime := time.Now()

		res, err := engine.Run()
		if err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}

		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
		res.Print()
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenePath, "scene", "", "YAML scene file (mesh, media, source, detectors)")
	runCmd.Flags().Int64Var(&photons, "photons", 100000, "Number of photon histories to simulate")
	runCmd.Flags().Uint64Var(&seed, "seed", 0x623F9A9E, "Global RNG seed")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// time gating
	runCmd.Flags().Float32Var(&tstart, "tstart", 0, "Start of the time-gate window (s)")
	runCmd.Flags().Float32Var(&tend, "tend", 5e-9, "End of the time-gate window (s)")
	runCmd.Flags().Float32Var(&tstep, "tstep", 5e-9, "Time-gate width (s)")

	// transport physics
	runCmd.Flags().Float32Var(&minEnergy, "minenergy", 1e-6, "Minimum weight before Russian roulette")
	runCmd.Flags().Float32Var(&rouletteSize, "roulette-size", 10, "Russian roulette survival boost factor")
	runCmd.Flags().BoolVar(&reflect, "reflect", true, "Apply Fresnel reflection at refractive-index mismatches")
	runCmd.Flags().BoolVar(&specular, "specular", false, "Sample specular reflection on first medium entry")
	runCmd.Flags().BoolVar(&voidTime, "voidtime", true, "Count time of flight in background elements")
	runCmd.Flags().Float32Var(&nout, "nout", 1, "Refractive index outside the mesh")
	runCmd.Flags().Float32Var(&unitInMM, "unitinmm", 1, "Mesh length unit in millimeters")

	// discretization and execution
	runCmd.Flags().IntVar(&basisOrder, "basis-order", 1, "Accumulation basis: 0 per element, 1 per node")
	runCmd.Flags().StringVar(&method, "method", "plucker", "Ray tracer implementation (plucker, badouel)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (0 = all CPUs)")

	// outputs
	runCmd.Flags().BoolVar(&saveDet, "savedet", false, "Record detected photons")
	runCmd.Flags().BoolVar(&saveExit, "saveexit", false, "Record exit position/direction of detected photons")
	runCmd.Flags().BoolVar(&saveSeed, "saveseed", false, "Record launch RNG seeds of detected photons")
	runCmd.Flags().BoolVar(&momentum, "momentum", false, "Accumulate per-medium momentum transfer")
	runCmd.Flags().BoolVar(&normalize, "normalize", true, "Normalize raw deposits to fluence")

	rootCmd.AddCommand(runCmd)
}
