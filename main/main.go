package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/phil-mansfield/table"
	"gopkg.in/gcfg.v1"

	"github.com/halosim/galkin/decomp"
	"github.com/halosim/galkin/snap"
)

const ExampleDecompConfig = `[Decomp]

#######################
# Optional Parameters #
#######################

# Band of j_z / j_circ inside which stars count as the thin disk.
# JDiskMin = 0.8
# JDiskMax = 1.1

# Energy boundary between the bulge and the halo, in the snapshot's specific
# energy units after the most energetic star has been shifted to zero. Leave
# unset to use the median stellar energy.
# ECut = -1.0e5

# Determine the circular angular momentum reference by radial bin membership
# instead of inverting the rotation curve in energy. Useful when the
# potential is too noisy for the energy inversion.
# JCircFromR = false

# Interpolate the rotation curve in log space. Requires a bound system.
# LogInterp = false

# Set if the snapshot is already centered with the disk in the xy plane.
# Aligned = false

# Radius (kpc) of the region whose angular momentum defines the disk axis
# during alignment.
# AngMomSize = 3

# Approximate number of particles in each rotation curve bin.
# ParticlesPerBin = 500

# Outer radius (kpc) of the disc subset the rotation curve is measured in.
# DiscRadius = 1000

# Write progress output to a file instead of stderr.
# LogFile = log.out`

type Config struct {
	Decomp DecompConfig
}

type DecompConfig struct {
	JDiskMin, JDiskMax float64
	ECut string
	JCircFromR, LogInterp, Aligned bool
	AngMomSize float64
	ParticlesPerBin int
	DiscRadius float64
	LogFile string
}

func defaultConfig() *Config {
	p := decomp.DefaultParams()
	return &Config{Decomp: DecompConfig{
		JDiskMin: p.JDiskMin,
		JDiskMax: p.JDiskMax,
		AngMomSize: p.AngMomSize,
		ParticlesPerBin: p.ParticlesPerBin,
		DiscRadius: p.DiscRadius,
	}}
}

func (c *DecompConfig) params() (decomp.Params, error) {
	p := decomp.DefaultParams()
	p.Aligned = c.Aligned
	p.JDiskMin, p.JDiskMax = c.JDiskMin, c.JDiskMax
	p.JCircFromR, p.LogInterp = c.JCircFromR, c.LogInterp
	p.AngMomSize = c.AngMomSize
	p.ParticlesPerBin = c.ParticlesPerBin
	p.DiscRadius = c.DiscRadius

	p.ECut = math.NaN()
	if c.ECut != "" {
		eCut, err := strconv.ParseFloat(c.ECut, 64)
		if err != nil {
			return p, fmt.Errorf("cannot parse ECut %q: %v", c.ECut, err)
		}
		p.ECut = eCut
	}
	return p, nil
}

func main() {
	var decompStr, exampleConfig string

	flag.StringVar(
		&decompStr, "Decomp", "",
		"Configuration file for [Decomp] mode, followed by the snapshot "+
			"table to decompose.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. The only accepted argument is 'Decomp'.",
	)

	flag.Parse()

	switch {
	case exampleConfig != "":
		if exampleConfig != "Decomp" {
			log.Fatalf("Unrecognized config type '%s'.", exampleConfig)
		}
		fmt.Println(ExampleDecompConfig)
	case decompStr != "":
		decompMain(decompStr, flag.Args())
	default:
		log.Fatal("Either -Decomp or -ExampleConfig must be given.")
	}
}

func decompMain(configFile string, args []string) {
	if len(args) != 1 {
		log.Fatalf("Required use: $ %s -Decomp config snapshot", os.Args[0])
	}

	con := defaultConfig()
	err := gcfg.ReadFileInto(con, configFile)
	if err != nil { log.Fatal(err.Error()) }

	if con.Decomp.LogFile != "" {
		f, err := os.Create(con.Decomp.LogFile)
		if err != nil { log.Fatal(err.Error()) }
		defer f.Close()
		log.SetOutput(f)
	}

	s, err := readSnapshot(args[0])
	if err != nil { log.Fatal(err.Error()) }

	p, err := con.Decomp.params()
	if err != nil { log.Fatal(err.Error()) }

	pro, err := decomp.Decomp(s, p)
	if err != nil { log.Fatal(err.Error()) }

	printSummary(s)

	fmt.Println(asciigraph.Plot(
		pro.VCirc,
		asciigraph.Height(15),
		asciigraph.Caption("v_circ [km/s] per radial bin"),
	))
}

// readSnapshot reads a particle table with the columns
// x y z vx vy vz mass eps phi star, positions in kpc, velocities in km/s,
// masses in 1e10 Msun and star as a 0/1 flag.
func readSnapshot(file string) (*snap.Snapshot, error) {
	colIdxs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	cols, err := table.ReadTable(file, colIdxs, nil)
	if err != nil { return nil, err }

	n := len(cols[0])
	s := snap.New(n)
	for i := 0; i < n; i++ {
		s.X[i] = [3]float64{cols[0][i], cols[1][i], cols[2][i]}
		s.V[i] = [3]float64{cols[3][i], cols[4][i], cols[5][i]}
		s.Mass[i] = cols[6][i]
		s.Eps[i] = cols[7][i]
		s.Phi[i] = cols[8][i]
		s.IsStar[i] = cols[9][i] != 0
	}
	return s, nil
}

func printSummary(s *snap.Snapshot) {
	stars := s.Stars()
	counts := map[decomp.Component]int{}
	mass := map[decomp.Component]float64{}
	mTot := 0.0
	for _, i := range stars {
		c := decomp.Component(s.Decomp[i])
		counts[c]++
		mass[c] += s.Mass[i]
		mTot += s.Mass[i]
	}

	fmt.Printf("%d star particles\n", len(stars))
	for _, c := range decomp.Components {
		fmt.Printf(
			"%-12s %8d particles  %5.1f%% of stellar mass\n",
			c, counts[c], 100*mass[c]/mTot,
		)
	}
}
