// Plots the two circular angular momentum references against energy: the
// rotation curve inversion used by the decomposition and the energy
// quantile estimate. Large disagreement between the two usually means the
// rotation curve bins are too noisy for the energy inversion and the
// by-radius mode should be used instead.
package main

import (
	"log"
	"math"
	"os"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/phil-mansfield/table"

	"github.com/halosim/galkin/decomp"
	"github.com/halosim/galkin/snap"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Required file use: $ %s snapshot", os.Args[0])
	}

	s, err := readSnapshot(os.Args[1])
	if err != nil { log.Fatal(err.Error()) }

	pro, err := decomp.Decomp(s, decomp.DefaultParams())
	if err != nil { log.Fatal(err.Error()) }

	qPro, err := decomp.EstimateJCircFromEnergy(s, 500, 0.99)
	if err != nil { log.Fatal(err.Error()) }

	qJ := make([]float64, qPro.Len())
	for b := range qPro.Q { qJ[b] = math.Sqrt(qPro.Q[b]) }

	plt.Reset()
	plt.Plot(pro.ECirc, pro.JCirc, "r", plt.LW(3))
	plt.Plot(qPro.X, qJ, "ok")
	plt.Show()
}

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
