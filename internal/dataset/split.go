package dataset

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// TrainTestSplit embaralha as linhas com a semente dada e separa ceil(n*testSize) para teste.
func TrainTestSplit(d *Dataset, testSize float64, seed int64) (train, test *Dataset) {
	n := d.Len()
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest < 0 {
		nTest = 0
	}
	if nTest > n {
		nTest = n
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return d.Subset(perm[nTest:]), d.Subset(perm[:nTest])
}

// ClassMean é a média coluna a coluna das linhas com o rótulo dado.
func ClassMean(d *Dataset, label int) []float64 {
	out := make([]float64, len(d.FeatureNames))
	col := make([]float64, 0, d.Len())
	for j := range out {
		col = col[:0]
		for i, row := range d.X {
			if d.Y[i] == label {
				col = append(col, row[j])
			}
		}
		if len(col) == 0 {
			out[j] = math.NaN()
			continue
		}
		out[j] = stat.Mean(col, nil)
	}
	return out
}
