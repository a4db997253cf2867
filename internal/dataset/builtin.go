package dataset

import (
	"math"
	"math/rand"
)

const (
	builtinSeed      = 569
	builtinMalignant = 212
	builtinBenign    = 357
)

// classStats guarda média e desvio das 10 colunas "mean *" por classe. Os mínimos ficam em lowerBounds.
type classStats struct {
	mean [10]float64
	std  [10]float64
}

var (
	malignantStats = classStats{
		mean: [10]float64{17.463, 21.605, 115.365, 978.376, 0.10290, 0.14519, 0.16077, 0.08799, 0.19291, 0.06268},
		std:  [10]float64{3.204, 3.779, 21.855, 367.938, 0.01261, 0.05399, 0.07502, 0.03435, 0.02757, 0.00757},
	}
	benignStats = classStats{
		mean: [10]float64{12.146, 17.915, 78.075, 462.790, 0.09248, 0.08008, 0.04606, 0.02572, 0.17419, 0.06287},
		std:  [10]float64{1.780, 3.995, 11.807, 134.287, 0.01343, 0.03375, 0.04345, 0.01591, 0.02481, 0.00675},
	}
	lowerBounds = [10]float64{6.981, 9.71, 43.79, 143.5, 0.05263, 0.01938, 0, 0, 0.106, 0.04996}
	errorRatio  = [10]float64{0.029, 0.063, 0.031, 0.062, 0.073, 0.245, 0.36, 0.24, 0.113, 0.06}
	worstRatio  = [10]float64{1.15, 1.33, 1.17, 1.34, 1.37, 2.44, 3.06, 2.34, 1.60, 1.34}
)

// Synthetic gera um conjunto com o esquema e o balanço de classes do WDBC (569 amostras,
// 30 colunas, 0 = maligno, 1 = benigno) a partir das médias e desvios publicados por classe.
// As colunas "error" e "worst" são aproximações. A semente é fixa, então o resultado é sempre o mesmo.
func Synthetic() *Dataset {
	rng := rand.New(rand.NewSource(builtinSeed))
	n := builtinMalignant + builtinBenign
	ds := &Dataset{
		FeatureNames: append([]string(nil), FeatureNames...),
		X:            make([][]float64, 0, n),
		Y:            make([]int, 0, n),
	}
	for i := 0; i < builtinMalignant; i++ {
		ds.X = append(ds.X, sample(rng, &malignantStats))
		ds.Y = append(ds.Y, Malignant)
	}
	for i := 0; i < builtinBenign; i++ {
		ds.X = append(ds.X, sample(rng, &benignStats))
		ds.Y = append(ds.Y, Benign)
	}
	rng.Shuffle(n, func(i, j int) {
		ds.X[i], ds.X[j] = ds.X[j], ds.X[i]
		ds.Y[i], ds.Y[j] = ds.Y[j], ds.Y[i]
	})
	return ds
}

func sample(rng *rand.Rand, st *classStats) []float64 {
	m := make([]float64, 10)

	// raio, perímetro e área variam juntos
	r := math.Max(st.mean[0]+st.std[0]*rng.NormFloat64(), lowerBounds[0])
	m[0] = r
	m[2] = r * (st.mean[2] / st.mean[0]) * (1 + 0.02*rng.NormFloat64())
	areaScale := st.mean[3] / (st.mean[0]*st.mean[0] + st.std[0]*st.std[0])
	m[3] = r * r * areaScale * (1 + 0.04*rng.NormFloat64())

	// compacidade, concavidade e pontos côncavos compartilham um fator latente
	shape := rng.NormFloat64()
	for _, k := range []int{5, 6, 7} {
		m[k] = st.mean[k] + st.std[k]*(0.8*shape+0.6*rng.NormFloat64())
	}
	for _, k := range []int{1, 4, 8, 9} {
		m[k] = st.mean[k] + st.std[k]*rng.NormFloat64()
	}
	for k := range m {
		m[k] = math.Max(m[k], lowerBounds[k])
	}

	row := make([]float64, 30)
	copy(row, m)
	for k := 0; k < 10; k++ {
		row[10+k] = math.Abs(m[k] * errorRatio[k] * (1 + 0.3*rng.NormFloat64()))
		row[20+k] = math.Max(m[k]*worstRatio[k]*(1+0.08*rng.NormFloat64()), m[k])
	}
	return row
}
