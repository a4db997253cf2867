package dataset

import (
	"errors"
	"fmt"
)

// Rótulos na codificação do conjunto Wisconsin Diagnostic Breast Cancer.
const (
	Malignant = 0
	Benign    = 1
)

var TargetNames = []string{"malignant", "benign"}

// FeatureNames segue a ordem canônica das 30 colunas do conjunto.
var FeatureNames = []string{
	"mean radius", "mean texture", "mean perimeter", "mean area", "mean smoothness",
	"mean compactness", "mean concavity", "mean concave points", "mean symmetry", "mean fractal dimension",
	"radius error", "texture error", "perimeter error", "area error", "smoothness error",
	"compactness error", "concavity error", "concave points error", "symmetry error", "fractal dimension error",
	"worst radius", "worst texture", "worst perimeter", "worst area", "worst smoothness",
	"worst compactness", "worst concavity", "worst concave points", "worst symmetry", "worst fractal dimension",
}

type Dataset struct {
	FeatureNames []string
	X            [][]float64
	Y            []int
}

func (d *Dataset) Len() int { return len(d.X) }

func (d *Dataset) Validate() error {
	if len(d.X) == 0 {
		return errors.New("dataset vazio")
	}
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("dataset inconsistente: %d linhas e %d rótulos", len(d.X), len(d.Y))
	}
	for i, row := range d.X {
		if len(row) != len(d.FeatureNames) {
			return fmt.Errorf("linha %d: esperadas %d colunas, obtidas %d", i, len(d.FeatureNames), len(row))
		}
	}
	for i, y := range d.Y {
		if y != Malignant && y != Benign {
			return fmt.Errorf("linha %d: rótulo inválido %d", i, y)
		}
	}
	return nil
}

// Select mantém apenas as colunas nomeadas, na ordem pedida.
func (d *Dataset) Select(names []string) (*Dataset, error) {
	pos := make(map[string]int, len(d.FeatureNames))
	for i, n := range d.FeatureNames {
		pos[n] = i
	}
	idx := make([]int, len(names))
	for i, n := range names {
		j, ok := pos[n]
		if !ok {
			return nil, fmt.Errorf("coluna ausente no dataset: %q", n)
		}
		idx[i] = j
	}
	out := &Dataset{
		FeatureNames: append([]string(nil), names...),
		X:            make([][]float64, len(d.X)),
		Y:            append([]int(nil), d.Y...),
	}
	for i, row := range d.X {
		v := make([]float64, len(idx))
		for k, j := range idx {
			v[k] = row[j]
		}
		out.X[i] = v
	}
	return out, nil
}

// Subset devolve as linhas indicadas, sem copiar os vetores.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		FeatureNames: d.FeatureNames,
		X:            make([][]float64, len(idx)),
		Y:            make([]int, len(idx)),
	}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Y[i] = d.Y[j]
	}
	return out
}

func (d *Dataset) ClassCounts() (malignant, benign int) {
	for _, y := range d.Y {
		if y == Benign {
			benign++
		} else {
			malignant++
		}
	}
	return
}
