package models

import "errors"

var ErrNotFitted = errors.New("modelo não treinado")

type Model interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
	PredictProba(X [][]float64) ([]float64, error)
	Name() string
}
