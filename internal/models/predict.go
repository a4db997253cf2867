package models

import (
	"fmt"
	"math"

	"diagnostico/internal/dataset"
)

// Prediction é a resposta de uma classificação individual.
type Prediction struct {
	Label         int        `json:"prediction"`
	Probabilities [2]float64 `json:"probabilities"`
	Message       string     `json:"message"`
}

// Message traduz o rótulo para o texto exibido ao cliente.
func Message(label int) string {
	if label == dataset.Malignant {
		return "Maligno"
	}
	return "Benigno"
}

// Classify roda Predict e PredictProba sobre uma única linha.
func Classify(m Model, x []float64) (Prediction, error) {
	out, err := ClassifyBatch(m, [][]float64{x})
	if err != nil {
		return Prediction{}, err
	}
	return out[0], nil
}

// ClassifyBatch classifica várias linhas com uma chamada de Predict e uma de PredictProba.
func ClassifyBatch(m Model, X [][]float64) ([]Prediction, error) {
	labels, err := m.Predict(X)
	if err != nil {
		return nil, err
	}
	ps, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(X) || len(ps) != len(X) {
		return nil, fmt.Errorf("%s devolveu %d rótulos e %d probabilidades para %d linhas", m.Name(), len(labels), len(ps), len(X))
	}
	out := make([]Prediction, len(X))
	for i, label := range labels {
		if label != dataset.Malignant && label != dataset.Benign {
			return nil, fmt.Errorf("%s devolveu rótulo inesperado %d", m.Name(), label)
		}
		if p := ps[i]; math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%s devolveu probabilidade inválida %v na linha %d", m.Name(), p, i)
		}
		out[i] = Prediction{
			Label:         label,
			Probabilities: [2]float64{1 - ps[i], ps[i]},
			Message:       Message(label),
		}
	}
	return out, nil
}
