package features

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"diagnostico/internal/dataset"
)

// Names são os 10 campos exigidos em cada requisição: as primeiras 10 colunas do dataset.
var Names = append([]string(nil), dataset.FeatureNames[:10]...)

// MissingError lista todos os campos obrigatórios ausentes, na ordem de Names.
type MissingError struct {
	Missing []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("faltam características obrigatórias: %s; esperadas: %s",
		strings.Join(e.Missing, ", "), strings.Join(Names, ", "))
}

// ValueError indica um campo presente cujo valor não pôde ser convertido em número.
type ValueError struct {
	Field string
	Value any
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("não foi possível converter %q em número: %v", e.Field, e.Value)
}

// Vectorize monta a linha de entrada do modelo a partir do corpo JSON decodificado.
// Campos extras são ignorados.
func Vectorize(body map[string]any) ([]float64, error) {
	var missing []string
	for _, n := range Names {
		if _, ok := body[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Missing: missing}
	}

	vec := make([]float64, len(Names))
	for i, n := range Names {
		v, err := toFloat(body[n])
		if err != nil {
			return nil, &ValueError{Field: n, Value: body[n]}
		}
		vec[i] = v
	}
	return vec, nil
}

// Map é o inverso de Vectorize, usado para montar corpos de requisição.
func Map(vec []float64) map[string]any {
	out := make(map[string]any, len(Names))
	for i, n := range Names {
		if i < len(vec) {
			out[n] = vec[i]
		}
	}
	return out
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("tipo não numérico %T", v)
	}
}
