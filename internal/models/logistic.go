package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression é um classificador binário linear. O treino minimiza
// 0.5*||w||² + C*Σ logloss com L-BFGS; o intercepto não é penalizado.
type LogisticRegression struct {
	C           float64
	MaxIter     int
	Tol         float64
	Standardize bool

	Coef      []float64
	Intercept float64
	Scaler    *StandardScaler
	NIter     int
	Converged bool
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1.0, MaxIter: 5000, Tol: 1e-4, Standardize: true}
}

func (lr *LogisticRegression) Name() string { return "LogisticRegression" }

func (lr *LogisticRegression) Fit(X [][]float64, y []int) error {
	if lr.C <= 0 {
		return fmt.Errorf("C deve ser positivo, obtido %g", lr.C)
	}
	if len(X) == 0 {
		return errors.New("conjunto de treino vazio")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X tem %d linhas e y tem %d rótulos", len(X), len(y))
	}
	d := len(X[0])
	if d == 0 {
		return errors.New("conjunto de treino sem colunas")
	}
	if err := checkRows(X, d); err != nil {
		return err
	}
	var pos int
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("rótulo %d na linha %d: esperado 0 ou 1", v, i)
		}
		pos += v
	}
	if pos == 0 || pos == len(y) {
		return errors.New("o treino precisa de amostras das duas classes")
	}

	lr.Scaler = nil
	if lr.Standardize {
		lr.Scaler = FitScaler(X)
		X = lr.Scaler.Transform(X)
	}

	n := len(X)
	A := toDense(X)
	t := make([]float64, n)
	for i, v := range y {
		t[i] = float64(v)
	}
	z := mat.NewVecDense(n, nil)
	r := mat.NewVecDense(n, nil)
	gw := mat.NewVecDense(d, nil)
	C := lr.C

	eval := func(theta, grad []float64) float64 {
		w := mat.NewVecDense(d, theta[:d])
		b := theta[d]
		z.MulVec(A, w)
		var loss float64
		for i := 0; i < n; i++ {
			zi := z.AtVec(i) + b
			loss += softplus(zi) - t[i]*zi
			r.SetVec(i, sigmoid(zi)-t[i])
		}
		if grad != nil {
			gw.MulVec(A.T(), r)
			for j := 0; j < d; j++ {
				grad[j] = C*gw.AtVec(j) + theta[j]
			}
			grad[d] = C * mat.Sum(r)
		}
		return C*loss + 0.5*mat.Dot(w, w)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 { return eval(x, nil) },
		Grad: func(grad, x []float64) { eval(x, grad) },
	}
	settings := &optimize.Settings{GradientThreshold: lr.Tol, MajorIterations: lr.MaxIter}
	res, err := optimize.Minimize(problem, make([]float64, d+1), settings, &optimize.LBFGS{})
	if res == nil {
		return fmt.Errorf("otimização falhou: %w", err)
	}
	if err != nil && !allFinite(res.X) {
		return fmt.Errorf("otimização falhou: %w", err)
	}

	lr.Coef = append([]float64(nil), res.X[:d]...)
	lr.Intercept = res.X[d]
	lr.NIter = res.Stats.MajorIterations
	switch res.Status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.StepConvergence:
		lr.Converged = err == nil
	default:
		lr.Converged = false
	}
	return nil
}

// DecisionFunction devolve X·w + b para cada linha.
func (lr *LogisticRegression) DecisionFunction(X [][]float64) ([]float64, error) {
	if len(lr.Coef) == 0 {
		return nil, ErrNotFitted
	}
	d := len(lr.Coef)
	if err := checkRows(X, d); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return []float64{}, nil
	}
	if lr.Scaler != nil {
		X = lr.Scaler.Transform(X)
	}
	z := mat.NewVecDense(len(X), nil)
	z.MulVec(toDense(X), mat.NewVecDense(d, lr.Coef))
	out := make([]float64, len(X))
	for i := range out {
		out[i] = z.AtVec(i) + lr.Intercept
		// entradas finitas ainda estouram depois de escaladas (ex.: 1e308 numa coluna de desvio < 1).
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, fmt.Errorf("linha %d: valor de decisão não finito (%v), entrada fora da faixa numérica", i, out[i])
		}
	}
	return out, nil
}

func (lr *LogisticRegression) Predict(X [][]float64) ([]int, error) {
	z, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(z))
	for i, v := range z {
		if v > 0 {
			out[i] = 1
		}
	}
	return out, nil
}

// PredictProba devolve a probabilidade do rótulo 1 para cada linha.
func (lr *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	z, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = sigmoid(v)
	}
	return out, nil
}

func checkRows(X [][]float64, d int) error {
	for i, row := range X {
		if len(row) != d {
			return fmt.Errorf("linha %d tem %d características, o modelo espera %d", i, len(row), d)
		}
		if !allFinite(row) {
			return fmt.Errorf("linha %d contém NaN ou infinito", i)
		}
	}
	return nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func toDense(X [][]float64) *mat.Dense {
	n, d := len(X), len(X[0])
	data := make([]float64, 0, n*d)
	for _, row := range X {
		data = append(data, row...)
	}
	return mat.NewDense(n, d, data)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus calcula log(1+e^z) sem estourar para |z| grande.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
