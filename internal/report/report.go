package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"diagnostico/internal/evaluate"
)

// CurvePoint é um ponto da curva de aprendizagem.
type CurvePoint struct {
	Size     int
	TrainAcc float64
	TestAcc  float64
	TrainF1  float64
	TestF1   float64
}

// CurveSizes gera tamanhos crescentes de subconjunto de treino, terminando sempre em totalTrain.
func CurveSizes(totalTrain, points, min int, useLog bool) []int {
	if totalTrain <= 0 {
		return nil
	}
	if points <= 1 {
		points = 2
	}
	if min < 10 {
		min = 10
	}
	if min > totalTrain {
		min = int(math.Max(1, float64(totalTrain)/2))
	}
	sizes := make([]int, 0, points)
	if useLog {
		ratio := math.Pow(float64(totalTrain)/float64(min), 1.0/float64(points-1))
		for i := 0; i < points; i++ {
			sizes = append(sizes, int(math.Round(float64(min)*math.Pow(ratio, float64(i)))))
		}
	} else {
		step := float64(totalTrain-min) / float64(points-1)
		for i := 0; i < points; i++ {
			sizes = append(sizes, int(math.Round(float64(min)+float64(i)*step)))
		}
	}
	cleaned := make([]int, 0, len(sizes))
	last := -1
	for _, s := range sizes {
		if s <= last {
			s = last + 1
		}
		if s > totalTrain {
			s = totalTrain
		}
		if s != last {
			cleaned = append(cleaned, s)
			last = s
		}
	}
	cleaned[len(cleaned)-1] = totalTrain
	return cleaned
}

func WriteCurveCSV(path string, pts []CurvePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"size", "train_acc", "test_acc", "train_f1", "test_f1"}); err != nil {
		return err
	}
	for _, p := range pts {
		rec := []string{
			strconv.Itoa(p.Size),
			fmt.Sprintf("%.6f", p.TrainAcc), fmt.Sprintf("%.6f", p.TestAcc),
			fmt.Sprintf("%.6f", p.TrainF1), fmt.Sprintf("%.6f", p.TestF1),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func PlotCurvePNG(path string, pts []CurvePoint) error {
	if len(pts) == 0 {
		return errors.New("curva sem pontos")
	}
	p := plot.New()
	p.Title.Text = "Curva de Aprendizagem"
	p.X.Label.Text = "Amostras de treino"
	p.Y.Label.Text = "Métrica"
	p.Y.Min = 0
	p.Y.Max = 1

	trAcc := make(plotter.XYs, len(pts))
	teAcc := make(plotter.XYs, len(pts))
	trF1 := make(plotter.XYs, len(pts))
	teF1 := make(plotter.XYs, len(pts))
	for i, c := range pts {
		x := float64(c.Size)
		trAcc[i].X, trAcc[i].Y = x, c.TrainAcc
		teAcc[i].X, teAcc[i].Y = x, c.TestAcc
		trF1[i].X, trF1[i].Y = x, c.TrainF1
		teF1[i].X, teF1[i].Y = x, c.TestF1
	}
	if err := plotutil.AddLinePoints(p, "Treino (Acc)", trAcc, "Teste (Acc)", teAcc, "Treino (F1)", trF1, "Teste (F1)", teF1); err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func PlotROCPNG(path string, pts []evaluate.Point, auc float64) error {
	if len(pts) == 0 {
		return errors.New("curva ROC indefinida: o conjunto precisa das duas classes")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Curva ROC (AUC = %.4f)", auc)
	p.X.Label.Text = "Taxa de falsos positivos"
	p.Y.Label.Text = "Taxa de verdadeiros positivos"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	roc := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		roc[i].X, roc[i].Y = pt.FPR, pt.TPR
	}
	chance := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}
	if err := plotutil.AddLines(p, "Modelo", roc, "Aleatório", chance); err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return p.Save(5*vg.Inch, 5*vg.Inch, path)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
