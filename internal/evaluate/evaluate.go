package evaluate

import (
	"math"
	"sort"
)

// Summary reúne as métricas de holdout gravadas junto ao artefato.
type Summary struct {
	Samples   int     `json:"samples"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ROCAUC    float64 `json:"roc_auc"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	TN        int     `json:"tn"`
	FN        int     `json:"fn"`
}

func Summarize(y, pred []int, ps []float64) Summary {
	tp, fp, tn, fn := Confusion(y, pred)
	prec, rec, f1 := PRF1(tp, fp, fn)
	return Summary{
		Samples:   len(y),
		Accuracy:  Accuracy(y, pred),
		Precision: prec,
		Recall:    rec,
		F1:        f1,
		ROCAUC:    ROCAUC(y, ps),
		TP:        tp,
		FP:        fp,
		TN:        tn,
		FN:        fn,
	}
}

func Accuracy(y, p []int) float64 {
	if len(y) == 0 {
		return 0
	}
	c := 0
	for i := range y {
		if y[i] == p[i] {
			c++
		}
	}
	return float64(c) / float64(len(y))
}

// Confusion conta a matriz de confusão tomando o rótulo 1 como classe positiva.
func Confusion(y, p []int) (tp, fp, tn, fn int) {
	for i := range y {
		switch {
		case p[i] == 1 && y[i] == 1:
			tp++
		case p[i] == 1 && y[i] == 0:
			fp++
		case p[i] == 0 && y[i] == 0:
			tn++
		default:
			fn++
		}
	}
	return
}

func PRF1(tp, fp, fn int) (precision, recall, f1 float64) {
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return
}

type Point struct {
	FPR float64
	TPR float64
}

// ROCCurve devolve os pontos (FPR, TPR) a cada mudança de score, de (0,0) a (1,1).
// Sem exemplos de uma das classes a curva é nula.
func ROCCurve(y []int, ps []float64) []Point {
	type pair struct {
		s float64
		y int
	}
	n := len(y)
	pairs := make([]pair, n)
	for i := 0; i < n; i++ {
		pairs[i] = pair{ps[i], y[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].s > pairs[j].s })
	var pos, neg int
	for _, p := range pairs {
		if p.y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil
	}
	pts := []Point{{0, 0}}
	tp, fp := 0, 0
	prevS := math.Inf(1)
	for i := 0; i < n; i++ {
		if pairs[i].s != prevS && i > 0 {
			pts = append(pts, Point{float64(fp) / float64(neg), float64(tp) / float64(pos)})
		}
		prevS = pairs[i].s
		if pairs[i].y == 1 {
			tp++
		} else {
			fp++
		}
	}
	pts = append(pts, Point{float64(fp) / float64(neg), float64(tp) / float64(pos)})
	return pts
}

// ROCAUC integra a curva ROC pela regra do trapézio.
func ROCAUC(y []int, ps []float64) float64 {
	pts := ROCCurve(y, ps)
	var auc float64
	for i := 1; i < len(pts); i++ {
		auc += (pts[i].FPR - pts[i-1].FPR) * (pts[i].TPR + pts[i-1].TPR) / 2
	}
	return auc
}
