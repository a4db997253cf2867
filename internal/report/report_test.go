package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"diagnostico/internal/evaluate"
)

func TestCurveSizes(t *testing.T) {
	for _, useLog := range []bool{false, true} {
		sizes := CurveSizes(455, 10, 50, useLog)
		if len(sizes) == 0 || sizes[len(sizes)-1] != 455 {
			t.Fatalf("log=%v: must end at the full train size: %v", useLog, sizes)
		}
		if sizes[0] != 50 {
			t.Fatalf("log=%v: must start at the minimum: %v", useLog, sizes)
		}
		for i := 1; i < len(sizes); i++ {
			if sizes[i] <= sizes[i-1] {
				t.Fatalf("log=%v: sizes not strictly increasing: %v", useLog, sizes)
			}
		}
	}
	if CurveSizes(0, 10, 50, false) != nil {
		t.Fatal("expected nil for empty train set")
	}
	if s := CurveSizes(30, 5, 50, false); s[len(s)-1] != 30 || s[0] > 30 {
		t.Fatalf("minimum above total must shrink: %v", s)
	}
}

var samplePoints = []CurvePoint{
	{Size: 50, TrainAcc: 1, TestAcc: 0.9, TrainF1: 1, TestF1: 0.91},
	{Size: 100, TrainAcc: 0.97, TestAcc: 0.93, TrainF1: 0.98, TestF1: 0.94},
}

func TestWriteCurveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "curve.csv")
	if err := WriteCurveCSV(path, samplePoints); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %q", b)
	}
	if lines[0] != "size,train_acc,test_acc,train_f1,test_f1" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "50,1.000000,0.900000,1.000000,0.910000" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func isPNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("%s is not a PNG", path)
	}
}

func TestPlots(t *testing.T) {
	dir := t.TempDir()

	curve := filepath.Join(dir, "curve.png")
	if err := PlotCurvePNG(curve, samplePoints); err != nil {
		t.Fatal(err)
	}
	isPNG(t, curve)

	roc := filepath.Join(dir, "out", "roc.png")
	pts := evaluate.ROCCurve([]int{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8})
	if err := PlotROCPNG(roc, pts, 0.75); err != nil {
		t.Fatal(err)
	}
	isPNG(t, roc)

	if err := PlotCurvePNG(filepath.Join(dir, "x.png"), nil); err == nil {
		t.Fatal("expected error for empty curve")
	}
	if err := PlotROCPNG(filepath.Join(dir, "y.png"), nil, 0); err == nil {
		t.Fatal("expected error for empty ROC")
	}
}
