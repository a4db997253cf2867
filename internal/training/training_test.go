package training

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"diagnostico/internal/config"
	"diagnostico/internal/dataset"
	"diagnostico/internal/features"
	"diagnostico/internal/models"
)

func trainerConfig(dir string) *config.Trainer {
	return &config.Trainer{
		ModelPath:   filepath.Join(dir, "model.gob"),
		Seed:        config.DefaultSeed,
		TestSize:    config.DefaultTestSize,
		MaxIter:     config.DefaultMaxIter,
		C:           1,
		Tol:         1e-4,
		Standardize: true,
		CurvePoints: 4,
		CurveMin:    50,
		CurveImg:    filepath.Join(dir, "reports", "curve.png"),
		CurveCSV:    filepath.Join(dir, "reports", "curve.csv"),
	}
}

func TestRunWritesLoadableArtifact(t *testing.T) {
	dir := t.TempDir()
	cfg := trainerConfig(dir)
	cfg.ROCImg = filepath.Join(dir, "reports", "roc.png")
	core, logs := observer.New(zapcore.InfoLevel)

	res, err := Run(context.Background(), cfg, zap.New(core))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TrainSize != 455 || res.TestSize != 114 {
		t.Fatalf("unexpected split %d/%d", res.TrainSize, res.TestSize)
	}
	if res.Artifact.Metrics.Accuracy < 0.85 {
		t.Fatalf("holdout accuracy too low: %v", res.Artifact.Metrics.Accuracy)
	}

	art, err := models.Load(cfg.ModelPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := art.Validate(features.Names); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if art.Metrics != res.Artifact.Metrics {
		t.Fatalf("metrics not persisted: %+v vs %+v", art.Metrics, res.Artifact.Metrics)
	}
	if _, err := os.Stat(cfg.ROCImg); err != nil {
		t.Fatalf("roc image missing: %v", err)
	}
	if logs.FilterMessage("Modelo salvo").Len() != 1 {
		t.Fatal("expected save to be logged")
	}
	if want := "embutido/" + dataset.BuiltinSource(); art.Dataset != want {
		t.Fatalf("dataset source %q, want %q", art.Dataset, want)
	}
	warned := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessageSnippet("sintético").Len() == 1
	if synthetic := dataset.BuiltinSource() == dataset.SourceSynthetic; warned != synthetic {
		t.Fatalf("synthetic warning logged=%v for source %q", warned, dataset.BuiltinSource())
	}
}

func TestRunDeterministic(t *testing.T) {
	a, err := Run(context.Background(), trainerConfig(t.TempDir()), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(context.Background(), trainerConfig(t.TempDir()), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if a.Artifact.Metrics != b.Artifact.Metrics {
		t.Fatalf("same seed gave different metrics: %+v vs %+v", a.Artifact.Metrics, b.Artifact.Metrics)
	}
	for i := range a.Artifact.Model.Coef {
		if a.Artifact.Model.Coef[i] != b.Artifact.Model.Coef[i] {
			t.Fatalf("coefficient %d differs", i)
		}
	}
}

func TestRunWithCurve(t *testing.T) {
	dir := t.TempDir()
	cfg := trainerConfig(dir)
	cfg.Curve = true

	res, err := Run(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Curve) != cfg.CurvePoints {
		t.Fatalf("expected %d curve points, got %d", cfg.CurvePoints, len(res.Curve))
	}
	if last := res.Curve[len(res.Curve)-1]; last.Size != res.TrainSize {
		t.Fatalf("last point should use the full train set, got %d", last.Size)
	}
	for _, p := range []string{cfg.CurveCSV, cfg.CurveImg} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s missing: %v", p, err)
		}
	}
}

func TestRunMissingDataset(t *testing.T) {
	cfg := trainerConfig(t.TempDir())
	cfg.DataPath = filepath.Join(t.TempDir(), "missing.csv")
	if _, err := Run(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing dataset")
	}
	if _, err := os.Stat(cfg.ModelPath); !os.IsNotExist(err) {
		t.Fatal("artifact should not be written on failure")
	}
}

func TestLearningCurveCancelled(t *testing.T) {
	ds, _ := dataset.BreastCancer().Select(features.Names)
	train, test := dataset.TrainTestSplit(ds, 0.2, 42)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LearningCurve(ctx, trainerConfig(t.TempDir()), train, test); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNewModel(t *testing.T) {
	cfg := trainerConfig(t.TempDir())
	cfg.C = 0.5
	cfg.MaxIter = 10
	cfg.Tol = 0
	m := NewModel(cfg)
	if m.C != 0.5 || m.MaxIter != 10 || m.Tol != 1e-4 {
		t.Fatalf("unexpected model settings %+v", m)
	}
}
