package training

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"diagnostico/internal/config"
	"diagnostico/internal/dataset"
	"diagnostico/internal/evaluate"
	"diagnostico/internal/features"
	"diagnostico/internal/models"
	"diagnostico/internal/report"
)

type Result struct {
	Artifact  *models.Artifact
	TrainSize int
	TestSize  int
	Curve     []report.CurvePoint
}

// Run executa o pipeline completo: carregar, selecionar colunas, separar, ajustar,
// avaliar e gravar o artefato. Relatórios opcionais que falham só geram aviso.
func Run(ctx context.Context, cfg *config.Trainer, logger *zap.Logger) (*Result, error) {
	ds, err := LoadDataset(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("carregar dataset: %w", err)
	}
	sel, err := ds.Select(features.Names)
	if err != nil {
		return nil, err
	}
	mal, ben := sel.ClassCounts()
	source := sourceName(cfg.DataPath)
	logger.Info("Dataset carregado",
		zap.String("source", source),
		zap.Int("samples", sel.Len()),
		zap.Int("malignos", mal),
		zap.Int("benignos", ben),
	)

	if cfg.DataPath == "" && dataset.BuiltinSource() == dataset.SourceSynthetic {
		logger.Warn("Conjunto embutido é sintético; para treinar com os dados reais use --data com o wdbc.data da UCI ou embuta internal/dataset/data/wdbc.data")
	}

	train, test := dataset.TrainTestSplit(sel, cfg.TestSize, cfg.Seed)
	mdl := NewModel(cfg)
	logger.Info("Treinando regressão logística", zap.Int("train", train.Len()), zap.Int("test", test.Len()), zap.Int("max_iter", mdl.MaxIter))
	if err := mdl.Fit(train.X, train.Y); err != nil {
		return nil, fmt.Errorf("treinar modelo: %w", err)
	}
	if !mdl.Converged {
		logger.Warn("L-BFGS não convergiu", zap.Int("iterations", mdl.NIter))
	}

	summary, ps, err := Evaluate(mdl, test)
	if err != nil {
		return nil, fmt.Errorf("avaliar modelo: %w", err)
	}
	logger.Info("Métricas holdout",
		zap.String("model", mdl.Name()),
		zap.Float64("accuracy", summary.Accuracy),
		zap.Float64("precision", summary.Precision),
		zap.Float64("recall", summary.Recall),
		zap.Float64("f1", summary.F1),
		zap.Float64("roc_auc", summary.ROCAUC),
		zap.Int("iterations", mdl.NIter),
	)

	art := &models.Artifact{
		Version:   models.ArtifactVersion,
		Model:     mdl,
		Features:  append([]string(nil), features.Names...),
		Metrics:   summary,
		TrainedAt: time.Now().UTC(),
		Dataset:   source,
	}
	if err := models.Save(cfg.ModelPath, art); err != nil {
		return nil, fmt.Errorf("salvar modelo: %w", err)
	}
	logger.Info("Modelo salvo", zap.String("path", cfg.ModelPath))

	res := &Result{Artifact: art, TrainSize: train.Len(), TestSize: test.Len()}

	if cfg.ROCImg != "" {
		if err := report.PlotROCPNG(cfg.ROCImg, evaluate.ROCCurve(test.Y, ps), summary.ROCAUC); err != nil {
			logger.Warn("Falha ao salvar PNG da curva ROC", zap.Error(err))
		} else {
			logger.Info("Curva ROC gerada", zap.String("png", cfg.ROCImg))
		}
	}

	if cfg.Curve {
		pts, err := LearningCurve(ctx, cfg, train, test)
		if err != nil {
			logger.Warn("Falha ao gerar curva de aprendizagem", zap.Error(err))
			return res, nil
		}
		res.Curve = pts
		if err := report.WriteCurveCSV(cfg.CurveCSV, pts); err != nil {
			logger.Warn("Falha ao salvar CSV da curva", zap.Error(err))
		}
		if err := report.PlotCurvePNG(cfg.CurveImg, pts); err != nil {
			logger.Warn("Falha ao salvar PNG da curva", zap.Error(err))
		} else {
			logger.Info("Curva de aprendizagem gerada", zap.String("png", cfg.CurveImg), zap.String("csv", cfg.CurveCSV))
		}
	}
	return res, nil
}

func LoadDataset(path string) (*dataset.Dataset, error) {
	if path == "" {
		return dataset.BreastCancer(), nil
	}
	return dataset.Load(path)
}

func NewModel(cfg *config.Trainer) *models.LogisticRegression {
	m := models.NewLogisticRegression()
	m.MaxIter = cfg.MaxIter
	m.C = cfg.C
	m.Standardize = cfg.Standardize
	if cfg.Tol > 0 {
		m.Tol = cfg.Tol
	}
	return m
}

// Evaluate devolve o resumo de métricas e as probabilidades do rótulo 1 para ds.
func Evaluate(m models.Model, ds *dataset.Dataset) (evaluate.Summary, []float64, error) {
	pred, err := m.Predict(ds.X)
	if err != nil {
		return evaluate.Summary{}, nil, err
	}
	ps, err := m.PredictProba(ds.X)
	if err != nil {
		return evaluate.Summary{}, nil, err
	}
	return evaluate.Summarize(ds.Y, pred, ps), ps, nil
}

// LearningCurve ajusta um modelo por tamanho de subconjunto, em paralelo.
func LearningCurve(ctx context.Context, cfg *config.Trainer, train, test *dataset.Dataset) ([]report.CurvePoint, error) {
	sizes := report.CurveSizes(train.Len(), cfg.CurvePoints, cfg.CurveMin, cfg.CurveLog)
	pts := make([]report.CurvePoint, len(sizes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for k, s := range sizes {
		k, s := k, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sub := &dataset.Dataset{FeatureNames: train.FeatureNames, X: train.X[:s], Y: train.Y[:s]}
			m := NewModel(cfg)
			if err := m.Fit(sub.X, sub.Y); err != nil {
				return fmt.Errorf("ponto %d (n=%d): %w", k, s, err)
			}
			tr, _, err := Evaluate(m, sub)
			if err != nil {
				return err
			}
			te, _, err := Evaluate(m, test)
			if err != nil {
				return err
			}
			pts[k] = report.CurvePoint{Size: s, TrainAcc: tr.Accuracy, TestAcc: te.Accuracy, TrainF1: tr.F1, TestF1: te.F1}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pts, nil
}

func sourceName(path string) string {
	if path == "" {
		return "embutido/" + dataset.BuiltinSource()
	}
	return path
}
