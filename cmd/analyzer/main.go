package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diagnostico/internal/config"
	"diagnostico/internal/dataset"
	"diagnostico/internal/evaluate"
	"diagnostico/internal/models"
	"diagnostico/internal/report"
	"diagnostico/internal/training"
	"diagnostico/pkg/utils"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	v := config.New()
	cmd := &cobra.Command{
		Use:           "analyzer",
		Short:         "Avalia um artefato de modelo contra o dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Bind(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.LoadAnalyzer(v)
			if err != nil {
				return err
			}
			logger, err := utils.InitLogger(utils.LogOptions{Environment: cfg.Environment, Level: cfg.LogLevel, File: cfg.LogFile})
			if err != nil {
				return err
			}
			defer logger.Sync()
			return analyze(cfg)
		},
	}
	config.AnalyzerFlags(cmd.Flags())
	return cmd
}

func analyze(cfg *config.Analyzer) error {
	logger := utils.Logger()
	art, err := models.Load(cfg.ModelPath)
	if err != nil {
		return err
	}
	if err := art.Validate(nil); err != nil {
		return err
	}
	ds, err := training.LoadDataset(cfg.DataPath)
	if err != nil {
		return err
	}
	ds, err = ds.Select(art.Features)
	if err != nil {
		return err
	}
	if cfg.Holdout {
		_, ds = dataset.TrainTestSplit(ds, cfg.TestSize, cfg.Seed)
	}

	sum, ps, err := training.Evaluate(art.Model, ds)
	if err != nil {
		return err
	}
	logger.Info("Avaliação concluída",
		zap.String("model", cfg.ModelPath),
		zap.Int("samples", sum.Samples),
		zap.Float64("accuracy", sum.Accuracy),
		zap.Float64("roc_auc", sum.ROCAUC),
	)

	fmt.Printf("Dataset do treino: %s\n", art.Dataset)
	fmt.Printf("%s | amostras=%d | acc=%.4f | precisão=%.4f | recall=%.4f | f1=%.4f | roc_auc=%.4f\n",
		art.Model.Name(), sum.Samples, sum.Accuracy, sum.Precision, sum.Recall, sum.F1, sum.ROCAUC)
	fmt.Println("Matriz de confusão (positivo = benigno):")
	fmt.Printf("  VP=%d  FP=%d\n  FN=%d  VN=%d\n", sum.TP, sum.FP, sum.FN, sum.TN)

	fmt.Println("Amostra média por classe:")
	for _, label := range []int{dataset.Malignant, dataset.Benign} {
		mean := dataset.ClassMean(ds, label)
		p, err := models.Classify(art.Model, mean)
		if err != nil {
			logger.Warn("Falha ao classificar a amostra média", zap.String("class", dataset.TargetNames[label]), zap.Error(err))
			fmt.Printf("  %-9s -> erro: %v\n", dataset.TargetNames[label], err)
			continue
		}
		fmt.Printf("  %-9s -> %s (p=%.4f) %s\n", dataset.TargetNames[label], p.Message, p.Probabilities[label], formatVec(mean))
	}

	if cfg.ROCImg != "" {
		if err := report.PlotROCPNG(cfg.ROCImg, evaluate.ROCCurve(ds.Y, ps), sum.ROCAUC); err != nil {
			fmt.Println("Erro ao salvar PNG:", err)
		} else {
			fmt.Println("Gráfico salvo em:", cfg.ROCImg)
		}
	}
	return nil
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4g", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
