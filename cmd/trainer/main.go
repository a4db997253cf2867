package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diagnostico/internal/config"
	"diagnostico/internal/features"
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
		Use:           "trainer",
		Short:         "Treina a regressão logística e grava o artefato do modelo",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Bind(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.LoadTrainer(v)
			if err != nil {
				return err
			}
			logger, err := utils.InitLogger(utils.LogOptions{Environment: cfg.Environment, Level: cfg.LogLevel, File: cfg.LogFile})
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := training.Run(ctx, cfg, logger)
			if err != nil {
				logger.Error("Falha no treinamento", zap.Error(err))
				return err
			}
			fmt.Printf("Precisão do modelo no conjunto de teste: %.4f\n", res.Artifact.Metrics.Accuracy)
			fmt.Printf("Modelo salvo em %s\n", cfg.ModelPath)
			fmt.Println("\nCaracterísticas esperadas na API:")
			fmt.Println(features.Names)
			return nil
		},
	}
	config.TrainerFlags(cmd.Flags())
	return cmd
}
