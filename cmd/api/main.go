package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diagnostico/internal/config"
	"diagnostico/internal/features"
	"diagnostico/internal/models"
	"diagnostico/internal/server"
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
		Use:           "api",
		Short:         "Serve predições do modelo via HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Bind(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.LoadServer(v)
			if err != nil {
				return err
			}
			logger, err := utils.InitLogger(utils.LogOptions{Environment: cfg.Environment, Level: cfg.LogLevel, File: cfg.LogFile})
			if err != nil {
				return err
			}
			defer logger.Sync()
			return run(cmd.Context(), cfg, logger)
		},
	}
	config.ServerFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Server, logger *zap.Logger) error {
	art, err := models.Load(cfg.ModelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Error("Arquivo do modelo não encontrado. Execute o trainer primeiro.", zap.String("path", cfg.ModelPath))
		} else {
			logger.Error("Erro ao carregar o modelo", zap.String("path", cfg.ModelPath), zap.Error(err))
		}
		return err
	}
	if err := art.Validate(features.Names); err != nil {
		logger.Error("Artefato do modelo inválido", zap.String("path", cfg.ModelPath), zap.Error(err))
		return err
	}
	logger.Info("Modelo carregado corretamente",
		zap.String("path", cfg.ModelPath),
		zap.Float64("accuracy", art.Metrics.Accuracy),
		zap.Time("trained_at", art.TrainedAt),
	)

	srv, err := server.New(cfg, logger, art.Model, art)
	if err != nil {
		logger.Error("Falha ao configurar o servidor", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Servidor encerrado com erro", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("Falha ao encerrar o servidor", zap.Error(err))
		return err
	}
	return <-errCh
}
