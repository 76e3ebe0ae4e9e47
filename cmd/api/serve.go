package main

import (
	"context"
	"os"
	"taskTrackerAPI/internal/app"
	"taskTrackerAPI/internal/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP сервер",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := app.New(cfg).Init(ctx)
	if err != nil {
		return err
	}

	go func() {
		if err := a.Run(); err != nil {
			logger.Error("HTTP: Сервер остановился с ошибкой", err)
			logger.Sync()
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.Server.ShutdownTimeout, a.ShutdownOperations())

	exitCode := <-wait
	logger.Info("Приложение завершено", zap.Int("exit_code", exitCode))
	logger.Sync()
	os.Exit(exitCode)
	return nil
}
