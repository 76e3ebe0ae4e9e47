package main

import (
	"errors"
	"fmt"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/migrations"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Миграции схемы PostgreSQL",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Применить все миграции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			return migrations.Up(url)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Откатить все миграции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			return migrations.Down(url)
		},
	})

	return cmd
}

// databaseURL не требует repository.type: postgres, миграции гоняют и отдельно
func databaseURL() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if err := logger.Init(cfg.Logging.Development); err != nil {
		return "", fmt.Errorf("инициализация логгера: %w", err)
	}
	if cfg.Database.URL == "" {
		return "", errors.New("не задан database.url или DATABASE_URL")
	}
	return cfg.Database.URL, nil
}
