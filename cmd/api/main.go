package main

import (
	"fmt"
	"os"
	"strings"
	"taskTrackerAPI/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "task-api",
		Short: "REST API для задач с тегами",
		// без подкоманды запускаем сервер
		RunE: runServe,
	}

	// путь к конфигу: флаг --config или TASK_API_CONFIG
	viper.SetEnvPrefix("TASK_API")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "путь к config.yml")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("загрузка конфигурации: %w", err)
	}
	return cfg, nil
}
