package main

import (
	"context"
	"time"

	"github.com/Josue049/CronoSpark/internal/config"
	"github.com/Josue049/CronoSpark/internal/logger"
	"github.com/Josue049/CronoSpark/internal/storage"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envDir     string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "cronospark",
	Short: "Personal calendar with urgent event reminders",
	Long: `CronoSpark keeps a list of personal events and highlights the urgent ones.
Events are stored in the database named by DATABASE_URL, or in the local
SQLite file cronospark.db when DATABASE_URL is not set.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envDir, "env-dir", "", "Directory with one file per environment variable")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")
}

// loadConfig reads the configuration and prepares the logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: configFile,
		EnvDir:     envDir,
		DotEnv:     envFile,
	})
	if err != nil {
		return cfg, err
	}
	if err := logger.PrepareLogger(cfg.Logger); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func closeStorage(s storage.Storage) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		log.Errorf("failed to close storage: %v", err)
	}
}
