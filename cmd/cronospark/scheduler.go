package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Josue049/CronoSpark/internal/rabbit"
	"github.com/Josue049/CronoSpark/internal/scheduler"
	"github.com/Josue049/CronoSpark/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Publish reminders for urgent events and remove old ones",
	Long: `Removes events older than the retention period and, when a RabbitMQ
broker is configured with RABBITMQ_URL, publishes reminders for urgent events.`,
	Args:  cobra.NoArgs,
	RunE:  runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	stor, _, err := storagebuilder.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStorage(stor)

	var publisher scheduler.Publisher
	if cfg.Rabbit.URL != "" {
		r := rabbit.New(cfg.Rabbit)
		if err := r.Connect(); err != nil {
			return err
		}
		defer func() {
			if err := r.Close(); err != nil {
				log.Errorf("failed to close rabbit connection: %v", err)
			}
		}()
		publisher = r
	}

	s, err := scheduler.New(cfg.Scheduler, stor, publisher)
	if err != nil {
		return err
	}
	log.Info("scheduler is running...")
	return s.Run(ctx)
}
