package main

import (
	"os/signal"
	"syscall"

	"github.com/Josue049/CronoSpark/internal/rabbit"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var senderCmd = &cobra.Command{
	Use:   "sender",
	Short: "Consume reminders and deliver them",
	Args:  cobra.NoArgs,
	RunE:  runSender,
}

func init() {
	rootCmd.AddCommand(senderCmd)
}

func runSender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	if cfg.Rabbit.URL == "" {
		log.Warn("RABBITMQ_URL is not set, reminders are disabled")
		<-ctx.Done()
		return nil
	}

	r := rabbit.New(cfg.Rabbit)
	if err := r.Connect(); err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("failed to close rabbit connection: %v", err)
		}
	}()

	log.Info("sender is running...")
	return r.Consume(ctx, func(reminder rabbit.Reminder) {
		log.WithField("event", reminder.ID).
			WithField("due", reminder.Due).
			WithField("link", reminder.Link).
			Warnf("reminder: %s", reminder.Title)
	})
}
