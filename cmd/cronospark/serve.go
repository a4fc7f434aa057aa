package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Josue049/CronoSpark/internal/app"
	internalhttp "github.com/Josue049/CronoSpark/internal/server/http"
	"github.com/Josue049/CronoSpark/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web application",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	stor, target, err := storagebuilder.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStorage(stor)

	calendar := app.New(stor)
	server, err := internalhttp.NewServer(cfg.HTTPServer, calendar, string(target.Backend))
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()

		timeout := cfg.HTTPServer.ShutdownTimeout
		if timeout <= 0 {
			timeout = time.Second * 3
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("cronospark is running...")

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	return nil
}
