package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/config"
	"github.com/shashiranjanraj/sehatly/pkg/cache"
	"github.com/shashiranjanraj/sehatly/pkg/database"
	"github.com/shashiranjanraj/sehatly/pkg/queue"
)

var queueWorkersFlag int

// sehatly queue:work — run queue workers without the HTTP server.
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		bootCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := database.Connect(bootCtx); err != nil {
			return err
		}
		defer database.Disconnect(context.Background()) //nolint:errcheck

		if err := cache.Connect(); err == nil && cache.RDB != nil {
			queue.SetDriver(queue.NewRedisDriver(cache.RDB))
		}

		queue.Register("*services.VendorWelcomeJob", func() queue.Job { return &services.VendorWelcomeJob{} })
		queue.UseCollection(database.Collection("failed_jobs"))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 5
		}

		fmt.Printf("🚀 Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(ctx, workers)

		<-ctx.Done()
		fmt.Println("\n⚡ Queue worker stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 5, "Number of concurrent workers")
}
