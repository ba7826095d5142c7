package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/RoyceAzure/lab/bikemarket/internal/appcontext"
	"github.com/RoyceAzure/lab/bikemarket/internal/config"
	"github.com/RoyceAzure/lab/bikemarket/internal/infra/consumer"
	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume-listing-events",
	Short: "Invalidate the listing cache on every listing event",
	RunE:  runConsume,
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(cmd *cobra.Command, args []string) error {
	cf := config.GetConfig()
	app, err := appcontext.NewCacheContext(cf)
	if err != nil {
		return err
	}
	defer app.RedisClient.Close()

	c, err := consumer.NewKafkaListingEventConsumer(appcontext.KafkaConfig(cf), app.ListingCache)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Start(ctx); err != nil {
		return err
	}
	log.Printf("Listing event consumer started")

	select {
	case <-ctx.Done():
		log.Println("Received shutdown signal")
	case <-c.Done():
	}
	c.Stop()
	log.Printf("Listing event consumer stopped, handled %d events", c.Handled())
	return nil
}
