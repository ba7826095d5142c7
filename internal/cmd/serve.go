package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/api"
	"github.com/RoyceAzure/lab/bikemarket/internal/api/handler"
	"github.com/RoyceAzure/lab/bikemarket/internal/api/router"
	"github.com/RoyceAzure/lab/bikemarket/internal/appcontext"
	"github.com/RoyceAzure/lab/bikemarket/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		return err
	}

	// 初始化 handler
	server := api.NewServer(
		handler.NewListingHandler(app.CatalogService),
		handler.NewCartHandler(app.SessionStore, app.DbDao, app.CatalogService),
		handler.NewOrderHandler(app.OrderService, app.SessionStore, app.DbDao),
		handler.NewSupportHandler(app.SupportService),
		handler.NewAdminHandler(app.CatalogService, app.OrderService, app.ReportService),
		handler.NewAccountHandler(app.AccountService, app.Cf.PublicBaseURL),
	)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	r := router.SetupRouter(server, router.Options{
		TokenMaker:  app.TokenMaker,
		Users:       app.AccountService,
		RateLimiter: app.RateLimiter,
		SessionTTL:  app.Cf.SessionTTL,
		Logger:      &logger,
	})

	// 設定服務器參數
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           router.WithTracing(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 設置訊號監聽
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Application shutdown error: %v", err)
		}
		return nil
	})

	err = g.Wait()
	log.Printf("closed completed")
	return err
}
