package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "bikemarket",
	Short: "bikemarket - 二手腳踏車買賣平台後端",
	Long: `bikemarket serves the marketplace JSON API (listings, cart, orders,
support messages, admin dashboard), runs the postgres schema migrations and
consumes listing events to keep the listing cache fresh.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.SetConfigFile(configFile)
		zerolog.TimeFieldFormat = time.RFC3339
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
