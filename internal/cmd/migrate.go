package cmd

import (
	"github.com/RoyceAzure/lab/bikemarket/internal/appcontext"
	"github.com/RoyceAzure/lab/bikemarket/internal/config"
	"github.com/spf13/cobra"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded postgres migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return appcontext.RunDBMigration(config.GetConfig(), migrateDown)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back all migrations")
	rootCmd.AddCommand(migrateCmd)
}
