package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/dirk.krummacker/contact-manager/internal/config"
	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
	"gitlab.com/dirk.krummacker/contact-manager/internal/store"
)

var configPath string

// rootCmd manages the schema of the contacts database
var rootCmd = &cobra.Command{
	Use:   "migration",
	Short: "Manage the schema of the contacts database",
	Long: `Apply or roll back the schema migrations of the contacts database.

The database is selected by the configuration file and the usual environment
variables (DBDRIVER, DBPATH, DBHOST, DBUSER, DBPWD, DBNAME).

Usage example on the command line:
  > DBDRIVER=mysql DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 go run main.go up`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE:  migrateCommand("up"),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations, dropping the contacts table",
	Args:  cobra.NoArgs,
	RunE:  migrateCommand("down"),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE:  migrateCommand("version"),
}

// forceCmd clears the dirty flag after a failed migration was repaired by hand
var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the schema version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE:  migrateCommand("force"),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "path of the TOML configuration file")
	rootCmd.AddCommand(upCmd, downCmd, versionCmd, forceCmd)
}

func migrateCommand(command string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.Init(cfg.Log.Level, cfg.Log.Format)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		db, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return store.RunMigrate(ctx, db, logger.L, command, args)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
