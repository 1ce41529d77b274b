package cmd

import (
	"context"

	"github.com/procurely/rfp-pilot/internal/store/postgres"

	"github.com/jmoiron/sqlx"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var resetPrompt = promptui.Select{
	Label: "This rolls back every migration and drops all data. Continue?",
	Items: []string{PromptNo, PromptYes},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Run: func(cmd *cobra.Command, _ []string) {
		migrate(cmd, false)
	},
}

var migrateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Roll back all database migrations, dropping all data",
	Run: func(cmd *cobra.Command, _ []string) {
		migrate(cmd, true)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateResetCmd)

	migrateResetCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before dropping data")
}

func migrate(cmd *cobra.Command, reset bool) {
	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Database == nil || config.Database.Conn == "" {
		log.Fatal("database connection string is required (database.conn or POSTGRES_CONN)")
	}

	db, err := postgres.Open(context.Background(), config.Database.Conn)
	if err != nil {
		log.Fatal("connecting to the database", zap.Error(err))
	}
	defer db.Close()

	if reset {
		resetMigrations(cmd, db, log)
		return
	}

	if err := postgres.Migrate(db); err != nil {
		log.Fatal("applying migrations", zap.Error(err))
	}
	log.Info("migrations applied")
}

func resetMigrations(cmd *cobra.Command, db *sqlx.DB, log *zap.Logger) {
	if cmd.Flag("auto-approve").Value.String() == "false" {
		_, action, err := resetPrompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			log.Info("exiting", zap.String("reason", "reset not confirmed"))
			return
		}
	}

	if err := postgres.Reset(db); err != nil {
		log.Fatal("resetting migrations", zap.Error(err))
	}
	log.Info("migrations rolled back")
}
