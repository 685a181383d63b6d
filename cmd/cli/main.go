package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/cmd/cli/commands"
	"github.com/kasoa/confirmation-tracker/internal/config"
	"github.com/kasoa/confirmation-tracker/pkg/cache"
	"github.com/kasoa/confirmation-tracker/pkg/postgres"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
	"github.com/kasoa/confirmation-tracker/pkg/session"
	"github.com/kasoa/confirmation-tracker/pkg/utils/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ct",
		Short: "Confirmation Tracker CLI - event attendance and outreach follow-up",
		Long:  `A CLI tool for tracking event confirmations, attendance, telepastoring calls, and visits.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app := commands.App; app != nil {
				if app.DB != nil {
					app.DB.Close()
				}
				if app.Logger != nil {
					app.Logger.Sync()
				}
			}
		},
	}

	rootCmd.AddCommand(commands.IdentityCmd())
	rootCmd.AddCommand(commands.AddCmd())
	rootCmd.AddCommand(commands.ContactsCmd())
	rootCmd.AddCommand(commands.ContactCmd())
	rootCmd.AddCommand(commands.CallCmd())
	rootCmd.AddCommand(commands.VisitCmd())
	rootCmd.AddCommand(commands.TelepastoringCmd())
	rootCmd.AddCommand(commands.LiveCmd())
	rootCmd.AddCommand(commands.DataCmd())
	rootCmd.AddCommand(commands.MembersCmd())
	rootCmd.AddCommand(commands.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, session, cache, and the resource
// hub shared by all commands.
func initApp() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.InitLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Debug("Configuration loaded successfully")

	logger.Info("Connecting to database")
	database, err := postgres.NewDB(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		sessionPath, err = session.DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to resolve session path: %w", err)
		}
	}
	sess, err := session.Load(sessionPath)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	queryCache := cache.New(prometheus.DefaultRegisterer)
	hub := resources.NewHub(database, queryCache, sess, logger)

	commands.App = &commands.AppContext{
		Cfg:     cfg,
		DB:      database,
		Hub:     hub,
		Session: sess,
		Logger:  logger,
		Ctx:     ctx,
	}

	if member := sess.Member(); member != nil {
		logger.Debug("Session restored", zap.String("member", member.DisplayName()))
	}
	return nil
}
