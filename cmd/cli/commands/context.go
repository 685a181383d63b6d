package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/internal/config"
	"github.com/kasoa/confirmation-tracker/pkg/postgres"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
	"github.com/kasoa/confirmation-tracker/pkg/session"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg     *config.Config
	DB      *postgres.DB
	Hub     *resources.Hub
	Session *session.Session
	Logger  *zap.Logger
	Ctx     context.Context
}

// App is set by the root command's PersistentPreRunE before any command runs.
var App *AppContext
