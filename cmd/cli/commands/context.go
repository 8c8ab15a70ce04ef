package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/db"
	"github.com/jakechorley/venue-rota/pkg/windowlock"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Env      string
	Database db.Database

	// Roster is the configured roster source: the database itself or a spreadsheet
	Roster db.RosterStore

	// OpenRosterSheet connects to the roster spreadsheet, running the OAuth flow if needed
	OpenRosterSheet func() (db.RosterStore, error)

	Locker windowlock.Locker
	Logger *zap.Logger
	Ctx    context.Context
}
