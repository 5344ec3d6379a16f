// Package tasks implements chatscope's scheduled tasks.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/edgard/chatscope/internal/config"
	"github.com/edgard/chatscope/internal/database"
	"github.com/edgard/chatscope/internal/services"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	ChatLogs *services.ChatLogService
	Config   *config.Config
}
