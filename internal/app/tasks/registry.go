package tasks

import (
	"context"
	"log/slog"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names as used in the scheduler.tasks config section.
const (
	SQLMaintenance   = "sql_maintenance"
	MetadataBackfill = "metadata_backfill"
)

// RegisterAllTasks initializes and returns a map of all registered scheduled
// tasks keyed by the name used for configuration lookup.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	tasks := make(map[string]ScheduledTaskFunc)
	tasks[SQLMaintenance] = newSQLMaintenanceTask(deps)
	tasks[MetadataBackfill] = newMetadataBackfillTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
