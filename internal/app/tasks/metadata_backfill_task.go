package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/chatscope/internal/config"
)

// newMetadataBackfillTask retries title and participant estimation for chat
// logs whose upload-time estimation failed or never finished.
func newMetadataBackfillTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", MetadataBackfill)

	batchSize := config.DefaultAnalysisBackfillBatch
	if deps.Config != nil && deps.Config.Analysis.BackfillBatchSize > 0 {
		batchSize = deps.Config.Analysis.BackfillBatchSize
	}

	return func(ctx context.Context) error {
		startTime := time.Now()

		processed, err := deps.ChatLogs.BackfillMetadata(ctx, batchSize)
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "Metadata backfill failed", "error", err, "processed", processed, "duration", duration)
			return fmt.Errorf("metadata backfill failed: %w", err)
		}

		if processed > 0 {
			log.InfoContext(ctx, "Metadata backfill completed", "processed", processed, "duration", duration)
		} else {
			log.DebugContext(ctx, "No chat logs needed metadata backfill")
		}
		return nil
	}
}
