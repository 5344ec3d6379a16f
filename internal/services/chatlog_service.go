// Package services contains the business logic behind the HTTP API: chat-log
// uploads with background metadata estimation, and analyses of those logs.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/edgard/chatscope/internal/analysis"
	"github.com/edgard/chatscope/internal/chatlog"
	"github.com/edgard/chatscope/internal/config"
	"github.com/edgard/chatscope/internal/database"
	"github.com/edgard/chatscope/internal/storage"
)

// maxTitleLength caps caller-supplied chat log titles.
const maxTitleLength = 120

// metadataWriteTimeout bounds the metadata update that follows an estimate,
// which may itself have used up the whole estimation timeout.
const metadataWriteTimeout = 5 * time.Second

// UploadInput describes one chat-log upload.
type UploadInput struct {
	OriginalName string
	Title        string
	Body         io.Reader
}

// ChatLogService manages uploaded chat logs.
type ChatLogService struct {
	store    database.Store
	blobs    *storage.Store
	analyzer *analysis.Analyzer
	cfg      *config.Config
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewChatLogService creates a new ChatLogService
func NewChatLogService(store database.Store, blobs *storage.Store, analyzer *analysis.Analyzer, cfg *config.Config, logger *slog.Logger) *ChatLogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatLogService{
		store:    store,
		blobs:    blobs,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger.With("component", "chat_log_service"),
	}
}

// Upload stores the file, records the chat log with a locally counted
// participant number and starts metadata estimation in the background.
func (s *ChatLogService) Upload(ctx context.Context, userID string, in UploadInput) (*database.ChatLog, error) {
	if userID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if in.Body == nil {
		return nil, NewValidationError("file", "required")
	}
	title := strings.TrimSpace(in.Title)
	if len([]rune(title)) > maxTitleLength {
		return nil, NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}

	key, size, err := s.blobs.Save(ctx, in.Body, s.cfg.HTTP.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, NewValidationError("file", fmt.Sprintf("must be at most %d bytes", s.cfg.HTTP.MaxUploadBytes))
		}
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	lines, err := s.readBlob(key)
	if err != nil {
		s.discardBlob(ctx, key)
		return nil, err
	}
	if len(lines) == 0 {
		s.discardBlob(ctx, key)
		return nil, NewValidationError("file", "is empty")
	}

	log := &database.ChatLog{
		UserID:           userID,
		Title:            title,
		ParticipantCount: analysis.CountParticipants(lines),
		MetadataStatus:   database.MetadataPending,
		StorageKey:       key,
		OriginalName:     in.OriginalName,
		SizeBytes:        size,
		LineCount:        len(lines),
	}
	if err := s.store.CreateChatLog(ctx, log); err != nil {
		s.discardBlob(ctx, key)
		return nil, fmt.Errorf("failed to create chat log: %w", err)
	}

	s.logger.InfoContext(ctx, "Chat log uploaded", "chat_log_id", log.ID, "user_id", userID, "bytes", size, "lines", len(lines))

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.estimate(bg, log.ID, title, lines)
	}()

	return log, nil
}

// Wait blocks until background metadata estimations have finished.
func (s *ChatLogService) Wait() {
	s.wg.Wait()
}

// estimate asks the model for a title and participant count and stores the
// outcome. A caller-supplied title always wins over the estimated one.
func (s *ChatLogService) estimate(ctx context.Context, id int64, title string, lines []string) {
	log := s.logger.With("chat_log_id", id)

	estimateCtx, cancelEstimate := context.WithTimeout(ctx, s.metadataTimeout())
	defer cancelEstimate()

	status := database.MetadataReady
	md, err := s.analyzer.EstimateMetadata(estimateCtx, lines)
	if err != nil {
		log.WarnContext(ctx, "Metadata estimation failed, keeping local participant count", "error", err)
		status = database.MetadataFailed
	}
	if title == "" {
		title = md.Title
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metadataWriteTimeout)
	defer cancel()
	if err := s.store.UpdateChatLogMetadata(ctx, id, title, md.Participants, status); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.DebugContext(ctx, "Chat log deleted before metadata was stored")
			return
		}
		log.ErrorContext(ctx, "Failed to store chat log metadata", "error", err)
		return
	}
	log.DebugContext(ctx, "Chat log metadata stored", "status", status, "participants", md.Participants)
}

func (s *ChatLogService) metadataTimeout() time.Duration {
	if s.cfg.Analysis.MetadataTimeout > 0 {
		return s.cfg.Analysis.MetadataTimeout
	}
	return config.DefaultAnalysisMetadataTimeout
}

// BackfillMetadata retries metadata estimation for up to limit logs that
// failed or are still pending after the estimation timeout. It returns how
// many logs were processed.
func (s *ChatLogService) BackfillMetadata(ctx context.Context, limit int) (int, error) {
	logs, err := s.store.ListChatLogsByMetadataStatus(ctx, []string{database.MetadataPending, database.MetadataFailed}, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list chat logs for backfill: %w", err)
	}

	processed := 0
	for _, l := range logs {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if l.MetadataStatus == database.MetadataPending && time.Since(l.UpdatedAt) < s.metadataTimeout() {
			// An upload goroutine may still be working on it.
			continue
		}
		lines, err := s.readBlob(l.StorageKey)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping chat log with unreadable file", "chat_log_id", l.ID, "error", err)
			continue
		}
		s.estimate(ctx, l.ID, l.Title, lines)
		processed++
	}
	return processed, nil
}

// Get returns a chat log owned by userID.
func (s *ChatLogService) Get(ctx context.Context, userID string, id int64) (*database.ChatLog, error) {
	log, err := s.store.GetChatLog(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat log: %w", err)
	}
	if log.UserID != userID {
		return nil, ErrForbidden
	}
	return log, nil
}

// List returns one page of the caller's chat logs and the total count.
func (s *ChatLogService) List(ctx context.Context, userID string, params database.ListParams) ([]*database.ChatLog, int, error) {
	logs, total, err := s.store.ListChatLogs(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list chat logs: %w", err)
	}
	return logs, total, nil
}

// Delete removes a chat log and its file. Analyses of the log are kept.
func (s *ChatLogService) Delete(ctx context.Context, userID string, id int64) error {
	log, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteChatLog(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete chat log: %w", err)
	}
	s.discardBlob(ctx, log.StorageKey)
	s.logger.InfoContext(ctx, "Chat log deleted", "chat_log_id", id, "user_id", userID)
	return nil
}

// Lines reads the full content of a chat log.
func (s *ChatLogService) Lines(log *database.ChatLog) ([]string, error) {
	return s.readBlob(log.StorageKey)
}

func (s *ChatLogService) readBlob(key string) ([]string, error) {
	f, err := s.blobs.Open(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat log file: %w", err)
	}
	defer f.Close()

	lines, err := chatlog.ReadLines(f)
	if err != nil {
		return nil, NewValidationError("file", err.Error())
	}
	return lines, nil
}

func (s *ChatLogService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete chat log file", "storage_key", key, "error", err)
	}
}
