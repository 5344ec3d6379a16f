package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edgard/chatscope/internal/analysis"
	"github.com/edgard/chatscope/internal/chatlog"
	"github.com/edgard/chatscope/internal/database"
)

// AnalyzeInput is a validated analysis request for one chat log.
type AnalyzeInput struct {
	Flavor    string
	StartDate string
	EndDate   string
	Params    map[string]string
}

// AnalysisService runs analyses of chat logs and manages their results.
type AnalysisService struct {
	store    database.Store
	logs     *ChatLogService
	analyzer *analysis.Analyzer
	logger   *slog.Logger
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(store database.Store, logs *ChatLogService, analyzer *analysis.Analyzer, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		store:    store,
		logs:     logs,
		analyzer: analyzer,
		logger:   logger.With("component", "analysis_service"),
	}
}

// Analyze filters the caller's chat log to the requested window, runs one
// analysis and persists the result with its records in one transaction.
// A failed model call returns ErrUpstream and writes nothing.
func (s *AnalysisService) Analyze(ctx context.Context, userID string, chatLogID int64, in AnalyzeInput) (*database.AnalysisResult, []*database.EntityRecord, error) {
	if in.Flavor == "" {
		return nil, nil, NewValidationError("flavor", "required")
	}
	if _, err := analysis.Lookup(in.Flavor); err != nil {
		return nil, nil, NewValidationError("flavor", err.Error())
	}
	window, err := chatlog.NewWindow(in.StartDate, in.EndDate)
	if err != nil {
		return nil, nil, NewValidationError("date_range", err.Error())
	}

	log, err := s.logs.Get(ctx, userID, chatLogID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.logs.Lines(log)
	if err != nil {
		return nil, nil, err
	}

	report, err := s.analyzer.Run(ctx, analysis.Request{
		UserID:  userID,
		ChatLog: log,
		Lines:   lines,
		Flavor:  in.Flavor,
		Window:  window,
		Params:  in.Params,
	})
	if err != nil {
		return nil, nil, mapAnalysisError(err)
	}
	if report.Failed() {
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstream, report.Failure)
	}

	if err := s.store.CreateAnalysis(ctx, report.Result, report.Records); err != nil {
		return nil, nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	s.logger.InfoContext(ctx, "Analysis saved", "analysis_id", report.Result.ID, "chat_log_id", chatLogID, "flavor", in.Flavor, "records", len(report.Records))

	return report.Result, report.Records, nil
}

// Flavors lists the public analysis flavors.
func (s *AnalysisService) Flavors() []*analysis.Flavor {
	return analysis.Flavors()
}

// MaxLines returns the effective excerpt line cap of a flavor.
func (s *AnalysisService) MaxLines(f *analysis.Flavor) int {
	return s.analyzer.MaxLines(f)
}

// mapAnalysisError converts pipeline request errors into service errors.
func mapAnalysisError(err error) error {
	var paramErr *analysis.ParamError
	if errors.As(err, &paramErr) {
		return NewValidationError("params."+paramErr.Param, paramErr.Reason)
	}
	var dateErr *chatlog.DateError
	if errors.As(err, &dateErr) {
		return NewValidationError("file", dateErr.Error())
	}
	if errors.Is(err, analysis.ErrUnknownFlavor) {
		return NewValidationError("flavor", err.Error())
	}
	if errors.Is(err, analysis.ErrNoData) {
		return ErrNoData
	}
	return fmt.Errorf("analysis failed: %w", err)
}

// Get returns a result owned by userID with its entity records.
func (s *AnalysisService) Get(ctx context.Context, userID string, id int64) (*database.AnalysisResult, []*database.EntityRecord, error) {
	result, records, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	if result.UserID != userID {
		return nil, nil, ErrForbidden
	}
	return result, records, nil
}

// List returns one page of the caller's results and the total count.
func (s *AnalysisService) List(ctx context.Context, userID string, filter database.AnalysisFilter) ([]*database.AnalysisResult, int, error) {
	if filter.Flavor != "" {
		if _, err := analysis.Lookup(filter.Flavor); err != nil {
			return nil, 0, NewValidationError("flavor", err.Error())
		}
	}
	results, total, err := s.store.ListAnalyses(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list analyses: %w", err)
	}
	return results, total, nil
}

// Delete removes a result and, by cascade, its entity records.
func (s *AnalysisService) Delete(ctx context.Context, userID string, id int64) error {
	if _, _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteAnalysis(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	s.logger.InfoContext(ctx, "Analysis deleted", "analysis_id", id, "user_id", userID)
	return nil
}
