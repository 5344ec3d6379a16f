package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/edgard/chatscope/internal/chatlog"
	"github.com/edgard/chatscope/internal/config"
	"github.com/edgard/chatscope/internal/database"
	"github.com/edgard/chatscope/internal/llm"
	"github.com/edgard/chatscope/internal/logger"
)

// replyPreviewRunes bounds the reply excerpt written to debug logs.
const replyPreviewRunes = 200

// ErrNoData is returned when the requested window holds no log lines.
var ErrNoData = errors.New("no chat lines in the requested date range")

// Request is one analysis of one chat log.
type Request struct {
	UserID  string
	ChatLog *database.ChatLog
	// Lines is the full, unfiltered log.
	Lines  []string
	Flavor string
	Window chatlog.Window
	Params map[string]string
}

// Report is the outcome of an analysis run. When Failure is set the model
// call failed, Result is nil and nothing may be persisted.
type Report struct {
	Flavor  *Flavor
	Result  *database.AnalysisResult
	Records []*database.EntityRecord
	Failure error
	// Missing lists summary fields that took their defaults.
	Missing []string
}

// Failed reports whether the upstream call failed.
func (r *Report) Failed() bool { return r.Failure != nil }

// Analyzer runs the filter, prompt, model, parse and assemble pipeline.
type Analyzer struct {
	client  llm.Client
	builder *Builder
	cfg     *config.Config
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer. Concurrent model calls are bounded by
// cfg.Analysis.MaxConcurrent.
func NewAnalyzer(client llm.Client, cfg *config.Config, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	builder, err := NewBuilder(cfg.Analysis.MaxLines)
	if err != nil {
		return nil, err
	}
	limit := cfg.Analysis.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	return &Analyzer{
		client:  client,
		builder: builder,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(limit),
		logger:  logger.With("component", "analyzer"),
	}, nil
}

// Run executes one analysis. Request problems (unknown flavor, bad params,
// malformed log dates, empty window) are returned as errors before any model
// call. A failed model call is reported through Report.Failure.
func (a *Analyzer) Run(ctx context.Context, req Request) (*Report, error) {
	f, err := Lookup(req.Flavor)
	if err != nil {
		return nil, err
	}
	params, err := f.ResolveParams(req.Params)
	if err != nil {
		return nil, err
	}

	excerpt, err := chatlog.Filter(req.Lines, req.Window)
	if err != nil {
		return nil, err
	}
	if excerpt.Empty() {
		return nil, ErrNoData
	}

	participants := 0
	var chatLogID int64
	if req.ChatLog != nil {
		participants = req.ChatLog.ParticipantCount
		chatLogID = req.ChatLog.ID
	}

	prompt, err := a.builder.Build(f, params, excerpt.Lines, participants)
	if err != nil {
		return nil, err
	}

	log := a.logger.With("flavor", f.Name, "chat_log_id", chatLogID)
	model := a.cfg.ModelFor(f.Name)
	reply, err := a.generate(ctx, model, prompt.Text)
	if err != nil {
		log.WarnContext(ctx, "Analysis model call failed", "error", err)
		return &Report{Flavor: f, Failure: err}, nil
	}

	parsed := Parse(f, reply)
	if len(parsed.Missing) > 0 || parsed.Skipped > 0 {
		log.DebugContext(ctx, "Reply missing fields, defaults applied", "missing", parsed.Missing, "skipped_blocks", parsed.Skipped)
	}

	result, records := Assemble(f, parsed, Meta{
		UserID:        req.UserID,
		ChatLogID:     chatLogID,
		Model:         model,
		Params:        params,
		First:         excerpt.First,
		Last:          excerpt.Last,
		Participants:  participants,
		LinesAnalyzed: excerpt.Count(),
		LinesSent:     prompt.LinesSent,
		ExcerptBytes:  prompt.Bytes,
		Truncated:     prompt.Truncated,
	})
	log.InfoContext(ctx, "Analysis completed", "lines", excerpt.Count(), "lines_sent", prompt.LinesSent, "records", len(records))

	return &Report{Flavor: f, Result: result, Records: records, Missing: parsed.Missing}, nil
}

// MaxLines returns the effective excerpt line cap of a flavor.
func (a *Analyzer) MaxLines(f *Flavor) int {
	return a.builder.MaxLines(f)
}

// generate calls the model under the concurrency limit and the configured timeout.
func (a *Analyzer) generate(ctx context.Context, model, prompt string) (string, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for a free model slot: %w", err)
	}
	defer a.sem.Release(1)

	timeout := a.cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = config.DefaultLLMTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := a.client.Generate(callCtx, model, prompt)
	if err != nil {
		return "", err
	}
	a.logger.DebugContext(ctx, "Model replied", "model", model, "reply_bytes", len(reply),
		"reply_preview", logger.TruncateString(reply, replyPreviewRunes), "elapsed", time.Since(start))
	return reply, nil
}
