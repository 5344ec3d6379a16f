package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for database operations.
// Methods should accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateChatLog inserts a chat log and sets its ID and timestamps.
	CreateChatLog(ctx context.Context, log *ChatLog) error

	// GetChatLog retrieves a chat log by ID. Returns ErrNotFound if missing.
	GetChatLog(ctx context.Context, id int64) (*ChatLog, error)

	// ListChatLogs returns one page of a user's chat logs and the total count.
	ListChatLogs(ctx context.Context, userID string, params ListParams) ([]*ChatLog, int, error)

	// ListChatLogsByMetadataStatus returns up to limit logs in any of the given statuses, oldest first.
	ListChatLogsByMetadataStatus(ctx context.Context, statuses []string, limit int) ([]*ChatLog, error)

	// UpdateChatLogMetadata backfills the estimated title and participant count.
	UpdateChatLogMetadata(ctx context.Context, id int64, title string, participants int, status string) error

	// DeleteChatLog deletes a chat log. Results referencing it keep existing with a NULL reference.
	DeleteChatLog(ctx context.Context, id int64) error

	// CreateAnalysis writes a result and all of its entity records in a single transaction.
	CreateAnalysis(ctx context.Context, result *AnalysisResult, records []*EntityRecord) error

	// GetAnalysis retrieves a result with its entity records. Returns ErrNotFound if missing.
	GetAnalysis(ctx context.Context, id int64) (*AnalysisResult, []*EntityRecord, error)

	// ListAnalyses returns one page of a user's results and the total count.
	ListAnalyses(ctx context.Context, userID string, filter AnalysisFilter) ([]*AnalysisResult, int, error)

	// DeleteAnalysis deletes a result; its entity records are removed by cascade.
	DeleteAnalysis(ctx context.Context, id int64) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

var (
	chatLogSortColumns = map[string]string{
		"created_at": "created_at",
		"title":      "title",
	}
	analysisSortColumns = map[string]string{
		"created_at": "created_at",
		"flavor":     "flavor",
	}
)

// orderClause builds a whitelisted ORDER BY clause. Unknown columns fall back
// to created_at; ties are broken by id so pagination is stable.
func orderClause(columns map[string]string, params ListParams) string {
	col, ok := columns[params.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if params.SortOrder == "asc" {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) CreateChatLog(ctx context.Context, log *ChatLog) error {
	if log == nil {
		return fmt.Errorf("cannot save nil chat log")
	}
	if log.UserID == "" {
		return fmt.Errorf("chat log must have a user_id")
	}
	if log.StorageKey == "" {
		return fmt.Errorf("chat log must have a storage_key")
	}
	if log.MetadataStatus == "" {
		log.MetadataStatus = MetadataPending
	}

	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now

	query := `
        INSERT INTO chat_logs (user_id, title, participant_count, metadata_status, storage_key,
                               original_name, size_bytes, line_count, created_at, updated_at)
        VALUES (:user_id, :title, :participant_count, :metadata_status, :storage_key,
                :original_name, :size_bytes, :line_count, :created_at, :updated_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, log)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving chat log", "user_id", log.UserID, "error", err)
		return fmt.Errorf("failed to save chat log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read chat log id: %w", err)
	}
	log.ID = id

	s.logger.DebugContext(ctx, "Chat log saved", "chat_log_id", log.ID, "user_id", log.UserID)
	return nil
}

func (s *sqlxStore) GetChatLog(ctx context.Context, id int64) (*ChatLog, error) {
	var log ChatLog
	err := s.db.GetContext(ctx, &log, `SELECT * FROM chat_logs WHERE id = ?;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat log %d: %w", id, err)
	}
	return &log, nil
}

func (s *sqlxStore) ListChatLogs(ctx context.Context, userID string, params ListParams) ([]*ChatLog, int, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM chat_logs WHERE user_id = ?;`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count chat logs: %w", err)
	}

	query := `SELECT * FROM chat_logs WHERE user_id = ?` + orderClause(chatLogSortColumns, params) + ` LIMIT ? OFFSET ?;`
	logs := []*ChatLog{}
	if err := s.db.SelectContext(ctx, &logs, query, userID, params.PageSize, params.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list chat logs: %w", err)
	}
	return logs, total, nil
}

func (s *sqlxStore) ListChatLogsByMetadataStatus(ctx context.Context, statuses []string, limit int) ([]*ChatLog, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query, args, err := sqlx.In(`SELECT * FROM chat_logs WHERE metadata_status IN (?) ORDER BY created_at ASC, id ASC LIMIT ?;`, statuses, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata status query: %w", err)
	}

	logs := []*ChatLog{}
	if err := s.db.SelectContext(ctx, &logs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list chat logs by metadata status: %w", err)
	}
	return logs, nil
}

func (s *sqlxStore) UpdateChatLogMetadata(ctx context.Context, id int64, title string, participants int, status string) error {
	result, err := s.db.ExecContext(ctx, `
        UPDATE chat_logs
        SET title = ?, participant_count = ?, metadata_status = ?, updated_at = ?
        WHERE id = ?;
    `, title, participants, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update chat log %d metadata: %w", id, err)
	}
	return expectAffected(result, id)
}

func (s *sqlxStore) DeleteChatLog(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_logs WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chat log %d: %w", id, err)
	}
	return expectAffected(result, id)
}

func (s *sqlxStore) CreateAnalysis(ctx context.Context, result *AnalysisResult, records []*EntityRecord) error {
	if result == nil {
		return fmt.Errorf("cannot save nil analysis result")
	}
	if result.UserID == "" || result.Flavor == "" {
		return fmt.Errorf("analysis result must have user_id and flavor")
	}
	result.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving analysis", "flavor", result.Flavor, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	res, err := tx.NamedExecContext(ctx, `
        INSERT INTO analysis_results (user_id, chat_log_id, flavor, model, start_date, end_date, params, summary,
                                      lines_analyzed, lines_sent, excerpt_bytes, truncated, created_at)
        VALUES (:user_id, :chat_log_id, :flavor, :model, :start_date, :end_date, :params, :summary,
                :lines_analyzed, :lines_sent, :excerpt_bytes, :truncated, :created_at);
    `, result)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving analysis result", "flavor", result.Flavor, "error", err)
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	resultID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read analysis result id: %w", err)
	}

	for _, rec := range records {
		rec.ResultID = resultID
		recRes, err := tx.NamedExecContext(ctx, `
            INSERT INTO entity_records (result_id, section, position, name, partner, score, fields)
            VALUES (:result_id, :section, :position, :name, :partner, :score, :fields);
        `, rec)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error saving entity record", "section", rec.Section, "name", rec.Name, "error", err)
			return fmt.Errorf("failed to save entity record %q: %w", rec.Name, err)
		}
		if rec.ID, err = recRes.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read entity record id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit analysis transaction", "flavor", result.Flavor, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	result.ID = resultID

	s.logger.DebugContext(ctx, "Analysis saved", "result_id", result.ID, "flavor", result.Flavor, "records", len(records))
	return nil
}

func (s *sqlxStore) GetAnalysis(ctx context.Context, id int64) (*AnalysisResult, []*EntityRecord, error) {
	var result AnalysisResult
	if err := s.db.GetContext(ctx, &result, `SELECT * FROM analysis_results WHERE id = ?;`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get analysis %d: %w", id, err)
	}

	records := []*EntityRecord{}
	if err := s.db.SelectContext(ctx, &records,
		`SELECT * FROM entity_records WHERE result_id = ? ORDER BY section ASC, position ASC;`, id); err != nil {
		return nil, nil, fmt.Errorf("failed to get entity records of analysis %d: %w", id, err)
	}
	return &result, records, nil
}

func (s *sqlxStore) ListAnalyses(ctx context.Context, userID string, filter AnalysisFilter) ([]*AnalysisResult, int, error) {
	where := ` WHERE user_id = ?`
	args := []any{userID}
	if filter.Flavor != "" {
		where += ` AND flavor = ?`
		args = append(args, filter.Flavor)
	}
	if filter.ChatLogID != 0 {
		where += ` AND chat_log_id = ?`
		args = append(args, filter.ChatLogID)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM analysis_results`+where+`;`, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count analyses: %w", err)
	}

	query := `SELECT * FROM analysis_results` + where + orderClause(analysisSortColumns, filter.ListParams) + ` LIMIT ? OFFSET ?;`
	args = append(args, filter.PageSize, filter.Offset())

	results := []*AnalysisResult{}
	if err := s.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list analyses: %w", err)
	}
	return results, total, nil
}

func (s *sqlxStore) DeleteAnalysis(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM analysis_results WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis %d: %w", id, err)
	}
	return expectAffected(result, id)
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance")
	for _, stmt := range []string{"VACUUM;", "ANALYZE;", "PRAGMA optimize;"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}
	return nil
}

func expectAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for id %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
