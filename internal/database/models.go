package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata statuses of a ChatLog. Title and participant count are estimated
// by an LLM after upload and may stay pending or fail.
const (
	MetadataPending = "pending"
	MetadataReady   = "ready"
	MetadataFailed  = "failed"
)

// ChatLog represents an uploaded chat export owned by one user.
type ChatLog struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID           string `db:"user_id"`
	Title            string `db:"title"`
	ParticipantCount int    `db:"participant_count"`
	MetadataStatus   string `db:"metadata_status"`
	StorageKey       string `db:"storage_key"`
	OriginalName     string `db:"original_name"`
	SizeBytes        int64  `db:"size_bytes"`
	LineCount        int    `db:"line_count"`
}

// AnalysisResult is the root record of one completed analysis. ChatLogID is
// nil once the referenced chat log has been deleted.
type AnalysisResult struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	UserID    string     `db:"user_id"`
	ChatLogID *int64     `db:"chat_log_id"`
	Flavor    string     `db:"flavor"`
	Model     string     `db:"model"`
	StartDate *time.Time `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	Params    JSONMap    `db:"params"`
	Summary   JSONMap    `db:"summary"`

	LinesAnalyzed int  `db:"lines_analyzed"`
	LinesSent     int  `db:"lines_sent"`
	ExcerptBytes  int  `db:"excerpt_bytes"`
	Truncated     bool `db:"truncated"`
}

// EntityRecord is a repeated per-participant, per-period or per-pair
// sub-result. Name, Partner and Score are lifted out of Fields for sorting
// and querying; Fields keeps every parsed value.
type EntityRecord struct {
	ID       int64   `db:"id"`
	ResultID int64   `db:"result_id"`
	Section  string  `db:"section"`
	Position int     `db:"position"`
	Name     string  `db:"name"`
	Partner  string  `db:"partner"`
	Score    int     `db:"score"`
	Fields   JSONMap `db:"fields"`
}

// JSONMap stores a string-keyed map as a JSON text column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported type %T for json column", src)
	}
	out := JSONMap{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("failed to unmarshal json column: %w", err)
		}
	}
	*m = out
	return nil
}

// ListParams controls pagination and ordering of list queries.
type ListParams struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// AnalysisFilter narrows ListAnalyses.
type AnalysisFilter struct {
	ListParams
	Flavor    string
	ChatLogID int64
}
