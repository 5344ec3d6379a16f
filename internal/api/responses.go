package api

import (
	"time"

	"github.com/edgard/chatscope/internal/analysis"
	"github.com/edgard/chatscope/internal/database"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// PageResponse is one page of a list endpoint.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

func newPage[T any](items []T, params database.ListParams, total int) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PageResponse[T]{Items: items, Page: params.Page, PageSize: params.PageSize, Total: total}
}

// ChatLogResponse describes an uploaded chat log.
type ChatLogResponse struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	ParticipantCount int       `json:"participant_count"`
	MetadataStatus   string    `json:"metadata_status"`
	OriginalName     string    `json:"original_name"`
	SizeBytes        int64     `json:"size_bytes"`
	LineCount        int       `json:"line_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newChatLogResponse(l *database.ChatLog) ChatLogResponse {
	return ChatLogResponse{
		ID:               l.ID,
		Title:            l.Title,
		ParticipantCount: l.ParticipantCount,
		MetadataStatus:   l.MetadataStatus,
		OriginalName:     l.OriginalName,
		SizeBytes:        l.SizeBytes,
		LineCount:        l.LineCount,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

// AnalysisResponse describes one analysis result. Records are only included
// when a single result is requested or created.
type AnalysisResponse struct {
	ID            int64            `json:"id"`
	ChatLogID     *int64           `json:"chat_log_id"`
	Flavor        string           `json:"flavor"`
	Model         string           `json:"model"`
	StartDate     *string          `json:"start_date"`
	EndDate       *string          `json:"end_date"`
	Params        map[string]any   `json:"params"`
	Summary       map[string]any   `json:"summary"`
	LinesAnalyzed int              `json:"lines_analyzed"`
	LinesSent     int              `json:"lines_sent"`
	ExcerptBytes  int              `json:"excerpt_bytes"`
	Truncated     bool             `json:"truncated"`
	CreatedAt     time.Time        `json:"created_at"`
	Records       []RecordResponse `json:"records,omitempty"`
}

// RecordResponse is one per-participant, per-period or per-pair record.
type RecordResponse struct {
	Section string         `json:"section"`
	Rank    int            `json:"rank"`
	Name    string         `json:"name,omitempty"`
	Partner string         `json:"partner,omitempty"`
	Score   int            `json:"score"`
	Fields  map[string]any `json:"fields"`
}

func newAnalysisResponse(r *database.AnalysisResult, records []*database.EntityRecord) AnalysisResponse {
	resp := AnalysisResponse{
		ID:            r.ID,
		ChatLogID:     r.ChatLogID,
		Flavor:        r.Flavor,
		Model:         r.Model,
		StartDate:     formatDate(r.StartDate),
		EndDate:       formatDate(r.EndDate),
		Params:        r.Params,
		Summary:       r.Summary,
		LinesAnalyzed: r.LinesAnalyzed,
		LinesSent:     r.LinesSent,
		ExcerptBytes:  r.ExcerptBytes,
		Truncated:     r.Truncated,
		CreatedAt:     r.CreatedAt,
	}
	if records != nil {
		resp.Records = make([]RecordResponse, 0, len(records))
		for _, rec := range records {
			resp.Records = append(resp.Records, RecordResponse{
				Section: rec.Section,
				Rank:    rec.Position,
				Name:    rec.Name,
				Partner: rec.Partner,
				Score:   rec.Score,
				Fields:  rec.Fields,
			})
		}
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// FlavorResponse describes an analysis flavor in the catalogue.
type FlavorResponse struct {
	Name        string           `json:"name"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Params      []analysis.Param `json:"params"`
	MaxLines    int              `json:"max_lines"`
	Summary     []string         `json:"summary_fields"`
	Sections    []SectionInfo    `json:"sections"`
}

// SectionInfo describes a repeated-entity section of a flavor.
type SectionInfo struct {
	Key        string   `json:"key"`
	Entity     string   `json:"entity"`
	MaxRecords int      `json:"max_records"`
	Ranked     bool     `json:"ranked"`
	Fields     []string `json:"fields"`
}

func newFlavorResponse(f *analysis.Flavor, maxLines int) FlavorResponse {
	resp := FlavorResponse{
		Name:        f.Name,
		Title:       f.Title,
		Description: f.Description,
		Params:      f.Params,
		MaxLines:    maxLines,
		Summary:     make([]string, 0, len(f.Summary)),
		Sections:    make([]SectionInfo, 0, len(f.Sections)),
	}
	if resp.Params == nil {
		resp.Params = []analysis.Param{}
	}
	for _, field := range f.Summary {
		resp.Summary = append(resp.Summary, field.Key)
	}
	for _, s := range f.Sections {
		info := SectionInfo{Key: s.Key, Entity: s.Entity, MaxRecords: s.MaxRecords, Ranked: s.Rank}
		for _, field := range s.Fields {
			info.Fields = append(info.Fields, field.Key)
		}
		resp.Sections = append(resp.Sections, info)
	}
	return resp
}
