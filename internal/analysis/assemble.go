package analysis

import (
	"sort"
	"time"

	"github.com/edgard/chatscope/internal/database"
	"github.com/edgard/chatscope/internal/extract"
)

// Meta is what the assembler knows about a request besides the reply.
type Meta struct {
	UserID    string
	ChatLogID int64
	Model     string
	Params    map[string]string
	// First and Last are the dates actually covered by the excerpt.
	First, Last time.Time
	// Participants is the declared participant count of the log, zero if unknown.
	Participants  int
	LinesAnalyzed int
	LinesSent     int
	ExcerptBytes  int
	Truncated     bool
}

// Assemble builds the result row and its entity records. Line counts come
// from the filter and the prompt builder, never from the reply.
func Assemble(f *Flavor, parsed Parsed, meta Meta) (*database.AnalysisResult, []*database.EntityRecord) {
	result := &database.AnalysisResult{
		UserID:        meta.UserID,
		Flavor:        f.Name,
		Model:         meta.Model,
		StartDate:     datePtr(meta.First),
		EndDate:       datePtr(meta.Last),
		Params:        database.JSONMap{},
		Summary:       toJSONMap(parsed.Summary),
		LinesAnalyzed: meta.LinesAnalyzed,
		LinesSent:     meta.LinesSent,
		ExcerptBytes:  meta.ExcerptBytes,
		Truncated:     meta.Truncated,
	}
	if meta.ChatLogID != 0 {
		id := meta.ChatLogID
		result.ChatLogID = &id
	}
	for k, v := range meta.Params {
		result.Params[k] = v
	}

	var records []*database.EntityRecord
	for _, s := range f.Sections {
		for i, values := range Leaderboard(s, parsed.Blocks[s.Key], meta.Participants) {
			records = append(records, &database.EntityRecord{
				Section:  s.Key,
				Position: i + 1,
				Name:     values.String(s.NameField),
				Partner:  values.String(s.PartnerField),
				Score:    values.Int(s.ScoreField),
				Fields:   toJSONMap(values),
			})
		}
	}
	return result, records
}

// Leaderboard orders and caps the blocks of a section. Ranked sections sort
// by score, highest first, keeping reply order among ties. The cap is the
// section maximum, lowered to participants when the section asks for it.
func Leaderboard(s Section, blocks []extract.Values, participants int) []extract.Values {
	out := make([]extract.Values, len(blocks))
	copy(out, blocks)

	if s.Rank && s.ScoreField != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Int(s.ScoreField) > out[j].Int(s.ScoreField)
		})
	}

	limit := s.MaxRecords
	if s.CapByParticipants && participants > 0 && (limit <= 0 || participants < limit) {
		limit = participants
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func toJSONMap(v extract.Values) database.JSONMap {
	m := make(database.JSONMap, len(v))
	for k, val := range v {
		m[k] = val
	}
	return m
}

func datePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
