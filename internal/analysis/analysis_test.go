package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatscope/internal/analysis"
	"github.com/edgard/chatscope/internal/chatlog"
	"github.com/edgard/chatscope/internal/config"
	"github.com/edgard/chatscope/internal/database"
	"github.com/edgard/chatscope/internal/extract"
	"github.com/edgard/chatscope/internal/llm"
)

const contributionReply = `Here is the analysis.

=== SUMMARY ===
TEAM_SCORE: 82
SUMMARY: The team shipped on time.
IMPROVEMENT: Share updates earlier.
=== END SUMMARY ===

=== PERSON ANALYSES ===
--- PERSON ANALYSIS ---
NAME: Kim
SCORE: 70
PARTICIPATION: 75
INITIATIVE: 60
COLLABORATION: 80
ROLE: Designer
FEEDBACK: Speak up more in planning.
--- PERSON ANALYSIS ---

--- PERSON ANALYSIS ---
NAME: Lee
SCORE: 90
PARTICIPATION: 95
INITIATIVE: 88
COLLABORATION: 85
ROLE: Organiser
FEEDBACK: Delegate more.
=== END PERSON ANALYSES ===
`

func sampleLog() []string {
	var lines []string
	for day := 1; day <= 5; day++ {
		lines = append(lines,
			fmt.Sprintf("--------------- 2024-03-%02d ---------------", day),
			fmt.Sprintf("[Kim] [10:0%d] update %d", day, day),
			fmt.Sprintf("[Lee] [11:0%d] reply %d", day, day),
		)
	}
	return lines
}

func testConfig() *config.Config {
	return &config.Config{
		LLM:      config.LLMConfig{Model: "test-model", Timeout: time.Second},
		Analysis: config.AnalysisConfig{MaxConcurrent: 2, Models: map[string]string{"mbti": "mbti-model"}},
	}
}

func newAnalyzer(t *testing.T, fn llm.ClientFunc) *analysis.Analyzer {
	t.Helper()
	a, err := analysis.NewAnalyzer(fn, testConfig(), nil)
	require.NoError(t, err)
	return a
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"contribution", "compatibility", "mbti", "chemistry"} {
		f, err := analysis.Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, f.Name)
	}

	_, err := analysis.Lookup("metadata")
	assert.ErrorIs(t, err, analysis.ErrUnknownFlavor, "internal flavors are hidden")
	_, err = analysis.Lookup("horoscope")
	assert.ErrorIs(t, err, analysis.ErrUnknownFlavor)

	var names []string
	for _, f := range analysis.Flavors() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"chemistry", "compatibility", "contribution", "mbti"}, names)
}

func TestResolveParams(t *testing.T) {
	t.Parallel()

	contribution, err := analysis.Lookup("contribution")
	require.NoError(t, err)
	chemistry, err := analysis.Lookup("chemistry")
	require.NoError(t, err)

	got, err := contribution.ResolveParams(map[string]string{"project_type": "  capstone "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"project_type": "capstone"}, got)

	got, err = chemistry.ResolveParams(nil)
	require.NoError(t, err)
	assert.Equal(t, "friends", got["group_type"])

	var paramErr *analysis.ParamError
	_, err = contribution.ResolveParams(nil)
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "project_type", paramErr.Param)

	_, err = contribution.ResolveParams(map[string]string{"project_type": "x", "mood": "y"})
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, "mood", paramErr.Param)

	_, err = contribution.ResolveParams(map[string]string{"project_type": strings.Repeat("a", 201)})
	assert.ErrorAs(t, err, &paramErr)
}

func TestGrammarCoversEveryField(t *testing.T) {
	t.Parallel()

	for _, f := range analysis.Flavors() {
		grammar := f.Grammar()
		assert.Contains(t, grammar, f.SummaryStart, f.Name)
		for _, fd := range f.Summary {
			assert.Contains(t, grammar, fd.Label+": <", f.Name)
		}
		for _, s := range f.Sections {
			assert.Contains(t, grammar, s.Separator, f.Name)
			for _, fd := range s.Fields {
				assert.Contains(t, grammar, fd.Label+": <", f.Name)
			}
		}
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	b, err := analysis.NewBuilder(map[string]int{"contribution": 4})
	require.NoError(t, err)
	f, err := analysis.Lookup("contribution")
	require.NoError(t, err)

	lines := sampleLog()
	p, err := b.Build(f, map[string]string{"project_type": "mobile app"}, lines, 2)
	require.NoError(t, err)

	assert.True(t, p.Truncated)
	assert.Equal(t, 4, p.LinesSent)
	tail := strings.Join(lines[len(lines)-4:], "\n")
	assert.Equal(t, len(tail), p.Bytes)
	assert.Contains(t, p.Text, tail)
	assert.NotContains(t, p.Text, lines[1], "older lines are cut")
	assert.Contains(t, p.Text, "mobile app")
	assert.Contains(t, p.Text, f.Grammar())
	assert.Contains(t, p.Text, "Participants seen in the log: Lee, Kim.")
}

func TestBuilder_EveryFlavorRenders(t *testing.T) {
	t.Parallel()

	b, err := analysis.NewBuilder(nil)
	require.NoError(t, err)

	for _, f := range analysis.Flavors() {
		in := map[string]string{}
		for _, p := range f.Params {
			in[p.Name] = "value-for-" + p.Name
		}
		params, err := f.ResolveParams(in)
		require.NoError(t, err, f.Name)

		p, err := b.Build(f, params, sampleLog(), 0)
		require.NoError(t, err, f.Name)
		assert.False(t, p.Truncated)
		assert.Equal(t, len(sampleLog()), p.LinesSent)
		for _, v := range params {
			assert.Contains(t, p.Text, v, f.Name)
		}
		assert.NotContains(t, p.Text, "<no value>", f.Name)
	}
}

func TestParse_MissingLeaderKeepsOtherFields(t *testing.T) {
	t.Parallel()

	f, err := analysis.Lookup("contribution")
	require.NoError(t, err)

	parsed := analysis.Parse(f, contributionReply)
	assert.Equal(t, "", parsed.Summary.String("leader"))
	assert.Equal(t, 82, parsed.Summary.Int("team_score"))
	assert.Equal(t, "The team shipped on time.", parsed.Summary.String("summary"))
	assert.Equal(t, "Share updates earlier.", parsed.Summary.String("improvement"))
	assert.Equal(t, []string{"leader"}, parsed.Missing)
}

func TestParse_SummaryIgnoresEntityBlocks(t *testing.T) {
	t.Parallel()

	f, err := analysis.Lookup("compatibility")
	require.NoError(t, err)

	period := "--- PERIOD ANALYSIS ---\nPERIOD: 2024-03-01 ~ 2024-03-07\nSCORE: 12\nMOOD: tense\n"
	tests := []struct {
		name  string
		reply string
	}{
		{
			name:  "no summary markers",
			reply: "PERSON_A: Kim\nPERSON_B: Lee\n" + period,
		},
		{
			name:  "unterminated summary",
			reply: "=== SUMMARY ===\nPERSON_A: Kim\nPERSON_B: Lee\n=== PERIOD ANALYSES ===\n" + period,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed := analysis.Parse(f, tt.reply)
			assert.Equal(t, "Kim", parsed.Summary.String("person_a"))
			assert.Equal(t, 0, parsed.Summary.Int("score"))
			assert.Contains(t, parsed.Missing, "score")
			require.Len(t, parsed.Blocks["periods"], 1)
			assert.Equal(t, 12, parsed.Blocks["periods"][0].Int("score"))
		})
	}
}

func TestAssemble_DropsBlankBlocksAndRanks(t *testing.T) {
	t.Parallel()

	f, err := analysis.Lookup("contribution")
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	result, records := analysis.Assemble(f, analysis.Parse(f, contributionReply), analysis.Meta{
		UserID:        "alice",
		ChatLogID:     7,
		Model:         "test-model",
		Params:        map[string]string{"project_type": "capstone"},
		First:         start,
		Last:          start.AddDate(0, 0, 4),
		LinesAnalyzed: 15,
		LinesSent:     15,
		ExcerptBytes:  300,
	})

	require.Len(t, records, 2)
	assert.Equal(t, "Lee", records[0].Name)
	assert.Equal(t, 90, records[0].Score)
	assert.Equal(t, 1, records[0].Position)
	assert.Equal(t, "Kim", records[1].Name)
	assert.Equal(t, "Designer", records[1].Fields["role"])
	assert.Equal(t, "people", records[1].Section)

	assert.Equal(t, "contribution", result.Flavor)
	require.NotNil(t, result.ChatLogID)
	assert.EqualValues(t, 7, *result.ChatLogID)
	assert.Equal(t, 15, result.LinesAnalyzed)
	assert.Equal(t, "", result.Summary["leader"])
	assert.Equal(t, 82, result.Summary["team_score"])
	assert.Equal(t, "capstone", result.Params["project_type"])
	require.NotNil(t, result.StartDate)
	assert.Equal(t, start, *result.StartDate)
}

func TestAssemble_NoBlocks(t *testing.T) {
	t.Parallel()

	f, err := analysis.Lookup("chemistry")
	require.NoError(t, err)

	result, records := analysis.Assemble(f, analysis.Parse(f, "GROUP_SCORE: 40\nno pairs found"), analysis.Meta{UserID: "u"})
	assert.Empty(t, records)
	assert.Equal(t, 40, result.Summary["group_score"])
	assert.Nil(t, result.ChatLogID)
	assert.Nil(t, result.StartDate)
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()

	blocks := make([]extract.Values, 0, 12)
	for i := 0; i < 12; i++ {
		blocks = append(blocks, extract.Values{"name": fmt.Sprintf("p%d", i), "score": i % 4})
	}

	ranked := analysis.Section{ScoreField: "score", Rank: true, CapByParticipants: true, MaxRecords: 10}
	top := analysis.Leaderboard(ranked, blocks, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"p3", "p7", "p11"}, []string{top[0].String("name"), top[1].String("name"), top[2].String("name")})

	require.Len(t, analysis.Leaderboard(ranked, blocks, 0), 10, "unknown participant count keeps the flavor cap")
	require.Len(t, analysis.Leaderboard(ranked, blocks, 50), 10)

	chrono := analysis.Section{ScoreField: "score", MaxRecords: 12}
	ordered := analysis.Leaderboard(chrono, blocks, 2)
	require.Len(t, ordered, 12)
	assert.Equal(t, "p0", ordered[0].String("name"))
	assert.Equal(t, "p0", blocks[0].String("name"), "input is not reordered")
}

func TestAnalyzer_Run(t *testing.T) {
	t.Parallel()

	var gotModel, gotPrompt string
	a := newAnalyzer(t, func(_ context.Context, model, prompt string) (string, error) {
		gotModel, gotPrompt = model, prompt
		return contributionReply, nil
	})

	window, err := chatlog.NewWindow("2024-03-02", "2024-03-04")
	require.NoError(t, err)

	report, err := a.Run(context.Background(), analysis.Request{
		UserID:  "alice",
		ChatLog: &database.ChatLog{ID: 3, ParticipantCount: 1},
		Lines:   sampleLog(),
		Flavor:  "contribution",
		Window:  window,
		Params:  map[string]string{"project_type": "capstone"},
	})
	require.NoError(t, err)
	require.False(t, report.Failed())

	assert.Equal(t, "test-model", gotModel)
	assert.Contains(t, gotPrompt, "update 3")
	assert.NotContains(t, gotPrompt, "update 1")

	assert.Equal(t, 9, report.Result.LinesAnalyzed)
	assert.Equal(t, 9, report.Result.LinesSent)
	assert.False(t, report.Result.Truncated)
	require.Len(t, report.Records, 1, "capped by the declared participant count")
	assert.Equal(t, "Lee", report.Records[0].Name)
	assert.Equal(t, []string{"leader"}, report.Missing)
}

func TestAnalyzer_RunModelFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	a := newAnalyzer(t, func(context.Context, string, string) (string, error) { return "", boom })

	report, err := a.Run(context.Background(), analysis.Request{
		UserID: "alice",
		Lines:  sampleLog(),
		Flavor: "mbti",
	})
	require.NoError(t, err)
	require.True(t, report.Failed())
	assert.ErrorIs(t, report.Failure, boom)
	assert.Nil(t, report.Result)
	assert.Empty(t, report.Records)
}

func TestAnalyzer_RunRejectsBeforeCallingModel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	a := newAnalyzer(t, func(context.Context, string, string) (string, error) {
		calls.Add(1)
		return "", nil
	})

	far, err := chatlog.NewWindow("2030-01-01", "")
	require.NoError(t, err)

	var paramErr *analysis.ParamError
	var dateErr *chatlog.DateError
	tests := []struct {
		name  string
		req   analysis.Request
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown flavor",
			req:   analysis.Request{Flavor: "tarot", Lines: sampleLog()},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, analysis.ErrUnknownFlavor) },
		},
		{
			name:  "missing param",
			req:   analysis.Request{Flavor: "compatibility", Lines: sampleLog()},
			check: func(t *testing.T, err error) { assert.ErrorAs(t, err, &paramErr) },
		},
		{
			name:  "empty window",
			req:   analysis.Request{Flavor: "mbti", Lines: sampleLog(), Window: far},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, analysis.ErrNoData) },
		},
		{
			name:  "empty log",
			req:   analysis.Request{Flavor: "mbti"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, analysis.ErrNoData) },
		},
		{
			name:  "bad banner",
			req:   analysis.Request{Flavor: "mbti", Lines: append(sampleLog(), "--- 2024-13-01 ---")},
			check: func(t *testing.T, err error) { assert.ErrorAs(t, err, &dateErr) },
		},
	}

	for _, tt := range tests {
		report, err := a.Run(context.Background(), tt.req)
		require.Error(t, err, tt.name)
		assert.Nil(t, report, tt.name)
		tt.check(t, err)
	}
	assert.Zero(t, calls.Load())
}

func TestAnalyzer_UsesPerFlavorModelAndTimeout(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t, func(ctx context.Context, model, _ string) (string, error) {
		assert.Equal(t, "mbti-model", model)
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
		return "", nil
	})

	report, err := a.Run(context.Background(), analysis.Request{Flavor: "mbti", Lines: sampleLog()})
	require.NoError(t, err)
	assert.False(t, report.Failed(), "an empty reply is a successful call with defaulted fields")
	assert.Empty(t, report.Records)
}

func TestAnalyzer_EstimateMetadata(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(t, func(context.Context, string, string) (string, error) {
		return "=== SUMMARY ===\nTITLE: Sprint planning\nPARTICIPANTS: 5\n=== END SUMMARY ===", nil
	})
	md, err := a.EstimateMetadata(context.Background(), sampleLog())
	require.NoError(t, err)
	assert.Equal(t, analysis.Metadata{Title: "Sprint planning", Participants: 5}, md)

	a = newAnalyzer(t, func(context.Context, string, string) (string, error) {
		return "TITLE: Sprint planning", nil
	})
	md, err = a.EstimateMetadata(context.Background(), sampleLog())
	require.NoError(t, err)
	assert.Equal(t, 2, md.Participants, "falls back to distinct authors")

	a = newAnalyzer(t, func(context.Context, string, string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	md, err = a.EstimateMetadata(context.Background(), sampleLog())
	require.Error(t, err)
	assert.Equal(t, 2, md.Participants)
	assert.Empty(t, md.Title)
}
