package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatscope/internal/analysis"
	"github.com/edgard/chatscope/internal/config"
	"github.com/edgard/chatscope/internal/database"
	"github.com/edgard/chatscope/internal/llm"
	"github.com/edgard/chatscope/internal/services"
	"github.com/edgard/chatscope/internal/storage"
)

const metadataReply = "=== SUMMARY ===\nTITLE: Sprint planning\nPARTICIPANTS: 5\n=== END SUMMARY ==="

const mbtiReply = `=== SUMMARY ===
SUMMARY: Two planners and a lot of lists.
=== END SUMMARY ===

--- PERSON ANALYSIS ---
NAME: Kim
TYPE: INTJ
EI: 30
SN: 40
TF: 70
JP: 80
DESCRIPTION: Likes a plan.
--- PERSON ANALYSIS ---
NAME: Lee
TYPE: ENFP
EI: 80
SN: 75
TF: 30
JP: 20
DESCRIPTION: Brings the energy.
`

type testEnv struct {
	store    database.Store
	fs       afero.Fs
	logs     *services.ChatLogService
	analyses *services.AnalysisService
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP:    config.HTTPConfig{MaxUploadBytes: 1 << 20},
		Storage: config.StorageConfig{Dir: "uploads"},
		LLM:     config.LLMConfig{Model: "test-model", Timeout: time.Second},
		Analysis: config.AnalysisConfig{
			MaxConcurrent:   2,
			MetadataTimeout: time.Second,
		},
	}
}

// isMetadataPrompt tells the upload-time metadata prompt apart from analyses.
func isMetadataPrompt(prompt string) bool {
	return strings.Contains(prompt, "Suggest a short title")
}

// replyWith answers metadata prompts with metadataReply and analyses with reply.
func replyWith(reply string) llm.ClientFunc {
	return func(_ context.Context, _, prompt string) (string, error) {
		if isMetadataPrompt(prompt) {
			return metadataReply, nil
		}
		return reply, nil
	}
}

func newTestEnv(t *testing.T, cfg *config.Config, client llm.Client) *testEnv {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)

	fs := afero.NewMemMapFs()
	blobs, err := storage.NewStore(fs, cfg.Storage.Dir, nil)
	require.NoError(t, err)

	analyzer, err := analysis.NewAnalyzer(client, cfg, nil)
	require.NoError(t, err)

	logs := services.NewChatLogService(store, blobs, analyzer, cfg, nil)
	t.Cleanup(logs.Wait)

	return &testEnv{
		store:    store,
		fs:       fs,
		logs:     logs,
		analyses: services.NewAnalysisService(store, logs, analyzer, nil),
	}
}

// chatExport renders a log with one banner per day from 2024-03-01.
func chatExport(days int) string {
	var b strings.Builder
	b.WriteString("Project chat with Kim, Lee\n")
	for day := 1; day <= days; day++ {
		fmt.Fprintf(&b, "--------------- 2024-03-%02d ---------------\n", day)
		fmt.Fprintf(&b, "[Kim] [10:0%d] update %d\n", day%10, day)
		fmt.Fprintf(&b, "[Lee] [11:0%d] reply %d\n", day%10, day)
	}
	return b.String()
}

func (e *testEnv) upload(t *testing.T, userID, content string) *database.ChatLog {
	t.Helper()
	log, err := e.logs.Upload(context.Background(), userID, services.UploadInput{
		OriginalName: "chat.txt",
		Body:         strings.NewReader(content),
	})
	require.NoError(t, err)
	e.logs.Wait()
	return log
}

func (e *testEnv) blobCount(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(e.fs, "uploads")
	require.NoError(t, err)
	return len(entries)
}
