package logger_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/edgard/chatscope/internal/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", logger.TruncateString("short", 10))
	assert.Equal(t, "hello w...", logger.TruncateString("hello world!", 10))
	assert.Equal(t, "...", logger.TruncateString("hello", 2))
	assert.Equal(t, "안녕하세요", logger.TruncateString("안녕하세요", 5))
	assert.Equal(t, "안녕하...", logger.TruncateString("안녕하세요 여러분", 6))
}

func TestMiddleware_SetsRequestID(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.Use(logger.Middleware(log))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(logger.RequestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(logger.RequestIDHeader))
}
