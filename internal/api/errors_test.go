package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/edgard/chatscope/internal/services"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
		expectMsg  string
	}{
		{
			name:       "validation error maps to 400",
			err:        services.NewValidationError("flavor", "required"),
			expectCode: http.StatusBadRequest,
			expectMsg:  "required",
		},
		{
			name:       "not found maps to 404",
			err:        fmt.Errorf("wrapped: %w", services.ErrNotFound),
			expectCode: http.StatusNotFound,
			expectMsg:  "resource not found",
		},
		{
			name:       "forbidden maps to 403",
			err:        services.ErrForbidden,
			expectCode: http.StatusForbidden,
			expectMsg:  "another user",
		},
		{
			name:       "no data maps to 422",
			err:        services.ErrNoData,
			expectCode: http.StatusUnprocessableEntity,
			expectMsg:  "no chat lines",
		},
		{
			name:       "upstream failure maps to 502",
			err:        fmt.Errorf("%w: timeout", services.ErrUpstream),
			expectCode: http.StatusBadGateway,
			expectMsg:  "unavailable",
		},
		{
			name:       "unknown error maps to 500",
			err:        fmt.Errorf("something unexpected happened"),
			expectCode: http.StatusInternalServerError,
			expectMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapServiceError(tt.err)
			assert.Equal(t, tt.expectCode, he.Code)
			assert.Contains(t, he.Error(), tt.expectMsg)
		})
	}
}

func TestExtractUser(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{
			name:     "no headers",
			headers:  map[string]string{},
			expected: "",
		},
		{
			name: "X-Forwarded-User takes priority",
			headers: map[string]string{
				"X-Forwarded-User": "alice",
				"X-Remote-User":    "system:serviceaccount:ns:sa",
			},
			expected: "alice",
		},
		{
			name: "X-Remote-User used for kube-rbac-proxy API clients",
			headers: map[string]string{
				"X-Remote-User": "system:serviceaccount:ns:sa",
			},
			expected: "system:serviceaccount:ns:sa",
		},
		{
			name: "blank header ignored",
			headers: map[string]string{
				"X-Forwarded-User": "   ",
				"X-Remote-User":    "bob",
			},
			expected: "bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, extractUser(c))
		})
	}
}
