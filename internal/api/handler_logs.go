package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/edgard/chatscope/internal/services"
)

// multipartOverhead is the slack allowed on top of the upload limit for
// multipart boundaries and the other form fields.
const multipartOverhead = 1 << 20

// uploadLogHandler handles POST /api/v1/logs.
func (s *Server) uploadLogHandler(c *gin.Context) {
	limit := s.cfg.MaxUploadBytes
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, services.NewValidationError("file", fmt.Sprintf("must be at most %d bytes", limit)))
			return
		}
		abortBadRequest(c, "multipart field 'file' is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortBadRequest(c, "failed to read uploaded file")
		return
	}
	defer f.Close()

	log, err := s.logs.Upload(c.Request.Context(), currentUser(c), services.UploadInput{
		OriginalName: filepath.Base(fh.Filename),
		Title:        c.PostForm("title"),
		Body:         f,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newChatLogResponse(log))
}

// listLogsHandler handles GET /api/v1/logs.
func (s *Server) listLogsHandler(c *gin.Context) {
	var q ListLogsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	params := q.ListParams()

	logs, total, err := s.logs.List(c.Request.Context(), currentUser(c), params)
	if err != nil {
		abortWithError(c, err)
		return
	}

	items := make([]ChatLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, newChatLogResponse(l))
	}
	c.JSON(http.StatusOK, newPage(items, params, total))
}

// getLogHandler handles GET /api/v1/logs/:id.
func (s *Server) getLogHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	log, err := s.logs.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatLogResponse(log))
}

// deleteLogHandler handles DELETE /api/v1/logs/:id.
func (s *Server) deleteLogHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.logs.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
