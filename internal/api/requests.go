package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edgard/chatscope/internal/database"
)

const (
	defaultPage     = 1
	defaultPageSize = 25
)

// ListLogsQuery is the query string of GET /api/v1/logs.
type ListLogsQuery struct {
	Page      int    `form:"page"       binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size"  binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"    binding:"omitempty,oneof=created_at title"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// ListParams converts the query into store paging, applying defaults.
func (q ListLogsQuery) ListParams() database.ListParams {
	return listParams(q.Page, q.PageSize, q.SortBy, q.SortOrder)
}

// ListAnalysesQuery is the query string of GET /api/v1/analyses.
type ListAnalysesQuery struct {
	Page      int    `form:"page"       binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size"  binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"    binding:"omitempty,oneof=created_at flavor"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Flavor    string `form:"flavor"`
	LogID     int64  `form:"log_id"     binding:"omitempty,min=1"`
}

// Filter converts the query into a store filter, applying defaults.
func (q ListAnalysesQuery) Filter() database.AnalysisFilter {
	return database.AnalysisFilter{
		ListParams: listParams(q.Page, q.PageSize, q.SortBy, q.SortOrder),
		Flavor:     q.Flavor,
		ChatLogID:  q.LogID,
	}
}

func listParams(page, pageSize int, sortBy, sortOrder string) database.ListParams {
	p := database.ListParams{
		Page:      page,
		PageSize:  pageSize,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}
	if p.Page == 0 {
		p.Page = defaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = defaultPageSize
	}
	if p.SortBy == "" {
		p.SortBy = "created_at"
	}
	if p.SortOrder == "" {
		p.SortOrder = "desc"
	}
	return p
}

// AnalyzeRequest is the HTTP request body for POST /api/v1/logs/:id/analyses.
type AnalyzeRequest struct {
	Flavor    string            `json:"flavor"     binding:"required"`
	StartDate string            `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string            `json:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	Params    map[string]string `json:"params"`
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortBadRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
