package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgard/chatscope/internal/services"
)

// analyzeHandler handles POST /api/v1/logs/:id/analyses.
func (s *Server) analyzeHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}

	result, records, err := s.analyses.Analyze(c.Request.Context(), currentUser(c), id, services.AnalyzeInput{
		Flavor:    req.Flavor,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Params:    req.Params,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newAnalysisResponse(result, records))
}

// listAnalysesHandler handles GET /api/v1/analyses.
func (s *Server) listAnalysesHandler(c *gin.Context) {
	var q ListAnalysesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	filter := q.Filter()

	results, total, err := s.analyses.List(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}

	items := make([]AnalysisResponse, 0, len(results))
	for _, r := range results {
		items = append(items, newAnalysisResponse(r, nil))
	}
	c.JSON(http.StatusOK, newPage(items, filter.ListParams, total))
}

// getAnalysisHandler handles GET /api/v1/analyses/:id.
func (s *Server) getAnalysisHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, records, err := s.analyses.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAnalysisResponse(result, records))
}

// deleteAnalysisHandler handles DELETE /api/v1/analyses/:id.
func (s *Server) deleteAnalysisHandler(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.analyses.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listFlavorsHandler handles GET /api/v1/flavors.
func (s *Server) listFlavorsHandler(c *gin.Context) {
	flavors := s.analyses.Flavors()
	items := make([]FlavorResponse, 0, len(flavors))
	for _, f := range flavors {
		items = append(items, newFlavorResponse(f, s.analyses.MaxLines(f)))
	}
	c.JSON(http.StatusOK, items)
}
