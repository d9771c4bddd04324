package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/service/reclassify"
)

type ReclassifyHandler struct {
	reclassifyService *reclassify.Service
}

func NewReclassifyHandler(reclassifyService *reclassify.Service) *ReclassifyHandler {
	return &ReclassifyHandler{reclassifyService: reclassifyService}
}

type reclassifyRequest struct {
	Semester string `json:"semester" binding:"required"`
}

type reclassifyResponse struct {
	RunID         string         `json:"run_id"`
	Semester      string         `json:"semester"`
	Examined      int            `json:"examined"`
	Updated       int            `json:"updated"`
	Skipped       int            `json:"skipped"`
	DefaultCourse int            `json:"default_course"`
	PerSession    map[string]int `json:"per_session"`
	PerBlock      map[int]int    `json:"per_block"`
	ChunksOK      int            `json:"chunks_ok"`
	ChunksFailed  int            `json:"chunks_failed"`
}

// HandleReclassify relabels one semester's events from the current calendar.
// The X-Run-ID header names the run in the audit log; omitted, one is
// generated.
func (h *ReclassifyHandler) HandleReclassify(c *gin.Context) {
	var req reclassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "semester is required"})
		return
	}

	runID := c.GetHeader("X-Run-ID")

	result, err := h.reclassifyService.Run(c.Request.Context(), req.Semester, runID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownSemester):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown semester: " + req.Semester})
		case errors.Is(err, domain.ErrConfigNotFound):
			c.JSON(http.StatusConflict, gin.H{"error": "no calendar configured for " + req.Semester})
		default:
			var partial *domain.PartialFailureError
			if errors.As(err, &partial) {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":         "reclassification partially failed",
					"updated":       partial.Applied,
					"chunks_ok":     partial.ChunksOK,
					"chunks_failed": partial.ChunksFailed,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reclassification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, reclassifyResponse{
		RunID:         result.RunID,
		Semester:      result.Semester,
		Examined:      result.Examined,
		Updated:       result.Updated,
		Skipped:       result.Skipped,
		DefaultCourse: result.DefaultCourse,
		PerSession:    result.PerSession,
		PerBlock:      result.PerBlock,
		ChunksOK:      result.ChunksOK,
		ChunksFailed:  result.ChunksFailed,
	})
}
