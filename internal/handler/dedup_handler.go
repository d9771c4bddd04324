package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/service/dedup"
)

type DedupHandler struct {
	dedupService *dedup.Service
	scheduler    *dedup.Scheduler
}

func NewDedupHandler(dedupService *dedup.Service, scheduler *dedup.Scheduler) *DedupHandler {
	return &DedupHandler{
		dedupService: dedupService,
		scheduler:    scheduler,
	}
}

type dedupResponse struct {
	Mode            string `json:"mode"`
	Date            string `json:"date"`
	Examined        int    `json:"examined"`
	Groups          int    `json:"groups"`
	DuplicateGroups int    `json:"duplicate_groups"`
	Deleted         int    `json:"deleted"`
	ChunksOK        int    `json:"chunks_ok"`
	ChunksFailed    int    `json:"chunks_failed"`
	NoOp            bool   `json:"no_op"`
}

// HandleDedupe runs a deduplication pass. The mode query parameter defaults
// to today-only; all-time must be asked for explicitly.
func (h *DedupHandler) HandleDedupe(c *gin.Context) {
	mode := dedup.Mode(c.DefaultQuery("mode", string(dedup.ModeTodayOnly)))
	if !mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid mode, expected today-only or all-time",
		})
		return
	}

	result, err := h.dedupService.Run(c.Request.Context(), mode)
	if err != nil {
		var partial *domain.PartialFailureError
		if errors.As(err, &partial) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":         "deduplication partially failed",
				"deleted":       partial.Applied,
				"chunks_ok":     partial.ChunksOK,
				"chunks_failed": partial.ChunksFailed,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deduplication failed"})
		return
	}

	c.JSON(http.StatusOK, dedupResponse{
		Mode:            string(result.Mode),
		Date:            result.Date,
		Examined:        result.Examined,
		Groups:          result.Groups,
		DuplicateGroups: result.DuplicateGroups,
		Deleted:         result.Deleted,
		ChunksOK:        result.ChunksOK,
		ChunksFailed:    result.ChunksFailed,
		NoOp:            result.NoOp,
	})
}

// HandleNoonPurge deletes check-ins recorded inside the noon break. The date
// query parameter defaults to today.
func (h *DedupHandler) HandleNoonPurge(c *gin.Context) {
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
	}

	result, err := h.dedupService.PurgeNoonBreak(c.Request.Context(), date)
	if err != nil {
		var partial *domain.PartialFailureError
		if errors.As(err, &partial) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":         "noon purge partially failed",
				"purged":        partial.Applied,
				"chunks_failed": partial.ChunksFailed,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "noon purge failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":     result.Date,
		"examined": result.Examined,
		"purged":   result.Purged,
	})
}

// HandleSchedule registers deferred today-only runs at each remaining
// session cutoff.
func (h *DedupHandler) HandleSchedule(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "task queue not configured",
		})
		return
	}

	results, err := h.scheduler.ScheduleToday(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "failed to schedule one or more runs",
			"schedules": results,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": results})
}
