package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuseye/attendance-engine/internal/domain"
	"github.com/campuseye/attendance-engine/internal/service/calendarcache"
)

type CalendarHandler struct {
	cache *calendarcache.Cache
}

func NewCalendarHandler(cache *calendarcache.Cache) *CalendarHandler {
	return &CalendarHandler{cache: cache}
}

type blockRangeBody struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

type calendarResponse struct {
	Source    string                               `json:"source"`
	Semesters map[string]map[string]blockRangeBody `json:"semesters"`
}

// HandleGetCalendar returns the calendar currently being served, tagged with
// the cache layer it came from.
func (h *CalendarHandler) HandleGetCalendar(c *gin.Context) {
	load := h.cache.Load(c.Request.Context())

	resp := calendarResponse{
		Source:    string(load.Source),
		Semesters: make(map[string]map[string]blockRangeBody),
	}
	for semester, blocks := range load.Config.Semesters {
		out := make(map[string]blockRangeBody, len(blocks))

		numbers := make([]int, 0, len(blocks))
		for n := range blocks {
			numbers = append(numbers, n)
		}
		sort.Ints(numbers)

		for _, n := range numbers {
			r := blocks[n]
			out[strconv.Itoa(n)] = blockRangeBody{Start: r.Start, End: r.End}
		}
		resp.Semesters[semester] = out
	}

	status := http.StatusOK
	if load.Source == calendarcache.SourceUnavailable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// HandlePutSemester replaces one semester's blocks and merges the result
// into the stored calendar.
func (h *CalendarHandler) HandlePutSemester(c *gin.Context) {
	semester := c.Param("semester")

	var body map[string]blockRangeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body, expected block number to range map"})
		return
	}

	blocks := make(domain.SemesterBlocks, len(body))
	for key, r := range body {
		n, err := strconv.Atoi(key)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid block number: " + key})
			return
		}
		blocks[n] = domain.BlockRange{Start: r.Start, End: r.End}
	}

	merged, err := h.cache.Save(c.Request.Context(), semester, blocks)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownSemester) || errors.Is(err, domain.ErrInvalidCalendar) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist calendar"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"semester":  semester,
		"semesters": len(merged.Semesters),
	})
}
