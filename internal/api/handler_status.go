package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/store"
)

// statusResponse flattens the derived counts next to the raw entry list.
type statusResponse struct {
	Date string `json:"date"`
	model.OccupancyCounts
	Entries []model.EntryRecord `json:"entries"`
}

func buildStatusResponse(rec *model.DailyRecord) statusResponse {
	entries := rec.Entries
	if entries == nil {
		entries = []model.EntryRecord{}
	}
	return statusResponse{
		Date:            rec.Date.Format("2006-01-02"),
		OccupancyCounts: rec.Counts(),
		Entries:         entries,
	}
}

// GetStatus handles GET /api/gate/status. Touching status creates today's
// record lazily, same as any other ledger operation.
func (h *Handler) GetStatus(c *gin.Context) {
	rec, err := h.store.GetOrCreateToday(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load occupancy status"})
		return
	}
	c.JSON(http.StatusOK, buildStatusResponse(rec))
}

// GetHistory handles GET /api/gate/history?date=YYYY-MM-DD. Read-only: no
// record is created for days nobody visited.
func (h *Handler) GetHistory(c *gin.Context) {
	dateParam := c.Query("date")
	if dateParam == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	day, err := time.ParseInLocation("2006-01-02", dateParam, h.parking.Location())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD."})
		return
	}

	rec, err := h.store.GetByDate(c.Request.Context(), day)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no occupancy record for date"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load occupancy record"})
		}
		return
	}
	c.JSON(http.StatusOK, buildStatusResponse(rec))
}
