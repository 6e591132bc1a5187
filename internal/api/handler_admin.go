package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-gate-backend/internal/report"
	"parking-gate-backend/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetReport handles GET /api/admin/report?date=YYYY-MM-DD and streams the
// day's entry log as an XLSX attachment. Defaults to today.
func (h *Handler) GetReport(c *gin.Context) {
	day := time.Now().In(h.parking.Location())
	if dateParam := c.Query("date"); dateParam != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateParam, h.parking.Location())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD."})
			return
		}
		day = parsed
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

	f, err := report.BuildDailyReport(rec)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("parking-report-%s.xlsx", rec.Date.Format("2006-01-02"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		// Headers are gone by now; nothing to do but log via gin's recovery.
		_ = c.Error(err)
	}
}

// PostPurge handles POST /api/admin/purge, removing records past the
// retention window immediately instead of waiting for the sweeper.
func (h *Handler) PostPurge(c *gin.Context) {
	cutoff := time.Now().In(h.parking.Location()).AddDate(0, 0, -h.parking.RetentionDays)

	purged, err := h.store.PurgeBefore(c.Request.Context(), cutoff)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to purge records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purged": purged,
		"cutoff": cutoff.Format("2006-01-02"),
	})
}
