package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-gate-backend/internal/gate"
	"parking-gate-backend/internal/metrics"
	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/store"
)

// gateRequest is the scan payload posted by a gate kiosk. Either qrData or
// the direct fields carry the identity; additionalData backfills gaps.
type gateRequest struct {
	QRData         string         `json:"qrData"`
	UserID         string         `json:"userId"`
	PermitID       string         `json:"permitId"`
	UserName       string         `json:"userName"`
	AdditionalData *gate.Fallback `json:"additionalData"`
}

// userInfoResponse identifies the person the gate decision applies to.
type userInfoResponse struct {
	UserID     string `json:"userId"`
	PermitID   string `json:"permitId"`
	UserName   string `json:"userName"`
	Ref        string `json:"ref,omitempty"`
	IsTestData bool   `json:"isTestData,omitempty"`
}

// PostEntry handles POST /api/gate/entry.
func (h *Handler) PostEntry(c *gin.Context) {
	v, ok := h.bindAndValidate(c)
	if !ok {
		return
	}

	rec, err := h.store.RecordEntry(c.Request.Context(), v.UserID, v.PermitID, v.UserName)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEntry):
			metrics.DenialsTotal.WithLabelValues(metrics.ReasonDuplicate).Inc()
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "already entered today"})
		case errors.Is(err, store.ErrParkingFull):
			metrics.DenialsTotal.WithLabelValues(metrics.ReasonFull).Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "parking full"})
		case errors.Is(err, store.ErrMissingIdentity):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing identity fields"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to record entry"})
		}
		return
	}

	counts := rec.Counts()
	metrics.EntriesTotal.Inc()
	metrics.SetOccupancy(counts)
	if h.alerts != nil {
		h.alerts.MaybeAlert(counts)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"userInfo":  buildUserInfo(rec, v, model.StatusEntered),
		"occupancy": counts,
	})
}

// PostExit handles POST /api/gate/exit.
func (h *Handler) PostExit(c *gin.Context) {
	v, ok := h.bindAndValidate(c)
	if !ok {
		return
	}

	rec, err := h.store.RecordExit(c.Request.Context(), v.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNoActiveEntry):
			metrics.DenialsTotal.WithLabelValues(metrics.ReasonNoActiveEntry).Inc()
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no active entry found"})
		case errors.Is(err, store.ErrMissingIdentity):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing identity fields"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to record exit"})
		}
		return
	}

	counts := rec.Counts()
	metrics.ExitsTotal.Inc()
	metrics.SetOccupancy(counts)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"userInfo":  buildUserInfo(rec, v, model.StatusExited),
		"occupancy": counts,
	})
}

// bindAndValidate extracts and validates the scan identity, writing the
// rejection response itself when the scan does not pass.
func (h *Handler) bindAndValidate(c *gin.Context) (*gate.Validated, bool) {
	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, false
	}

	identity := gate.ExtractIdentity(gate.Payload{
		QRData:   req.QRData,
		UserID:   req.UserID,
		PermitID: req.PermitID,
		UserName: req.UserName,
	}, req.AdditionalData)

	v, err := gate.Validate(identity)
	if err != nil {
		metrics.DenialsTotal.WithLabelValues(metrics.ReasonValidation).Inc()
		var verr *gate.ValidationError
		if errors.As(err, &verr) {
			status := http.StatusUnauthorized
			if verr.Code == gate.CodeMissingFields {
				status = http.StatusBadRequest
			}
			c.AbortWithStatusJSON(status, gin.H{
				"error":  verr.Reason,
				"code":   verr.Code,
				"fields": verr.Fields,
			})
		} else {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return v, true
}

// buildUserInfo finds the ledger entry the decision touched so the response
// can carry its reference.
func buildUserInfo(rec *model.DailyRecord, v *gate.Validated, status model.EntryStatus) userInfoResponse {
	info := userInfoResponse{
		UserID:     v.UserID,
		PermitID:   v.PermitID,
		UserName:   v.UserName,
		IsTestData: v.IsTestData,
	}
	for i := len(rec.Entries) - 1; i >= 0; i-- {
		if rec.Entries[i].UserID == v.UserID && rec.Entries[i].Status == status {
			info.Ref = rec.Entries[i].Ref
			break
		}
	}
	return info
}
