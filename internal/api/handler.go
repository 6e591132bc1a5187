package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/notification"
	"parking-gate-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
	alerts  *notification.WorkerPool
	parking *config.ParkingConfig
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, alerts *notification.WorkerPool, parking *config.ParkingConfig) *Handler {
	return &Handler{
		store:   s,
		webpush: webpushOptions,
		alerts:  alerts,
		parking: parking,
	}
}
