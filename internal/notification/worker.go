package notification

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-gate-backend/internal/model"
)

// Alert kinds delivered to subscribed gate operators.
const (
	AlertNearFull = "near_full"
	AlertFull     = "full"
)

// Alert describes a capacity event worth pushing to operators.
type Alert struct {
	Kind     string
	Occupied int
	Total    int
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for delivering capacity alerts.
type WorkerPool struct {
	size      int
	jobs      chan Alert
	db        *gorm.DB
	webpush   *webpush.Options
	sender    NotificationSender
	threshold float64
}

// NewWorkerPool creates a new worker pool. threshold is the occupancy
// fraction at which the near-full alert fires.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, threshold float64) *WorkerPool {
	return &WorkerPool{
		size:      size,
		jobs:      make(chan Alert, size),
		db:        db,
		webpush:   webpushOptions,
		sender:    &WebPushSender{},
		threshold: threshold,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Alert worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			log.Printf("Alert worker %d processing %s alert (%d/%d)", id, alert.Kind, alert.Occupied, alert.Total)
			wp.broadcast(ctx, alert)
		case <-ctx.Done():
			log.Printf("Alert worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an alert without blocking the gate request path. If the
// queue is saturated the alert is dropped; the next crossing will re-fire.
func (wp *WorkerPool) Dispatch(alert Alert) {
	select {
	case wp.jobs <- alert:
	default:
		log.Printf("Alert queue full, dropping %s alert", alert.Kind)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

// MaybeAlert inspects a post-entry occupancy snapshot and dispatches an alert
// when this admission crossed the near-full threshold or filled the lot.
func (wp *WorkerPool) MaybeAlert(c model.OccupancyCounts) {
	if c.TotalSlots <= 0 {
		return
	}
	prev := c.OccupiedSlots - 1

	if c.OccupiedSlots >= c.TotalSlots && prev < c.TotalSlots {
		wp.Dispatch(Alert{Kind: AlertFull, Occupied: c.OccupiedSlots, Total: c.TotalSlots})
		return
	}

	mark := int(math.Ceil(wp.threshold * float64(c.TotalSlots)))
	if mark > 0 && c.OccupiedSlots >= mark && prev < mark {
		wp.Dispatch(Alert{Kind: AlertNearFull, Occupied: c.OccupiedSlots, Total: c.TotalSlots})
	}
}

// broadcast sends an alert to every stored subscription.
func (wp *WorkerPool) broadcast(ctx context.Context, alert Alert) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions: %v", err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	var message string
	switch alert.Kind {
	case AlertFull:
		message = fmt.Sprintf("Parking lot is full (%d/%d)", alert.Occupied, alert.Total)
	default:
		message = fmt.Sprintf("Parking lot is nearly full (%d/%d)", alert.Occupied, alert.Total)
	}

	log.Printf("Sending %d notifications for %s alert", len(subscriptions), alert.Kind)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
