package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"parking-gate-backend/internal/model"
)

// Denial reasons used as label values on DenialsTotal.
const (
	ReasonValidation    = "validation"
	ReasonDuplicate     = "duplicate"
	ReasonFull          = "full"
	ReasonNoActiveEntry = "no_active_entry"
)

var (
	OccupiedSlots = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parking_occupied_slots",
		Help: "Currently occupied slots for today.",
	})

	AvailableSlots = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parking_available_slots",
		Help: "Currently available slots for today.",
	})

	// CounterDrift is occupied_slots minus the true count of open entries.
	// Non-zero means the maintained counter has drifted from the entry list.
	CounterDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parking_counter_drift",
		Help: "Occupied-slot counter drift against open entry count.",
	})

	EntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_entries_total",
		Help: "Total granted gate entries.",
	})

	ExitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_exits_total",
		Help: "Total granted gate exits.",
	})

	DenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_denials_total",
		Help: "Gate denials by reason.",
	}, []string{"reason"})
)

// SetOccupancy updates the occupancy gauges from a counts snapshot.
func SetOccupancy(c model.OccupancyCounts) {
	OccupiedSlots.Set(float64(c.OccupiedSlots))
	AvailableSlots.Set(float64(c.AvailableSlots))
}
