package model

import "time"

// EntryStatus is the lifecycle state of a single gate entry.
type EntryStatus string

const (
	StatusEntered EntryStatus = "entered"
	StatusExited  EntryStatus = "exited"
)

// DailyRecord is the per-day occupancy ledger document. One row exists per
// calendar date, created lazily the first time any operation touches that day.
type DailyRecord struct {
	ID            int64     `gorm:"primaryKey" json:"-"`
	Date          time.Time `gorm:"uniqueIndex;not null" json:"date"`
	TotalSlots    int       `gorm:"not null" json:"totalSlots"`
	OccupiedSlots int       `gorm:"not null" json:"occupiedSlots"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`

	// Associations
	Entries []EntryRecord `gorm:"foreignKey:DailyRecordID;constraint:OnDelete:CASCADE" json:"entries"`
}

// EntryRecord is a single admission within a DailyRecord. Entries are
// append-only: an exit flips Status to exited in place, nothing is removed.
type EntryRecord struct {
	ID            int64       `gorm:"primaryKey" json:"-"`
	Ref           string      `gorm:"uniqueIndex;size:36;not null" json:"ref"`
	DailyRecordID int64       `gorm:"index;not null" json:"-"`
	UserID        string      `gorm:"index;size:128;not null" json:"userId"`
	PermitID      string      `gorm:"size:128;not null" json:"permitId"`
	UserName      string      `gorm:"size:256;not null" json:"userName"`
	EntryTime     time.Time   `gorm:"not null" json:"entryTime"`
	ExitTime      *time.Time  `json:"exitTime,omitempty"`
	Status        EntryStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt     time.Time   `json:"-"`
	UpdatedAt     time.Time   `json:"-"`
}

// OccupancyCounts is the derived view of a DailyRecord used by API responses.
type OccupancyCounts struct {
	TotalSlots        int `json:"totalSlots"`
	OccupiedSlots     int `json:"occupiedSlots"`
	AvailableSlots    int `json:"availableSlots"`
	TotalEntriesToday int `json:"totalEntriesToday"`
	CurrentlyInside   int `json:"currentlyInside"`
	ExitedToday       int `json:"exitedToday"`
}

// Counts derives the occupancy counters from the record. Pure, no side effects.
func (r *DailyRecord) Counts() OccupancyCounts {
	c := OccupancyCounts{
		TotalSlots:        r.TotalSlots,
		OccupiedSlots:     r.OccupiedSlots,
		AvailableSlots:    r.TotalSlots - r.OccupiedSlots,
		TotalEntriesToday: len(r.Entries),
	}
	for _, e := range r.Entries {
		switch e.Status {
		case StatusEntered:
			c.CurrentlyInside++
		case StatusExited:
			c.ExitedToday++
		}
	}
	return c
}
