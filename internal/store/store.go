package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-gate-backend/internal/model"
)

// Store is the single authority over the per-day occupancy ledger.
type Store interface {
	DB() *gorm.DB
	GetOrCreateToday(ctx context.Context) (*model.DailyRecord, error)
	RecordEntry(ctx context.Context, userID, permitID, userName string) (*model.DailyRecord, error)
	RecordExit(ctx context.Context, userID string) (*model.DailyRecord, error)
	GetByDate(ctx context.Context, day time.Time) (*model.DailyRecord, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Reconcile(ctx context.Context) (int, error)
}

// Options configures the ledger behaviour.
type Options struct {
	// TotalSlots is the capacity stamped onto newly created daily records.
	TotalSlots int
	// EnforceCapacity refuses admission once OccupiedSlots reaches TotalSlots.
	// Off reproduces the legacy behaviour where the counter can exceed capacity.
	EnforceCapacity bool
	// Location is the timezone used for midnight truncation.
	Location *time.Location
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db   *gorm.DB
	opts Options
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	if opts.TotalSlots <= 0 {
		opts.TotalSlots = 100
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &gormStore{db: db, opts: opts}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// dayBounds returns the half-open [midnight, midnight+24h) window containing t.
func (s *gormStore) dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(s.opts.Location)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.opts.Location)
	return start, start.AddDate(0, 0, 1)
}

// lockDay loads the daily record for the window, creating it lazily. On
// postgres the row is locked FOR UPDATE, which serializes all ledger mutations
// for one date and closes the read-then-write race between the duplicate scan
// and the append.
func (s *gormStore) lockDay(tx *gorm.DB, start, end time.Time) (*model.DailyRecord, error) {
	q := tx.Where("date >= ? AND date < ?", start, end)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rec model.DailyRecord
	err := q.First(&rec).Error
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load daily record: %w", err)
	}

	rec = model.DailyRecord{
		Date:          start,
		TotalSlots:    s.opts.TotalSlots,
		OccupiedSlots: 0,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create daily record: %w", err)
	}

	// Re-read so a concurrent creator's row is picked up (and locked).
	q = tx.Where("date >= ? AND date < ?", start, end)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to reload daily record: %w", err)
	}
	return &rec, nil
}

// loadFull reloads a record with its entries in insertion order.
func loadFull(tx *gorm.DB, id int64) (*model.DailyRecord, error) {
	var rec model.DailyRecord
	err := tx.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("entry_records.id ASC")
	}).First(&rec, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily record %d: %w", id, err)
	}
	return &rec, nil
}

// GetOrCreateToday returns today's record, creating it on first access.
func (s *gormStore) GetOrCreateToday(ctx context.Context) (*model.DailyRecord, error) {
	start, end := s.dayBounds(time.Now())

	var out *model.DailyRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockDay(tx, start, end)
		if err != nil {
			return err
		}
		out, err = loadFull(tx, rec.ID)
		return err
	})
	return out, err
}

// RecordEntry admits a user for today. Fails with ErrDuplicateEntry when the
// user already holds an open entry, and with ErrParkingFull when capacity
// enforcement is on and the lot is full.
func (s *gormStore) RecordEntry(ctx context.Context, userID, permitID, userName string) (*model.DailyRecord, error) {
	userID = strings.TrimSpace(userID)
	permitID = strings.TrimSpace(permitID)
	userName = strings.TrimSpace(userName)
	if userID == "" || permitID == "" || userName == "" {
		return nil, ErrMissingIdentity
	}

	now := time.Now().In(s.opts.Location)
	start, end := s.dayBounds(now)

	var out *model.DailyRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockDay(tx, start, end)
		if err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&model.EntryRecord{}).
			Where("daily_record_id = ? AND user_id = ? AND status = ?", rec.ID, userID, model.StatusEntered).
			Count(&open).Error; err != nil {
			return fmt.Errorf("duplicate scan failed: %w", err)
		}
		if open > 0 {
			return ErrDuplicateEntry
		}

		if s.opts.EnforceCapacity && rec.OccupiedSlots >= rec.TotalSlots {
			return ErrParkingFull
		}

		entry := model.EntryRecord{
			Ref:           uuid.NewString(),
			DailyRecordID: rec.ID,
			UserID:        userID,
			PermitID:      permitID,
			UserName:      userName,
			EntryTime:     now,
			Status:        model.StatusEntered,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append entry record: %w", err)
		}

		if err := tx.Model(&model.DailyRecord{}).Where("id = ?", rec.ID).
			UpdateColumn("occupied_slots", gorm.Expr("occupied_slots + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment occupied slots: %w", err)
		}

		out, err = loadFull(tx, rec.ID)
		return err
	})
	return out, err
}

// RecordExit closes the user's most recent open entry for today. Fails with
// ErrNoActiveEntry when none exists. The occupied counter is floored at zero.
func (s *gormStore) RecordExit(ctx context.Context, userID string) (*model.DailyRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingIdentity
	}

	now := time.Now().In(s.opts.Location)
	start, end := s.dayBounds(now)

	var out *model.DailyRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockDay(tx, start, end)
		if err != nil {
			return err
		}

		var entry model.EntryRecord
		err = tx.Where("daily_record_id = ? AND user_id = ? AND status = ?", rec.ID, userID, model.StatusEntered).
			Order("id DESC").
			First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveEntry
		}
		if err != nil {
			return fmt.Errorf("failed to find open entry: %w", err)
		}

		if err := tx.Model(&entry).Updates(map[string]any{
			"status":    model.StatusExited,
			"exit_time": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to close entry record: %w", err)
		}

		occupied := rec.OccupiedSlots - 1
		if occupied < 0 {
			occupied = 0
		}
		if err := tx.Model(&model.DailyRecord{}).Where("id = ?", rec.ID).
			UpdateColumn("occupied_slots", occupied).Error; err != nil {
			return fmt.Errorf("failed to decrement occupied slots: %w", err)
		}

		out, err = loadFull(tx, rec.ID)
		return err
	})
	return out, err
}

// GetByDate returns the record for an arbitrary day, without creating one.
func (s *gormStore) GetByDate(ctx context.Context, day time.Time) (*model.DailyRecord, error) {
	start, end := s.dayBounds(day)

	var rec model.DailyRecord
	err := s.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("entry_records.id ASC")
		}).
		Where("date >= ? AND date < ?", start, end).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load daily record: %w", err)
	}
	return &rec, nil
}

// PurgeBefore deletes daily records (and their entries) older than cutoff and
// returns the number of days removed.
func (s *gormStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Session(&gorm.Session{NewDB: true}).
			Model(&model.DailyRecord{}).Select("id").Where("date < ?", cutoff)
		if err := tx.Where("daily_record_id IN (?)", sub).Delete(&model.EntryRecord{}).Error; err != nil {
			return fmt.Errorf("failed to purge entry records: %w", err)
		}

		res := tx.Where("date < ?", cutoff).Delete(&model.DailyRecord{})
		if res.Error != nil {
			return fmt.Errorf("failed to purge daily records: %w", res.Error)
		}
		purged = res.RowsAffected
		return nil
	})
	return purged, err
}

// Reconcile compares today's occupied counter against the true count of open
// entries and returns the drift (counter minus count). Zero when no record
// exists yet. The counter is never silently corrected; drift is surfaced to
// metrics by the caller.
func (s *gormStore) Reconcile(ctx context.Context) (int, error) {
	start, end := s.dayBounds(time.Now())

	var rec model.DailyRecord
	err := s.db.WithContext(ctx).Where("date >= ? AND date < ?", start, end).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load daily record: %w", err)
	}

	var open int64
	if err := s.db.WithContext(ctx).Model(&model.EntryRecord{}).
		Where("daily_record_id = ? AND status = ?", rec.ID, model.StatusEntered).
		Count(&open).Error; err != nil {
		return 0, fmt.Errorf("failed to count open entries: %w", err)
	}

	return rec.OccupiedSlots - int(open), nil
}
