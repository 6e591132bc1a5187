package sweeper

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/model"
	"parking-gate-backend/internal/store"
)

func TestSweepOnce(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})

	require.NoError(t, testDB.AutoMigrate(&model.DailyRecord{}, &model.EntryRecord{}))

	cfg := &config.Config{}
	cfg.Parking.RetentionDays = 30
	cfg.Parking.SweepInterval = time.Hour

	appStore := store.NewGormStore(testDB, store.Options{TotalSlots: 100})
	svc := NewService(cfg, appStore)

	// One record inside the window, one past it.
	recent := time.Now().AddDate(0, 0, -5)
	stale := time.Now().AddDate(0, 0, -45)
	for _, day := range []time.Time{recent, stale} {
		rec := model.DailyRecord{
			Date:       time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local),
			TotalSlots: 100,
		}
		require.NoError(t, testDB.Create(&rec).Error)
	}

	svc.SweepOnce(context.Background())

	var count int64
	testDB.Model(&model.DailyRecord{}).Count(&count)
	assert.Equal(t, int64(1), count, "only the stale record should be purged")
}
