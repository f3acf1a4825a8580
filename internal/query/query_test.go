package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cedyson8-creator/traffic-booster-app-sub004/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.DeliveryLog{}, &models.WebhookEvent{}))
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	log := &models.DeliveryLog{UserID: 1, Email: "user@example.com", Status: models.StatusSent}
	require.NoError(t, db.Create(log).Error)

	base := time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC)
	events := []models.WebhookEvent{
		{UserID: 1, LogID: log.ID, EventType: "sent", Source: "api", Timestamp: base},
		{UserID: 1, LogID: log.ID, EventType: "delivered", Source: "sendgrid", Timestamp: base.Add(time.Minute)},
		{UserID: 1, LogID: log.ID, EventType: "opened", Source: "sendgrid", Timestamp: base.Add(2 * time.Minute)},
		{UserID: 1, LogID: log.ID, EventType: "opened", Source: "mailgun", Timestamp: base.Add(3 * time.Minute)},
		{UserID: 1, LogID: log.ID, EventType: "bounced", Source: "mailgun", Timestamp: base.Add(4 * time.Minute)},
	}
	for i := range events {
		require.NoError(t, db.Create(&events[i]).Error)
	}
}

func TestEventsByLogAscending(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	svc := NewService(db)

	events, err := svc.EventsByLog(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].ID, events[i-1].ID)
	}

	// different user sees nothing
	events, err = svc.EventsByLog(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecentNewestFirst(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	svc := NewService(db)

	events, err := svc.Recent(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "bounced", events[0].EventType)

	events, err = svc.Recent(context.Background(), 2, 4)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "sent", events[0].EventType)
}

func TestByType(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	svc := NewService(db)

	events, err := svc.ByType(context.Background(), models.EventOpened, 25, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestBySource(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	svc := NewService(db)

	events, err := svc.BySource(context.Background(), "mailgun", 25, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = svc.BySource(context.Background(), "postmark", 25, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRangeIsInclusive(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	svc := NewService(db)

	start := time.Date(2023, 11, 14, 12, 1, 0, 0, time.UTC)
	end := time.Date(2023, 11, 14, 12, 3, 0, 0, time.UTC)

	events, err := svc.Range(context.Background(), start, end)
	require.NoError(t, err)
	// both bounds are inclusive: delivered at +1m and opened at +3m count
	require.Len(t, events, 3)
	assert.Equal(t, "delivered", events[0].EventType)
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	svc := NewService(db)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats["opened"])
	assert.Equal(t, int64(1), stats["bounced"])
	assert.Equal(t, int64(1), stats["sent"])
	assert.Equal(t, int64(1), stats["delivered"])
}

func TestByID(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	svc := NewService(db)

	event, err := svc.ByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "sent", event.EventType)

	_, err = svc.ByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestStoreStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	status, err := svc.StoreStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.TotalEvents)
	assert.Nil(t, status.OldestEvent)

	seed(t, db)

	status, err = svc.StoreStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), status.TotalEvents)
	require.NotNil(t, status.OldestEvent)
	require.NotNil(t, status.NewestEvent)
	assert.True(t, status.NewestEvent.After(*status.OldestEvent))
}
