package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"timetrack-web/internal/logging"
	"timetrack-web/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newCalendarService(t *testing.T) *CalendarService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo, err := repository.NewGormNonWorkingDayRepository(db)
	require.NoError(t, err)
	return NewCalendarService(repo, logging.Discard())
}

func TestCalendarServiceLoadFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.json")
	doc := `{"year":2024,"months":[{"month":1,"days":"1,2,3,6,7,8+"},{"month":2,"days":"10,11*"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	svc := newCalendarService(t)
	ctx := context.Background()

	n, err := svc.LoadFromJSON(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	assert.True(t, svc.IsNonWorkingDay(ctx, time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)))
	assert.True(t, svc.IsNonWorkingDay(ctx, time.Date(2024, 1, 8, 23, 0, 0, 0, time.Local)))
	assert.False(t, svc.IsNonWorkingDay(ctx, time.Date(2024, 1, 9, 9, 0, 0, 0, time.Local)))

	feb, err := svc.NonWorkingDaysForMonth(ctx, 2024, time.February)
	require.NoError(t, err)
	assert.Len(t, feb, 2)
}

func TestCalendarServiceMissingFile(t *testing.T) {
	_, err := newCalendarService(t).LoadFromJSON(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
