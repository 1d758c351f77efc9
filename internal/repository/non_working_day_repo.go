package repository

import (
	"context"

	"timetrack-web/internal/models"
	"timetrack-web/pkg/calendar"

	"gorm.io/gorm"
)

type NonWorkingDayRepository interface {
	GetByYearMonth(ctx context.Context, year, month int) ([]models.NonWorkingDay, error)
	ReplaceAll(ctx context.Context, days []models.NonWorkingDay) error
	IsNonWorkingDay(ctx context.Context, date calendar.Date) (bool, error)
}

type GormNonWorkingDayRepository struct {
	db *gorm.DB
}

func NewGormNonWorkingDayRepository(db *gorm.DB) (*GormNonWorkingDayRepository, error) {
	// Auto-migrate non_working_days
	if err := db.AutoMigrate(&models.NonWorkingDay{}); err != nil {
		return nil, err
	}

	return &GormNonWorkingDayRepository{db: db}, nil
}

func (r *GormNonWorkingDayRepository) GetByYearMonth(ctx context.Context, year, month int) ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.WithContext(ctx).Where("year = ? AND month = ?", year, month).Order("date").Find(&days).Error
	return days, err
}

// ReplaceAll swaps the stored calendar for days in one transaction.
func (r *GormNonWorkingDayRepository) ReplaceAll(ctx context.Context, days []models.NonWorkingDay) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM non_working_days").Error; err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}
		return tx.Create(&days).Error
	})
}

func (r *GormNonWorkingDayRepository) IsNonWorkingDay(ctx context.Context, date calendar.Date) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.NonWorkingDay{}).
		Where("date = ?", date.String()).
		Count(&count).Error
	return count > 0, err
}
