package models

import (
	"time"

	"timetrack-web/pkg/calendar"
)

type NonWorkingDay struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Date      calendar.Date `gorm:"uniqueIndex" json:"date"`
	Year      int           `gorm:"index" json:"year"`
	Month     int           `gorm:"index" json:"month"`
	CreatedAt time.Time     `json:"created_at"`
}

func (NonWorkingDay) TableName() string {
	return "non_working_days"
}
