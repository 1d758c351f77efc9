package service

import (
	"context"
	"time"

	"timetrack-web/internal/models"
	"timetrack-web/internal/repository"
	"timetrack-web/pkg/calendar"

	"github.com/sirupsen/logrus"
)

// CalendarService serves the production calendar used for the dashboard's
// non-working-day banner.
type CalendarService struct {
	repo   repository.NonWorkingDayRepository
	logger *logrus.Logger
}

func NewCalendarService(repo repository.NonWorkingDayRepository, logger *logrus.Logger) *CalendarService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CalendarService{repo: repo, logger: logger}
}

// LoadFromJSON replaces the stored calendar with the days in filePath.
func (s *CalendarService) LoadFromJSON(ctx context.Context, filePath string) (int, error) {
	dates, err := calendar.ParseHolidaysJSON(filePath)
	if err != nil {
		return 0, err
	}

	days := make([]models.NonWorkingDay, 0, len(dates))
	for _, d := range dates {
		days = append(days, models.NonWorkingDay{
			Date:  d,
			Year:  d.Year,
			Month: int(d.Month),
		})
	}

	if err := s.repo.ReplaceAll(ctx, days); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"file":  filePath,
		"count": len(days),
	}).Info("Non-working days loaded")
	return len(days), nil
}

func (s *CalendarService) NonWorkingDaysForMonth(ctx context.Context, year int, month time.Month) ([]models.NonWorkingDay, error) {
	return s.repo.GetByYearMonth(ctx, year, int(month))
}

// IsNonWorkingDay reports whether the local calendar day of t is a holiday.
// Lookup errors are logged and read as a working day.
func (s *CalendarService) IsNonWorkingDay(ctx context.Context, t time.Time) bool {
	ok, err := s.repo.IsNonWorkingDay(ctx, calendar.LocalDateOf(t))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to check non-working day")
		return false
	}
	return ok
}
