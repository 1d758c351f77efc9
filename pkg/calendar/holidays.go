package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// HolidaysJSON is the production calendar file layout: one entry per month
// with a comma separated list of non-working days. A trailing "+" or "*"
// marks transferred or shortened days and is ignored.
type HolidaysJSON struct {
	Year   int             `json:"year"`
	Months []MonthHolidays `json:"months"`
}

type MonthHolidays struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

// ParseHolidaysJSON reads a calendar file and returns its non-working days.
func ParseHolidaysJSON(filePath string) ([]Date, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read holidays file: %w", err)
	}
	return ParseHolidays(data)
}

func ParseHolidays(data []byte) ([]Date, error) {
	var doc HolidaysJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal holidays: %w", err)
	}
	if doc.Year <= 0 {
		return nil, fmt.Errorf("holidays file has no year")
	}

	days := []Date{}
	for _, month := range doc.Months {
		if month.Month < 1 || month.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", month.Month)
		}
		for _, raw := range strings.Split(month.Days, ",") {
			raw = strings.TrimSpace(raw)
			raw = strings.TrimSuffix(raw, "+")
			raw = strings.TrimSuffix(raw, "*")
			if raw == "" {
				continue
			}

			day, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", raw, month.Month, err)
			}

			date := DateOf(time.Date(doc.Year, time.Month(month.Month), day, 0, 0, 0, 0, time.UTC))
			if date.Month != time.Month(month.Month) {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, month.Month)
			}
			days = append(days, date)
		}
	}

	return days, nil
}
