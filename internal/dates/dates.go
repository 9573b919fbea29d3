// Package dates turns what the operator types into a trip date.
package dates

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/marudor/marudor-liefert/internal/models"
)

// ErrInvalid is returned for text that does not describe a calendar day.
var ErrInvalid = errors.New("dates: not a valid date")

// Parse reads "day.month.year", "day.month" or "day". A missing month means
// this month if the day has not passed yet and next month otherwise, a
// missing year means the current year and two-digit years are 20xx.
// Days that do not exist in the month (31.02.) are rejected.
func Parse(text string, now time.Time) (models.Date, error) {
	text = strings.Trim(strings.TrimSpace(text), ".")
	segments := strings.SplitN(text, ".", 3)

	nums := make([]int, len(segments))
	for i, s := range segments {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return models.Date{}, ErrInvalid
		}
		nums[i] = n
	}

	day := nums[0]
	year := now.Year()
	month := int(now.Month())

	switch len(nums) {
	case 1:
		if day < now.Day() {
			month++
			if month > 12 {
				month = 1
				year++
			}
		}
	case 2:
		month = nums[1]
	case 3:
		month = nums[1]
		year = nums[2]
		if year < 100 {
			year += 2000
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return models.Date{}, ErrInvalid
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	if t.Day() != day || int(t.Month()) != month {
		return models.Date{}, ErrInvalid
	}
	return models.NewDate(t), nil
}

// IsPast reports whether d lies before the calendar day of now. Today is not
// in the past.
func IsPast(d models.Date, now time.Time) bool {
	return d.Before(models.Today(now))
}
