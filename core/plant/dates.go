package plant

import (
	"time"

	"github.com/go-playground/locales/en"
	"github.com/pkg/errors"
)

// ErrInvalidFrequency is returned for a watering frequency that is not a positive number of days.
var ErrInvalidFrequency = errors.New("invalid watering frequency")

var displayLocale = en.New()

// DueDateResult is the evaluated watering schedule of a plant at a given instant.
type DueDateResult struct {
	NextWateringDate time.Time
	IsDue            bool
}

// NextWateringDate returns lastWatered moved forward by frequencyDays calendar days,
// keeping its wall-clock time in lastWatered's location.
func NextWateringDate(lastWatered time.Time, frequencyDays int) (time.Time, error) {
	if frequencyDays <= 0 {
		return time.Time{}, errors.Wrapf(ErrInvalidFrequency, "%d days", frequencyDays)
	}
	return lastWatered.AddDate(0, 0, frequencyDays), nil
}

// IsDue reports whether now is at or after the next watering date.
func IsDue(lastWatered time.Time, frequencyDays int, now time.Time) (bool, error) {
	next, err := NextWateringDate(lastWatered, frequencyDays)
	if err != nil {
		return false, err
	}
	return !now.Before(next), nil
}

// Evaluate computes p's schedule with calendar days taken in loc (nil means p.LastWatered's own location).
func Evaluate(p Plant, now time.Time, loc *time.Location) (DueDateResult, error) {
	last := p.LastWatered
	if loc != nil {
		last = last.In(loc)
	}
	next, err := NextWateringDate(last, p.WateringFrequencyDays)
	if err != nil {
		return DueDateResult{}, errors.WithMessagef(err, "plant %s", p.ID)
	}
	return DueDateResult{NextWateringDate: next, IsDue: !now.Before(next)}, nil
}

// FormatDisplayDate renders t as a long en-US date, eg. "Saturday, June 15, 2024".
func FormatDisplayDate(t time.Time) string {
	return displayLocale.FmtDateFull(t)
}
