package activity

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO calendar date used as the day key everywhere.
const DateLayout = "2006-01-02"

// Lower year bounds per source. GitHub launched in 2008 and the OSRS stats
// provider has no data before 2013.
const (
	MinCombinedYear = 2000
	MinStravaYear   = 2000
	MinGithubYear   = 2008
	MinOsrsYear     = 2013
)

// MinYear returns the earliest year a source can be queried for.
func (s Source) MinYear() int {
	switch s {
	case SourceGithub:
		return MinGithubYear
	case SourceOsrs:
		return MinOsrsYear
	case SourceStrava:
		return MinStravaYear
	default:
		return MinCombinedYear
	}
}

// ValidateYear checks year against the source's bounds and the current year.
func ValidateYear(s Source, year int, now time.Time) error {
	if year < s.MinYear() || year > now.Year() {
		return fmt.Errorf("%w: %d outside [%d, %d] for %s", ErrInvalidYear, year, s.MinYear(), now.Year(), s)
	}
	return nil
}

// YearBounds returns the first and last second of year in UTC.
func YearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return from, to
}

// LocalDate truncates t to its calendar date in t's own location. Strava local
// timestamps carry a misleading Z suffix; parsing and formatting without a
// zone conversion keeps the athlete's wall-clock date.
func LocalDate(t time.Time) string {
	return t.Format(DateLayout)
}

// UTCDate truncates t to its calendar date in UTC.
func UTCDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Round2 rounds v to two decimals, halves rounding up.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
