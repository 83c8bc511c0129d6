// Package aggregate merges the three per-source calendars into one scored year.
package aggregate

import (
	"slices"

	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/internal/domain/scoring"
)

// Inputs bundles one year of data from every source. A source that failed is
// passed as its Empty value.
type Inputs struct {
	Github activity.GithubYear
	Strava activity.StravaYear
	Osrs   activity.OsrsYear
}

// Combine builds the scored timeline for year. The day set is the union of
// dates with a non-zero value in any source; missing sources are zero-filled.
// Yearly totals are accumulated unrounded and rounded once at the end.
func Combine(year int, in Inputs, scorer *scoring.Scorer) activity.Year {
	if scorer == nil {
		scorer = scoring.New()
	}

	dates := unionDates(in)
	days := make(map[string]activity.Day, len(dates))
	var githubTotal, stravaTotal, osrsTotal float64

	for _, date := range dates {
		day := activity.Day{Date: date}

		if commits := in.Github.Days[date]; commits != 0 {
			day.Github = activity.GithubDay{Commits: commits, Points: scorer.Github(commits)}
			githubTotal += day.Github.Points
		}
		if miles := in.Strava.Days[date]; miles != 0 {
			day.Strava = activity.StravaDay{Miles: miles, Points: scorer.Strava(miles)}
			stravaTotal += day.Strava.Points
		}
		if hours := in.Osrs.Days[date]; hours != 0 {
			day.Osrs = activity.OsrsDay{Hours: hours, Points: scorer.Osrs(hours)}
			osrsTotal += day.Osrs.Points
		}

		day.TotalPoints = day.Github.Points + day.Strava.Points + day.Osrs.Points
		days[date] = day
	}

	return activity.Year{
		Year: year,
		Days: days,
		Totals: activity.Totals{
			Github:  activity.Round2(githubTotal),
			Strava:  activity.Round2(stravaTotal),
			Osrs:    activity.Round2(osrsTotal),
			Overall: activity.Round2(githubTotal + stravaTotal + osrsTotal),
		},
	}
}

// unionDates returns the sorted set of dates with any non-zero value.
func unionDates(in Inputs) []string {
	seen := make(map[string]struct{}, len(in.Github.Days)+len(in.Strava.Days)+len(in.Osrs.Days))
	for date, v := range in.Github.Days {
		if v != 0 {
			seen[date] = struct{}{}
		}
	}
	for date, v := range in.Strava.Days {
		if v != 0 {
			seen[date] = struct{}{}
		}
	}
	for date, v := range in.Osrs.Days {
		if v != 0 {
			seen[date] = struct{}{}
		}
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	slices.Sort(dates)
	return dates
}
