// Package activity defines the canonical per-day activity shapes shared by the
// source adapters, the aggregator and the HTTP layer.
package activity

// Source names one activity provider, or the combined view.
type Source string

// Known sources.
const (
	SourceGithub   Source = "github"
	SourceStrava   Source = "strava"
	SourceOsrs     Source = "osrs"
	SourceCombined Source = "combined"
)

// GithubYear is the contribution count per day for one calendar year.
// Days is sparse: zero-contribution days are absent.
type GithubYear struct {
	Days  map[string]int `json:"days"`
	Total int            `json:"total"`
}

// StravaYear is the running distance in miles per local day.
type StravaYear struct {
	Days       map[string]float64 `json:"days"`
	TotalMiles float64            `json:"totalMiles"`
}

// OsrsYear is the hours played (EHP gained) per day.
type OsrsYear struct {
	Days       map[string]float64 `json:"days"`
	TotalHours float64            `json:"totalHours"`
}

// EmptyGithub returns the zero contribution used when a source is unavailable.
func EmptyGithub() GithubYear { return GithubYear{Days: map[string]int{}} }

// EmptyStrava returns the zero contribution used when a source is unavailable.
func EmptyStrava() StravaYear { return StravaYear{Days: map[string]float64{}} }

// EmptyOsrs returns the zero contribution used when a source is unavailable.
func EmptyOsrs() OsrsYear { return OsrsYear{Days: map[string]float64{}} }

// GithubDay is the GitHub part of a Day.
type GithubDay struct {
	Commits int     `json:"commits"`
	Points  float64 `json:"points"`
}

// StravaDay is the Strava part of a Day.
type StravaDay struct {
	Miles  float64 `json:"miles"`
	Points float64 `json:"points"`
}

// OsrsDay is the OSRS part of a Day.
type OsrsDay struct {
	Hours  float64 `json:"hours"`
	Points float64 `json:"points"`
}

// Day is one calendar day of the combined timeline. TotalPoints is always the
// sum of the three source points.
type Day struct {
	Date        string    `json:"date"`
	Github      GithubDay `json:"github"`
	Strava      StravaDay `json:"strava"`
	Osrs        OsrsDay   `json:"osrs"`
	TotalPoints float64   `json:"totalPoints"`
}

// Totals holds the yearly points per source, each rounded to two decimals.
type Totals struct {
	Github  float64 `json:"github"`
	Strava  float64 `json:"strava"`
	Osrs    float64 `json:"osrs"`
	Overall float64 `json:"overall"`
}

// Year is the combined, scored dataset for one calendar year. Days only holds
// dates where at least one source recorded something.
type Year struct {
	Year   int            `json:"year"`
	Days   map[string]Day `json:"days"`
	Totals Totals         `json:"totals"`
}
