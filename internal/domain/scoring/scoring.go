// Package scoring converts raw source units (commits, miles, hours) into points.
package scoring

// Conversion constants: 1 commit = 1 point, 3 miles = 1 point, 1 hour = 1 point.
const (
	GithubCommitPoints  = 1.0
	StravaMilesPerPoint = 3.0
	OsrsHoursPerPoint   = 1.0
)

// Weights holds the conversion factors applied by a Scorer.
type Weights struct {
	GithubCommitPoints  float64
	StravaMilesPerPoint float64
	OsrsHoursPerPoint   float64
}

// DefaultWeights returns the production conversion factors.
func DefaultWeights() Weights {
	return Weights{
		GithubCommitPoints:  GithubCommitPoints,
		StravaMilesPerPoint: StravaMilesPerPoint,
		OsrsHoursPerPoint:   OsrsHoursPerPoint,
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights overrides the conversion factors. Non-positive factors are ignored.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		if w.GithubCommitPoints > 0 {
			s.weights.GithubCommitPoints = w.GithubCommitPoints
		}
		if w.StravaMilesPerPoint > 0 {
			s.weights.StravaMilesPerPoint = w.StravaMilesPerPoint
		}
		if w.OsrsHoursPerPoint > 0 {
			s.weights.OsrsHoursPerPoint = w.OsrsHoursPerPoint
		}
	}
}

// Scorer computes points for each source. The zero value is not usable; use New.
type Scorer struct {
	weights Weights
}

// New creates a Scorer with the default weights.
func New(opts ...Option) *Scorer {
	s := &Scorer{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Github scores a day's commit count.
func (s *Scorer) Github(commits int) float64 {
	return float64(commits) * s.weights.GithubCommitPoints
}

// Strava scores a day's running distance in miles.
func (s *Scorer) Strava(miles float64) float64 {
	return miles / s.weights.StravaMilesPerPoint
}

// Osrs scores a day's hours played.
func (s *Scorer) Osrs(hours float64) float64 {
	return hours / s.weights.OsrsHoursPerPoint
}

// Weights returns the factors in use.
func (s *Scorer) Weights() Weights {
	return s.weights
}
