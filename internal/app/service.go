// Package service provides the activity pipeline used by the HTTP API:
// cached per-source fetches and the combined, scored year.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/internal/adapters/cache"
	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/internal/domain/aggregate"
	"github.com/okian/pulse/internal/domain/scoring"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultSourceTimeout bounds each source inside a combined fetch.
const DefaultSourceTimeout = 15 * time.Second

// GithubSource fetches a contribution calendar.
type GithubSource interface {
	Fetch(ctx context.Context, year int) (activity.GithubYear, error)
	Identity() string
}

// StravaSource fetches running distance.
type StravaSource interface {
	Fetch(ctx context.Context, year int) (activity.StravaYear, error)
	Identity() string
}

// OsrsSource fetches hours played.
type OsrsSource interface {
	Fetch(ctx context.Context, year int) (activity.OsrsYear, error)
	Identity() string
}

// Service implements the API dependencies for the activity pipeline.
type Service struct {
	github GithubSource
	strava StravaSource
	osrs   OsrsSource

	policy        *cache.Policy
	scorer        *scoring.Scorer
	clock         clockwork.Clock
	sourceTimeout time.Duration

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGithub sets the GitHub source.
func WithGithub(src GithubSource) Option {
	return func(s *Service) { s.github = src }
}

// WithStrava sets the Strava source.
func WithStrava(src StravaSource) Option {
	return func(s *Service) { s.strava = src }
}

// WithOsrs sets the OSRS source.
func WithOsrs(src OsrsSource) Option {
	return func(s *Service) { s.osrs = src }
}

// WithCachePolicy sets the cache in front of the sources and the aggregate.
func WithCachePolicy(p *cache.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithScorer overrides the point conversion.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithClock sets the clock used for year validation.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSourceTimeout bounds each source call made by FetchCombined.
func WithSourceTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sourceTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Sources left unset behave as not configured.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:        scoring.New(),
		clock:         clockwork.NewRealClock(),
		sourceTimeout: DefaultSourceTimeout,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheEnabled reports whether results are cached.
func (s *Service) CacheEnabled() bool { return s.policy.Enabled() }

// CurrentYear is the default year for requests that omit one.
func (s *Service) CurrentYear() int { return s.clock.Now().Year() }

// FetchGithub returns the GitHub calendar for year. The bool reports a cache hit.
func (s *Service) FetchGithub(ctx context.Context, year int) (activity.GithubYear, bool, error) {
	if err := activity.ValidateYear(activity.SourceGithub, year, s.clock.Now()); err != nil {
		return activity.GithubYear{}, false, err
	}
	return s.cachedGithub(ctx, year)
}

// FetchStrava returns the Strava miles for year. The bool reports a cache hit.
func (s *Service) FetchStrava(ctx context.Context, year int) (activity.StravaYear, bool, error) {
	if err := activity.ValidateYear(activity.SourceStrava, year, s.clock.Now()); err != nil {
		return activity.StravaYear{}, false, err
	}
	return s.cachedStrava(ctx, year)
}

// FetchOsrs returns the OSRS hours for year. The bool reports a cache hit.
func (s *Service) FetchOsrs(ctx context.Context, year int) (activity.OsrsYear, bool, error) {
	if err := activity.ValidateYear(activity.SourceOsrs, year, s.clock.Now()); err != nil {
		return activity.OsrsYear{}, false, err
	}
	return s.cachedOsrs(ctx, year)
}

// FetchCombined returns the scored year across all sources. Source failures
// degrade to empty contributions; only an invalid year is an error.
func (s *Service) FetchCombined(ctx context.Context, year int) (activity.Year, bool, error) {
	if err := activity.ValidateYear(activity.SourceCombined, year, s.clock.Now()); err != nil {
		return activity.Year{}, false, err
	}
	return cache.Through(ctx, s.policy, cache.KeyspaceCombined, cache.CombinedKey(year), cache.CombinedTTL,
		func(ctx context.Context) (activity.Year, error) {
			out := s.aggregate(ctx, year)
			// A canceled caller leaves every source empty; keep that out of the cache.
			if err := ctx.Err(); err != nil {
				return activity.Year{}, err
			}
			return out, nil
		})
}

func (s *Service) aggregate(ctx context.Context, year int) activity.Year {
	start := time.Now()
	in := aggregate.Inputs{
		Github: activity.EmptyGithub(),
		Strava: activity.EmptyStrava(),
		Osrs:   activity.EmptyOsrs(),
	}

	var g errgroup.Group
	if year >= activity.MinGithubYear {
		g.Go(func() error {
			in.Github = bounded(ctx, s, activity.SourceGithub, year, in.Github, s.cachedGithub)
			return nil
		})
	}
	if year >= activity.MinStravaYear {
		g.Go(func() error {
			in.Strava = bounded(ctx, s, activity.SourceStrava, year, in.Strava, s.cachedStrava)
			return nil
		})
	}
	if year >= activity.MinOsrsYear {
		g.Go(func() error {
			in.Osrs = bounded(ctx, s, activity.SourceOsrs, year, in.Osrs, s.cachedOsrs)
			return nil
		})
	}
	_ = g.Wait()

	out := aggregate.Combine(year, in, s.scorer)
	metrics.RecordAggregate(float64(time.Since(start).Milliseconds()), len(out.Days))
	s.logger.Debug(ctx, "activity aggregated",
		logger.Int("year", year),
		logger.Int("days", len(out.Days)),
		logger.Float64("overall", out.Totals.Overall))
	return out
}

// bounded runs fetch under the per-source deadline. A failure is logged,
// counted and replaced by empty.
func bounded[T any](ctx context.Context, s *Service, src activity.Source, year int, empty T,
	fetch func(context.Context, int) (T, bool, error),
) T {
	ctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	v, _, err := fetch(ctx, year)
	if err != nil {
		kind := activity.FailureKind(err)
		metrics.RecordSourceFailure(string(src), kind)
		s.logger.Warn(ctx, "source unavailable, contributing zero",
			logger.String("source", string(src)),
			logger.Int("year", year),
			logger.String("kind", kind),
			logger.Error(err))
		return empty
	}
	return v
}

func (s *Service) cachedGithub(ctx context.Context, year int) (activity.GithubYear, bool, error) {
	if s.github == nil {
		return activity.GithubYear{}, false, fmt.Errorf("github: %w", activity.ErrNotConfigured)
	}
	key := cache.SourceKey(cache.KeyspaceGithub, s.github.Identity(), year)
	return cache.Through(ctx, s.policy, cache.KeyspaceGithub, key, cache.GithubTTL,
		func(ctx context.Context) (activity.GithubYear, error) {
			return s.github.Fetch(ctx, year)
		})
}

func (s *Service) cachedStrava(ctx context.Context, year int) (activity.StravaYear, bool, error) {
	if s.strava == nil {
		return activity.StravaYear{}, false, fmt.Errorf("strava: %w", activity.ErrNotConfigured)
	}
	key := cache.SourceKey(cache.KeyspaceStrava, s.strava.Identity(), year)
	return cache.Through(ctx, s.policy, cache.KeyspaceStrava, key, cache.StravaTTL,
		func(ctx context.Context) (activity.StravaYear, error) {
			return s.strava.Fetch(ctx, year)
		})
}

func (s *Service) cachedOsrs(ctx context.Context, year int) (activity.OsrsYear, bool, error) {
	if s.osrs == nil {
		return activity.OsrsYear{}, false, fmt.Errorf("osrs: %w", activity.ErrNotConfigured)
	}
	key := cache.SourceKey(cache.KeyspaceOsrs, s.osrs.Identity(), year)
	return cache.Through(ctx, s.policy, cache.KeyspaceOsrs, key, cache.OsrsTTL,
		func(ctx context.Context) (activity.OsrsYear, error) {
			return s.osrs.Fetch(ctx, year)
		})
}
