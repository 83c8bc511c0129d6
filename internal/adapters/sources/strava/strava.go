// Package strava reads an athlete's running distance per day from the Strava API.
package strava

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pulse/internal/adapters/sources/upstream"
	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
	"golang.org/x/time/rate"
)

// DefaultAPIBase is the REST API root.
const DefaultAPIBase = "https://www.strava.com/api/v3"

// PageSize is the largest page the activities endpoint serves. A page of
// exactly this size means there may be more.
const PageSize = 200

// MetersPerMile converts activity distance.
const MetersPerMile = 1609.34

// runType is the only activity type counted.
const runType = "Run"

// defaultPagesPerSecond paces sequential page requests.
const defaultPagesPerSecond = 10

type summaryActivity struct {
	ID             int64   `json:"id"`
	Type           string  `json:"type"`
	StartDateLocal string  `json:"start_date_local"`
	Distance       float64 `json:"distance"`
}

// Client fetches running activity for one athlete.
type Client struct {
	tokens  *TokenManager
	apiBase string
	http    *upstream.Client
	pager   *rate.Limiter
	log     logger.Logger
}

// New creates a Client authenticated through tokens.
func New(tokens *TokenManager, opts ...Option) *Client {
	c := &Client{
		tokens:  tokens,
		apiBase: DefaultAPIBase,
		pager:   rate.NewLimiter(rate.Limit(defaultPagesPerSecond), 1),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = upstream.New(string(activity.SourceStrava), upstream.WithLogger(c.log))
	}
	return c
}

// Identity returns the athlete id.
func (c *Client) Identity() string { return c.tokens.AthleteID() }

// Tokens exposes the token manager for the OAuth bootstrap routes.
func (c *Client) Tokens() *TokenManager { return c.tokens }

// Fetch returns miles run per local day in year.
func (c *Client) Fetch(ctx context.Context, year int) (activity.StravaYear, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return activity.StravaYear{}, err
	}

	from, to := activity.YearBounds(year)
	runs, pages, err := c.listActivities(ctx, token, from, to)
	metrics.RecordStravaPages(pages)
	if err != nil {
		return activity.StravaYear{}, err
	}

	out := activity.EmptyStrava()
	var total float64
	for _, a := range runs {
		if a.Type != runType {
			continue
		}
		date, ok := localDate(a.StartDateLocal)
		if !ok {
			c.log.Debug(ctx, "skipping activity with unparseable start date",
				logger.Int64("id", a.ID),
				logger.String("start_date_local", a.StartDateLocal))
			continue
		}
		miles := a.Distance / MetersPerMile
		out.Days[date] += miles
		total += miles
	}
	for date, miles := range out.Days {
		out.Days[date] = activity.Round2(miles)
	}
	out.TotalMiles = activity.Round2(total)

	c.log.Debug(ctx, "strava activities fetched",
		logger.Int("year", year),
		logger.Int("pages", pages),
		logger.Int("activities", len(runs)),
		logger.Int("days", len(out.Days)))
	return out, nil
}

// listActivities walks the activity pages in order until a short or empty
// page. Any failed page discards everything fetched so far.
func (c *Client) listActivities(ctx context.Context, token string, from, to time.Time) ([]summaryActivity, int, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	var all []summaryActivity
	for page := 1; ; page++ {
		if err := c.pager.Wait(ctx); err != nil {
			return nil, page - 1, fmt.Errorf("strava page %d: %w", page, err)
		}

		q := url.Values{}
		q.Set("after", strconv.FormatInt(from.Unix(), 10))
		q.Set("before", strconv.FormatInt(to.Unix(), 10))
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(PageSize))

		var batch []summaryActivity
		if err := c.http.GetJSON(ctx, c.apiBase+"/athlete/activities?"+q.Encode(), header, &batch); err != nil {
			return nil, page, err
		}
		all = append(all, batch...)
		if len(batch) < PageSize {
			return all, page, nil
		}
	}
}

// localDate truncates a start_date_local value to its calendar date. The
// value is the athlete's wall clock, so no zone conversion is applied.
func localDate(s string) (string, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return activity.LocalDate(t), true
	}
	if date, _, found := strings.Cut(s, "T"); found {
		if _, err := time.Parse(activity.DateLayout, date); err == nil {
			return date, true
		}
	}
	return "", false
}
