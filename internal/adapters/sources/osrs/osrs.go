// Package osrs derives hours played per day from Wise Old Man EHP snapshots.
package osrs

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/okian/pulse/internal/adapters/sources/upstream"
	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/pkg/logger"
)

// DefaultAPIBase is the Wise Old Man v2 API root.
const DefaultAPIBase = "https://api.wiseoldman.net/v2"

// Snapshot is one EHP reading. Value is cumulative efficient hours played.
type Snapshot struct {
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// Client fetches the EHP timeline for one player.
type Client struct {
	username string
	apiKey   string
	apiBase  string
	http     *upstream.Client
	log      logger.Logger
}

// New creates a Client for username.
func New(username string, opts ...Option) *Client {
	c := &Client{
		username: username,
		apiBase:  DefaultAPIBase,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = upstream.New(string(activity.SourceOsrs), upstream.WithLogger(c.log))
	}
	return c
}

// Identity returns the player name.
func (c *Client) Identity() string { return c.username }

// Fetch returns hours played per day in year. An unknown player yields an
// empty year.
func (c *Client) Fetch(ctx context.Context, year int) (activity.OsrsYear, error) {
	from, to := activity.YearBounds(year)
	q := url.Values{}
	q.Set("metric", "ehp")
	q.Set("startDate", from.Format(activity.DateLayout))
	q.Set("endDate", to.Format(activity.DateLayout))
	endpoint := c.apiBase + "/players/" + url.PathEscape(c.username) + "/snapshots/timeline?" + q.Encode()

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("x-api-key", c.apiKey)
	}

	var snapshots []Snapshot
	if err := c.http.GetJSON(ctx, endpoint, header, &snapshots); err != nil {
		if upstream.IsStatus(err, http.StatusNotFound) {
			c.log.Debug(ctx, "osrs player not found", logger.String("player", c.username))
			return activity.EmptyOsrs(), nil
		}
		return activity.OsrsYear{}, err
	}
	return Deltas(snapshots), nil
}

// Deltas attributes each positive increase between consecutive snapshots to
// the later snapshot's UTC date. Drops and flat readings are ignored. Values
// are rounded once after summing.
func Deltas(snapshots []Snapshot) activity.OsrsYear {
	out := activity.EmptyOsrs()
	if len(snapshots) < 2 {
		return out
	}

	sorted := slices.Clone(snapshots)
	slices.SortStableFunc(sorted, func(a, b Snapshot) int {
		return a.Date.Compare(b.Date)
	})

	var total float64
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].Value - sorted[i-1].Value
		if delta <= 0 {
			continue
		}
		out.Days[activity.UTCDate(sorted[i].Date)] += delta
		total += delta
	}
	for date, hours := range out.Days {
		out.Days[date] = activity.Round2(hours)
	}
	out.TotalHours = activity.Round2(total)
	return out
}
