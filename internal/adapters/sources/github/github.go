// Package github reads a user's contribution calendar from the GitHub GraphQL API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/pulse/internal/adapters/sources/upstream"
	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/pkg/logger"
)

// DefaultEndpoint is the public GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

const contributionsQuery = `
query($username: String!, $from: DateTime!, $to: DateTime!) {
  user(login: $username) {
    contributionsCollection(from: $from, to: $to) {
      contributionCalendar {
        weeks {
          contributionDays {
            contributionCount
            date
          }
        }
        totalContributions
      }
    }
  }
}`

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type contributionDay struct {
	ContributionCount int    `json:"contributionCount"`
	Date              string `json:"date"`
}

type graphqlResponse struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					Weeks []struct {
						ContributionDays []contributionDay `json:"contributionDays"`
					} `json:"weeks"`
					TotalContributions int `json:"totalContributions"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client fetches contribution calendars.
type Client struct {
	token    string
	username string
	endpoint string
	http     *upstream.Client
	log      logger.Logger
}

// New creates a Client for username authenticated with token.
func New(token, username string, opts ...Option) *Client {
	c := &Client{
		token:    token,
		username: username,
		endpoint: DefaultEndpoint,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = upstream.New(string(activity.SourceGithub), upstream.WithLogger(c.log))
	}
	return c
}

// Identity returns the account the calendar belongs to.
func (c *Client) Identity() string { return c.username }

// Configured reports whether a token is present.
func (c *Client) Configured() bool { return c.token != "" }

// Fetch returns the non-zero contribution counts for year.
func (c *Client) Fetch(ctx context.Context, year int) (activity.GithubYear, error) {
	if !c.Configured() {
		return activity.GithubYear{}, fmt.Errorf("github token: %w", activity.ErrNotConfigured)
	}

	from, to := activity.YearBounds(year)
	req := graphqlRequest{
		Query: contributionsQuery,
		Variables: map[string]any{
			"username": c.username,
			"from":     from.Format(time.RFC3339),
			"to":       to.Format(time.RFC3339),
		},
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	var resp graphqlResponse
	if err := c.http.PostJSON(ctx, c.endpoint, header, req, &resp); err != nil {
		return activity.GithubYear{}, err
	}
	if len(resp.Errors) > 0 {
		return activity.GithubYear{}, fmt.Errorf("%w: github graphql: %s", activity.ErrUpstream, resp.Errors[0].Message)
	}
	if resp.Data.User == nil {
		return activity.GithubYear{}, fmt.Errorf("%w: github user %q not found", activity.ErrUpstream, c.username)
	}

	calendar := resp.Data.User.ContributionsCollection.ContributionCalendar
	out := activity.EmptyGithub()
	out.Total = calendar.TotalContributions
	for _, week := range calendar.Weeks {
		for _, day := range week.ContributionDays {
			if day.ContributionCount > 0 {
				out.Days[day.Date] = day.ContributionCount
			}
		}
	}

	c.log.Debug(ctx, "github calendar fetched",
		logger.Int("year", year),
		logger.Int("days", len(out.Days)),
		logger.Int("total", out.Total))
	return out, nil
}
