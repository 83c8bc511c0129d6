package strava

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/pulse/internal/adapters/cache"
	"github.com/okian/pulse/internal/adapters/sources/upstream"
	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// DefaultOAuthBase hosts the authorize and token endpoints.
const DefaultOAuthBase = "https://www.strava.com"

// expirySkew is how long before expiry a cached token is considered stale.
const expirySkew = 60 * time.Second

// Credentials identify the application and the athlete it acts for.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AthleteID    string
}

// Token is the cached access token.
type Token struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// Valid reports whether t can still be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && t.ExpiresAt > now.Add(expirySkew).Unix()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	Athlete      *struct {
		ID        int64  `json:"id"`
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
	} `json:"athlete,omitempty"`
}

// TokenManager hands out access tokens, refreshing them through the OAuth
// refresh grant and keeping the current one in the cache keyed by athlete.
// Concurrent refreshes are not coordinated; the last write wins.
type TokenManager struct {
	creds     Credentials
	oauthBase string
	policy    *cache.Policy
	clock     clockwork.Clock
	http      *upstream.Client
	log       logger.Logger
}

// NewTokenManager creates a TokenManager for creds.
func NewTokenManager(creds Credentials, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		creds:     creds,
		oauthBase: DefaultOAuthBase,
		clock:     clockwork.NewRealClock(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.http == nil {
		m.http = upstream.New("strava_oauth", upstream.WithLogger(m.log))
	}
	return m
}

// AthleteID returns the athlete the tokens belong to.
func (m *TokenManager) AthleteID() string { return m.creds.AthleteID }

// Configured reports whether a refresh can be attempted.
func (m *TokenManager) Configured() bool {
	return m.creds.ClientID != "" && m.creds.ClientSecret != "" && m.creds.RefreshToken != ""
}

// AccessToken returns a token valid for at least another minute.
//
// A valid cached token is served before credentials are checked, so removing
// credentials stops network calls only once that token goes stale. Without a
// cached token, missing credentials fail with ErrNotConfigured and no request.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	key := cache.TokenKey(m.creds.AthleteID)

	var cached Token
	if m.policy.Load(ctx, cache.KeyspaceToken, key, &cached) && cached.Valid(m.clock.Now()) {
		return cached.AccessToken, nil
	}

	if !m.Configured() {
		return "", fmt.Errorf("strava credentials: %w", activity.ErrNotConfigured)
	}

	tok, err := m.refresh(ctx)
	if err != nil {
		metrics.RecordTokenRefresh("error")
		m.log.Warn(ctx, "strava token refresh failed",
			logger.String("athlete", m.creds.AthleteID),
			logger.Error(err))
		return "", err
	}
	metrics.RecordTokenRefresh("ok")

	if ttl := time.Duration(tok.ExpiresAt-m.clock.Now().Unix()) * time.Second; ttl > 0 {
		m.policy.Save(ctx, key, tok, ttl)
	}
	m.log.Info(ctx, "strava token refreshed",
		logger.String("athlete", m.creds.AthleteID),
		logger.Int64("expires_at", tok.ExpiresAt))
	return tok.AccessToken, nil
}

func (m *TokenManager) refresh(ctx context.Context) (Token, error) {
	body := map[string]string{
		"client_id":     m.creds.ClientID,
		"client_secret": m.creds.ClientSecret,
		"refresh_token": m.creds.RefreshToken,
		"grant_type":    "refresh_token",
	}
	var resp tokenResponse
	if err := m.http.PostJSON(ctx, m.oauthBase+"/oauth/token", nil, body, &resp); err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}
	if resp.AccessToken == "" {
		return Token{}, fmt.Errorf("%w: %w: empty access token", ErrTokenRefresh, activity.ErrUpstream)
	}
	return Token{AccessToken: resp.AccessToken, ExpiresAt: resp.ExpiresAt}, nil
}
