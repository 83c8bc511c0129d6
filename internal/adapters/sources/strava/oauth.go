package strava

import (
	"context"
	"fmt"
	"net/url"
)

// Authorization is the result of exchanging an authorization code. The
// refresh token is what an operator copies into configuration.
type Authorization struct {
	RefreshToken string  `json:"refreshToken"`
	AccessToken  string  `json:"accessToken"`
	ExpiresAt    int64   `json:"expiresAt"`
	Athlete      Athlete `json:"athlete"`
}

// Athlete identifies the account that granted access.
type Athlete struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// AuthorizeURL builds the consent page URL that sends the athlete back to
// redirectURI with a code.
func (m *TokenManager) AuthorizeURL(redirectURI string) (string, error) {
	if m.creds.ClientID == "" {
		return "", ErrMissingClient
	}
	u, err := url.Parse(m.oauthBase + "/oauth/authorize")
	if err != nil {
		return "", fmt.Errorf("parse oauth base: %w", err)
	}
	q := u.Query()
	q.Set("client_id", m.creds.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "activity:read_all")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode trades an authorization code for tokens.
func (m *TokenManager) ExchangeCode(ctx context.Context, code string) (Authorization, error) {
	if code == "" {
		return Authorization{}, ErrMissingCode
	}
	if m.creds.ClientID == "" || m.creds.ClientSecret == "" {
		return Authorization{}, ErrMissingClient
	}

	body := map[string]string{
		"client_id":     m.creds.ClientID,
		"client_secret": m.creds.ClientSecret,
		"code":          code,
		"grant_type":    "authorization_code",
	}
	var resp tokenResponse
	if err := m.http.PostJSON(ctx, m.oauthBase+"/oauth/token", nil, body, &resp); err != nil {
		return Authorization{}, fmt.Errorf("%w: %w", ErrCodeExchange, err)
	}

	auth := Authorization{
		RefreshToken: resp.RefreshToken,
		AccessToken:  resp.AccessToken,
		ExpiresAt:    resp.ExpiresAt,
	}
	if resp.Athlete != nil {
		auth.Athlete = Athlete{ID: resp.Athlete.ID, Firstname: resp.Athlete.Firstname, Lastname: resp.Athlete.Lastname}
	}
	return auth, nil
}
