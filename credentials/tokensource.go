package credentials

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Token implements oauth2.TokenSource so the store can back an
// oauth2.Client directly. Each call re-reads the active credential, which
// lets `auth login` take effect for a running server.
func (s *Store) Token() (*oauth2.Token, error) {
	creds, err := s.GetActiveCredential()
	if err != nil {
		return nil, fmt.Errorf("loading AI token: %w", err)
	}
	return creds.OAuth2Token(), nil
}

// OAuth2Token converts the credential to a bearer token.
func (c *Credentials) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.Token,
		TokenType:   "Bearer",
		Expiry:      c.ExpiresAt,
	}
}

// StaticTokenSource wraps a fixed token, for callers that already hold one.
func StaticTokenSource(token string, expiresAt time.Time) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
		Expiry:      expiresAt,
	})
}
