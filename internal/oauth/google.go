// Package oauth implements the Google OAuth code flow with plain
// net/http: consent URL construction, authorization-code exchange and
// userinfo lookup, plus the signed state parameter that ties a
// callback to the redirect that started it.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

var defaultScopes = []string{"openid", "email", "profile"}

// GoogleProvider drives the three legs of the Google code flow.
type GoogleProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	HTTPClient *http.Client

	// Endpoint overrides for tests. Zero values mean Google's real
	// endpoints.
	tokenURL    string
	userInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *GoogleProvider) tokenEndpoint() string {
	if p.tokenURL != "" {
		return p.tokenURL
	}
	return googleTokenURL
}

func (p *GoogleProvider) userInfoEndpoint() string {
	if p.userInfoURL != "" {
		return p.userInfoURL
	}
	return googleUserInfoURL
}

// Token is the provider's token response. The refresh token is opaque
// to this service and stored verbatim on the auth method.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	IDToken      string `json:"id_token"`

	Error     string `json:"error"`
	ErrorDesc string `json:"error_description"`
}

// Profile is the subset of the userinfo document the linker needs.
type Profile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// AuthCodeURL returns the consent page URL carrying the signed state.
// access_type=offline asks Google for a refresh token.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.ClientID},
		"redirect_uri":  {p.RedirectURL},
		"response_type": {"code"},
		"scope":         {strings.Join(defaultScopes, " ")},
		"state":         {state},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}
	return googleAuthURL + "?" + params.Encode()
}

// Exchange trades the authorization code for tokens.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"client_id":     {p.ClientID},
		"client_secret": {p.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.RedirectURL},
		"grant_type":    {"authorization_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenEndpoint(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("google: decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || tok.Error != "" {
		return nil, fmt.Errorf("google: code exchange failed: status=%d error=%s %s", resp.StatusCode, tok.Error, tok.ErrorDesc)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("google: code exchange returned no access token")
	}
	return &tok, nil
}

// UserInfo fetches the profile for an access token.
func (p *GoogleProvider) UserInfo(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoEndpoint(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: userinfo failed: status=%d", resp.StatusCode)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("google: decode userinfo: %w", err)
	}
	if profile.Sub == "" {
		return nil, fmt.Errorf("google: userinfo missing subject")
	}
	return &profile, nil
}

func (p *GoogleProvider) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
