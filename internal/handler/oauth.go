package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/lingodex/backend/internal/model"
	"github.com/lingodex/backend/internal/oauth"
	"github.com/lingodex/backend/internal/service"
)

// OAuthHandler serves the Google sign-in flow. The caller on both
// routes is a browser mid-redirect, so failures never surface as API
// errors: every outcome is a redirect, success to the frontend signin
// page with the access token, failure to the login page with a generic
// error. The linking decision itself lives in service.OAuthService and
// stays testable without any HTTP harness.
type OAuthHandler struct {
	Provider    *oauth.GoogleProvider
	States      *oauth.StateCodec
	OAuth       *service.OAuthService
	FrontendURL string
}

func NewOAuthHandler(provider *oauth.GoogleProvider, states *oauth.StateCodec, svc *service.OAuthService, frontendURL string) *OAuthHandler {
	return &OAuthHandler{Provider: provider, States: states, OAuth: svc, FrontendURL: frontendURL}
}

// GoogleBegin redirects the browser to the Google consent page with a
// signed state parameter.
func (h *OAuthHandler) GoogleBegin(c echo.Context) error {
	state, err := h.States.Encode(model.AuthMethodGoogle)
	if err != nil {
		return h.redirectError(c)
	}
	return c.Redirect(http.StatusFound, h.Provider.AuthCodeURL(state))
}

// GoogleCallback handles the provider redirect: verify state, exchange
// the code, fetch the profile, link the identity, and send the browser
// back to the frontend carrying only the access token.
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	if c.QueryParam("error") != "" {
		return h.redirectError(c)
	}

	state, err := h.States.Decode(c.QueryParam("state"))
	if err != nil || state.Provider != model.AuthMethodGoogle {
		return h.redirectError(c)
	}

	code := c.QueryParam("code")
	if code == "" {
		return h.redirectError(c)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	tok, err := h.Provider.Exchange(ctx, code)
	if err != nil {
		c.Logger().Warnf("oauth: code exchange failed: %v", err)
		return h.redirectError(c)
	}
	profile, err := h.Provider.UserInfo(ctx, tok.AccessToken)
	if err != nil {
		c.Logger().Warnf("oauth: userinfo failed: %v", err)
		return h.redirectError(c)
	}

	res, err := h.OAuth.Link(ctx, service.OAuthAssertion{
		Provider:             model.AuthMethodGoogle,
		SubjectID:            profile.Sub,
		Email:                profile.Email,
		FirstName:            profile.GivenName,
		LastName:             profile.FamilyName,
		AvatarURL:            profile.Picture,
		ProviderRefreshToken: tok.RefreshToken,
	})
	if err != nil {
		c.Logger().Warnf("oauth: linking failed: %v", err)
		return h.redirectError(c)
	}

	return c.Redirect(http.StatusFound,
		h.FrontendURL+"/signin?token="+url.QueryEscape(res.Access.Token))
}

func (h *OAuthHandler) redirectError(c echo.Context) error {
	return c.Redirect(http.StatusFound,
		h.FrontendURL+"/login?error="+url.QueryEscape("Authentication failed"))
}
