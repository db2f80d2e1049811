// Package handler exposes the authentication use cases over HTTP.
// Handlers bind the request, call into the service layer with a
// bounded context, and translate the service error taxonomy to status
// codes; storage detail never reaches the response body.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"

	"github.com/lingodex/backend/internal/middleware"
	"github.com/lingodex/backend/internal/model"
	"github.com/lingodex/backend/internal/service"
)

const dbTimeout = 5 * time.Second

// bcrypt refuses inputs over 72 bytes, so longer passwords can never
// be hashed and are rejected up front.
const maxPasswordBytes = 72

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userPart struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      string `json:"role"`
}
type authResp struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         userPart `json:"user"`
}

func toUserPart(u *model.User) userPart {
	return userPart{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}

func toAuthResp(r *service.AuthResult) authResp {
	return authResp{
		AccessToken:  r.Access.Token,
		RefreshToken: r.Refresh.Token,
		User:         toUserPart(r.User),
	}
}

// Register creates a user with a local password and returns tokens
// immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}
	if len(req.Password) > maxPasswordBytes {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at most 72 bytes"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	res, err := h.Auth.Register(ctx, service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusCreated, toAuthResp(res))
}

// Login verifies a local password and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// Refresh rotates a refresh token: the presented token is revoked and
// a new pair is returned. Presenting the same token twice fails.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	res, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// Logout revokes every refresh token of the authenticated user.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, userID); err != nil {
		return authError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}

// Me echoes the identity carried by the access token. No storage
// lookup happens here; the claims are the sole source of identity.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"userId":   c.Get(middleware.CtxUserID),
		"username": c.Get(middleware.CtxUsername),
		"role":     c.Get(middleware.CtxRole),
	})
}

// authMethodPart is the sanitized admin view of an auth method:
// no credential hash and no provider refresh token.
type authMethodPart struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Identifier     string     `json:"identifier"`
	IsVerified     bool       `json:"isVerified"`
	LastUsedAt     *time.Time `json:"lastUsedAt,omitempty"`
	FailedAttempts int        `json:"failedAttempts"`
	LockedUntil    *time.Time `json:"lockedUntil,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UserAuthMethods lists a user's auth methods for administrators.
func (h *AuthHandler) UserAuthMethods(c echo.Context) error {
	userID := c.Param("id")

	ctx, cancel := reqContext(c)
	defer cancel()

	methods, err := h.Auth.AuthMethodsForUser(ctx, userID)
	if err != nil {
		return authError(c, err)
	}

	out := make([]authMethodPart, 0, len(methods))
	for _, m := range methods {
		out = append(out, authMethodPart{
			ID:             m.ID,
			Type:           m.Type,
			Identifier:     m.Identifier,
			IsVerified:     m.IsVerified,
			LastUsedAt:     m.LastUsedAt,
			FailedAttempts: m.FailedAttempts,
			LockedUntil:    m.LockedUntil,
			CreatedAt:      m.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"authMethods": out})
}

// reqContext bounds a storage-bound handler with the request deadline.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// authError maps the service taxonomy to HTTP statuses. Anything
// outside the taxonomy is an internal fault: captured, logged, and
// answered with a bare 500.
func authError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	case errors.Is(err, service.ErrAccountLocked):
		return c.JSON(http.StatusLocked, echo.Map{"error": "account is temporarily locked, try again later"})
	case errors.Is(err, service.ErrTokenExpired), errors.Is(err, service.ErrTokenInvalid):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "username or email already exists"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrAuthenticationFailed):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication failed"})
	default:
		sentry.CaptureException(err)
		c.Logger().Errorf("auth handler: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
