package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lingodex/backend/internal/utils"
)

const testSecret = "middleware-test-secret"

func runProtected(t *testing.T, mw echo.MiddlewareFunc, authorization string, seed func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if seed != nil {
		seed(c)
	}

	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	if err := mw(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	signed, err := utils.NewToken(testSecret, "user-1", "alice", "LOCAL", "method-1", "USER", time.Hour)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed.Token)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	called := false
	next := func(c echo.Context) error {
		called = true
		if c.Get(CtxUserID) != "user-1" || c.Get(CtxUsername) != "alice" {
			t.Errorf("identity in context = (%v, %v)", c.Get(CtxUserID), c.Get(CtxUsername))
		}
		if c.Get(CtxRole) != "USER" || c.Get(CtxAuthMethodID) != "method-1" {
			t.Errorf("claims in context = (%v, %v)", c.Get(CtxRole), c.Get(CtxAuthMethodID))
		}
		return c.NoContent(http.StatusOK)
	}
	if err := JWTAuth(testSecret)(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if !called {
		t.Fatal("next handler not reached")
	}
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	expired, err := utils.NewToken(testSecret, "u", "alice", "LOCAL", "m", "USER", -time.Minute)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	wrongKey, err := utils.NewToken("other-secret", "u", "alice", "LOCAL", "m", "USER", time.Hour)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	for name, header := range map[string]string{
		"no header":    "",
		"not bearer":   "Basic abc123",
		"garbage":      "Bearer not.a.jwt",
		"expired":      "Bearer " + expired.Token,
		"wrong secret": "Bearer " + wrongKey.Token,
	} {
		rec := runProtected(t, JWTAuth(testSecret), header, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		seed func(echo.Context)
		code int
	}{
		{"admin allowed", func(c echo.Context) { c.Set(CtxRole, "ADMIN") }, http.StatusOK},
		{"user denied", func(c echo.Context) { c.Set(CtxRole, "USER") }, http.StatusForbidden},
		{"no role denied", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := runProtected(t, RequireRole("ADMIN"), "", tc.seed)
		if rec.Code != tc.code {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, tc.code)
		}
	}
}
