package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "client-secret", "https://api.example/v1/auth/google/callback")

	raw := p.AuthCodeURL("signed-state")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse consent url: %v", err)
	}
	if u.Host != "accounts.google.com" {
		t.Fatalf("host = %q", u.Host)
	}

	q := u.Query()
	if q.Get("client_id") != "client-id" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "signed-state" {
		t.Fatalf("state = %q", q.Get("state"))
	}
	if q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Fatal("refresh-token parameters missing from consent url")
	}
	if !strings.Contains(q.Get("scope"), "email") {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("code") != "auth-code" || r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3599}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("client-id", "client-secret", "https://api.example/cb")
	p.tokenURL = srv.URL

	tok, err := p.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tok.AccessToken != "at-1" || tok.RefreshToken != "rt-1" {
		t.Fatalf("token = %+v", tok)
	}
}

func TestExchangeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad Request"}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("client-id", "client-secret", "https://api.example/cb")
	p.tokenURL = srv.URL

	if _, err := p.Exchange(context.Background(), "stale-code"); err == nil {
		t.Fatal("provider error did not surface")
	}
}

func TestUserInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"sub-1","email":"carol@example.com","email_verified":true,"given_name":"Carol","family_name":"Reed","picture":"https://lh3.example/p.png"}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("client-id", "client-secret", "https://api.example/cb")
	p.userInfoURL = srv.URL

	profile, err := p.UserInfo(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("UserInfo: %v", err)
	}
	if profile.Sub != "sub-1" || profile.Email != "carol@example.com" {
		t.Fatalf("profile = %+v", profile)
	}
	if !profile.EmailVerified {
		t.Fatal("email_verified not decoded")
	}
}

func TestUserInfoMissingSubject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"carol@example.com"}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider("client-id", "client-secret", "https://api.example/cb")
	p.userInfoURL = srv.URL

	if _, err := p.UserInfo(context.Background(), "at-1"); err == nil {
		t.Fatal("profile without sub accepted")
	}
}
