package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lingodex/backend/internal/model"
)

func googleAssertion() OAuthAssertion {
	return OAuthAssertion{
		Provider:             model.AuthMethodGoogle,
		SubjectID:            "sub-1001",
		Email:                "Carol@Example.com",
		FirstName:            "Carol",
		LastName:             "Reed",
		AvatarURL:            "https://lh3.example/avatar.png",
		ProviderRefreshToken: "g-refresh-1",
	}
}

func TestOAuthFirstLoginCreatesUserAndMethod(t *testing.T) {
	_, oauth, _, store, events := newTestAuth()

	res, err := oauth.Link(context.Background(), googleAssertion())
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if res.Access.Token == "" {
		t.Fatal("no access token issued")
	}
	if res.User.Email != "carol@example.com" {
		t.Fatalf("email = %q, want lowercased", res.User.Email)
	}
	if res.User.Username != "carolreed" {
		t.Fatalf("username = %q, want carolreed", res.User.Username)
	}

	if len(store.users) != 1 || len(store.methods) != 1 {
		t.Fatalf("created %d users, %d methods, want 1 and 1", len(store.users), len(store.methods))
	}
	// Access-token-only flow: no local refresh row.
	if len(store.tokens) != 0 {
		t.Fatalf("%d refresh rows minted for OAuth sign-in, want 0", len(store.tokens))
	}

	method, err := oauth.methods.Find(context.Background(), res.User.ID, model.AuthMethodGoogle, "sub-1001")
	if err != nil {
		t.Fatalf("Find google method: %v", err)
	}
	if !method.IsVerified {
		t.Fatal("provider-vouched method not marked verified")
	}
	if method.ProviderRefreshToken == nil || *method.ProviderRefreshToken != "g-refresh-1" {
		t.Fatal("provider refresh token not stored")
	}

	if len(events.registered) != 1 {
		t.Fatalf("%d registered events, want 1", len(events.registered))
	}
	if events.registered[0].Method != model.AuthMethodGoogle {
		t.Fatalf("event method = %q", events.registered[0].Method)
	}
}

func TestOAuthRepeatLoginReusesRecords(t *testing.T) {
	_, oauth, _, store, events := newTestAuth()

	first, err := oauth.Link(context.Background(), googleAssertion())
	if err != nil {
		t.Fatalf("first Link: %v", err)
	}

	again := googleAssertion()
	again.ProviderRefreshToken = "g-refresh-2"
	second, err := oauth.Link(context.Background(), again)
	if err != nil {
		t.Fatalf("second Link: %v", err)
	}

	if second.User.ID != first.User.ID {
		t.Fatal("second sign-in created a new user")
	}
	if len(store.users) != 1 || len(store.methods) != 1 {
		t.Fatalf("have %d users, %d methods after repeat login, want 1 and 1", len(store.users), len(store.methods))
	}

	method, err := oauth.methods.Find(context.Background(), first.User.ID, model.AuthMethodGoogle, "sub-1001")
	if err != nil {
		t.Fatalf("Find google method: %v", err)
	}
	if method.ProviderRefreshToken == nil || *method.ProviderRefreshToken != "g-refresh-2" {
		t.Fatal("provider refresh token not rotated on repeat login")
	}
	if method.LastUsedAt == nil {
		t.Fatal("lastUsedAt not stamped")
	}

	// Only the first sign-in is a registration.
	if len(events.registered) != 1 {
		t.Fatalf("%d registered events, want 1", len(events.registered))
	}
}

func TestOAuthLinksToExistingLocalAccount(t *testing.T) {
	auth, oauth, _, store, _ := newTestAuth()
	local := register(t, auth, "carolreed", "carol@example.com", "secret123")

	res, err := oauth.Link(context.Background(), googleAssertion())
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if res.User.ID != local.User.ID {
		t.Fatal("google sign-in did not attach to the existing account")
	}
	if len(store.users) != 1 {
		t.Fatalf("%d users after linking, want 1", len(store.users))
	}
	if len(store.methods) != 2 {
		t.Fatalf("%d methods after linking, want LOCAL and GOOGLE", len(store.methods))
	}
}

func TestOAuthUsernameCollisionConflicts(t *testing.T) {
	auth, oauth, _, _, _ := newTestAuth()
	register(t, auth, "carolreed", "other@example.com", "secret123")

	if _, err := oauth.Link(context.Background(), googleAssertion()); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestOAuthRejectsIncompleteAssertion(t *testing.T) {
	_, oauth, _, store, _ := newTestAuth()

	for name, mutate := range map[string]func(*OAuthAssertion){
		"no email":    func(a *OAuthAssertion) { a.Email = "" },
		"no subject":  func(a *OAuthAssertion) { a.SubjectID = "" },
		"no provider": func(a *OAuthAssertion) { a.Provider = "" },
	} {
		a := googleAssertion()
		mutate(&a)
		if _, err := oauth.Link(context.Background(), a); !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("%s: err = %v, want ErrAuthenticationFailed", name, err)
		}
	}
	if len(store.users) != 0 {
		t.Fatal("incomplete assertion created a user")
	}
}
