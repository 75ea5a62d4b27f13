package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestManager(store SessionStore, now *time.Time) *Manager {
	m := NewManager(Options{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, store)
	if now != nil {
		m.WithClock(func() time.Time { return *now })
	}
	return m
}

func TestManagerIssueAndRefresh(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := newTestManager(store, nil)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	subject, err := manager.Authenticate(tokens.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("expected subject user-1 got %q", subject)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected rotated token to be rejected, got %v", err)
	}
	if _, err := manager.Refresh(context.Background(), refreshed.RefreshToken); err != nil {
		t.Fatalf("expected latest token to refresh, got %v", err)
	}
}

func TestManagerIssueOverwritesPreviousSession(t *testing.T) {
	manager := newTestManager(NewInMemorySessionStore(), nil)

	first, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Issue(context.Background(), "user-1"); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected superseded token to be rejected, got %v", err)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager := newTestManager(NewInMemorySessionStore(), nil)
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemorySessionStore()
	manager := newTestManager(store, &now)

	if _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found got %v", err)
	}
	if _, err := manager.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token to be rejected for refresh, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected refresh expired got %v", err)
	}
	if _, err := manager.Authenticate(tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired access token to be rejected, got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if store.Has("user-1") {
		t.Fatal("expected refresh credential to be cleared")
	}
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	issuer := NewManager(Options{AccessSecret: "other", RefreshSecret: "other-refresh", AccessTTL: time.Minute, RefreshTTL: time.Hour}, NewInMemorySessionStore())
	tokens, err := issuer.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager := newTestManager(NewInMemorySessionStore(), nil)
	if _, err := manager.Authenticate(tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token got %v", err)
	}
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	if got := ActorFromContext(ctx); got != "" {
		t.Fatalf("expected anonymous actor got %q", got)
	}
	ctx = WithActor(ctx, "user-1")
	if got := ActorFromContext(ctx); got != "user-1" {
		t.Fatalf("expected user-1 got %q", got)
	}
}

func TestDigestIsStable(t *testing.T) {
	if Digest("abc") != Digest("abc") || Digest("abc") == Digest("abd") {
		t.Fatal("digest must be deterministic and distinguishing")
	}
	if len(Digest("abc")) != 64 {
		t.Fatalf("expected hex sha256 digest, got %q", Digest("abc"))
	}
}
