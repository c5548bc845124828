package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager("test-secret", "issuer", 30*time.Minute, 7*24*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}
	return mgr
}

func TestIssuePairAndVerifyAccess(t *testing.T) {
	mgr := newTestManager(t)

	pair, expiresAt, err := mgr.IssuePair(42, "alice")
	if err != nil {
		t.Fatalf("unexpected error issuing pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be populated")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future access expiry")
	}

	claims, err := mgr.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error verifying access token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Fatalf("expected username alice, got %s", claims.Username)
	}
}

func TestVerifyAccessExpired(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Nanosecond, 7*24*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	pair, _, err := mgr.IssuePair(7, "bob")
	if err != nil {
		t.Fatalf("unexpected error issuing pair: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := mgr.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyAccessTampered(t *testing.T) {
	mgr := newTestManager(t)
	other, err := NewManager("another-secret", "issuer", 30*time.Minute, 7*24*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	pair, _, err := other.IssuePair(7, "bob")
	if err != nil {
		t.Fatalf("unexpected error issuing pair: %v", err)
	}

	if _, err := mgr.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
	if _, err := mgr.VerifyAccess("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestVerifyRefreshRotation(t *testing.T) {
	mgr := newTestManager(t)
	now := time.Now().UTC()
	expiry := now.Add(7 * 24 * time.Hour)

	first, _, err := mgr.IssuePair(9, "carol")
	if err != nil {
		t.Fatalf("unexpected error issuing pair: %v", err)
	}

	stored := first.RefreshToken
	if _, err := mgr.VerifyRefresh(first.RefreshToken, &stored, &expiry, now); err != nil {
		t.Fatalf("expected stored refresh token to verify, got %v", err)
	}

	// Rotation stores a new value; the previously issued token must stop
	// validating even though its signature is still good.
	second, _, err := mgr.IssuePair(9, "carol")
	if err != nil {
		t.Fatalf("unexpected error issuing pair: %v", err)
	}
	stored = second.RefreshToken

	if _, err := mgr.VerifyRefresh(first.RefreshToken, &stored, &expiry, now); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken after rotation, got %v", err)
	}
	if _, err := mgr.VerifyRefresh(second.RefreshToken, &stored, &expiry, now); err != nil {
		t.Fatalf("expected rotated token to verify, got %v", err)
	}
}

func TestVerifyRefreshStoredState(t *testing.T) {
	mgr := newTestManager(t)
	now := time.Now().UTC()

	pair, _, err := mgr.IssuePair(3, "dave")
	if err != nil {
		t.Fatalf("unexpected error issuing pair: %v", err)
	}

	if _, err := mgr.VerifyRefresh(pair.RefreshToken, nil, nil, now); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken when nothing stored, got %v", err)
	}

	stored := pair.RefreshToken
	past := now.Add(-time.Minute)
	if _, err := mgr.VerifyRefresh(pair.RefreshToken, &stored, &past, now); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired for past stored expiry, got %v", err)
	}
}

func TestResetTokenLifecycle(t *testing.T) {
	mgr := newTestManager(t)

	token, err := mgr.IssueResetToken(11, "erin")
	if err != nil {
		t.Fatalf("unexpected error issuing reset token: %v", err)
	}

	claims, err := mgr.VerifyResetToken(token)
	if err != nil {
		t.Fatalf("unexpected error verifying reset token: %v", err)
	}
	if claims.UserID != 11 {
		t.Fatalf("expected user id 11, got %d", claims.UserID)
	}

	// Reset tokens must not double as access tokens and vice versa.
	if _, err := mgr.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected reset token to be rejected as access token, got %v", err)
	}
	pair, _, err := mgr.IssuePair(11, "erin")
	if err != nil {
		t.Fatalf("unexpected error issuing pair: %v", err)
	}
	if _, err := mgr.VerifyResetToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token to be rejected as reset token, got %v", err)
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("   ", "", time.Hour, time.Hour, time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
