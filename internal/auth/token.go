package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fileharbor/internal/entity"
)

const purposePasswordReset = "password-reset"

var (
	// ErrExpiredToken reports an access token whose TTL has elapsed.
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidToken reports a malformed or tampered access token.
	ErrInvalidToken = errors.New("token invalid")
	// ErrInvalidRefreshToken reports a refresh token that does not match the
	// stored rotation value (or no value is stored at all).
	ErrInvalidRefreshToken = errors.New("refresh token invalid")
	// ErrRefreshTokenExpired reports a refresh token past its stored expiry.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Claims represents JWT claims for authenticated requests.
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	Purpose  string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Manager encapsulates JWT generation and validation. Access tokens are
// stateless; refresh tokens are additionally checked against the user's
// stored rotation value so only the most recently issued one validates.
type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewManager creates a new JWT manager.
func NewManager(secret, issuer string, accessTTL, refreshTTL, resetTTL time.Duration) (*Manager, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	if strings.TrimSpace(issuer) == "" {
		issuer = "fileharbor"
	}
	return &Manager{
		secret:     []byte(trimmed),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

// IssuePair signs a fresh access/refresh token pair for the user. The caller
// is responsible for persisting the refresh token onto the user record as
// part of the same logical operation.
func (m *Manager) IssuePair(userID uint, username string) (entity.TokenPair, time.Time, error) {
	if m == nil {
		return entity.TokenPair{}, time.Time{}, errors.New("jwt manager is nil")
	}
	if userID == 0 {
		return entity.TokenPair{}, time.Time{}, errors.New("invalid user for token generation")
	}

	now := time.Now().UTC()
	accessExpiry := now.Add(m.accessTTL)

	access, err := m.sign(userID, username, "", now, accessExpiry)
	if err != nil {
		return entity.TokenPair{}, time.Time{}, err
	}
	refresh, err := m.sign(userID, username, "", now, now.Add(m.refreshTTL))
	if err != nil {
		return entity.TokenPair{}, time.Time{}, err
	}

	return entity.TokenPair{AccessToken: access, RefreshToken: refresh}, accessExpiry, nil
}

// VerifyAccess validates an access token by signature and expiry only.
func (m *Manager) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if claims.Purpose != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh validates a presented refresh token against the rotation
// state stored on the user record. The stored expiry governs server-side
// validity independently of the signed TTL.
func (m *Manager) VerifyRefresh(tokenString string, storedToken *string, storedExpiry *time.Time, now time.Time) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}
	if storedToken == nil || storedExpiry == nil {
		return nil, ErrInvalidRefreshToken
	}
	if *storedToken != tokenString {
		return nil, ErrInvalidRefreshToken
	}
	if now.After(*storedExpiry) {
		return nil, ErrRefreshTokenExpired
	}
	return claims, nil
}

// ParseRefresh validates a refresh token's signature and expiry and returns
// its claims without consulting stored rotation state. Callers use it to
// locate the user record before calling VerifyRefresh.
func (m *Manager) ParseRefresh(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}
	if claims.Purpose != "" {
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

// IssueResetToken signs a short-lived single-purpose password reset token.
func (m *Manager) IssueResetToken(userID uint, username string) (string, error) {
	now := time.Now().UTC()
	return m.sign(userID, username, purposePasswordReset, now, now.Add(m.resetTTL))
}

// VerifyResetToken validates a password reset token and returns its claims.
func (m *Manager) VerifyResetToken(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purposePasswordReset {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) sign(userID uint, username, purpose string, now, expiry time.Time) (string, error) {
	claims := Claims{
		UserID:   userID,
		Username: username,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("jwt manager is nil")
	}
	trimmed := strings.TrimSpace(tokenString)
	if trimmed == "" {
		return nil, errors.New("token is empty")
	}

	parsed, err := jwt.ParseWithClaims(trimmed, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
