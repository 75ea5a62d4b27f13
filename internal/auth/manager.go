package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the presented refresh token is not the one currently stored for the user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrInvalidToken indicates a token failed signature, type or claim validation.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// SessionStore persists the single active refresh credential of each user.
// Only digests of tokens are handed to the store.
type SessionStore interface {
	SaveRefreshToken(ctx context.Context, userID, digest string) error
	// RotateRefreshToken replaces current with next only if current is the
	// stored digest, returning ErrSessionNotFound otherwise.
	RotateRefreshToken(ctx context.Context, userID, current, next string) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

// Options configures token signing.
type Options struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Manager issues signed access/refresh token pairs and rotates refresh tokens.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store SessionStore
	now   func() time.Time
}

type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// NewManager constructs a Manager backed by store.
func NewManager(opts Options, store SessionStore) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{
		accessSecret:  []byte(opts.AccessSecret),
		refreshSecret: []byte(opts.RefreshSecret),
		accessTTL:     opts.AccessTTL,
		refreshTTL:    opts.RefreshTTL,
		store:         store,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue signs a new token pair for userID and makes its refresh token the
// user's only valid one.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	tokens, err := m.mint(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}
	if err := m.store.SaveRefreshToken(ctx, userID, Digest(tokens.RefreshToken)); err != nil {
		return models.SessionTokens{}, fmt.Errorf("save refresh token: %w", err)
	}
	return tokens, nil
}

// Refresh exchanges a refresh token for a new pair. Presenting a token that
// was already rotated or revoked fails with ErrSessionNotFound.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	claims, err := m.parse(refreshToken, m.refreshSecret, tokenTypeRefresh)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.SessionTokens{}, ErrRefreshTokenExpired
		}
		return models.SessionTokens{}, ErrInvalidToken
	}

	tokens, err := m.mint(claims.Subject)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.RotateRefreshToken(ctx, claims.Subject, Digest(refreshToken), Digest(tokens.RefreshToken)); err != nil {
		return models.SessionTokens{}, err
	}
	return tokens, nil
}

// Revoke clears the user's refresh credential.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.ClearRefreshToken(ctx, userID)
}

// Authenticate validates an access token and returns its subject.
func (m *Manager) Authenticate(accessToken string) (string, error) {
	claims, err := m.parse(accessToken, m.accessSecret, tokenTypeAccess)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}

func (m *Manager) mint(userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	now := m.now()
	tokens := models.SessionTokens{
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshExpiresAt: now.Add(m.refreshTTL),
	}

	var err error
	tokens.AccessToken, err = m.sign(userID, tokenTypeAccess, now, tokens.AccessExpiresAt, m.accessSecret)
	if err != nil {
		return models.SessionTokens{}, err
	}
	tokens.RefreshToken, err = m.sign(userID, tokenTypeRefresh, now, tokens.RefreshExpiresAt, m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, err
	}
	return tokens, nil
}

func (m *Manager) sign(userID, typ string, issuedAt, expiresAt time.Time, secret []byte) (string, error) {
	jti, err := randomToken()
	if err != nil {
		return "", err
	}
	claims := tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (m *Manager) parse(token string, secret []byte, typ string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Digest is the stored form of a refresh token.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	const size = 16
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
