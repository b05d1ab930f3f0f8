// Package session issues HS256 access tokens and rotating refresh tokens.
// A refresh token is only usable while its jti is present in the Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrWrongTokenType  = errors.New("wrong token type")
	ErrSessionNotFound = errors.New("session not found or already used")
)

// Claims are the JWT payload
type Claims struct {
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId,omitempty"`
	OrgID      string `json:"orgId,omitempty"`
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Role       string `json:"role,omitempty"`
	TokenType  string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity is what a signed-in user is known as in tokens
type Identity struct {
	UserID     uuid.UUID
	EmployeeID uuid.UUID
	OrgID      uuid.UUID
	Name       string
	Phone      string
	Role       string
}

func (c *Claims) Identity() (Identity, error) {
	id := Identity{Name: c.Name, Phone: c.Phone, Role: c.Role}
	var err error
	if id.UserID, err = uuid.Parse(c.UserID); err != nil {
		return Identity{}, ErrInvalidToken
	}
	if c.EmployeeID != "" {
		if id.EmployeeID, err = uuid.Parse(c.EmployeeID); err != nil {
			return Identity{}, ErrInvalidToken
		}
	}
	if c.OrgID != "" {
		if id.OrgID, err = uuid.Parse(c.OrgID); err != nil {
			return Identity{}, ErrInvalidToken
		}
	}
	return id, nil
}

type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

// Store persists live refresh-token ids
type Store interface {
	Save(ctx context.Context, jti string, userID string, ttl time.Duration) error
	// Take returns the user id for jti and removes it in one step
	Take(ctx context.Context, jti string) (string, error)
	Delete(ctx context.Context, jti string) error
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      Store
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration, store Store) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        time.Now,
	}
}

// Issue signs a new access/refresh pair and records the refresh jti
func (m *Manager) Issue(ctx context.Context, id Identity) (TokenPair, error) {
	now := m.now()

	access, err := m.sign(m.claims(id, TypeAccess, uuid.NewString(), now, m.accessTTL))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	jti := uuid.NewString()
	refresh, err := m.sign(m.claims(id, TypeRefresh, jti, now, m.refreshTTL))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := m.store.Save(ctx, jti, id.UserID.String(), m.refreshTTL); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int(m.accessTTL.Seconds()),
		RefreshExpiresIn: int(m.refreshTTL.Seconds()),
	}, nil
}

func (m *Manager) claims(id Identity, typ, jti string, now time.Time, ttl time.Duration) Claims {
	c := Claims{
		UserID:    id.UserID.String(),
		Name:      id.Name,
		Phone:     id.Phone,
		Role:      id.Role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if id.EmployeeID != uuid.Nil {
		c.EmployeeID = id.EmployeeID.String()
	}
	if id.OrgID != uuid.Nil {
		c.OrgID = id.OrgID.String()
	}
	return c
}

func (m *Manager) sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

func (m *Manager) parse(tokenStr, typ string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != typ {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// ParseAccess validates an access token
func (m *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, TypeAccess)
}

// Loader re-reads a user's identity so a refreshed token picks up role or
// employee changes made since login.
type Loader func(ctx context.Context, userID uuid.UUID) (Identity, error)

// Refresh consumes a refresh token and issues a new pair. Each refresh
// token works once.
func (m *Manager) Refresh(ctx context.Context, refreshToken string, load Loader) (TokenPair, error) {
	claims, err := m.parse(refreshToken, TypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	userID, err := m.store.Take(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if userID != claims.UserID {
		return TokenPair{}, ErrInvalidToken
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}
	id, err := load(ctx, uid)
	if err != nil {
		return TokenPair{}, err
	}
	return m.Issue(ctx, id)
}

// Revoke deletes the session behind a refresh token. Revoking an unknown
// or already used token is not an error.
func (m *Manager) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := m.parse(refreshToken, TypeRefresh)
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, claims.ID)
}
