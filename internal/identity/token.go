// Copyright 2026 The Timesheet Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// MinSecretLength is the shortest accepted HMAC secret in bytes.
const MinSecretLength = 32

// ErrWeakSecret is returned by NewTokenManager for short secrets.
var ErrWeakSecret = errors.New("token secret must be at least 32 bytes")

// Claims is the JWT body issued on login.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
}

// TokenConfig configures token issuance.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenPair is what login, registration and refresh hand back.
type TokenPair struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenManager issues and verifies HS256 tokens. It implements
// requestctx.Authenticator for bearer credentials.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	parser     *jwt.Parser
	now        func() time.Time
}

// NewTokenManager creates a new token manager
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	m := &TokenManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	m.parser = jwt.NewParser(opts...)
	return m, nil
}

// Issue signs an access and a refresh token for id.
func (m *TokenManager) Issue(id requestctx.Identity) (TokenPair, error) {
	now := m.now()
	access, err := m.sign(id, TokenAccess, now, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(id, TokenRefresh, now, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    now.Add(m.accessTTL).UTC(),
	}, nil
}

func (m *TokenManager) sign(id requestctx.Identity, typ string, now time.Time, ttl time.Duration) (string, error) {
	jti, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   id.UserID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID: id.TenantID.String(),
		Role:     string(id.Role),
		Type:     typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies an access token. A "Bearer " prefix is accepted.
func (m *TokenManager) Authenticate(_ context.Context, credential string) (requestctx.Identity, error) {
	return m.verify(credential, TokenAccess)
}

// VerifyRefresh verifies a refresh token.
func (m *TokenManager) VerifyRefresh(token string) (requestctx.Identity, error) {
	return m.verify(token, TokenRefresh)
}

func (m *TokenManager) verify(raw, typ string) (requestctx.Identity, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return requestctx.Identity{}, fmt.Errorf("%w: missing credential", requestctx.ErrAuthenticationFailed)
	}

	var claims Claims
	if _, err := m.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return requestctx.Identity{}, fmt.Errorf("%w: %v", requestctx.ErrAuthenticationFailed, err)
	}
	if claims.Type != typ {
		return requestctx.Identity{}, fmt.Errorf("%w: expected %s token", requestctx.ErrAuthenticationFailed, typ)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return requestctx.Identity{}, fmt.Errorf("%w: subject: %v", requestctx.ErrAuthenticationFailed, err)
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return requestctx.Identity{}, fmt.Errorf("%w: tenant: %v", requestctx.ErrAuthenticationFailed, err)
	}
	role, err := authz.ParseRole(claims.Role)
	if err != nil {
		return requestctx.Identity{}, fmt.Errorf("%w: %v", requestctx.ErrAuthenticationFailed, err)
	}
	return requestctx.Identity{UserID: userID, TenantID: tenantID, Role: role}, nil
}
