// Package auth verifies the HS256 bearer tokens issued by the identity
// provider and resolves them into a caller Identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/config"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
)

var (
	signingMethod = jwt.SigningMethodHS256

	errNoSecret = errors.New("jwt secret is required")
)

// Identity is the caller resolved from a verified bearer token.
type Identity struct {
	UserID uuid.UUID
	Role   enums.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == enums.RoleAdmin
}

// AccessTokenClaims is the provider's token body: sub holds the user id and
// role is matched case-insensitively.
type AccessTokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *AccessTokenClaims) identity() (Identity, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil || userID == uuid.Nil {
		return Identity{}, fmt.Errorf("invalid subject %q", c.Subject)
	}
	role, err := enums.ParseRole(c.Role)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID, Role: role}, nil
}

// Verifier checks signature, algorithm, expiry and issuer. Build it once per
// process; it is safe for concurrent use.
type Verifier struct {
	key    []byte
	parser *jwt.Parser
}

func NewVerifier(cfg config.JWTConfig) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	return &Verifier{key: []byte(cfg.Secret), parser: jwt.NewParser(opts...)}
}

func (v *Verifier) Verify(token string) (Identity, error) {
	if len(v.key) == 0 {
		return Identity{}, errNoSecret
	}
	claims := &AccessTokenClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}); err != nil {
		return Identity{}, err
	}
	return claims.identity()
}

// ParseAccessToken is a one-shot Verify.
func ParseAccessToken(cfg config.JWTConfig, token string) (Identity, error) {
	return NewVerifier(cfg).Verify(token)
}

// MintAccessToken signs a token the way the identity provider does. Used by
// tests and local tooling only.
func MintAccessToken(cfg config.JWTConfig, now time.Time, identity Identity) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errNoSecret
	case cfg.ExpirationMinutes <= 0:
		return "", errors.New("jwt expiration minutes must be positive")
	case !identity.Role.IsValid():
		return "", fmt.Errorf("invalid role %q", identity.Role)
	}

	claims := AccessTokenClaims{
		Role: identity.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.UserID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}
