package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/config"
	"github.com/angelmondragon/hatchery-backend/pkg/enums"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "hatchery-idp",
	ExpirationMinutes: 30,
}

func TestMintAndParseAccessToken(t *testing.T) {
	userID := uuid.New()
	token, err := MintAccessToken(testJWT, time.Now(), Identity{UserID: userID, Role: enums.RoleAdmin})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	identity, err := ParseAccessToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if identity.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, identity.UserID)
	}
	if !identity.IsAdmin() {
		t.Fatalf("expected admin role, got %s", identity.Role)
	}
}

func TestParseAccessTokenAcceptsUpperCaseRole(t *testing.T) {
	userID := uuid.New()
	token := signClaims(t, AccessTokenClaims{
		Role: "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    testJWT.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})

	identity, err := ParseAccessToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if identity.Role != enums.RoleAdmin {
		t.Fatalf("expected admin, got %s", identity.Role)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	valid := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    testJWT.Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"
	badSubject := valid
	badSubject.Subject = "not-a-uuid"
	noExpiry := valid
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"expired":      signClaims(t, AccessTokenClaims{Role: "user", RegisteredClaims: expired}),
		"wrong issuer": signClaims(t, AccessTokenClaims{Role: "user", RegisteredClaims: wrongIssuer}),
		"bad subject":  signClaims(t, AccessTokenClaims{Role: "user", RegisteredClaims: badSubject}),
		"no expiry":    signClaims(t, AccessTokenClaims{Role: "user", RegisteredClaims: noExpiry}),
		"unknown role": signClaims(t, AccessTokenClaims{Role: "guest", RegisteredClaims: valid}),
		"garbage":      "not.a.token",
	}
	for name, token := range cases {
		if _, err := ParseAccessToken(testJWT, token); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	other := testJWT
	other.Secret = "other"
	token := signClaims(t, AccessTokenClaims{Role: "user", RegisteredClaims: valid})
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	if _, err := MintAccessToken(config.JWTConfig{}, time.Now(), Identity{UserID: uuid.New(), Role: enums.RoleUser}); err == nil {
		t.Fatal("expected missing secret error")
	}
	if _, err := MintAccessToken(testJWT, time.Now(), Identity{UserID: uuid.New(), Role: "guest"}); err == nil {
		t.Fatal("expected invalid role error")
	}
}

func signClaims(t *testing.T, claims AccessTokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestVerifierLeewayAndIssuedAt(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    testJWT.Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-10 * time.Second)),
	}
	token := signClaims(t, AccessTokenClaims{Role: "user", RegisteredClaims: claims})

	if _, err := NewVerifier(testJWT).Verify(token); err == nil {
		t.Fatal("expected expired token without leeway to fail")
	}
	lenient := testJWT
	lenient.Leeway = time.Minute
	if _, err := NewVerifier(lenient).Verify(token); err != nil {
		t.Fatalf("expected leeway to absorb skew: %v", err)
	}

	future := claims
	future.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	future.IssuedAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	if _, err := NewVerifier(testJWT).Verify(signClaims(t, AccessTokenClaims{Role: "user", RegisteredClaims: future})); err == nil {
		t.Fatal("expected token issued in the future to fail")
	}
}
