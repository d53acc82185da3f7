package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func mintToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestParseSessionToken(t *testing.T) {
	secret := "test-secret"
	token := mintToken(t, secret, jwt.MapClaims{
		"email": "a.b@example.com",
		"name":  "A B",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	session, err := ParseSessionToken(token, secret)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}
	if session.Email != "a.b@example.com" || session.Name != "A B" {
		t.Fatalf("session = %+v", session)
	}
	if session.Key() != "a-b-example-com" {
		t.Fatalf("session key = %q", session.Key())
	}
}

func TestParseSessionTokenRejectsBadInput(t *testing.T) {
	secret := "test-secret"

	if _, err := ParseSessionToken("not-a-token", secret); err == nil {
		t.Fatal("malformed token accepted")
	}

	wrongSecret := mintToken(t, "other-secret", jwt.MapClaims{"email": "a@b"})
	if _, err := ParseSessionToken(wrongSecret, secret); err == nil {
		t.Fatal("token with wrong secret accepted")
	}

	noEmail := mintToken(t, secret, jwt.MapClaims{"name": "A B"})
	if _, err := ParseSessionToken(noEmail, secret); err == nil {
		t.Fatal("token without email accepted")
	}
}
