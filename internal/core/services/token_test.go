package services

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", "beacon", time.Hour)

	token, err := svc.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	subject, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if subject != "user-42" {
		t.Fatalf("subject = %q, want user-42", subject)
	}
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	svc := NewTokenService("secret", "beacon", -time.Minute)

	token, err := svc.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateToken on expired token = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRejectsForeignIssuer(t *testing.T) {
	other := NewTokenService("secret", "someone-else", time.Hour)
	token, err := other.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	svc := NewTokenService("secret", "beacon", time.Hour)
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("ValidateToken with wrong issuer = %v, want ErrInvalidToken", err)
	}
}
