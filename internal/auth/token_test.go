package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
	"github.com/equezada327/pro-tasker-backend/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       42,
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleUser,
	}
}

func TestIssueAndVerify_RoundTripsClaims(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("user id = %d, want 42", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q, want alice", claims.Username)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.Role != models.RoleUser {
		t.Errorf("role = %q, want user", claims.Role)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	svc := &TokenService{key: []byte("test-secret"), lifetime: -time.Minute}

	token, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = svc.Verify(token)
	if !errors.Is(err, apperr.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	token, err := NewTokenService("secret-one").Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = NewTokenService("secret-two").Verify(token)
	if !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	svc := NewTokenService("test-secret")
	token, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + ".eyJ1c2VyX2lkIjo5OTl9." + parts[2]

	if _, err := svc.Verify(tampered); !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	if _, err := NewTokenService("test-secret").Verify("not-a-token"); !errors.Is(err, apperr.ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}
