package auth

import (
	"errors"
	"testing"
	"time"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret-key",
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "galaxy-chat-test",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := testManager()

	token, jti, err := manager.GenerateAccessToken(42, "user@example.com", "USER")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if jti == "" {
		t.Error("jti should not be empty")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "USER" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q, want access", claims.TokenType)
	}
	if claims.ID != jti {
		t.Errorf("claims ID = %q, want jti %q", claims.ID, jti)
	}
	if claims.Issuer != "galaxy-chat-test" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestRefreshTokenType(t *testing.T) {
	manager := testManager()

	token, _, err := manager.GenerateRefreshToken(7, "user@example.com", "USER")
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("TokenType = %q, want refresh", claims.TokenType)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	manager := testManager()
	other := NewJWTManager(JWTConfig{Secret: "different-secret", Expiry: time.Hour})

	token, _, err := manager.GenerateAccessToken(1, "user@example.com", "USER")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: got %v, want ErrInvalidToken", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	manager := NewJWTManager(JWTConfig{
		Secret: "test-secret-key",
		Expiry: -time.Minute, // already expired
	})

	token, _, err := manager.GenerateAccessToken(1, "user@example.com", "USER")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expired token: got %v, want ErrExpiredToken", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	manager := testManager()

	if _, err := manager.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: got %v, want ErrInvalidToken", err)
	}
}

func TestRefreshAccessToken(t *testing.T) {
	manager := testManager()

	refreshToken, _, err := manager.GenerateRefreshToken(9, "user@example.com", "ADMIN")
	if err != nil {
		t.Fatal(err)
	}

	accessToken, _, err := manager.RefreshAccessToken(refreshToken)
	if err != nil {
		t.Fatalf("RefreshAccessToken failed: %v", err)
	}

	claims, err := manager.ValidateToken(accessToken)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q, want access", claims.TokenType)
	}
	if claims.UserID != 9 || claims.Role != "ADMIN" {
		t.Errorf("claims not carried over: %+v", claims)
	}
}

func TestRefreshAccessTokenRejectsAccessToken(t *testing.T) {
	manager := testManager()

	accessToken, _, err := manager.GenerateAccessToken(1, "user@example.com", "USER")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := manager.RefreshAccessToken(accessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token used for refresh: got %v, want ErrInvalidToken", err)
	}
}

func TestGetTokenExpiry(t *testing.T) {
	manager := testManager()

	token, _, err := manager.GenerateAccessToken(1, "user@example.com", "USER")
	if err != nil {
		t.Fatal(err)
	}

	expiry, err := manager.GetTokenExpiry(token)
	if err != nil {
		t.Fatalf("GetTokenExpiry failed: %v", err)
	}

	until := time.Until(expiry)
	if until < 23*time.Hour || until > 25*time.Hour {
		t.Errorf("expiry %v not around 24h out", until)
	}
}
