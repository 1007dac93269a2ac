package auth

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("64f0c2a9e4b0a1b2c3d4e5f6", "customer")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "64f0c2a9e4b0a1b2c3d4e5f6" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Role != "customer" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Error("expected issued-at and expiry claims")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	token, err := GenerateToken("u1", "customer")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(token + "x"); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plain text")
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
