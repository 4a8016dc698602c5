package auth

import (
	"testing"
	"time"

	"github.com/farmops/identity-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	role := domain.RoleManager

	token, expiresAt, err := tm.GenerateToken("staff-1", domain.SubjectTypeStaff, &role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token already expired at issue time")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SubjectID != "staff-1" {
		t.Fatalf("SubjectID = %q, want staff-1", claims.SubjectID)
	}
	if claims.Subject != domain.SubjectTypeStaff {
		t.Fatalf("Subject = %q, want %q", claims.Subject, domain.SubjectTypeStaff)
	}
	if claims.Role == nil || *claims.Role != domain.RoleManager {
		t.Fatalf("Role = %v, want manager", claims.Role)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 60)
	verifier := NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken("customer-1", domain.SubjectTypeCustomer, nil)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("token signed with a different secret parsed successfully")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	if _, err := tm.ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token parsed successfully")
	}
}
