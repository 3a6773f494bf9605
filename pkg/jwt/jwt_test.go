package jwt

import (
	"testing"

	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()
	branchID := uuid.New()
	privileges := []string{"sale:create", "sale:view"}

	token, err := GenerateToken(userID, "cashier@example.com", "Cashier A", "CASHIER", &branchID, privileges, "v1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.RoleCode != "CASHIER" {
		t.Fatalf("expected role CASHIER, got %s", claims.RoleCode)
	}
	if claims.BranchID == nil || *claims.BranchID != branchID {
		t.Fatalf("expected branch id %s, got %v", branchID, claims.BranchID)
	}
	if claims.TokenVersion != "v1" {
		t.Fatalf("expected token version v1, got %s", claims.TokenVersion)
	}
	if len(claims.Privileges) != 2 {
		t.Fatalf("expected 2 privileges, got %v", claims.Privileges)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestValidateTokenRejectsTamperedToken(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "a@b.c", "A", "ADMIN", nil, nil, "v1")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered); err == nil {
		t.Fatal("expected error for tampered signature")
	}
}
