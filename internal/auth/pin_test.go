package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmops/identity-service/internal/domain"
)

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		wantErr bool
	}{
		{name: "valid", pin: "123456", wantErr: false},
		{name: "valid all zeros", pin: "000000", wantErr: false},
		{name: "too short", pin: "12345", wantErr: true},
		{name: "too long", pin: "1234567", wantErr: true},
		{name: "empty", pin: "", wantErr: true},
		{name: "letters", pin: "12a456", wantErr: true},
		{name: "whitespace", pin: "12345 ", wantErr: true},
		{name: "unicode digits", pin: "１２３４５６", wantErr: true},
		{name: "negative sign", pin: "-12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePIN(tt.pin)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("ValidatePIN(%q) = %v, want validation error", tt.pin, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePIN(%q) = %v, want nil", tt.pin, err)
			}
		})
	}
}

func TestHashAndComparePIN(t *testing.T) {
	hash, err := HashPIN("482916", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPIN: %v", err)
	}
	if hash == "482916" {
		t.Fatal("hash must not equal the plaintext pin")
	}

	if err := ComparePIN(hash, "482916"); err != nil {
		t.Fatalf("ComparePIN with correct pin: %v", err)
	}
	if err := ComparePIN(hash, "482917"); err == nil {
		t.Fatal("ComparePIN with wrong pin succeeded")
	}
}

func TestHashPINSaltsEachHash(t *testing.T) {
	first, err := HashPIN("123456", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPIN: %v", err)
	}
	second, err := HashPIN("123456", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPIN: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same pin must differ")
	}
	if err := ComparePIN(first, "123456"); err != nil {
		t.Fatalf("first hash does not verify: %v", err)
	}
	if err := ComparePIN(second, "123456"); err != nil {
		t.Fatalf("second hash does not verify: %v", err)
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{name: "ten digits", phone: "9876543210", wantErr: false},
		{name: "fifteen digits", phone: "123456789012345", wantErr: false},
		{name: "nine digits", phone: "987654321", wantErr: true},
		{name: "sixteen digits", phone: "1234567890123456", wantErr: true},
		{name: "plus prefix", phone: "+9876543210", wantErr: true},
		{name: "dashes", phone: "98765-43210", wantErr: true},
		{name: "empty", phone: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.wantErr != (err != nil) {
				t.Fatalf("ValidatePhone(%q) = %v, wantErr %v", tt.phone, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("ValidatePhone(%q) = %v, want validation error", tt.phone, err)
			}
		})
	}
}
