package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/farmops/identity-service/internal/domain"
)

// PINLength is the exact number of decimal digits a PIN must have.
const PINLength = 6

// ValidatePIN enforces the PIN format contract: exactly six ASCII digits.
// Every entry point must call this before hashing or comparing.
func ValidatePIN(pin string) error {
	if len(pin) != PINLength {
		return domain.ValidationError("pin must be exactly 6 digits")
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return domain.ValidationError("pin must contain only digits")
		}
	}
	return nil
}

// HashPIN hashes a plaintext PIN with configured bcrypt cost. bcrypt generates
// a fresh random salt per call, so two hashes of the same PIN differ.
func HashPIN(pin string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePIN verifies a PIN against its hashed value.
func ComparePIN(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
