package auth

import "github.com/farmops/identity-service/internal/domain"

// ValidatePhone enforces the phone format accepted at every entry point:
// decimal digits only, 10 to 15 of them.
func ValidatePhone(phone string) error {
	if len(phone) < 10 || len(phone) > 15 {
		return domain.ValidationError("phone must be 10 to 15 digits")
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return domain.ValidationError("phone must contain only digits")
		}
	}
	return nil
}
