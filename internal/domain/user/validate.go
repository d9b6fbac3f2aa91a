package user

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateEmail applies the same rule as the `email` binding tag and also
// requires a dotted domain.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}

	at := strings.LastIndexByte(email, '@')
	domain := strings.TrimSuffix(email[at+1:], ".")

	if !strings.Contains(domain, ".") {
		return ErrInvalidEmail
	}

	return nil
}
