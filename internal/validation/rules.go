package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field rules are kept as data so the policy can be tested without any
// transport in the picture.
var (
	// NameCharset allows letters, spaces, hyphens and apostrophes.
	NameCharset = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	// PasswordSymbols is the accepted punctuation set for passwords.
	PasswordSymbols = "@$!%*#?&"

	passwordLower = regexp.MustCompile(`[a-z]`)
	passwordUpper = regexp.MustCompile(`[A-Z]`)
	passwordDigit = regexp.MustCompile(`[0-9]`)
	passwordAllow = regexp.MustCompile(`^[A-Za-z0-9@$!%*#?&]+$`)
)

// ValidName reports whether s is an acceptable display name, charset only;
// length is enforced by the min/max tags on the request type.
func ValidName(s string) bool {
	return NameCharset.MatchString(s)
}

// StrongPassword reports whether s satisfies the password policy: at least
// one lowercase letter, one uppercase letter, one digit and one symbol from
// PasswordSymbols, with no characters outside the allowed set.
func StrongPassword(s string) bool {
	if !passwordAllow.MatchString(s) {
		return false
	}
	return passwordLower.MatchString(s) &&
		passwordUpper.MatchString(s) &&
		passwordDigit.MatchString(s) &&
		strings.ContainsAny(s, PasswordSymbols)
}

// Register installs the custom rules on a validator instance under the tags
// "personname" and "strongpassword".
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return ValidName(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
}
