package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trashdash/trashdash-go/internal/models"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 128
)

var (
	phoneRegex     = regexp.MustCompile(`^\+?1?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex     = regexp.MustCompile(`\d`)
	specialRegex   = regexp.MustCompile(`[@$!%*?&]`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Custom rules referenced by the models struct tags
	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return len(PasswordErrors(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("us_phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	return v
}

// IsValidPhone reports whether the value looks like a US phone number.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(strings.TrimSpace(phone))
}

// PasswordErrors returns every rule the password breaks, in display order.
// An empty slice means the password is acceptable.
func PasswordErrors(password string) []string {
	var errs []string

	if len(password) < passwordMinLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", passwordMinLength))
	}
	if len(password) > passwordMaxLength {
		errs = append(errs, fmt.Sprintf("Password must be less than %d characters", passwordMaxLength))
	}
	if !lowercaseRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !uppercaseRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !digitRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one number")
	}
	if !specialRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one special character (@$!%*?&)")
	}
	return errs
}

// FieldErrors maps field names to the message shown next to that field.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateLogin checks login credentials before they go over the wire.
// Returns nil or a FieldErrors.
func ValidateLogin(creds models.LoginCredentials) error {
	err := v.Struct(creds)
	if err == nil {
		return nil
	}

	fieldErrs := FieldErrors{}
	for _, fe := range err.(validator.ValidationErrors) {
		switch fe.Field() {
		case "Email":
			if fe.Tag() == "required" {
				fieldErrs["email"] = "This field is required"
			} else {
				fieldErrs["email"] = "Please enter a valid email address"
			}
		case "Password":
			fieldErrs["password"] = "This field is required"
		}
	}
	return fieldErrs
}

// ValidateRegistration checks a registration payload. Returns nil or a
// FieldErrors; the password field reports the first broken strength rule.
func ValidateRegistration(data models.RegisterData) error {
	err := v.Struct(data)
	if err == nil {
		if !data.Role.Valid() {
			return FieldErrors{"role": fmt.Sprintf("Unknown role %q", data.Role)}
		}
		return nil
	}

	fieldErrs := FieldErrors{}
	for _, fe := range err.(validator.ValidationErrors) {
		switch fe.Field() {
		case "Email":
			if fe.Tag() == "required" {
				fieldErrs["email"] = "This field is required"
			} else {
				fieldErrs["email"] = "Please enter a valid email address"
			}
		case "Password":
			if fe.Tag() == "required" {
				fieldErrs["password"] = "This field is required"
			} else if msgs := PasswordErrors(data.Password); len(msgs) > 0 {
				fieldErrs["password"] = msgs[0]
			}
		case "FirstName":
			fieldErrs["firstName"] = "This field is required"
		case "LastName":
			fieldErrs["lastName"] = "This field is required"
		case "Phone":
			if fe.Tag() == "required" {
				fieldErrs["phone"] = "This field is required"
			} else {
				fieldErrs["phone"] = "Please enter a valid phone number"
			}
		case "Role":
			fieldErrs["role"] = "This field is required"
		}
	}
	return fieldErrs
}
