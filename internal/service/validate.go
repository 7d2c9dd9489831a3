package service

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	passwordMinLength = 8
	// bcrypt ignores input past 72 bytes.
	passwordMaxBytes = 72
)

// PasswordRule is one named requirement of the password policy.
type PasswordRule struct {
	Name    string
	Message string
	Check   func(string) bool
}

// PasswordPolicy is applied to every password set through registration,
// user creation or a password change.
var PasswordPolicy = []PasswordRule{
	{Name: "min_length", Message: "must be at least 8 characters", Check: HasMinLength},
	{Name: "max_length", Message: "must be at most 72 bytes", Check: WithinMaxBytes},
	{Name: "upper", Message: "must contain an uppercase letter", Check: HasUpper},
	{Name: "lower", Message: "must contain a lowercase letter", Check: HasLower},
	{Name: "digit_or_symbol", Message: "must contain a digit or a symbol", Check: HasDigitOrSymbol},
}

func HasMinLength(p string) bool {
	return len([]rune(p)) >= passwordMinLength
}

func WithinMaxBytes(p string) bool {
	return len(p) <= passwordMaxBytes
}

func HasUpper(p string) bool {
	return strings.IndexFunc(p, unicode.IsUpper) >= 0
}

func HasLower(p string) bool {
	return strings.IndexFunc(p, unicode.IsLower) >= 0
}

func HasDigitOrSymbol(p string) bool {
	return strings.IndexFunc(p, func(r rune) bool {
		return unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) >= 0
}

// CheckPassword returns the messages of every policy rule p fails.
func CheckPassword(p string) []string {
	var failed []string
	for _, rule := range PasswordPolicy {
		if !rule.Check(p) {
			failed = append(failed, rule.Message)
		}
	}
	return failed
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use json tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and collects failures into
// verr.
func validateStruct(s any, verr *ValidationError) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.add("body", "is invalid")
		return
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), formatValidationError(fe))
	}
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "e164":
		return "must be a phone number in international format"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}

func checkPassword(p string, verr *ValidationError) {
	for _, msg := range CheckPassword(p) {
		verr.add("password", msg)
	}
}
