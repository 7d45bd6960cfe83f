// Package validation holds the login and registration form rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Minimum password lengths per form.
const (
	LoginPasswordMin    = 6
	RegisterPasswordMin = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("formemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("validation: register formemail: %v", err))
	}
	return v
}

// LoginRequest is a login form submission.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,formemail"`
	Password   string `json:"password" validate:"required,min=6"`
	RememberMe bool   `json:"rememberMe"`
}

// RegisterRequest is a registration form submission.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,formemail"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// confirmation pairs a password with its confirmation for single-field checks.
type confirmation struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// Result is the outcome of validating one field.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// CheckLogin trims the email and validates req. It returns the message of
// every failing field, or nil when the submission is valid.
func CheckLogin(req *LoginRequest) map[Field]string {
	req.Email = strings.TrimSpace(req.Email)
	return fieldMessages(validate.Struct(req))
}

// CheckRegister trims the email and validates req.
func CheckRegister(req *RegisterRequest) map[Field]string {
	req.Email = strings.TrimSpace(req.Email)
	return fieldMessages(validate.Struct(req))
}

// ValidateEmail trims value and checks it against a loose address pattern.
func ValidateEmail(value string) Result {
	return resultFor(FieldEmail, validate.Var(strings.TrimSpace(value), "required,formemail"))
}

// ValidatePassword requires at least minLen characters, counted as runes.
// The value is not trimmed.
func ValidatePassword(value string, minLen int) Result {
	return resultFor(FieldPassword, validate.Var(value, fmt.Sprintf("required,min=%d", minLen)))
}

// ValidateConfirmPassword requires confirm to equal password exactly.
func ValidateConfirmPassword(confirm, password string) Result {
	err := validate.Struct(confirmation{Password: password, ConfirmPassword: confirm})
	return resultFor(FieldConfirmPassword, err)
}

func resultFor(field Field, err error) Result {
	if err == nil {
		return Result{Valid: true}
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return Result{Message: message(field, fieldErrs[0])}
	}
	return Result{Message: err.Error()}
}

func fieldMessages(err error) map[Field]string {
	if err == nil {
		return nil
	}
	out := make(map[Field]string)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out[""] = err.Error()
		return out
	}
	for _, fe := range fieldErrs {
		field := Field(fe.Field())
		if _, seen := out[field]; !seen {
			out[field] = message(field, fe)
		}
	}
	return out
}

func message(field Field, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		switch field {
		case FieldEmail:
			return "Email is required"
		case FieldPassword:
			return "Password is required"
		case FieldConfirmPassword:
			return "Please confirm your password"
		}
		return fmt.Sprintf("%s is required", field)
	case "formemail":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("Password must be at least %s characters", fe.Param())
	case "eqfield":
		return "Passwords do not match"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
