// Package auth signs users in through Firebase Authentication and translates
// provider error codes into form-level notices.
package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Code is the closed set of sign-in failures the front end knows how to show.
type Code string

const (
	CodeInvalidEmail        Code = "invalid-email"
	CodeUserNotFound        Code = "user-not-found"
	CodeWrongPassword       Code = "wrong-password"
	CodeInvalidCredential   Code = "invalid-credential"
	CodeEmailInUse          Code = "email-already-in-use"
	CodeWeakPassword        Code = "weak-password"
	CodeUserDisabled        Code = "user-disabled"
	CodeTooManyRequests     Code = "too-many-requests"
	CodeOperationNotAllowed Code = "operation-not-allowed"
	CodePopupClosed         Code = "popup-closed-by-user"
	CodePopupCancelled      Code = "cancelled-popup-request"
	CodePopupBlocked        Code = "popup-blocked"
	CodeAccountExists       Code = "account-exists-with-different-credential"
	CodeNetwork             Code = "network-request-failed"
	CodeUnknown             Code = "unknown"
)

// Form fields a notice can attach to. An empty field means a page banner.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Notice is what the user is shown for a failed sign-in.
type Notice struct {
	Code        Code   `json:"code"`
	Field       string `json:"field,omitempty"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

type entry struct {
	notice Notice
	status int
}

var notices = map[Code]entry{
	CodeInvalidEmail:        {Notice{Field: FieldEmail, Message: "Please enter a valid email address"}, http.StatusBadRequest},
	CodeUserNotFound:        {Notice{Field: FieldEmail, Message: "No account found with this email"}, http.StatusUnauthorized},
	CodeWrongPassword:       {Notice{Field: FieldPassword, Message: "Incorrect password. Please try again"}, http.StatusUnauthorized},
	CodeInvalidCredential:   {Notice{Field: FieldPassword, Message: "Incorrect email or password"}, http.StatusUnauthorized},
	CodeEmailInUse:          {Notice{Field: FieldEmail, Message: "An account with this email already exists"}, http.StatusConflict},
	CodeWeakPassword:        {Notice{Field: FieldPassword, Message: "Password is too weak"}, http.StatusBadRequest},
	CodeUserDisabled:        {Notice{Message: "This account has been disabled. Please contact support"}, http.StatusForbidden},
	CodeTooManyRequests:     {Notice{Message: "Too many attempts. Please try again later", Dismissible: true}, http.StatusTooManyRequests},
	CodeOperationNotAllowed: {Notice{Message: "This sign-in method is not enabled"}, http.StatusForbidden},
	CodePopupClosed:         {Notice{Message: "Sign-in was cancelled", Dismissible: true}, http.StatusBadRequest},
	CodePopupCancelled:      {Notice{Message: "Sign-in was cancelled", Dismissible: true}, http.StatusBadRequest},
	CodePopupBlocked:        {Notice{Message: "The sign-in pop-up was blocked. Please allow pop-ups and try again", Dismissible: true}, http.StatusBadRequest},
	CodeAccountExists:       {Notice{Field: FieldEmail, Message: "An account already exists with this email using a different sign-in method"}, http.StatusConflict},
	CodeNetwork:             {Notice{Message: "Network error. Please check your connection and try again", Dismissible: true}, http.StatusBadGateway},
	CodeUnknown:             {Notice{Message: "Something went wrong. Please try again", Dismissible: true}, http.StatusBadGateway},
}

// restCodes maps Identity Toolkit REST error messages onto Code.
var restCodes = map[string]Code{
	"INVALID_EMAIL":                    CodeInvalidEmail,
	"MISSING_EMAIL":                    CodeInvalidEmail,
	"EMAIL_NOT_FOUND":                  CodeUserNotFound,
	"INVALID_PASSWORD":                 CodeWrongPassword,
	"MISSING_PASSWORD":                 CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":        CodeInvalidCredential,
	"INVALID_IDP_RESPONSE":             CodeInvalidCredential,
	"EMAIL_EXISTS":                     CodeEmailInUse,
	"WEAK_PASSWORD":                    CodeWeakPassword,
	"USER_DISABLED":                    CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER":      CodeTooManyRequests,
	"OPERATION_NOT_ALLOWED":            CodeOperationNotAllowed,
	"PASSWORD_LOGIN_DISABLED":          CodeOperationNotAllowed,
	"FEDERATED_USER_ID_ALREADY_LINKED": CodeAccountExists,
}

// ParseCode normalizes a provider code. It accepts client SDK codes
// ("auth/wrong-password"), bare codes ("wrong-password") and REST messages
// ("EMAIL_NOT_FOUND" or "WEAK_PASSWORD : Password should be ...").
func ParseCode(raw string) Code {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, " : "); i >= 0 {
		raw = raw[:i]
	}
	if code, ok := restCodes[raw]; ok {
		return code
	}

	code := Code(strings.ToLower(strings.TrimPrefix(raw, "auth/")))
	switch code {
	case "invalid-login-credentials":
		return CodeInvalidCredential
	case "missing-password":
		return CodeWrongPassword
	}
	if _, ok := notices[code]; ok {
		return code
	}
	return CodeUnknown
}

// Translate maps a provider code to the notice shown to the user.
func Translate(raw string) Notice {
	return NoticeFor(ParseCode(raw))
}

// NoticeFor returns the notice for code. Unknown codes yield the generic banner.
func NoticeFor(code Code) Notice {
	e, ok := notices[code]
	if !ok {
		code = CodeUnknown
		e = notices[CodeUnknown]
	}
	n := e.notice
	n.Code = code
	return n
}

// StatusFor returns the HTTP status used when code is returned by the API.
func StatusFor(code Code) int {
	if e, ok := notices[code]; ok {
		return e.status
	}
	return http.StatusBadGateway
}

// Error is a failed call to the identity provider.
type Error struct {
	Code     Code
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s (%s): %v", e.Code, e.Provider, e.Err)
	}
	return fmt.Sprintf("auth: %s (%s)", e.Code, e.Provider)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Notice returns the user-facing notice for the error.
func (e *Error) Notice() Notice {
	return NoticeFor(e.Code)
}
