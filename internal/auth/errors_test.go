package auth

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		raw         string
		code        Code
		field       string
		dismissible bool
	}{
		{"auth/wrong-password", CodeWrongPassword, FieldPassword, false},
		{"INVALID_PASSWORD", CodeWrongPassword, FieldPassword, false},
		{"auth/user-not-found", CodeUserNotFound, FieldEmail, false},
		{"EMAIL_NOT_FOUND", CodeUserNotFound, FieldEmail, false},
		{"auth/popup-closed-by-user", CodePopupClosed, "", true},
		{"auth/cancelled-popup-request", CodePopupCancelled, "", true},
		{"EMAIL_EXISTS", CodeEmailInUse, FieldEmail, false},
		{"auth/email-already-in-use", CodeEmailInUse, FieldEmail, false},
		{"WEAK_PASSWORD : Password should be at least 6 characters", CodeWeakPassword, FieldPassword, false},
		{"INVALID_LOGIN_CREDENTIALS", CodeInvalidCredential, FieldPassword, false},
		{"auth/invalid-login-credentials", CodeInvalidCredential, FieldPassword, false},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : Access has been temporarily disabled", CodeTooManyRequests, "", true},
		{"USER_DISABLED", CodeUserDisabled, "", false},
		{"auth/network-request-failed", CodeNetwork, "", true},
		{"auth/something-new", CodeUnknown, "", true},
		{"", CodeUnknown, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			n := Translate(tc.raw)
			assert.Equal(t, tc.code, n.Code)
			assert.Equal(t, tc.field, n.Field)
			assert.Equal(t, tc.dismissible, n.Dismissible)
			assert.NotEmpty(t, n.Message)
		})
	}
}

func TestEveryCodeHasNoticeAndStatus(t *testing.T) {
	for code := range notices {
		assert.Equal(t, code, NoticeFor(code).Code)
		assert.NotZero(t, StatusFor(code))
	}
	assert.Equal(t, CodeUnknown, NoticeFor(Code("bogus")).Code)
	assert.Equal(t, http.StatusBadGateway, StatusFor(Code("bogus")))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, StatusFor(CodeWrongPassword))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(CodeUserNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(CodeEmailInUse))
	assert.Equal(t, http.StatusBadRequest, StatusFor(CodePopupClosed))
	assert.Equal(t, http.StatusForbidden, StatusFor(CodeUserDisabled))
	assert.Equal(t, http.StatusTooManyRequests, StatusFor(CodeTooManyRequests))
	assert.Equal(t, http.StatusBadGateway, StatusFor(CodeNetwork))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := error(&Error{Code: CodeNetwork, Provider: ProviderPassword, Err: cause})

	var authErr *Error
	assert.True(t, errors.As(err, &authErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeNetwork, authErr.Notice().Code)
}
