package validation

import "strings"

// Field names a form input.
type Field string

const (
	FieldEmail           Field = "email"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirmPassword"
)

// Form tracks the values and per-field validity of one form session.
// It is not safe for concurrent use.
type Form struct {
	fields      []Field
	passwordMin int
	values      map[Field]string
	results     map[Field]Result
}

// NewLoginForm returns an email + password form with the login password rule.
func NewLoginForm() *Form {
	return newForm(LoginPasswordMin, FieldEmail, FieldPassword)
}

// NewRegisterForm returns an email + password + confirmation form.
func NewRegisterForm() *Form {
	return newForm(RegisterPasswordMin, FieldEmail, FieldPassword, FieldConfirmPassword)
}

func newForm(passwordMin int, fields ...Field) *Form {
	f := &Form{fields: fields, passwordMin: passwordMin}
	f.Reset()
	return f
}

// Input records a keystroke. The field is validated only once it holds a
// non-empty value so the user is not shown errors while starting to type.
func (f *Form) Input(field Field, value string) {
	if !f.has(field) {
		return
	}
	f.values[field] = value

	check := value
	if field == FieldEmail {
		check = strings.TrimSpace(value)
	}
	if check != "" {
		f.validate(field)
	}
}

// Blur validates field unconditionally.
func (f *Form) Blur(field Field) {
	if f.has(field) {
		f.validate(field)
	}
}

// Submit validates every field and reports whether the form may be sent.
func (f *Form) Submit() bool {
	for _, field := range f.fields {
		f.validate(field)
	}
	return f.SubmitEnabled()
}

// SubmitEnabled is true only when every field has validated successfully.
func (f *Form) SubmitEnabled() bool {
	for _, field := range f.fields {
		if !f.results[field].Valid {
			return false
		}
	}
	return true
}

// Error returns the message currently shown for field, if any.
func (f *Form) Error(field Field) string {
	return f.results[field].Message
}

// Result returns the latest validation outcome of field. A field that was
// never validated reports invalid with no message.
func (f *Form) Result(field Field) Result {
	return f.results[field]
}

// Errors returns every field message currently shown.
func (f *Form) Errors() map[Field]string {
	out := make(map[Field]string)
	for _, field := range f.fields {
		if msg := f.results[field].Message; msg != "" {
			out[field] = msg
		}
	}
	return out
}

// Reset clears values and validation flags.
func (f *Form) Reset() {
	f.values = make(map[Field]string, len(f.fields))
	f.results = make(map[Field]Result, len(f.fields))
}

func (f *Form) has(field Field) bool {
	for _, candidate := range f.fields {
		if candidate == field {
			return true
		}
	}
	return false
}

func (f *Form) validate(field Field) {
	switch field {
	case FieldEmail:
		f.results[field] = ValidateEmail(f.values[field])
	case FieldPassword:
		f.results[field] = ValidatePassword(f.values[field], f.passwordMin)
		if f.has(FieldConfirmPassword) && f.values[FieldConfirmPassword] != "" {
			f.validate(FieldConfirmPassword)
		}
	case FieldConfirmPassword:
		f.results[field] = ValidateConfirmPassword(f.values[field], f.values[FieldPassword])
	}
}
