package validation

import "testing"

func TestLoginFormSubmitGate(t *testing.T) {
	f := NewLoginForm()
	if f.SubmitEnabled() {
		t.Fatal("fresh form must not be submittable")
	}

	f.Input(FieldEmail, "student@uni.edu")
	if f.SubmitEnabled() {
		t.Fatal("submit enabled with password untouched")
	}

	f.Input(FieldPassword, "12345")
	if f.Error(FieldPassword) != "Password must be at least 6 characters" {
		t.Fatalf("unexpected password error: %q", f.Error(FieldPassword))
	}
	if f.SubmitEnabled() {
		t.Fatal("submit enabled with short password")
	}

	f.Input(FieldPassword, "123456")
	if !f.SubmitEnabled() {
		t.Fatalf("expected submit enabled, errors=%v", f.Errors())
	}
}

func TestFormInputSkipsEmptyValues(t *testing.T) {
	f := NewLoginForm()
	f.Input(FieldEmail, "   ")
	if f.Error(FieldEmail) != "" {
		t.Fatalf("blank input should not validate yet, got %q", f.Error(FieldEmail))
	}

	f.Blur(FieldEmail)
	if f.Error(FieldEmail) != "Email is required" {
		t.Fatalf("blur should validate, got %q", f.Error(FieldEmail))
	}
}

func TestFormInputKeepsStaleResultUntilRevalidated(t *testing.T) {
	f := NewLoginForm()
	f.Input(FieldEmail, "student@uni.edu")
	f.Input(FieldEmail, "")
	if f.Error(FieldEmail) != "" {
		t.Fatal("clearing the field by typing should not re-run validation")
	}
	f.Input(FieldPassword, "123456")
	if !f.SubmitEnabled() {
		t.Fatal("stale email result should still count as valid")
	}
	f.Blur(FieldEmail)
	if f.Error(FieldEmail) != "Email is required" {
		t.Fatal("blur on empty field must invalidate it")
	}
}

func TestRegisterFormRevalidatesConfirmation(t *testing.T) {
	f := NewRegisterForm()
	f.Input(FieldEmail, "student@uni.edu")
	f.Input(FieldPassword, "longenough")
	f.Input(FieldConfirmPassword, "longenough")
	if !f.SubmitEnabled() {
		t.Fatalf("expected valid form, errors=%v", f.Errors())
	}

	f.Input(FieldPassword, "changedpass")
	if f.Error(FieldConfirmPassword) != "Passwords do not match" {
		t.Fatalf("confirmation not revalidated: %q", f.Error(FieldConfirmPassword))
	}
	if f.SubmitEnabled() {
		t.Fatal("submit enabled with mismatched confirmation")
	}
}

func TestRegisterFormPasswordChangeLeavesEmptyConfirmation(t *testing.T) {
	f := NewRegisterForm()
	f.Input(FieldPassword, "longenough")
	if f.Error(FieldConfirmPassword) != "" {
		t.Fatalf("empty confirmation should stay untouched, got %q", f.Error(FieldConfirmPassword))
	}
}

func TestFormSubmitValidatesEverything(t *testing.T) {
	f := NewRegisterForm()
	if f.Submit() {
		t.Fatal("empty form submitted")
	}

	errs := f.Errors()
	want := map[Field]string{
		FieldEmail:           "Email is required",
		FieldPassword:        "Password is required",
		FieldConfirmPassword: "Please confirm your password",
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Fatalf("field %s: got %q want %q", field, errs[field], msg)
		}
	}
}

func TestFormReset(t *testing.T) {
	f := NewLoginForm()
	f.Input(FieldEmail, "student@uni.edu")
	f.Input(FieldPassword, "123456")
	if !f.Submit() {
		t.Fatal("expected valid login")
	}
	f.Reset()
	if f.SubmitEnabled() || len(f.Errors()) != 0 {
		t.Fatal("reset did not clear state")
	}
	f.Blur(FieldEmail)
	if f.Error(FieldEmail) != "Email is required" {
		t.Fatal("reset did not clear values")
	}
}

func TestFormIgnoresUnknownFields(t *testing.T) {
	f := NewLoginForm()
	f.Input(FieldConfirmPassword, "x")
	f.Blur(FieldConfirmPassword)
	if f.Error(FieldConfirmPassword) != "" {
		t.Fatal("login form must not track a confirmation field")
	}
}

func TestFormResult(t *testing.T) {
	f := NewLoginForm()
	if got := f.Result(FieldEmail); got.Valid || got.Message != "" {
		t.Fatalf("untouched field should be blank: %+v", got)
	}
	f.Input(FieldEmail, "not-an-email")
	if got := f.Result(FieldEmail); got.Valid || got.Message != "Please enter a valid email address" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
