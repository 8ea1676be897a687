package apperror

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var sentinels = map[string]error{
	"ErrNotFound":     ErrNotFound,
	"ErrValidation":   ErrValidation,
	"ErrConflict":     ErrConflict,
	"ErrForbidden":    ErrForbidden,
	"ErrUnauthorized": ErrUnauthorized,
	"ErrSuspended":    ErrSuspended,
}

// Each constructor belongs to exactly one category. The handlers branch on
// these categories, so an overlap would send a form to the wrong redirect.
func TestConstructors_MatchOnlyTheirCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unknown session user", NotFound("user", "cv37rs3pp9olc6atsptg"), "ErrNotFound"},
		{"mentee without university email", ValidationFailed("university_email", "Mentee email must be a university email."), "ErrValidation"},
		{"email already registered", Conflict("user", "bonny.simmons@sheffield.ac.uk"), "ErrConflict"},
		{"mentee hitting an admin action", Forbidden("only admins can suspend accounts"), "ErrForbidden"},
		{"wrong password", Unauthorized("unknown email or password"), "ErrUnauthorized"},
		{"suspended account", Suspended("test4@gmail.ac.uk"), "ErrSuspended"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for name, sentinel := range sentinels {
				got := errors.Is(tt.err, sentinel)
				if want := name == tt.want; got != want {
					t.Errorf("errors.Is(err, %s) = %v, want %v", name, got, want)
				}
			}
		})
	}
}

// Login maps these two to different redirect codes (error=1 and error=2).
func TestSuspendedIsNotUnauthorized(t *testing.T) {
	suspended := Suspended("gone@example.ac.uk")
	badLogin := Unauthorized("unknown email or password")

	if errors.Is(suspended, ErrUnauthorized) {
		t.Error("a suspended account must not read as bad credentials")
	}
	if errors.Is(badLogin, ErrSuspended) {
		t.Error("bad credentials must not read as a suspended account")
	}

	// The service wraps store errors; the category has to survive that too.
	wrapped := fmt.Errorf("service/account: loading user u-1: %w", suspended)
	if !errors.Is(wrapped, ErrSuspended) || errors.Is(wrapped, ErrUnauthorized) {
		t.Errorf("wrapped suspension lost its category: %v", wrapped)
	}
}

func TestSuspended_MessageNamesTheAccount(t *testing.T) {
	err := Suspended("gone@example.ac.uk")
	if !strings.Contains(err.Error(), "gone@example.ac.uk") {
		t.Errorf("Error() = %q, want it to name the account", err.Error())
	}
	if err.Field != "" {
		t.Errorf("Field = %q, want empty", err.Field)
	}
}

func TestFieldOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"registration mismatch", ValidationFailed("confirmpassword", "x"), "confirmpassword"},
		{
			"wrapped by the service",
			fmt.Errorf("service/account: registering: %w", ValidationFailed("university_email", "x")),
			"university_email",
		},
		{
			"wrapped twice",
			fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", ValidationFailed("newconfirmpassword", "x"))),
			"newconfirmpassword",
		},
		{"suspension has no field", Suspended("a@b.ac.uk"), ""},
		{"conflict has no field", Conflict("user", "a@b.ac.uk"), ""},
		{"plain error", errors.New("connection refused"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FieldOf(tt.err); got != tt.want {
				t.Errorf("FieldOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAs_ExposesUserMessage(t *testing.T) {
	err := fmt.Errorf("service/account: updating profile: %w",
		ValidationFailed("password", "Your current password is incorrect."))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As did not find *AppError")
	}
	if appErr.Message != "Your current password is incorrect." {
		t.Errorf("Message = %q", appErr.Message)
	}
	if appErr.Unwrap() != ErrValidation {
		t.Errorf("Unwrap() = %v, want ErrValidation", appErr.Unwrap())
	}
	// The wrapping prefix is for logs; the page shows Message only.
	if strings.Contains(appErr.Error(), "service/account") {
		t.Errorf("Error() = %q leaks the wrap prefix", appErr.Error())
	}
}
