// Package service contains the business rules of the application.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)       → reads form fields, maps outcomes to redirects
//	Service (rules)      → validates, decides, orchestrates
//	Repository (storage) → reads/writes rows through the ORM
//
// AccountService owns every rule behind the login, registration and profile
// forms. It knows nothing about HTTP: a failed check comes back as an
// *apperror.AppError whose category (errors.Is) and Field tell the handler
// which redirect code to use. Nothing is written until every check has passed.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/notify"
	"github.com/sakif/mentorship-platform/internal/repository"
)

// Field names attached to validation errors. The handler maps them to the
// error codes the pages understand.
const (
	FieldConfirmPassword    = "confirmpassword"
	FieldUniversityEmail    = "university_email"
	FieldCurrentPassword    = "password"
	FieldNewPassword        = "newpassword"
	FieldConfirmNewPassword = "newconfirmpassword"
)

// Messages shown on the registration and profile pages.
const (
	MsgPasswordMismatch   = "The two password entries must be correct."
	MsgNotUniversityEmail = "Mentee email must be a university email."
	MsgNewPasswordPair    = "Both new password fields must be filled in and match."
	MsgWrongPassword      = "Your current password is incorrect."
	MsgPasswordTooLong    = "Passwords must be at most 72 bytes long."
)

// passwordTag is the validate tag for bcrypt's byte limit. The built-in max
// counts runes, so a password of 40 "é" would pass max=72 at 80 bytes.
const passwordTag = "bcryptlen"

// LoginInput is the /post-login form.
type LoginInput struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// RegisterInput is the /post-register form. The validate tags run after the
// password and university-email checks, so those keep their own error codes.
type RegisterInput struct {
	FirstName       string `form:"first_name"      validate:"required,max=100"`
	Surname         string `form:"surname"         validate:"required,max=100"`
	Email           string `form:"email"           validate:"required,email,max=255"`
	Password        string `form:"password"        validate:"required,bcryptlen"`
	ConfirmPassword string `form:"confirmpassword"`
	Privilege       string `form:"privilege"       validate:"oneof=Mentee Mentor"`
}

// ProfileInput is the /post-profile form.
type ProfileInput struct {
	University         string `form:"university"         validate:"max=255"`
	Degree             string `form:"degree"             validate:"max=255"`
	Telephone          string `form:"telephone"          validate:"max=50"`
	CurrentPassword    string `form:"password"`
	NewPassword        string `form:"newpassword"        validate:"bcryptlen"`
	ConfirmNewPassword string `form:"newconfirmpassword"`
	Description        string `form:"description"        validate:"max=2000"`
}

// wantsPasswordChange reports whether either new-password field was filled in.
func (in ProfileInput) wantsPasswordChange() bool {
	return in.NewPassword != "" || in.ConfirmNewPassword != ""
}

// AccountService implements login, registration, profile updates and the
// admin suspension switch.
type AccountService struct {
	store              repository.Store
	passwords          *auth.PasswordService
	notifier           notify.Notifier
	validate           *validator.Validate
	universitySuffixes []string
	logger             *slog.Logger
}

// NewAccountService wires the service. universitySuffixes are the email domain
// endings accepted for mentee accounts (".ac.uk", ".edu").
func NewAccountService(
	store repository.Store,
	passwords *auth.PasswordService,
	notifier notify.Notifier,
	universitySuffixes []string,
	logger *slog.Logger,
) *AccountService {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report the form field name ("first_name"), not the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation(passwordTag, func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= auth.MaxPasswordBytes
	})

	return &AccountService{
		store:              store,
		passwords:          passwords,
		notifier:           notifier,
		validate:           v,
		universitySuffixes: universitySuffixes,
		logger:             logger,
	}
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsUniversityEmail reports whether email's domain ends with one of suffixes.
func IsUniversityEmail(email string, suffixes []string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, suffix := range suffixes {
		if strings.HasSuffix(domain, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// Login checks credentials in a fixed order: lookup, then suspension, then
// password. A suspended account is reported as suspended whether or not the
// password was right. An unknown email and a wrong password produce the same
// ErrUnauthorized so the form does not reveal which emails are registered.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*model.User, model.Role, error) {
	email := NormalizeEmail(in.Email)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.InfoContext(ctx, "login rejected: unknown email", slog.String("email", email))
			return nil, 0, apperror.Unauthorized("unknown email or password")
		}
		return nil, 0, fmt.Errorf("service/account: looking up %s: %w", email, err)
	}

	if user.Suspended {
		s.logger.InfoContext(ctx, "login rejected: account suspended", slog.String("userID", user.ID))
		return nil, 0, apperror.Suspended(email)
	}

	if err := s.passwords.Verify(user.Password, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.InfoContext(ctx, "login rejected: wrong password", slog.String("userID", user.ID))
			return nil, 0, apperror.Unauthorized("unknown email or password")
		}
		return nil, 0, fmt.Errorf("service/account: verifying password for %s: %w", user.ID, err)
	}

	role, err := user.Role()
	if err != nil {
		return nil, 0, fmt.Errorf("service/account: user %s: %w", user.ID, err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("userID", user.ID),
		slog.String("role", role.String()),
	)
	return user, role, nil
}

// Register creates an account. Checks run in this order and the first failure
// wins:
//  1. password and confirmation differ        → FieldConfirmPassword
//  2. mentee with a non-university email      → FieldUniversityEmail
//  3. missing/malformed fields, bad privilege → the offending form field
//  4. email already registered                → ErrConflict
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, model.Role, error) {
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.Surname = strings.TrimSpace(in.Surname)

	if in.Password != in.ConfirmPassword {
		return nil, 0, apperror.ValidationFailed(FieldConfirmPassword, MsgPasswordMismatch)
	}
	if in.Privilege == model.RoleMentee.String() && !IsUniversityEmail(in.Email, s.universitySuffixes) {
		return nil, 0, apperror.ValidationFailed(FieldUniversityEmail, MsgNotUniversityEmail)
	}
	if err := s.validateStruct(in); err != nil {
		return nil, 0, err
	}

	role, err := model.ParseRole(in.Privilege)
	if err != nil {
		return nil, 0, apperror.ValidationFailed("privilege", err.Error())
	}
	privilege, err := s.store.GetPrivilegeByName(ctx, role.String())
	if err != nil {
		return nil, 0, fmt.Errorf("service/account: resolving privilege %s: %w", role, err)
	}

	// The unique index still backs this up for concurrent registrations.
	if _, err := s.store.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, 0, apperror.Conflict("user", in.Email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, 0, fmt.Errorf("service/account: checking %s: %w", in.Email, err)
	}

	hash, err := s.hash("password", in.Password)
	if err != nil {
		return nil, 0, err
	}

	user := &model.User{
		FirstName:   in.FirstName,
		Surname:     in.Surname,
		Email:       in.Email,
		Password:    hash,
		PrivilegeID: privilege.ID,
		Privilege:   *privilege,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, 0, fmt.Errorf("service/account: registering %s: %w", in.Email, err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("userID", user.ID),
		slog.String("role", role.String()),
	)
	return user, role, nil
}

// UpdateProfile applies the profile form for userID.
//
// University, degree and telephone are always overwritten. A password change
// needs both new fields, equal, plus the correct current password. The user row
// is written once, after every check, so a rejected form changes nothing.
// The returned bool reports whether the password was changed.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, bool, error) {
	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	changePassword := in.wantsPasswordChange()
	if changePassword && in.NewPassword != in.ConfirmNewPassword {
		return nil, false, apperror.ValidationFailed(FieldConfirmNewPassword, MsgNewPasswordPair)
	}
	if err := s.validateStruct(in); err != nil {
		return nil, false, err
	}
	if changePassword {
		if err := s.passwords.Verify(user.Password, in.CurrentPassword); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return nil, false, apperror.ValidationFailed(FieldCurrentPassword, MsgWrongPassword)
			}
			return nil, false, fmt.Errorf("service/account: verifying password for %s: %w", user.ID, err)
		}
		hash, err := s.hash(FieldNewPassword, in.NewPassword)
		if err != nil {
			return nil, false, err
		}
		user.Password = hash
	}

	user.University = strings.TrimSpace(in.University)
	user.Degree = strings.TrimSpace(in.Degree)
	user.Telephone = strings.TrimSpace(in.Telephone)

	// The description and the user row commit together.
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if in.Description != "" {
			if err := saveDescription(ctx, tx, user, in.Description); err != nil {
				return err
			}
		}
		if err := tx.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("service/account: updating profile of %s: %w", user.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.InfoContext(ctx, "profile updated",
		slog.String("userID", user.ID),
		slog.Bool("passwordChanged", changePassword),
	)

	if changePassword {
		// The new password is already stored; a mail failure is reported in
		// the log only.
		if err := s.notifier.PasswordChanged(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "password change notification failed",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return user, changePassword, nil
}

// saveDescription updates the user's existing description or creates one and
// points the user at it. The caller persists the user.
func saveDescription(ctx context.Context, store repository.Store, user *model.User, text string) error {
	if user.DescriptionID != nil {
		desc, err := store.GetDescriptionByID(ctx, *user.DescriptionID)
		switch {
		case err == nil:
			desc.Description = text
			if err := store.UpdateDescription(ctx, desc); err != nil {
				return fmt.Errorf("service/account: updating description: %w", err)
			}
			return nil
		case !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("service/account: loading description: %w", err)
		}
		// Dangling reference: fall through and create a fresh description.
	}

	desc := &model.Description{Description: text}
	if err := store.CreateDescription(ctx, desc); err != nil {
		return fmt.Errorf("service/account: creating description: %w", err)
	}
	user.DescriptionID = &desc.ID
	return nil
}

// CurrentUser loads the account behind a session. A suspended account is
// refused with ErrSuspended: suspension ends sessions issued before it.
func (s *AccountService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("no session")
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/account: loading user %s: %w", userID, err)
	}
	if user.Suspended {
		s.logger.InfoContext(ctx, "session refused: account suspended", slog.String("userID", user.ID))
		return nil, apperror.Suspended(user.Email)
	}
	return user, nil
}

// Description returns the description attached to user, or nil when there is none.
func (s *AccountService) Description(ctx context.Context, user *model.User) (*model.Description, error) {
	if user.DescriptionID == nil {
		return nil, nil
	}
	desc, err := s.store.GetDescriptionByID(ctx, *user.DescriptionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("service/account: loading description: %w", err)
	}
	return desc, nil
}

// ListUsers returns all accounts for the admin page.
func (s *AccountService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/account: %w", err)
	}
	return users, nil
}

// SetSuspended is the admin switch. actorID must belong to an active admin,
// and an admin cannot suspend their own account.
func (s *AccountService) SetSuspended(ctx context.Context, actorID, targetID string, suspended bool) error {
	actor, err := s.CurrentUser(ctx, actorID)
	if err != nil {
		return err
	}
	if role, err := actor.Role(); err != nil || role != model.RoleAdmin {
		return apperror.Forbidden("only admins can suspend accounts")
	}
	if actorID == targetID {
		return apperror.Forbidden("admins cannot suspend themselves")
	}

	if err := s.store.SetSuspended(ctx, targetID, suspended); err != nil {
		return fmt.Errorf("service/account: setting suspended=%t on %s: %w", suspended, targetID, err)
	}

	s.logger.InfoContext(ctx, "suspension changed",
		slog.String("actorID", actorID),
		slog.String("userID", targetID),
		slog.Bool("suspended", suspended),
	)
	return nil
}

// hash wraps PasswordService.Hash, reporting an over-long password as a
// validation failure on field.
func (s *AccountService) hash(field, password string) (string, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperror.ValidationFailed(field, MsgPasswordTooLong)
		}
		return "", fmt.Errorf("service/account: %w", err)
	}
	return hash, nil
}

// validateStruct runs the validate tags and converts the first failure into
// an apperror keyed by form field.
func (s *AccountService) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.ValidationFailed(fe.Field(), fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("service/account: validating input: %w", err)
}
