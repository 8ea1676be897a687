package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mentorship-platform/internal/apperror"
	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/metrics"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/service"
)

// Accounts is the part of service.AccountService the handlers call.
type Accounts interface {
	Login(ctx context.Context, in service.LoginInput) (*model.User, model.Role, error)
	Register(ctx context.Context, in service.RegisterInput) (*model.User, model.Role, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (*model.User, bool, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	Description(ctx context.Context, user *model.User) (*model.Description, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetSuspended(ctx context.Context, actorID, targetID string, suspended bool) error
}

var _ Accounts = (*service.AccountService)(nil)

// AccountHandler serves the three form endpoints plus logout, /api/me and the
// admin suspension actions.
//
// FORM OUTCOMES ARE REDIRECTS:
// A rejected form never renders an error page directly. It redirects back to
// the form with a short code in the query string (/login?error=2) which the
// page handler turns into a message. Only unexpected failures produce a 500.
type AccountHandler struct {
	accounts Accounts
	sessions *auth.Sessions
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewAccountHandler(
	accounts Accounts,
	sessions *auth.Sessions,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
	}
}

// HandleLogin authenticates the login form.
//
// HTTP: POST /post-login
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in := service.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	user, role, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		code, ok := loginErrorCode(err)
		if !ok {
			h.serverError(w, r, "login", err)
			return
		}
		h.metrics.Login("error=" + code)
		redirect(w, r, "/login?error="+code)
		return
	}

	if err := h.sessions.SetCookie(w, user.ID); err != nil {
		h.serverError(w, r, "login", err)
		return
	}
	h.metrics.Login(metrics.OutcomeSuccess)
	redirect(w, r, role.HomePath())
}

// HandleRegister creates an account from the registration form and logs the
// new user in.
//
// HTTP: POST /post-register
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	in := service.RegisterInput{
		FirstName:       r.PostFormValue("first_name"),
		Surname:         r.PostFormValue("surname"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmpassword"),
		Privilege:       r.PostFormValue("privilege"),
	}

	user, role, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		code, ok := registerErrorCode(err)
		if !ok {
			h.serverError(w, r, "register", err)
			return
		}
		h.metrics.Registration("error=" + code)
		redirect(w, r, "/register?error="+code)
		return
	}

	landing, ok := role.RegisterPath()
	if !ok {
		h.serverError(w, r, "register", errors.New("no landing page for role "+role.String()))
		return
	}
	if err := h.sessions.SetCookie(w, user.ID); err != nil {
		h.serverError(w, r, "register", err)
		return
	}
	h.metrics.Registration(metrics.OutcomeSuccess)
	redirect(w, r, landing)
}

// HandleProfile applies the profile form for the session's user.
//
// HTTP: POST /post-profile
func (h *AccountHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		redirect(w, r, "/login")
		return
	}

	in := service.ProfileInput{
		University:         r.PostFormValue("university"),
		Degree:             r.PostFormValue("degree"),
		Telephone:          r.PostFormValue("telephone"),
		CurrentPassword:    r.PostFormValue("password"),
		NewPassword:        r.PostFormValue("newpassword"),
		ConfirmNewPassword: r.PostFormValue("newconfirmpassword"),
		Description:        r.PostFormValue("description"),
	}

	_, _, err := h.accounts.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		if loc, ok := endSession(err); ok {
			h.sessions.ClearCookie(w)
			redirect(w, r, loc)
			return
		}
		code, ok := profileErrorCode(err)
		if !ok {
			h.serverError(w, r, "profile", err)
			return
		}
		h.metrics.ProfileUpdate("error3=" + code)
		redirect(w, r, "/profile?error3="+code)
		return
	}

	h.metrics.ProfileUpdate(metrics.OutcomeSuccess)
	redirect(w, r, "/dashboard")
}

// HandleLogout drops the session cookie.
//
// HTTP: POST /logout
//
// The token stays valid until it expires; without the cookie the browser can
// no longer present it.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	redirect(w, r, "/login")
}

// HandleMe returns the logged-in user as JSON.
//
// HTTP: GET /api/me (behind auth.RequireSessionAPI)
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.accounts.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrSuspended) {
			h.sessions.ClearCookie(w)
			writeError(w, err)
			return
		}
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "valid session required",
			})
			return
		}
		h.logger.Error("HandleMe: loading user", slog.String("userID", userID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleSuspend and HandleUnsuspend flip a user's suspended flag.
//
// HTTP: POST /admin/users/{id}/suspend
// HTTP: POST /admin/users/{id}/unsuspend
func (h *AccountHandler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, true)
}

func (h *AccountHandler) HandleUnsuspend(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, false)
}

func (h *AccountHandler) setSuspended(w http.ResponseWriter, r *http.Request, suspended bool) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	if err := h.accounts.SetSuspended(r.Context(), actorID, targetID, suspended); err != nil {
		if !errors.Is(err, apperror.ErrForbidden) && !errors.Is(err, apperror.ErrNotFound) {
			h.logger.Error("admin suspension failed",
				slog.String("userID", targetID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}
	redirect(w, r, "/admin")
}

func (h *AccountHandler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), op+" failed", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// endSession reports whether err means the session no longer belongs to a
// usable account, and where to send the browser. A cookie for a deleted
// account is the same as no session; a suspended account sees the same
// message it would get from the login form.
func endSession(err error) (string, bool) {
	switch {
	case errors.Is(err, apperror.ErrSuspended):
		return "/login?error=2", true
	case errors.Is(err, apperror.ErrUnauthorized), errors.Is(err, apperror.ErrNotFound):
		return "/login", true
	}
	return "", false
}

// loginErrorCode maps a Login failure to the /login?error= code.
func loginErrorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		return "1", true
	case errors.Is(err, apperror.ErrSuspended):
		return "2", true
	}
	return "", false
}

// registerErrorCode maps a Register failure to the /register?error= code.
func registerErrorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		switch apperror.FieldOf(err) {
		case service.FieldConfirmPassword:
			return "1", true
		case service.FieldUniversityEmail:
			return "2", true
		}
		return "3", true
	case errors.Is(err, apperror.ErrConflict):
		return "4", true
	}
	return "", false
}

// profileErrorCode maps an UpdateProfile failure to the /profile?error3= code.
func profileErrorCode(err error) (string, bool) {
	if !errors.Is(err, apperror.ErrValidation) {
		return "", false
	}
	switch apperror.FieldOf(err) {
	case service.FieldConfirmNewPassword:
		return "1", true
	case service.FieldCurrentPassword:
		return "2", true
	}
	return "3", true
}
