// Package handler contains the HTTP handlers: HTML pages, the form endpoints
// and the small JSON API.
//
// Handlers are glue. They read the request, call the account service and
// write a response; every rule about what a valid registration or profile
// looks like lives in internal/service.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/model"
	"github.com/sakif/mentorship-platform/internal/service"
)

// Page names, one template file each under templates/.
const (
	PageLogin          = "login"
	PageRegister       = "register"
	PageProfile        = "profile"
	PageDashboard      = "dashboard"
	PageMentee         = "mentee"
	PageMentor         = "mentor"
	PageAdmin          = "admin"
	PageMenteeRegister = "mentee-register"
	PageMentorRegister = "mentor-register"
)

var pageNames = []string{
	PageLogin, PageRegister, PageProfile, PageDashboard,
	PageMentee, PageMentor, PageAdmin,
	PageMenteeRegister, PageMentorRegister,
}

// Messages for the codes the form handlers put in the query string.
var (
	loginMessages = map[string]string{
		"1": "Incorrect email or password.",
		"2": "This account has been suspended. Contact an administrator.",
	}
	registerMessages = map[string]string{
		"1": service.MsgPasswordMismatch,
		"2": service.MsgNotUniversityEmail,
		"3": "Please fill in every field with a valid value.",
		"4": "An account with that email already exists.",
	}
	profileMessages = map[string]string{
		"1": service.MsgNewPasswordPair,
		"2": service.MsgWrongPassword,
		"3": "One of the fields is too long.",
	}
)

// pageData is what every template receives.
type pageData struct {
	User        *model.User
	Role        string
	Home        string
	Error       string
	Description string
	Users       []model.User
}

// PageHandler renders the HTML pages.
//
// Each page is its own template set (base.html + the page file) because
// every page defines the same "title" and "content" blocks; parsing them all
// into one set would let the last file win.
type PageHandler struct {
	pages    map[string]*template.Template
	accounts Accounts
	sessions *auth.Sessions
	logger   *slog.Logger
}

// NewPageHandler parses base.html plus every page from fsys once at startup.
func NewPageHandler(fsys fs.FS, accounts Accounts, sessions *auth.Sessions, logger *slog.Logger) (*PageHandler, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(fsys, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("handler: parsing page %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &PageHandler{pages: pages, accounts: accounts, sessions: sessions, logger: logger}, nil
}

// HandleLogin renders the login form. GET /login
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageLogin, pageData{
		User:  h.optionalUser(r),
		Error: loginMessages[r.URL.Query().Get("error")],
	})
}

// HandleRegister renders the registration form. GET /register
func (h *PageHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageRegister, pageData{
		User:  h.optionalUser(r),
		Error: registerMessages[r.URL.Query().Get("error")],
	})
}

// HandleProfile renders the profile form pre-filled with the stored values.
// GET /profile
func (h *PageHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	data := pageData{User: user, Error: profileMessages[r.URL.Query().Get("error3")]}
	if !h.withDescription(w, r, &data) {
		return
	}
	h.render(w, r, PageProfile, data)
}

// HandleDashboard is where a saved profile lands. GET /dashboard
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		return
	}
	data := pageData{User: user}
	if role, err := user.Role(); err == nil {
		data.Role = role.String()
		data.Home = role.HomePath()
	}
	h.render(w, r, PageDashboard, data)
}

// HandleRoleHome renders the home page of role. A user with a different role
// is sent to their own home page. GET /mentee, /mentor, /admin
func (h *PageHandler) HandleRoleHome(role model.Role) http.HandlerFunc {
	page := map[model.Role]string{
		model.RoleMentee: PageMentee,
		model.RoleMentor: PageMentor,
		model.RoleAdmin:  PageAdmin,
	}[role]

	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.requireRole(w, r, role)
		if !ok {
			return
		}
		data := pageData{User: user, Role: role.String()}
		if role == model.RoleAdmin {
			users, err := h.accounts.ListUsers(r.Context())
			if err != nil {
				h.serverError(w, r, err)
				return
			}
			data.Users = users
		} else if !h.withDescription(w, r, &data) {
			return
		}
		h.render(w, r, page, data)
	}
}

// HandleRegistered renders the landing page shown right after registration.
// GET /mentee-register, /mentor-register
func (h *PageHandler) HandleRegistered(role model.Role) http.HandlerFunc {
	page := PageMenteeRegister
	if role == model.RoleMentor {
		page = PageMentorRegister
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.requireRole(w, r, role)
		if !ok {
			return
		}
		h.render(w, r, page, pageData{User: user, Role: role.String()})
	}
}

// HandleIndex sends visitors to their home page, or to /login.
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	user := h.optionalUser(r)
	if user == nil {
		redirect(w, r, "/login")
		return
	}
	role, _ := user.Role()
	redirect(w, r, role.HomePath())
}

// requireRole loads the session user and checks their role, redirecting when
// either fails.
func (h *PageHandler) requireRole(w http.ResponseWriter, r *http.Request, role model.Role) (*model.User, bool) {
	user, ok := h.sessionUser(w, r)
	if !ok {
		return nil, false
	}
	got, err := user.Role()
	if err != nil || got != role {
		h.logger.Info("role page refused",
			slog.String("userID", user.ID),
			slog.String("want", role.String()),
		)
		redirect(w, r, got.HomePath())
		return nil, false
	}
	return user, true
}

// sessionUser loads the user behind the session. It redirects to /login when
// there is none, and drops the cookie of a suspended or deleted account.
func (h *PageHandler) sessionUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.accounts.CurrentUser(r.Context(), userID)
	if err != nil {
		if loc, ok := endSession(err); ok {
			if userID != "" {
				h.sessions.ClearCookie(w)
			}
			redirect(w, r, loc)
			return nil, false
		}
		h.serverError(w, r, err)
		return nil, false
	}
	return user, true
}

// optionalUser returns the session user, or nil for anonymous visitors.
func (h *PageHandler) optionalUser(r *http.Request) *model.User {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	user, err := h.accounts.CurrentUser(r.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

func (h *PageHandler) withDescription(w http.ResponseWriter, r *http.Request, data *pageData) bool {
	desc, err := h.accounts.Description(r.Context(), data.User)
	if err != nil {
		h.serverError(w, r, err)
		return false
	}
	if desc != nil {
		data.Description = desc.Description
	}
	return true
}

// render executes into a buffer first so a template error can still become
// a clean 500.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "base", data); err != nil {
		h.serverError(w, r, fmt.Errorf("rendering %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (h *PageHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "page failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
