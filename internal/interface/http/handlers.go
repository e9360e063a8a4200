package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
	"github.com/iq-didactic/didactic-portal/internal/infrastructure/external/didactic"
	"github.com/iq-didactic/didactic-portal/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// VIEW MODELS
// ══════════════════════════════════════════════════════════════════════════════

type authView struct {
	Title    string
	Email    string
	FullName string
	Error    string
}

type dashboardView struct {
	Title      string
	User       *identity.User
	IsAdmin    bool
	Completion int
	Error      string
}

type adminView struct {
	Title string
	Stats *didactic.OverviewStatsDTO
	Error string
}

type adminUsersView struct {
	Title  string
	Users  []*identity.User
	Search string
	Notice string
	Error  string
}

func render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = screens.ExecuteTemplate(w, name, data)
}

// renderLoading shows the holding page while the session is restored. The
// refresh header makes the browser retry without client-side code.
func renderLoading(w http.ResponseWriter) {
	w.Header().Set("Refresh", "1")
	render(w, "loading", authView{Title: "Loading"})
}

// userMessage picks what the user sees for an error. Server-provided
// messages pass through verbatim; transport failures get one fixed line.
func userMessage(err error) string {
	var de *shared.DomainError
	if shared.IsNetwork(err) {
		return "The service is unreachable right now. Please try again."
	}
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY AND HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot lands the user where their session says they belong.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Session.Current()
	if sess.Loading() {
		renderLoading(w)
		return
	}
	if sess.Authenticated() {
		http.Redirect(w, r, identity.Resolve(sess.User.Role).Path(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN / REGISTER
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, "login", authView{Title: "Sign in"})
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	_, err := s.deps.Session.Login(r.Context(), email, password)
	if err != nil {
		render(w, "login", authView{
			Title: "Sign in",
			Email: email,
			Error: userMessage(err),
		})
		return
	}

	http.Redirect(w, r, s.deps.Navigator.Current(), http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	render(w, "register", authView{Title: "Register"})
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	reg := identity.Registration{
		Email:             r.PostFormValue("email"),
		Password:          r.PostFormValue("password"),
		FullName:          r.PostFormValue("full_name"),
		PreferredLanguage: r.PostFormValue("preferred_language"),
		Phone:             r.PostFormValue("phone"),
		Country:           r.PostFormValue("country"),
		Occupation:        r.PostFormValue("occupation"),
	}

	_, err := s.deps.Session.Register(r.Context(), reg)
	if err != nil {
		render(w, "register", authView{
			Title:    "Register",
			Email:    reg.Email,
			FullName: reg.FullName,
			Error:    userMessage(err),
		})
		return
	}

	http.Redirect(w, r, s.deps.Navigator.Current(), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Session.Logout(r.Context())
	http.Redirect(w, r, s.deps.Navigator.Current(), http.StatusSeeOther)
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD AND PROFILE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// Fresh snapshot: the session may have ended since the gate let the
	// request through.
	sess := s.deps.Session.Current()
	if !sess.Authenticated() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	render(w, "dashboard", dashboardView{
		Title:      "Dashboard",
		User:       sess.User,
		IsAdmin:    identity.Resolve(sess.User.Role) == identity.DestinationAdminConsole,
		Completion: completionPercent(sess.User),
	})
}

// completionPercent prefers the server-computed percentage and falls back to
// the local recomputation when the server omitted it.
func completionPercent(u *identity.User) int {
	if u == nil {
		return 0
	}
	if u.ProfileCompletion > 0 {
		return u.ProfileCompletion
	}
	return u.CompletionPercent()
}

func (s *Server) handleUploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Session.Current()
	if !sess.Authenticated() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderDashboardError(w, "Could not read the uploaded file.")
		return
	}
	defer file.Close()

	pictureURL, err := s.deps.API.UploadProfilePicture(r.Context(), sess.Token, header.Filename, file)
	if err != nil {
		s.logger.Warn("profile picture upload failed", logger.Err(err))
		s.renderDashboardError(w, userMessage(err))
		return
	}
	s.publish(shared.NewProfilePictureUploadedEvent(sess.User.ID, pictureURL))

	// Resync the profile so the completion percentage reflects the upload.
	if err := s.deps.Session.Refetch(r.Context()); err != nil {
		s.logger.Warn("profile refresh after upload failed", logger.Err(err))
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleDeleteProfilePicture(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Session.Current()
	if !sess.Authenticated() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := s.deps.API.DeleteProfilePicture(r.Context(), sess.Token); err != nil {
		s.logger.Warn("profile picture removal failed", logger.Err(err))
		s.renderDashboardError(w, userMessage(err))
		return
	}
	s.publish(shared.NewProfilePictureRemovedEvent(sess.User.ID))

	if err := s.deps.Session.Refetch(r.Context()); err != nil {
		s.logger.Warn("profile refresh after removal failed", logger.Err(err))
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// publish hands a profile event to the bus when one is wired.
func (s *Server) publish(event shared.Event) {
	if s.deps.Bus == nil {
		return
	}
	if err := s.deps.Bus.Publish(event); err != nil {
		s.logger.Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

func (s *Server) renderDashboardError(w http.ResponseWriter, msg string) {
	sess := s.deps.Session.Current()
	if !sess.Authenticated() {
		render(w, "login", authView{Title: "Sign in", Error: msg})
		return
	}
	render(w, "dashboard", dashboardView{
		Title:      "Dashboard",
		User:       sess.User,
		IsAdmin:    identity.Resolve(sess.User.Role) == identity.DestinationAdminConsole,
		Completion: completionPercent(sess.User),
		Error:      msg,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN CONSOLE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleAdminConsole(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Session.Current()

	stats, err := s.deps.API.OverviewStats(r.Context(), sess.Token)
	if err != nil {
		s.logger.Warn("overview stats unavailable", logger.Err(err))
		render(w, "admin", adminView{Title: "Admin console", Error: userMessage(err)})
		return
	}

	render(w, "admin", adminView{Title: "Admin console", Stats: stats})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Session.Current()

	q := didactic.UsersQuery{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
		Limit:  100,
	}

	users, err := s.deps.API.ListUsers(r.Context(), sess.Token, q)
	if err != nil {
		render(w, "admin_users", adminUsersView{
			Title:  "Users",
			Search: q.Search,
			Error:  userMessage(err),
		})
		return
	}

	render(w, "admin_users", adminUsersView{
		Title:  "Users",
		Users:  users,
		Search: q.Search,
		Notice: r.URL.Query().Get("notice"),
	})
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Session.Current()
	userID := chi.URLParam(r, "userID")

	if err := s.deps.API.DeleteUser(r.Context(), sess.Token, userID); err != nil {
		s.logger.Warn("user deletion failed", logger.UserID(userID), logger.Err(err))
		render(w, "admin_users", adminUsersView{Title: "Users", Error: userMessage(err)})
		return
	}

	s.logger.Info("user deleted", logger.UserID(userID))
	http.Redirect(w, r, "/admin/users?notice=User+deleted", http.StatusSeeOther)
}

func (s *Server) handleAdminResetPassword(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Session.Current()
	userID := chi.URLParam(r, "userID")

	newPassword := r.PostFormValue("new_password")
	if newPassword == "" {
		render(w, "admin_users", adminUsersView{Title: "Users", Error: "A new password is required."})
		return
	}

	result, err := s.deps.API.ResetUserPassword(r.Context(), sess.Token, userID, newPassword)
	if err != nil {
		s.logger.Warn("password reset failed", logger.UserID(userID), logger.Err(err))
		render(w, "admin_users", adminUsersView{Title: "Users", Error: userMessage(err)})
		return
	}

	s.logger.Info("password reset", logger.UserID(userID))
	render(w, "admin_users", adminUsersView{
		Title:  "Users",
		Notice: "Password updated for " + result.Email + ".",
	})
}

func (s *Server) handleAdminGeneratePassword(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.Session.Current()
	userID := chi.URLParam(r, "userID")

	result, err := s.deps.API.GenerateUserPassword(r.Context(), sess.Token, userID)
	if err != nil {
		s.logger.Warn("password generation failed", logger.UserID(userID), logger.Err(err))
		render(w, "admin_users", adminUsersView{Title: "Users", Error: userMessage(err)})
		return
	}

	// The generated password is shown once; it is never logged.
	render(w, "admin_users", adminUsersView{
		Title:  "Users",
		Notice: "New password for " + result.Email + ": " + result.NewPassword,
	})
}
