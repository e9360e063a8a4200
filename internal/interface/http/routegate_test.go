package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iq-didactic/didactic-portal/internal/application/auth"
	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/session"
	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
	"github.com/iq-didactic/didactic-portal/internal/infrastructure/external/didactic"
	"github.com/iq-didactic/didactic-portal/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FIXTURE
// ══════════════════════════════════════════════════════════════════════════════

type memStore struct {
	token string
	has   bool
}

func (s *memStore) Save(ctx context.Context, token string) error {
	s.token, s.has = token, true
	return nil
}

func (s *memStore) Load(ctx context.Context) (string, bool, error) {
	return s.token, s.has, nil
}

func (s *memStore) Clear(ctx context.Context) error {
	s.token, s.has = "", false
	return nil
}

// fakeBackend is a minimal stand-in for the IQ Didactic API. The role it
// reports decides which screens the portal should serve.
func fakeBackend(t *testing.T, role string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token": "test-token", "token_type": "bearer"}`))
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Could not validate credentials"}`))
			return
		}
		w.Write([]byte(`{
			"id": "u-1",
			"email": "amina@example.com",
			"full_name": "Amina K",
			"role": "` + role + `"
		}`))
	})
	mux.HandleFunc("GET /api/admin/stats/overview", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users": {"total": 3, "students": 1, "teachers": 1, "admins": 1},
			"courses": {"total": 0, "published": 0, "draft": 0, "enrollments": 0}}`))
	})
	mux.HandleFunc("POST /api/upload/profile-picture", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url": "/uploads/profile_pictures/u-1.png", "message": "uploaded"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	server  *Server
	manager *auth.Manager
	store   *memStore
	bus     *messaging.InMemoryEventBus
}

// newFixture wires a portal server against a fake backend. When initialize
// is false the session stays in its restoring state.
func newFixture(t *testing.T, role string, initialize bool) *fixture {
	t.Helper()

	backend := fakeBackend(t, role)
	client := didactic.NewClient(didactic.ClientConfig{BaseURL: backend.URL})

	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { bus.Close() })

	store := &memStore{}
	manager := auth.NewManager(auth.Config{Store: store, API: client, Bus: bus})
	if initialize {
		require.NoError(t, manager.Initialize(context.Background()))
	}

	nav, err := NewNavigator(bus, nil)
	require.NoError(t, err)

	srv := NewServer(DefaultConfig(), Dependencies{
		Session:   manager,
		API:       client,
		Navigator: nav,
		Bus:       bus,
	})

	return &fixture{server: srv, manager: manager, store: store, bus: bus}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *fixture) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) postFile(t *testing.T, path, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	_, err := f.manager.Login(context.Background(), "amina@example.com", "secret")
	require.NoError(t, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// GATE VERDICTS
// ══════════════════════════════════════════════════════════════════════════════

func TestDecide(t *testing.T) {
	adminUser := &identity.User{Role: identity.RoleAdmin}
	studentUser := &identity.User{Role: identity.RoleStudent}

	tests := []struct {
		name      string
		sess      session.Session
		adminOnly bool
		verdict   GateState
		redirect  string
	}{
		{"uninitialized", session.Session{Status: session.StatusUninitialized}, false, GateLoading, ""},
		{"validating", session.Session{Status: session.StatusValidating, Token: "t"}, false, GateLoading, ""},
		{"anonymous", session.Session{Status: session.StatusAnonymous}, false, GateDenied, "/login"},
		{"anonymous admin route", session.Session{Status: session.StatusAnonymous}, true, GateDenied, "/login"},
		{"student", session.Session{Status: session.StatusAuthenticated, User: studentUser, Token: "t"}, false, GateGranted, ""},
		{"student on admin route", session.Session{Status: session.StatusAuthenticated, User: studentUser, Token: "t"}, true, GateDenied, "/dashboard"},
		{"admin on admin route", session.Session{Status: session.StatusAuthenticated, User: adminUser, Token: "t"}, true, GateGranted, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, redirect := Decide(tt.sess, tt.adminOnly)
			assert.Equal(t, tt.verdict, verdict)
			assert.Equal(t, tt.redirect, redirect)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTE BEHAVIOR
// ══════════════════════════════════════════════════════════════════════════════

func TestGate_AnonymousRedirectedToLogin(t *testing.T) {
	f := newFixture(t, "student", true)

	for _, path := range []string{"/dashboard", "/admin", "/admin/users"} {
		rec := f.get(t, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestGate_LoadingSessionShowsHoldingPage(t *testing.T) {
	f := newFixture(t, "student", false)

	rec := f.get(t, "/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Refresh"))
	assert.Contains(t, rec.Body.String(), "Signing you in")
}

func TestGate_TeacherSeesDashboardNotAdminConsole(t *testing.T) {
	f := newFixture(t, "teacher", true)
	f.login(t)

	rec := f.get(t, "/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Amina K")
	assert.NotContains(t, rec.Body.String(), "Admin console")

	rec = f.get(t, "/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestGate_AdminSeesAdminConsole(t *testing.T) {
	f := newFixture(t, "admin", true)
	f.login(t)

	rec := f.get(t, "/admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin console")

	// Admin still has a regular dashboard too.
	rec = f.get(t, "/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_UnknownRoleFailsOpenToDashboard(t *testing.T) {
	f := newFixture(t, "mystery_role", true)
	f.login(t)

	rec := f.get(t, "/dashboard")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get(t, "/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestGate_AuthenticatedUserSkipsLoginScreen(t *testing.T) {
	f := newFixture(t, "admin", true)
	f.login(t)

	for _, path := range []string{"/login", "/register"} {
		rec := f.get(t, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/admin", rec.Header().Get("Location"), path)
	}
}

func TestRoot_Redirects(t *testing.T) {
	f := newFixture(t, "teacher", true)

	rec := f.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	f.login(t)
	rec = f.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

// ══════════════════════════════════════════════════════════════════════════════
// FULL LOGIN / LOGOUT FLOW
// ══════════════════════════════════════════════════════════════════════════════

func TestLoginFlow_FormToRedirect(t *testing.T) {
	f := newFixture(t, "admin", true)

	rec := f.postForm(t, "/login", url.Values{
		"email":    {"amina@example.com"},
		"password": {"secret"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	// Token persisted for the next start.
	token, has := f.store.token, f.store.has
	assert.True(t, has)
	assert.Equal(t, "test-token", token)
}

func TestLoginFlow_BadFormShowsInlineError(t *testing.T) {
	f := newFixture(t, "student", true)

	rec := f.postForm(t, "/login", url.Values{
		"email":    {"amina@example.com"},
		"password": {""},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "password is required")
	assert.Equal(t, session.StatusAnonymous, f.manager.Current().Status)
}

func TestLogoutFlow(t *testing.T) {
	f := newFixture(t, "student", true)
	f.login(t)

	rec := f.postForm(t, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, session.StatusAnonymous, f.manager.Current().Status)
	assert.False(t, f.store.has)

	// A later visit to a protected page stays locked out.
	rec = f.get(t, "/dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE PICTURES
// ══════════════════════════════════════════════════════════════════════════════

func TestUploadProfilePicture_PublishesProfileEvent(t *testing.T) {
	f := newFixture(t, "student", true)
	f.login(t)

	var seen []shared.EventType
	require.NoError(t, f.bus.Subscribe(shared.EventProfilePictureUploaded, func(e shared.Event) error {
		seen = append(seen, e.EventType())
		return nil
	}))

	rec := f.postFile(t, "/profile/picture", "file", "me.png", "not-really-a-png")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Contains(t, seen, shared.EventProfilePictureUploaded)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER-LEVEL SESSION RECHECK
// ══════════════════════════════════════════════════════════════════════════════

func TestDashboardHandler_SessionEndedAfterGate(t *testing.T) {
	// The gate admits a request on one snapshot; a concurrent logout can end
	// the session before the handler takes its own. The handler must redirect
	// instead of dereferencing a user that is no longer there.
	f := newFixture(t, "student", true)

	rec := httptest.NewRecorder()
	f.server.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestUploadHandler_SessionEndedAfterGate(t *testing.T) {
	f := newFixture(t, "student", true)

	rec := httptest.NewRecorder()
	f.server.handleUploadProfilePicture(rec, httptest.NewRequest(http.MethodPost, "/profile/picture", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

// ══════════════════════════════════════════════════════════════════════════════
// NAVIGATOR
// ══════════════════════════════════════════════════════════════════════════════

func TestNavigator_FollowsSessionEvents(t *testing.T) {
	f := newFixture(t, "admin", true)
	nav := f.server.deps.Navigator

	assert.Equal(t, "/login", nav.Current())

	f.login(t)
	assert.Equal(t, "/admin", nav.Current())

	f.manager.Logout(context.Background())
	assert.Equal(t, "/login", nav.Current())
}
