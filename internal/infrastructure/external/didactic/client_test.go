package didactic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
)

func newTestClient(serverURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL: serverURL,
		Timeout: 5 * time.Second,
	})
}

const userJSON = `{
	"id": "u-1",
	"student_id": "IQD-2026-00042",
	"email": "amina@example.com",
	"full_name": "Amina K",
	"role": "teacher",
	"preferred_language": "fr",
	"email_verified": true,
	"profile_completion": 33,
	"created_at": "2026-01-15T10:30:00.123456"
}`

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "tok-abc-123", "token_type": "bearer"}`))
	}))
	defer srv.Close()

	token, err := newTestClient(srv.URL).Login(context.Background(), "amina@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc-123", token)
}

func TestClient_Login_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Incorrect email or password"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background(), "amina@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAuthentication)
	// Server wording passes through untouched.
	assert.Contains(t, err.Error(), "Incorrect email or password")
}

func TestClient_Login_ValidationDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": [{"loc": ["body", "email"], "msg": "value is not a valid email address", "type": "value_error"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background(), "not-an-email", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "value is not a valid email address")
}

func TestClient_FetchCurrentUser_SendsExactToken(t *testing.T) {
	// The token from login must reach the me endpoint byte for byte.
	const issued = "eyJ.header.payload-sig"

	var loginCalls, meCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			loginCalls++
			w.Write([]byte(`{"access_token": "` + issued + `", "token_type": "bearer"}`))
		case "/api/auth/me":
			meCalls++
			assert.Equal(t, "Bearer "+issued, r.Header.Get("Authorization"))
			w.Write([]byte(userJSON))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	token, err := client.Login(ctx, "amina@example.com", "secret")
	require.NoError(t, err)

	user, err := client.FetchCurrentUser(ctx, token)
	require.NoError(t, err)

	assert.Equal(t, 1, loginCalls)
	assert.Equal(t, 1, meCalls)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, identity.RoleTeacher, user.Role)
	assert.Equal(t, "teacher", user.RawRole)
}

func TestClient_FetchCurrentUser_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Could not validate credentials"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchCurrentUser(context.Background(), "stale-token")
	require.Error(t, err)
	assert.True(t, shared.IsAuthentication(err))
}

func TestClient_Register(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		// No bearer header on registration.
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(userJSON))
	}))
	defer srv.Close()

	reg := identity.Registration{
		Email:    "amina@example.com",
		Password: "secret123",
		FullName: "Amina K",
	}
	user, err := newTestClient(srv.URL).Register(context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", user.Email)
	assert.Equal(t, shared.StudentID("IQD-2026-00042"), user.StudentID)
}

func TestClient_Register_DuplicateEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Email already registered"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Register(context.Background(), identity.Registration{
		Email: "amina@example.com", Password: "x", FullName: "A",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "Email already registered")
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := newTestClient(srv.URL).Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.True(t, shared.IsNetwork(err))
}

func TestClient_Login_NoRetryOnFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "boom"}`))
	}))
	defer srv.Close()

	client := NewClient(DefaultClientConfig(srv.URL))
	_, err := client.Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth operations must attempt exactly once")
}

func TestClient_ListUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/users", r.URL.Path)
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		assert.Equal(t, "student", r.URL.Query().Get("role"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Write([]byte(`[` + userJSON + `]`))
	}))
	defer srv.Close()

	users, err := newTestClient(srv.URL).ListUsers(context.Background(), "admin-token", UsersQuery{
		Role:  "student",
		Limit: 25,
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u-1", users[0].ID)
}

func TestClient_ListUsers_RetriesTransportFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			// Kill the connection without a response.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig(srv.URL)
	cfg.Timeout = 5 * time.Second
	client := NewClient(cfg)

	users, err := client.ListUsers(context.Background(), "admin-token", UsersQuery{})
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, 3, calls)
}

func TestClient_OverviewStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/stats/overview", r.URL.Path)
		w.Write([]byte(`{
			"users": {"total": 120, "students": 100, "teachers": 15, "admins": 5},
			"courses": {"total": 12, "published": 9, "draft": 3, "enrollments": 340}
		}`))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL).OverviewStats(context.Background(), "admin-token")
	require.NoError(t, err)
	assert.Equal(t, 120, stats.Users.Total)
	assert.Equal(t, 340, stats.Courses.Enrollments)
}

func TestClient_DeleteUser_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "Cannot delete admin users"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).DeleteUser(context.Background(), "admin-token", "u-9")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Contains(t, err.Error(), "Cannot delete admin users")
}

func TestClient_UploadProfilePicture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/upload/profile-picture", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "avatar.png", header.Filename)

		w.Write([]byte(`{"url": "/uploads/profile_pictures/u-1.png", "message": "Profile picture uploaded successfully"}`))
	}))
	defer srv.Close()

	url, err := newTestClient(srv.URL).UploadProfilePicture(
		context.Background(), "tok", "avatar.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/profile_pictures/u-1.png", url)
}

func TestParseAPITime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"rfc3339", "2026-01-15T10:30:00Z", false},
		{"fastapi naive micros", "2026-01-15T10:30:00.123456", false},
		{"fastapi naive seconds", "2026-01-15T10:30:00", false},
		{"empty", "", true},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAPITime(tt.input)
			assert.Equal(t, tt.zero, got.IsZero())
		})
	}
}
