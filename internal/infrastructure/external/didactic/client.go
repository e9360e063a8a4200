// Package didactic implements the IQ Didactic platform API client. This
// package handles all communication with the external service: the three
// auth operations the session core depends on, plus the admin console and
// profile upload calls the portal's screens are built on.
package didactic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iq-didactic/didactic-portal/internal/domain/identity"
	"github.com/iq-didactic/didactic-portal/internal/domain/shared"
	"github.com/iq-didactic/didactic-portal/pkg/circuitbreaker"
	"github.com/iq-didactic/didactic-portal/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the API client.
type ClientConfig struct {
	// BaseURL is the API base URL, without a trailing slash
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Retrier wraps idempotent non-auth reads. The three auth operations
	// are never retried: retry policy belongs to the caller, and the
	// session manager does not retry either.
	Retrier *retry.Retrier

	// Breaker guards the non-auth endpoints against a flapping backend
	Breaker *circuitbreaker.CircuitBreaker

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables request logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
		Retrier: retry.APIReadRetrier(),
		Breaker: circuitbreaker.APIBreaker(nil),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the IQ Didactic API client. It is stateless with respect to
// credentials: every call that needs authentication takes the bearer token
// as an argument, because the session manager owns the token.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Register creates an account. API rejections (duplicate email, bad input)
// surface as validation errors carrying the server's message verbatim.
func (c *Client) Register(ctx context.Context, reg identity.Registration) (*identity.User, error) {
	body := RegisterRequestDTO{
		Email:             reg.Email,
		Password:          reg.Password,
		FullName:          reg.FullName,
		PreferredLanguage: reg.PreferredLanguage,
		Phone:             reg.Phone,
		Country:           reg.Country,
		Occupation:        reg.Occupation,
	}

	var dto UserDTO
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", body, &dto); err != nil {
		return nil, c.mapError("Register", err)
	}
	return dto.ToDomain(), nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := LoginRequestDTO{Email: email, Password: password}

	var dto TokenDTO
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", body, &dto); err != nil {
		return "", c.mapError("Login", err)
	}
	if dto.AccessToken == "" {
		return "", shared.ErrAPIBadResponse
	}
	return dto.AccessToken, nil
}

// FetchCurrentUser validates the token and returns the identity it belongs
// to. An invalid or expired token surfaces as an authentication error.
func (c *Client) FetchCurrentUser(ctx context.Context, token string) (*identity.User, error) {
	var dto UserDTO
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", token, nil, &dto); err != nil {
		return nil, c.mapError("FetchCurrentUser", err)
	}
	return dto.ToDomain(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// UsersQuery filters GET /api/admin/users.
type UsersQuery struct {
	Role   string
	Search string
	Skip   int
	Limit  int
}

// OverviewStats fetches the admin dashboard counters.
func (c *Client) OverviewStats(ctx context.Context, token string) (*OverviewStatsDTO, error) {
	var dto OverviewStatsDTO
	err := c.doGuardedRead(ctx, "/api/admin/stats/overview", token, &dto)
	if err != nil {
		return nil, c.mapError("OverviewStats", err)
	}
	return &dto, nil
}

// ListUsers fetches user records for the admin console.
func (c *Client) ListUsers(ctx context.Context, token string, q UsersQuery) ([]*identity.User, error) {
	params := url.Values{}
	if q.Role != "" {
		params.Set("role", q.Role)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Skip > 0 {
		params.Set("skip", strconv.Itoa(q.Skip))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/api/admin/users"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var dtos []UserDTO
	if err := c.doGuardedRead(ctx, path, token, &dtos); err != nil {
		return nil, c.mapError("ListUsers", err)
	}

	users := make([]*identity.User, 0, len(dtos))
	for _, d := range dtos {
		users = append(users, d.ToDomain())
	}
	return users, nil
}

// DeleteUser removes a non-admin user.
func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	path := "/api/admin/users/" + url.PathEscape(userID)
	if err := c.doJSON(ctx, http.MethodDelete, path, token, nil, nil); err != nil {
		return c.mapError("DeleteUser", err)
	}
	return nil
}

// ResetUserPassword sets a new password for a non-admin user.
func (c *Client) ResetUserPassword(ctx context.Context, token, userID, newPassword string) (*PasswordResetDTO, error) {
	path := fmt.Sprintf("/api/admin/users/%s/reset-password?new_password=%s",
		url.PathEscape(userID), url.QueryEscape(newPassword))

	var dto PasswordResetDTO
	if err := c.doJSON(ctx, http.MethodPost, path, token, nil, &dto); err != nil {
		return nil, c.mapError("ResetUserPassword", err)
	}
	return &dto, nil
}

// GenerateUserPassword asks the server to mint and set a random password.
func (c *Client) GenerateUserPassword(ctx context.Context, token, userID string) (*PasswordResetDTO, error) {
	path := fmt.Sprintf("/api/admin/users/%s/generate-password", url.PathEscape(userID))

	var dto PasswordResetDTO
	if err := c.doJSON(ctx, http.MethodPost, path, token, nil, &dto); err != nil {
		return nil, c.mapError("GenerateUserPassword", err)
	}
	return &dto, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE UPLOAD OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// UploadProfilePicture uploads an image for the current user and returns its
// URL. Callers refetch the session afterwards to resync profile completion.
func (c *Client) UploadProfilePicture(ctx context.Context, token, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create multipart: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finish multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/upload/profile-picture", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var dto UploadResponseDTO
	if err := c.execute(req, &dto); err != nil {
		return "", c.mapError("UploadProfilePicture", err)
	}
	return dto.URL, nil
}

// DeleteProfilePicture removes the current user's picture.
func (c *Client) DeleteProfilePicture(ctx context.Context, token string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/upload/profile-picture", token, nil, nil); err != nil {
		return c.mapError("DeleteProfilePicture", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doGuardedRead performs an idempotent GET behind the retrier and circuit
// breaker when they are configured.
func (c *Client) doGuardedRead(ctx context.Context, path, token string, result interface{}) error {
	op := func(ctx context.Context) error {
		err := c.doJSON(ctx, http.MethodGet, path, token, nil, result)
		if err != nil && isTransport(err) {
			return retry.Retryable(err)
		}
		return err
	}

	if c.config.Breaker != nil {
		inner := op
		op = func(ctx context.Context) error {
			return c.config.Breaker.Execute(ctx, inner)
		}
	}
	if c.config.Retrier != nil {
		return c.config.Retrier.Do(ctx, op)
	}
	return op(ctx)
}

// doJSON performs a single JSON request, exactly one attempt.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.config.Debug {
		c.logger.Debug("didactic api request", "method", method, "path", path)
	}

	return c.execute(req, result)
}

// execute runs the request and decodes the response or error envelope.
func (c *Client) execute(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transportError{err: err}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIErrorDTO{StatusCode: resp.StatusCode}
		// Decode failure keeps the status code; detail stays empty.
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIBadResponse, err)
		}
	}
	return nil
}

// transportError marks a failure where no server verdict arrived.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// isTransport reports whether the error came from the transport rather than
// the server.
func isTransport(err error) bool {
	var te *transportError
	return errors.As(err, &te) || shared.IsNetwork(err)
}

// mapError translates wire-level failures into the domain error taxonomy,
// preserving the server's message verbatim.
func (c *Client) mapError(op string, err error) error {
	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		detail := apiErr.DetailString()
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return shared.NewDomainError("didactic", op, shared.ErrAuthentication, detail)
		case apiErr.StatusCode == http.StatusForbidden:
			return shared.NewDomainError("didactic", op, shared.ErrForbidden, detail)
		case apiErr.StatusCode == http.StatusNotFound:
			return shared.NewDomainError("didactic", op, shared.ErrNotFound, detail)
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return shared.NewDomainError("didactic", op, shared.ErrRateLimited, detail)
		case apiErr.StatusCode >= 500:
			return shared.NewDomainError("didactic", op, shared.ErrServiceUnavailable, detail)
		default:
			// 400, 409, 422: the user can correct these.
			return shared.NewDomainError("didactic", op, shared.ErrValidation, detail)
		}
	}

	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return shared.WrapError("didactic", op, shared.ErrServiceUnavailable, "api circuit open", err)
	}

	var te *transportError
	if errors.As(err, &te) {
		if errors.Is(te.err, context.DeadlineExceeded) {
			return shared.WrapError("didactic", op, shared.ErrTimeout, "request timed out", te.err)
		}
		return shared.WrapError("didactic", op, shared.ErrNetwork, "request failed", te.err)
	}

	return err
}
