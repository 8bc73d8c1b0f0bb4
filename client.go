package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// RegisterRequest payload
type RegisterRequest struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Role      UserRole `json:"role,omitempty"`
	Password  string   `json:"password"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Role, validation.By(validateOptionalRole)),
	)
}

// ValidatePhoneNumber accepts an empty value or a parseable, valid number
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return goerrors.New("must be a valid phone number", goerrors.CategoryValidation)
	}
	if !phonenumbers.IsValidNumber(num) {
		return goerrors.New("must be a valid phone number", goerrors.CategoryValidation)
	}
	return nil
}

func validateOptionalRole(value any) error {
	role, _ := value.(UserRole)
	if role == "" {
		return nil
	}
	if !role.IsValid() {
		return goerrors.New("must be a known role", goerrors.CategoryValidation)
	}
	return nil
}

// Client performs identity operations against the LMS REST API. It is the
// only component in the package that touches the network.
type Client struct {
	baseURL string
	http    *http.Client
	logger  Logger
}

var _ IdentityClient = (*Client)(nil)

type ClientOption func(*Client)

// WithHTTPClient overrides the transport (timeouts are its concern)
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithClientLogger overrides the default logger
func WithClientLogger(l Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a Client rooted at baseURL, e.g. "https://lms.hbiu.edu/api"
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Login exchanges an email/password pair for a token and profile
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	payload := LoginRequest{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return nil, ValidationError(err, nil)
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/login", "", payload)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if status >= http.StatusBadRequest {
		return nil, c.apiError(status, body)
	}

	return decodeAuthPayload(body)
}

// Register creates an account and returns the resulting session
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err, nil)
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return nil, err
	}

	if status >= http.StatusBadRequest {
		return nil, c.apiError(status, body)
	}

	return decodeAuthPayload(body)
}

// Me fetches the profile for the given credential
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if status >= http.StatusBadRequest {
		return nil, c.apiError(status, body)
	}

	return decodeUserPayload(body)
}

// UpdateMe merges and persists profile changes
func (c *Client) UpdateMe(ctx context.Context, token string, patch ProfilePatch) (*User, error) {
	body, status, err := c.do(ctx, http.MethodPut, "/auth/me", token, patch)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if status >= http.StatusBadRequest {
		return nil, c.apiError(status, body)
	}

	return decodeUserPayload(body)
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, int, error) {
	// Mock credentials must never reach a real backend. Surfacing them as an
	// authorization failure makes the manager purge the stale token.
	if token != "" && IsMockToken(token) {
		c.logger.Warn("refusing to send mock token to %s", c.baseURL)
		return nil, 0, ErrUnauthorized.Clone().WithMetadata(map[string]any{
			"reason": "mock token in real mode",
		})
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request payload")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("identity request failed: %v", err)
		return nil, 0, NetworkError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, NetworkError(err)
	}

	return raw, res.StatusCode, nil
}

func (c *Client) apiError(status int, body []byte) error {
	msg := decodeErrorMessage(body)

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return goerrors.New(msg, goerrors.CategoryValidation).
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest)
	default:
		c.logger.Error("identity endpoint returned %d: %s", status, msg)
		return goerrors.New(msg, goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithMetadata(map[string]any{"status": status})
	}
}

// authEnvelope enumerates the documented success shapes the backend has been
// observed to produce: {user, token} and {data: {user, token}}.
type authEnvelope struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
	Data  *struct {
		User  *User  `json:"user"`
		Token string `json:"token"`
	} `json:"data"`
}

// decodeAuthPayload is the explicit decoder replacing the old best-effort
// property chain. Anything outside the documented shapes fails with
// ErrUnexpectedPayload.
func decodeAuthPayload(body []byte) (*AuthResult, error) {
	var env authEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrUnexpectedPayload
	}

	switch {
	case env.User != nil && env.Token != "":
		return &AuthResult{User: env.User, Token: env.Token}, nil
	case env.Data != nil && env.Data.User != nil && env.Data.Token != "":
		return &AuthResult{User: env.Data.User, Token: env.Data.Token}, nil
	default:
		return nil, ErrUnexpectedPayload
	}
}

// userEnvelope enumerates the documented profile shapes: a bare user object,
// {user: ...}, and {data: ...}.
type userEnvelope struct {
	User *User           `json:"user"`
	Data json.RawMessage `json:"data"`
}

func decodeUserPayload(body []byte) (*User, error) {
	var env userEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ErrUnexpectedPayload
	}

	if env.User != nil {
		return env.User, nil
	}

	if len(env.Data) > 0 {
		user := &User{}
		if err := json.Unmarshal(env.Data, user); err == nil && userLooksPopulated(user) {
			return user, nil
		}
		return nil, ErrUnexpectedPayload
	}

	user := &User{}
	if err := json.Unmarshal(body, user); err == nil && userLooksPopulated(user) {
		return user, nil
	}

	return nil, ErrUnexpectedPayload
}

func userLooksPopulated(u *User) bool {
	return u != nil && (u.ID != uuid.Nil || u.Email != "")
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func decodeErrorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != nil && env.Error.Message != "" {
			return env.Error.Message
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return "identity request failed"
}
