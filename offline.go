package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTokenPrefix is the reserved prefix carried by every credential minted
// from the offline table. Tokens with this prefix are never server-validated
// and must never be sent to a real backend.
const MockTokenPrefix = "mock-token-"

// DemoPassword is the shared password of the seeded demo identities
const DemoPassword = "password123"

// IsMockToken reports whether the credential was minted by the offline table
func IsMockToken(token string) bool {
	return strings.HasPrefix(token, MockTokenPrefix)
}

// DemoUsers returns the seeded demo identities, one per role
func DemoUsers() []*User {
	return []*User{
		{
			ID:        uuid.MustParse("5e5d2c2e-0001-4b60-9c6d-1f2a3b4c5d6e"),
			Role:      RoleStudent,
			FirstName: "Sarah",
			LastName:  "Mitchell",
			Email:     "student@hbiu.edu",
		},
		{
			ID:        uuid.MustParse("5e5d2c2e-0002-4b60-9c6d-1f2a3b4c5d6e"),
			Role:      RoleLecturer,
			FirstName: "David",
			LastName:  "Okafor",
			Email:     "lecturer@hbiu.edu",
		},
		{
			ID:        uuid.MustParse("5e5d2c2e-0003-4b60-9c6d-1f2a3b4c5d6e"),
			Role:      RoleAdmin,
			FirstName: "Grace",
			LastName:  "Hernandez",
			Email:     "admin@hbiu.edu",
		},
		{
			ID:        uuid.MustParse("5e5d2c2e-0004-4b60-9c6d-1f2a3b4c5d6e"),
			Role:      RoleCollegeAdmin,
			FirstName: "James",
			LastName:  "Park",
			Email:     "collegeadmin@hbiu.edu",
		},
	}
}

type offlineRecord struct {
	user     *User
	password string
}

// OfflineClient answers identity operations from a fixed in-memory table so
// demo and test environments never need a network. It satisfies the same
// IdentityClient contract as the HTTP client and is selected by
// configuration, not code changes.
type OfflineClient struct {
	mu      sync.RWMutex
	users   map[string]*offlineRecord // keyed by lowercased email
	byToken map[string]string         // token -> email
	now     func() time.Time
	logger  Logger
}

var _ IdentityClient = (*OfflineClient)(nil)

type OfflineOption func(*OfflineClient)

// WithOfflineClock injects a custom clock (useful for tests)
func WithOfflineClock(clock func() time.Time) OfflineOption {
	return func(c *OfflineClient) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithOfflineLogger overrides the default logger
func WithOfflineLogger(l Logger) OfflineOption {
	return func(c *OfflineClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewOfflineClient seeds the table with the four demo identities
func NewOfflineClient(opts ...OfflineOption) *OfflineClient {
	c := &OfflineClient{
		users:   map[string]*offlineRecord{},
		byToken: map[string]string{},
		now:     time.Now,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	for _, user := range DemoUsers() {
		c.users[strings.ToLower(user.Email)] = &offlineRecord{
			user:     user,
			password: DemoPassword,
		}
	}

	return c
}

// Login answers from the seeded table; unknown emails and wrong passwords
// fail exactly like a backend rejection would.
func (c *OfflineClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.users[strings.ToLower(email)]
	if !ok || record.password != password {
		return nil, ErrInvalidCredentials
	}

	token := c.mintToken(record.user.Role)
	c.byToken[token] = strings.ToLower(record.user.Email)

	return &AuthResult{User: record.user.Clone(), Token: token}, nil
}

// Register adds an identity to the in-memory table for the process lifetime
func (c *OfflineClient) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err, nil)
	}

	key := strings.ToLower(req.Email)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.users[key]; exists {
		return nil, ValidationError(ErrValidation, map[string]any{
			"email": "already registered",
		})
	}

	role := req.Role
	if role == "" {
		role = RoleStudent
	}

	user := &User{
		ID:        uuid.New(),
		Role:      role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}

	c.users[key] = &offlineRecord{user: user, password: req.Password}

	token := c.mintToken(role)
	c.byToken[token] = key

	return &AuthResult{User: user.Clone(), Token: token}, nil
}

// Me resolves a mock credential back to its profile
func (c *OfflineClient) Me(ctx context.Context, token string) (*User, error) {
	if !IsMockToken(token) {
		return nil, ErrUnauthorized
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	email, ok := c.byToken[token]
	if !ok {
		return nil, ErrUnauthorized
	}

	record, ok := c.users[email]
	if !ok {
		return nil, ErrUnauthorized
	}

	return record.user.Clone(), nil
}

// UpdateMe merges profile changes into the table
func (c *OfflineClient) UpdateMe(ctx context.Context, token string, patch ProfilePatch) (*User, error) {
	if !IsMockToken(token) {
		return nil, ErrUnauthorized
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	email, ok := c.byToken[token]
	if !ok {
		return nil, ErrUnauthorized
	}

	record, ok := c.users[email]
	if !ok {
		return nil, ErrUnauthorized
	}

	patch.Apply(record.user)

	// keep the email index in sync when the patch changes it
	if newKey := strings.ToLower(record.user.Email); newKey != email {
		delete(c.users, email)
		c.users[newKey] = record
		c.byToken[token] = newKey
	}

	return record.user.Clone(), nil
}

// mintToken produces "mock-token-<role>-<nanos>"; the timestamp keeps tokens
// unique across logins.
func (c *OfflineClient) mintToken(role UserRole) string {
	return fmt.Sprintf("%s%s-%d", MockTokenPrefix, role, c.now().UnixNano())
}
