package auth_test

import (
	"context"

	auth "github.com/hbiu/lms-auth"
	"github.com/stretchr/testify/mock"
)

// MockIdentityClient implements auth.IdentityClient
type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) Login(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	args := m.Called(ctx, email, password)
	var res *auth.AuthResult
	if v := args.Get(0); v != nil {
		res = v.(*auth.AuthResult)
	}
	return res, args.Error(1)
}

func (m *MockIdentityClient) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResult, error) {
	args := m.Called(ctx, req)
	var res *auth.AuthResult
	if v := args.Get(0); v != nil {
		res = v.(*auth.AuthResult)
	}
	return res, args.Error(1)
}

func (m *MockIdentityClient) Me(ctx context.Context, token string) (*auth.User, error) {
	args := m.Called(ctx, token)
	var user *auth.User
	if v := args.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockIdentityClient) UpdateMe(ctx context.Context, token string, patch auth.ProfilePatch) (*auth.User, error) {
	args := m.Called(ctx, token, patch)
	var user *auth.User
	if v := args.Get(0); v != nil {
		user = v.(*auth.User)
	}
	return user, args.Error(1)
}

// MockSessionStore implements auth.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, token string, user *auth.User) error {
	args := m.Called(ctx, token, user)
	return args.Error(0)
}

func (m *MockSessionStore) Load(ctx context.Context) (string, *auth.User, error) {
	args := m.Called(ctx)
	var user *auth.User
	if v := args.Get(1); v != nil {
		user = v.(*auth.User)
	}
	return args.String(0), user, args.Error(2)
}

func (m *MockSessionStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockLogger implements auth.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) { m.Called(format, args) }
func (m *MockLogger) Info(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Warn(format string, args ...any)  { m.Called(format, args) }
func (m *MockLogger) Error(format string, args ...any) { m.Called(format, args) }
