package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	auth "github.com/hbiu/lms-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineClient_LoginSeededIdentities(t *testing.T) {
	ctx := context.Background()
	client := auth.NewOfflineClient()

	tests := []struct {
		email string
		role  auth.UserRole
	}{
		{"student@hbiu.edu", auth.RoleStudent},
		{"lecturer@hbiu.edu", auth.RoleLecturer},
		{"admin@hbiu.edu", auth.RoleAdmin},
		{"collegeadmin@hbiu.edu", auth.RoleCollegeAdmin},
	}

	for _, tc := range tests {
		res, err := client.Login(ctx, tc.email, auth.DemoPassword)
		require.NoError(t, err, "email %q", tc.email)
		assert.Equal(t, tc.role, res.User.Role)
		assert.True(t, auth.IsMockToken(res.Token))
		assert.Contains(t, res.Token, string(tc.role))
	}
}

func TestOfflineClient_LoginIsCaseInsensitiveOnEmail(t *testing.T) {
	ctx := context.Background()
	client := auth.NewOfflineClient()

	res, err := client.Login(ctx, "Admin@HBIU.edu", auth.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, res.User.Role)
}

func TestOfflineClient_LoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	client := auth.NewOfflineClient()

	_, err := client.Login(ctx, "admin@hbiu.edu", "wrong")
	require.Error(t, err)
	assert.True(t, auth.IsInvalidCredentialsError(err))

	_, err = client.Login(ctx, "nobody@hbiu.edu", auth.DemoPassword)
	require.Error(t, err)
	assert.True(t, auth.IsInvalidCredentialsError(err))
}

func TestOfflineClient_TokensAreUniqueAcrossLogins(t *testing.T) {
	ctx := context.Background()

	nanos := time.Now().UnixNano()
	client := auth.NewOfflineClient(auth.WithOfflineClock(func() time.Time {
		nanos++
		return time.Unix(0, nanos)
	}))

	first, err := client.Login(ctx, "student@hbiu.edu", auth.DemoPassword)
	require.NoError(t, err)
	second, err := client.Login(ctx, "student@hbiu.edu", auth.DemoPassword)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)
}

func TestOfflineClient_RegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	client := auth.NewOfflineClient()

	res, err := client.Register(ctx, auth.RegisterRequest{
		FirstName: "Nia",
		LastName:  "Thompson",
		Email:     "nia@hbiu.edu",
		Password:  "supersecret1",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleStudent, res.User.Role, "registration defaults to student")
	assert.True(t, auth.IsMockToken(res.Token))

	again, err := client.Login(ctx, "nia@hbiu.edu", "supersecret1")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
}

func TestOfflineClient_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	client := auth.NewOfflineClient()

	_, err := client.Register(ctx, auth.RegisterRequest{
		FirstName: "Someone",
		LastName:  "Else",
		Email:     "student@hbiu.edu",
		Password:  "supersecret1",
	})
	require.Error(t, err)
	assert.True(t, auth.IsValidationError(err))
}

func TestOfflineClient_MeResolvesMintedTokens(t *testing.T) {
	ctx := context.Background()
	client := auth.NewOfflineClient()

	res, err := client.Login(ctx, "lecturer@hbiu.edu", auth.DemoPassword)
	require.NoError(t, err)

	user, err := client.Me(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "lecturer@hbiu.edu", user.Email)
}

func TestOfflineClient_MeRejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	client := auth.NewOfflineClient()

	_, err := client.Me(ctx, "real-jwt-token")
	require.Error(t, err)
	assert.True(t, auth.IsUnauthorizedError(err))

	_, err = client.Me(ctx, auth.MockTokenPrefix+"admin-999")
	require.Error(t, err)
	assert.True(t, auth.IsUnauthorizedError(err), "unknown mock tokens are rejected too")
}

func TestOfflineClient_UpdateMe(t *testing.T) {
	ctx := context.Background()
	client := auth.NewOfflineClient()

	res, err := client.Login(ctx, "student@hbiu.edu", auth.DemoPassword)
	require.NoError(t, err)

	email := "sarah.mitchell@hbiu.edu"
	updated, err := client.UpdateMe(ctx, res.Token, auth.ProfilePatch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)

	// the table is re-keyed under the new email
	again, err := client.Login(ctx, strings.ToUpper(email), auth.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, updated.ID, again.User.ID)

	// me keeps answering for the already minted token
	user, err := client.Me(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, email, user.Email)
}

func TestIsMockToken(t *testing.T) {
	assert.True(t, auth.IsMockToken(auth.MockTokenPrefix+"student-123"))
	assert.False(t, auth.IsMockToken("eyJhbGciOiJIUzI1NiJ9.payload.sig"))
	assert.False(t, auth.IsMockToken(""))
}
