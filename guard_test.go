package auth_test

import (
	"testing"

	auth "github.com/hbiu/lms-auth"
	"github.com/stretchr/testify/assert"
)

func authedSnapshot(role auth.UserRole) auth.Snapshot {
	user := testUser()
	user.Role = role
	return auth.Snapshot{
		State: auth.StateAuthenticated,
		User:  user,
		Token: "real-token-abc",
	}
}

func TestRouteGuard_WaitsWhileLoading(t *testing.T) {
	guard := auth.NewRouteGuard()

	for _, state := range []auth.SessionState{auth.StateInit, auth.StateValidating} {
		verdict := guard.Evaluate(auth.Snapshot{State: state}, auth.RoleAdmin)
		assert.Equal(t, auth.GuardWait, verdict.Action, "state %q must never redirect", state)
		assert.Empty(t, verdict.RedirectTo)
	}
}

func TestRouteGuard_RedirectsAnonymousVisitors(t *testing.T) {
	guard := auth.NewRouteGuard()

	verdict := guard.Evaluate(auth.Snapshot{State: auth.StateAnonymous})
	assert.Equal(t, auth.GuardRedirect, verdict.Action)
	assert.Equal(t, auth.RouteLanding, verdict.RedirectTo)
}

func TestRouteGuard_CustomLandingRoute(t *testing.T) {
	guard := auth.NewRouteGuard().WithLandingRoute("/welcome")

	verdict := guard.Evaluate(auth.Snapshot{State: auth.StateAnonymous})
	assert.Equal(t, auth.GuardRedirect, verdict.Action)
	assert.Equal(t, "/welcome", verdict.RedirectTo)
}

func TestRouteGuard_EmptyAllowListAdmitsAnyAuthenticated(t *testing.T) {
	guard := auth.NewRouteGuard()

	for _, role := range auth.GetAllRoles() {
		verdict := guard.Evaluate(authedSnapshot(role))
		assert.Equal(t, auth.GuardAllow, verdict.Action, "role %q", role)
	}
}

func TestRouteGuard_DeniesWithoutRedirect(t *testing.T) {
	guard := auth.NewRouteGuard()

	verdict := guard.Evaluate(authedSnapshot(auth.RoleStudent), auth.RoleAdmin)
	assert.Equal(t, auth.GuardDeny, verdict.Action)
	assert.Empty(t, verdict.RedirectTo, "entitlement failures render in place")
}

func TestRouteGuard_AllowsListedRole(t *testing.T) {
	guard := auth.NewRouteGuard()

	verdict := guard.Evaluate(authedSnapshot(auth.RoleLecturer), auth.RoleAdmin, auth.RoleLecturer)
	assert.Equal(t, auth.GuardAllow, verdict.Action)
}

func TestRouteGuard_TokenWithoutProfileIsAnonymous(t *testing.T) {
	guard := auth.NewRouteGuard()

	verdict := guard.Evaluate(auth.Snapshot{
		State: auth.StateAuthenticated,
		Token: "real-token-abc",
	})
	assert.Equal(t, auth.GuardRedirect, verdict.Action)
}

func TestGuardAction_String(t *testing.T) {
	assert.Equal(t, "wait", auth.GuardWait.String())
	assert.Equal(t, "redirect", auth.GuardRedirect.String())
	assert.Equal(t, "deny", auth.GuardDeny.String())
	assert.Equal(t, "allow", auth.GuardAllow.String())
}
