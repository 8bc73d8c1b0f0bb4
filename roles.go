package auth

// Canonical routes used by the role router and the route guard.
const (
	RouteLanding               = "/"
	RouteStudentDashboard      = "/student-dashboard"
	RouteLecturerDashboard     = "/lecturer-dashboard"
	RouteAdminDashboard        = "/admin-dashboard"
	RouteCollegeAdminDashboard = "/college-admin-dashboard"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleGuest, RoleStudent, RoleLecturer, RoleAdmin, RoleCollegeAdmin:
		return true
	default:
		return false
	}
}

// DashboardRoute maps the role to its default landing page. It is total:
// student, guest, and anything unknown land on the student dashboard, so the
// post-login redirect and the sidebar link can never disagree.
func (r UserRole) DashboardRoute() string {
	switch r {
	case RoleAdmin:
		return RouteAdminDashboard
	case RoleLecturer:
		return RouteLecturerDashboard
	case RoleCollegeAdmin:
		return RouteCollegeAdminDashboard
	default:
		return RouteStudentDashboard
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleGuest,
		RoleStudent,
		RoleLecturer,
		RoleAdmin,
		RoleCollegeAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// ResolveLandingRoute resolves the default route for a profile. A nil profile
// or an unrecognized role resolves to the student dashboard.
func ResolveLandingRoute(user *User) string {
	if user == nil {
		return RouteStudentDashboard
	}
	return user.Role.DashboardRoute()
}
