package auth

// GuardAction tells the host shell what to do with a protected view
type GuardAction int

const (
	// GuardWait means rehydration is in flight: render a neutral loading
	// indicator and never redirect, or authenticated visitors would flicker
	// through the landing page on every reload.
	GuardWait GuardAction = iota
	// GuardRedirect means the visitor is anonymous: send them to the landing
	// route.
	GuardRedirect
	// GuardDeny means the visitor is known but not entitled: render an
	// access-denied view in place, without redirecting.
	GuardDeny
	// GuardAllow means render the protected content
	GuardAllow
)

func (a GuardAction) String() string {
	switch a {
	case GuardWait:
		return "wait"
	case GuardRedirect:
		return "redirect"
	case GuardDeny:
		return "deny"
	case GuardAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of evaluating a protected view
type Verdict struct {
	Action     GuardAction
	RedirectTo string
}

// RouteGuard gates access to a view based on session state and an optional
// allow-list of roles.
type RouteGuard struct {
	landing string
}

// NewRouteGuard returns a guard that redirects anonymous visitors to the
// public landing route.
func NewRouteGuard() *RouteGuard {
	return &RouteGuard{landing: RouteLanding}
}

// WithLandingRoute overrides the redirect target for anonymous visitors
func (g *RouteGuard) WithLandingRoute(route string) *RouteGuard {
	if route != "" {
		g.landing = route
	}
	return g
}

// Evaluate decides what to do with a protected view. With no allow-list any
// authenticated visitor is entitled; with one, the session role must be a
// member.
func (g *RouteGuard) Evaluate(s Snapshot, allowedRoles ...UserRole) Verdict {
	if s.IsLoading() {
		return Verdict{Action: GuardWait}
	}

	if !s.IsAuthenticated() {
		return Verdict{Action: GuardRedirect, RedirectTo: g.landing}
	}

	if len(allowedRoles) == 0 {
		return Verdict{Action: GuardAllow}
	}

	role := s.Role()
	for _, allowed := range allowedRoles {
		if allowed == role {
			return Verdict{Action: GuardAllow}
		}
	}

	return Verdict{Action: GuardDeny}
}
