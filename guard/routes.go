package guard

import "strings"

const (
	// LoginRoute is an exported constant or variable used by the session engine.
	LoginRoute = "/auth/login"
	// OrganizationLoginRoute is an exported constant or variable used by the session engine.
	OrganizationLoginRoute = "/organization/auth/login"
	// OperatorLoginRoute is an exported constant or variable used by the session engine.
	OperatorLoginRoute = "/operator/auth/login"

	// AttendeeHomeRoute is an exported constant or variable used by the session engine.
	AttendeeHomeRoute = "/"
	// AdminHomeRoute is an exported constant or variable used by the session engine.
	AdminHomeRoute = "/admin"
	// OrganizationHomeRoute is an exported constant or variable used by the session engine.
	OrganizationHomeRoute = "/organization"
	// OperatorHomeRoute is an exported constant or variable used by the session engine.
	OperatorHomeRoute = "/operator"
	// PromoterHomeRoute is an exported constant or variable used by the session engine.
	PromoterHomeRoute = "/promoter"

	// SignupStep2Route is an exported constant or variable used by the session engine.
	SignupStep2Route = "/auth/signup/step-2"
	// CheckoutSignupStep2Route is an exported constant or variable used by the session engine.
	CheckoutSignupStep2Route = "/checkout/signup/step-2"
)

// protectedPrefixes are the route subtrees reserved for non-attendee roles,
// in the order they are matched.
var protectedPrefixes = []string{
	OrganizationHomeRoute,
	OperatorHomeRoute,
	AdminHomeRoute,
	PromoterHomeRoute,
}

// underPrefix matches on path segment boundaries so /organizations does not
// count as /organization.
func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// ProtectedPrefix returns the role-gated prefix containing path, if any.
func ProtectedPrefix(path string) (string, bool) {
	for _, prefix := range protectedPrefixes {
		if underPrefix(path, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// LoginRouteFor returns the login destination appropriate for a path: the
// organization and operator subtrees have their own login screens, every
// other path falls back to the attendee login.
func LoginRouteFor(path string) string {
	switch {
	case underPrefix(path, OrganizationHomeRoute):
		return OrganizationLoginRoute
	case underPrefix(path, OperatorHomeRoute):
		return OperatorLoginRoute
	default:
		return LoginRoute
	}
}
