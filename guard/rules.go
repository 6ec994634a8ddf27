package guard

import (
	"github.com/tickora/goSession/credential"
)

// fenceRule keeps a role out of route subtrees it must not see. Rules are
// evaluated in order; the first rule whose predicate and prefix both match
// decides the redirect.
type fenceRule struct {
	match    func(*credential.Session) bool
	prefixes []string
	target   string
}

var fenceRules = []fenceRule{
	{
		match:    isRole(credential.RoleAttendee),
		prefixes: []string{OrganizationHomeRoute, AdminHomeRoute, OperatorHomeRoute, PromoterHomeRoute},
		target:   AttendeeHomeRoute,
	},
	{
		match:    isRole(credential.RoleOperator),
		prefixes: []string{OrganizationHomeRoute, AdminHomeRoute, PromoterHomeRoute},
		target:   OperatorHomeRoute,
	},
	{
		match:    isRole(credential.RoleAdmin),
		prefixes: []string{OrganizationHomeRoute, OperatorHomeRoute, PromoterHomeRoute},
		target:   AdminHomeRoute,
	},
	{
		match:    notRole(credential.RoleOrganizer),
		prefixes: []string{OrganizationHomeRoute},
		target:   OrganizationLoginRoute,
	},
	{
		match:    isRole(credential.RoleOrganizer),
		prefixes: []string{OperatorHomeRoute, AdminHomeRoute},
		target:   OrganizationHomeRoute,
	},
	{
		match:    isRole(credential.RolePromoter),
		prefixes: []string{OperatorHomeRoute, AdminHomeRoute},
		target:   PromoterHomeRoute,
	},
}

func isRole(role credential.Role) func(*credential.Session) bool {
	return func(s *credential.Session) bool {
		return s != nil && s.Role == role
	}
}

func notRole(role credential.Role) func(*credential.Session) bool {
	return func(s *credential.Session) bool {
		return s != nil && s.Role != role
	}
}

func fenceDecision(sess *credential.Session, path string) (string, bool) {
	for _, rule := range fenceRules {
		if !rule.match(sess) {
			continue
		}
		for _, prefix := range rule.prefixes {
			if underPrefix(path, prefix) {
				return rule.target, true
			}
		}
	}
	return "", false
}
