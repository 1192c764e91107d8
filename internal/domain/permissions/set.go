// File: backend/services/auth-service/internal/domain/permissions/set.go
package permissions

// Set is the immutable collection of grants held by one authenticated user.
// It is rebuilt wholesale from the identity provider's profile on every login
// or renewal and never mutated in place.
//
// Every check fails closed: a nil Set, an absent grant or a malformed lookup
// answers false rather than erroring. A single application-scope admin grant
// short-circuits every lower-scope check.
type Set struct {
	grants  []Grant
	byScope map[scopeKey]*Grant
}

type scopeKey struct {
	scope   Scope
	scopeID string
}

// NewSet builds a Set from already-typed grants. At most one grant per
// (scope, scopeID) pair is kept; later duplicates are dropped.
func NewSet(grants []Grant) *Set {
	s := &Set{byScope: make(map[scopeKey]*Grant, len(grants))}
	for _, g := range grants {
		key := scopeKey{g.Scope, g.ScopeID}
		if _, dup := s.byScope[key]; dup {
			continue
		}
		s.grants = append(s.grants, g)
		s.byScope[key] = &s.grants[len(s.grants)-1]
	}
	return s
}

// Grants returns a copy of the grant list, for serialization to API clients.
func (s *Set) Grants() []Grant {
	if s == nil {
		return nil
	}
	out := make([]Grant, len(s.grants))
	copy(out, s.grants)
	return out
}

func (s *Set) lookup(scope Scope, scopeID string) *Grant {
	if s == nil {
		return nil
	}
	return s.byScope[scopeKey{scope, scopeID}]
}

// IsApplicationAdmin reports whether an application-scope admin grant exists.
func (s *Set) IsApplicationAdmin() bool {
	g := s.lookup(ScopeApplication, "")
	return g != nil && g.Role == RoleAdmin
}

// CanAdministerAnOrganization reports whether any organization-scope grant
// has the admin role.
func (s *Set) CanAdministerAnOrganization() bool {
	if s == nil {
		return false
	}
	for i := range s.grants {
		if s.grants[i].Scope == ScopeOrganization && s.grants[i].Role == RoleAdmin {
			return true
		}
	}
	return false
}

// HasOrganization reports whether the user belongs to the organization in any
// role, or is an application admin.
func (s *Set) HasOrganization(organizationID string) bool {
	if s.IsApplicationAdmin() {
		return true
	}
	return s.lookup(ScopeOrganization, organizationID) != nil
}

// IsOrganizationAdmin reports whether the user administers the organization,
// or is an application admin.
func (s *Set) IsOrganizationAdmin(organizationID string) bool {
	if s.IsApplicationAdmin() {
		return true
	}
	g := s.lookup(ScopeOrganization, organizationID)
	return g != nil && g.Role == RoleAdmin
}

// IsProjectAdmin reports whether the user administers the project, directly
// or through the owning organization. organizationID may be empty when the
// project belongs to no organization.
func (s *Set) IsProjectAdmin(projectID, organizationID string) bool {
	if s.IsApplicationAdmin() {
		return true
	}
	if organizationID != "" && s.IsOrganizationAdmin(organizationID) {
		return true
	}
	g := s.lookup(ScopeProject, projectID)
	return g != nil && g.Role == RoleAdmin
}

// HasProject reports whether the user has any access to the project: admin at
// any covering scope, or a custom project grant.
func (s *Set) HasProject(projectID, organizationID string) bool {
	if s.IsProjectAdmin(projectID, organizationID) {
		return true
	}
	g := s.lookup(ScopeProject, projectID)
	return g != nil && g.Role == RoleCustom
}

// HasFeedPermission decides whether the user may perform action on the feed.
// Evaluation short-circuits in strict precedence order: application admin,
// organization admin, project admin, then the project's custom grant. A
// custom grant applies when it carries the action and its default feeds cover
// the feed; view-feed is implicitly granted on every custom project grant
// regardless of stored actions or feed targets.
func (s *Set) HasFeedPermission(organizationID, projectID, feedID string, action Action) bool {
	if s.IsApplicationAdmin() {
		return true
	}
	if organizationID != "" && s.IsOrganizationAdmin(organizationID) {
		return true
	}
	if s.IsProjectAdmin(projectID, organizationID) {
		return true
	}
	g := s.lookup(ScopeProject, projectID)
	if g == nil || g.Role != RoleCustom {
		return false
	}
	if action == ActionViewFeed {
		return true
	}
	return g.allows(action) && g.DefaultFeeds.Contains(feedID)
}

// ProjectPermissions returns the actions of the project's custom grant, or an
// empty set when the user holds no custom grant there (including when they
// are an admin, whose capabilities are implicit). Custom grants always carry
// view-feed as a baseline capability.
func (s *Set) ProjectPermissions(projectID string) map[Action]struct{} {
	actions := make(map[Action]struct{})
	g := s.lookup(ScopeProject, projectID)
	if g == nil || g.Role != RoleCustom {
		return actions
	}
	for a := range g.Actions {
		actions[a] = struct{}{}
	}
	actions[ActionViewFeed] = struct{}{}
	return actions
}
