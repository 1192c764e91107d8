// File: backend/services/auth-service/internal/domain/permissions/parse.go
package permissions

import (
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
)

// FromProfile builds the user's permission set from a fetched identity
// provider profile. A nil profile yields an empty set.
func FromProfile(profile *models.Profile) *Set {
	if profile == nil {
		return NewSet(nil)
	}
	return ParseGrants(profile.AppMetadata.DataManager.Grants)
}

// ParseGrants converts wire-format grant entries into a permission set.
// Malformed entries are dropped rather than surfaced as errors: an entry with
// an unknown scope or role, or a scoped entry with no ID, grants nothing.
func ParseGrants(raw []models.RawGrant) *Set {
	grants := make([]Grant, 0, len(raw))
	for _, r := range raw {
		g, ok := parseGrant(r)
		if !ok {
			continue
		}
		grants = append(grants, g)
	}
	return NewSet(grants)
}

func parseGrant(r models.RawGrant) (Grant, bool) {
	g := Grant{ScopeID: r.ID}

	switch Scope(r.Scope) {
	case ScopeApplication:
		g.Scope = ScopeApplication
		g.ScopeID = "" // application scope carries no ID
	case ScopeOrganization, ScopeProject, ScopeFeed:
		if r.ID == "" {
			return Grant{}, false
		}
		g.Scope = Scope(r.Scope)
	default:
		return Grant{}, false
	}

	switch Role(r.Role) {
	case RoleAdmin:
		g.Role = RoleAdmin
		return g, true
	case RoleCustom:
		g.Role = RoleCustom
	default:
		return Grant{}, false
	}

	g.Actions = make(map[Action]struct{}, len(r.Actions))
	for _, a := range r.Actions {
		if a == "" {
			continue
		}
		g.Actions[Action(a)] = struct{}{}
	}
	g.DefaultFeeds = parseFeedTargets(r.DefaultFeeds)
	return g, true
}

func parseFeedTargets(feeds []string) FeedTargets {
	t := FeedTargets{IDs: make(map[string]struct{}, len(feeds))}
	for _, f := range feeds {
		switch f {
		case wildcardFeedMarker:
			t.All = true
		case "":
		default:
			t.IDs[f] = struct{}{}
		}
	}
	return t
}
