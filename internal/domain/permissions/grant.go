// File: backend/services/auth-service/internal/domain/permissions/grant.go
package permissions

// Scope is the level at which a grant applies.
type Scope string

const (
	ScopeApplication  Scope = "application"
	ScopeOrganization Scope = "organization"
	ScopeProject      Scope = "project"
	ScopeFeed         Scope = "feed"
)

// Role distinguishes full administrative grants from grants that enumerate
// specific actions.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCustom Role = "custom"
)

// Action is a capability tag attached to a custom grant.
type Action string

const (
	ActionManageFeed   Action = "manage-feed"
	ActionEditGTFS     Action = "edit-gtfs"
	ActionApproveGTFS  Action = "approve-gtfs"
	ActionEditAlert    Action = "edit-alert"
	ActionApproveAlert Action = "approve-alert"
	ActionViewFeed     Action = "view-feed"
)

// ParseAction validates a wire-format action tag.
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionManageFeed, ActionEditGTFS, ActionApproveGTFS,
		ActionEditAlert, ActionApproveAlert, ActionViewFeed:
		return a, true
	default:
		return "", false
	}
}

// wildcardFeedMarker is the wire sentinel meaning "every feed in the project".
// It never escapes deserialization; in-memory code only sees FeedTargets.
const wildcardFeedMarker = "*"

// FeedTargets says which feeds a project grant's actions apply to by default:
// either every feed under the project, or an explicit set of feed IDs.
type FeedTargets struct {
	All bool
	IDs map[string]struct{}
}

// Contains reports whether the targets cover the given feed.
func (t FeedTargets) Contains(feedID string) bool {
	if t.All {
		return true
	}
	_, ok := t.IDs[feedID]
	return ok
}

// Grant is one scope of authority held by a user. Actions and DefaultFeeds
// are only meaningful when Role is RoleCustom.
type Grant struct {
	Scope        Scope
	ScopeID      string
	Role         Role
	Actions      map[Action]struct{}
	DefaultFeeds FeedTargets
}

// allows reports whether the grant's custom actions include the action.
func (g *Grant) allows(action Action) bool {
	if g == nil {
		return false
	}
	_, ok := g.Actions[action]
	return ok
}
