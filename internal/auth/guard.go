package auth

import (
	"sort"
	"strings"

	"github.com/frahmantamala/helpdesk/internal"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
)

// RoleSet is the set of roles an operation accepts.
type RoleSet map[coreuser.Role]struct{}

func NewRoleSet(roles ...coreuser.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(role coreuser.Role) bool {
	_, ok := s[role]
	return ok
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(s))
	for r := range s {
		names = append(names, string(r))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

var (
	AdminOnly  = NewRoleSet(coreuser.RoleAdmin)
	StaffRoles = NewRoleSet(coreuser.RoleOperator, coreuser.RoleAdmin)
	AnyRole    = NewRoleSet(coreuser.RoleUser, coreuser.RoleOperator, coreuser.RoleAdmin)
)

// RequireRole returns the identity's role when it belongs to allowed, ErrForbidden otherwise.
func RequireRole(identity *coreuser.Identity, allowed RoleSet) (coreuser.Role, error) {
	if identity == nil || !allowed.Contains(identity.Role) {
		return "", internal.ErrForbidden
	}
	return identity.Role, nil
}
