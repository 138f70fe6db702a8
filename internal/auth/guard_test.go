package auth

import (
	"github.com/frahmantamala/helpdesk/internal"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var allRoles = []coreuser.Role{coreuser.RoleUser, coreuser.RoleOperator, coreuser.RoleAdmin}

// every subset of allRoles, including the empty set
func allRoleSets() []RoleSet {
	var sets []RoleSet
	for mask := 0; mask < 1<<len(allRoles); mask++ {
		var roles []coreuser.Role
		for i, r := range allRoles {
			if mask&(1<<i) != 0 {
				roles = append(roles, r)
			}
		}
		sets = append(sets, NewRoleSet(roles...))
	}
	return sets
}

var _ = ginkgo.Describe("RequireRole", func() {
	ginkgo.It("admits exactly the members of every role set", func() {
		for _, set := range allRoleSets() {
			for _, role := range allRoles {
				identity := &coreuser.Identity{ID: 7, Role: role, IsActive: true}
				got, err := RequireRole(identity, set)
				if set.Contains(role) {
					gomega.Expect(err).ToNot(gomega.HaveOccurred(), "role %s in {%s}", role, set)
					gomega.Expect(got).To(gomega.Equal(role))
				} else {
					gomega.Expect(err).To(gomega.MatchError(internal.ErrForbidden), "role %s in {%s}", role, set)
				}
			}
		}
	})

	ginkgo.It("forbids a nil identity", func() {
		_, err := RequireRole(nil, AnyRole)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrForbidden))
	})

	ginkgo.It("forbids an unknown role", func() {
		_, err := RequireRole(&coreuser.Identity{Role: "superuser"}, AnyRole)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrForbidden))
	})

	ginkgo.DescribeTable("the predefined role sets",
		func(set RoleSet, role coreuser.Role, allowed bool) {
			_, err := RequireRole(&coreuser.Identity{Role: role}, set)
			gomega.Expect(err == nil).To(gomega.Equal(allowed))
		},
		ginkgo.Entry("admin only / user", AdminOnly, coreuser.RoleUser, false),
		ginkgo.Entry("admin only / operator", AdminOnly, coreuser.RoleOperator, false),
		ginkgo.Entry("admin only / admin", AdminOnly, coreuser.RoleAdmin, true),
		ginkgo.Entry("staff / user", StaffRoles, coreuser.RoleUser, false),
		ginkgo.Entry("staff / operator", StaffRoles, coreuser.RoleOperator, true),
		ginkgo.Entry("staff / admin", StaffRoles, coreuser.RoleAdmin, true),
		ginkgo.Entry("any / user", AnyRole, coreuser.RoleUser, true),
		ginkgo.Entry("any / operator", AnyRole, coreuser.RoleOperator, true),
		ginkgo.Entry("any / admin", AnyRole, coreuser.RoleAdmin, true),
	)

	ginkgo.It("renders role sets in a stable order", func() {
		gomega.Expect(StaffRoles.String()).To(gomega.Equal("admin,operator"))
	})
})
