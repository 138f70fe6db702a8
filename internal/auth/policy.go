package auth

import (
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
)

// OwnedResource is anything that belongs to a single identity.
type OwnedResource interface {
	OwnerID() int64
}

// CanView allows staff, or the owner of the resource.
func CanView(identity *coreuser.Identity, resource OwnedResource) bool {
	if identity == nil || resource == nil {
		return false
	}
	if _, err := RequireRole(identity, StaffRoles); err == nil {
		return true
	}
	return resource.OwnerID() == identity.ID
}

// CanRespond allows staff only.
func CanRespond(identity *coreuser.Identity) bool {
	_, err := RequireRole(identity, StaffRoles)
	return err == nil
}

// CanEditProfile allows admins anything. Everyone else may edit only their own
// profile, and only when the update carries no role field at all.
func CanEditProfile(identity *coreuser.Identity, targetUserID int64, roleChange *coreuser.Role) bool {
	if identity == nil {
		return false
	}
	if _, err := RequireRole(identity, AdminOnly); err == nil {
		return true
	}
	return identity.ID == targetUserID && roleChange == nil
}
