package domain

// Role gates destructive operations. Only the two values below exist.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleWarehouseStaff Role = "warehouse_staff"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleWarehouseStaff
}

// UserProfile is the staff profile document, keyed by the auth provider's
// account UID.
//
// InitialPassword echoes the account's first password in plaintext. The
// legacy system stored and displayed it to admins; that is a known security
// defect, so it is only populated when the operator explicitly enables
// SECURITY_STORE_INITIAL_PASSWORD.
type UserProfile struct {
	UID             string
	Email           string
	Name            string
	Role            Role
	InitialPassword string
}

// IsAdmin reports whether the profile may perform destructive operations.
func (u UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}
