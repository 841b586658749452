package models

// Role is the authorization tag carried by an Identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AnonymousID is the reserved user id of the anonymous pseudo-user.
// The schema seeds a non-loginable "guest" row with this id so it is never handed out.
const AnonymousID int64 = 1

// AnonymousUsername is the username reported for the anonymous identity.
const AnonymousUsername = "guest"

// Identity is the resolved, request-scoped view of who is making a request.
type Identity struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	Anonymous bool   `json:"anonymous"`
}

// Anonymous returns the identity used when no login has occurred.
func Anonymous() Identity {
	return Identity{ID: AnonymousID, Username: AnonymousUsername, Role: RoleUser, Anonymous: true}
}

// IsAdmin reports whether the identity carries the admin role.
// The anonymous identity is never an admin.
func (i Identity) IsAdmin() bool {
	return !i.Anonymous && i.Role == RoleAdmin
}

// IsAuthenticated reports whether the identity belongs to a real, logged-in account.
func (i Identity) IsAuthenticated() bool {
	return !i.Anonymous
}
