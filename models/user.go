package models

// User represents an account in the system.
// It maps to the `users` table.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	IsAdmin      bool   `db:"is_admin" json:"is_admin"`
}

// Identity converts the record into the request-scoped view used for authorization.
func (u *User) Identity() Identity {
	role := RoleUser
	if u.IsAdmin {
		role = RoleAdmin
	}
	return Identity{ID: u.ID, Username: u.Username, Role: role}
}
