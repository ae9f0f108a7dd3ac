package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID             string       `db:"id"`
	FirstName      string       `db:"first_name"`
	LastName       string       `db:"last_name"`
	Email          string       `db:"email"`
	PhoneNumber    string       `db:"phone_number"`
	HashedPassword string       `db:"hashed_password"`
	Role           string       `db:"role"`
	Status         string       `db:"status"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      sql.NullTime `db:"updated_at"`
}

// user roles
const (
	UserRoleOwner    = "owner"
	UserRoleDellala  = "dellala"
	UserRoleAdmin    = "admin"
	UserRoleOperator = "operator"
)

const (
	UserAccountActiveStatus = "active"
	UserAccountLockedStatus = "locked"
)

// IsAdmin reports whether the user may reach the /admin surface.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleOperator
}
