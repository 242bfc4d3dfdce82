package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is a user's access level.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

var rolePriorities = map[Role]int{
	RoleAdmin:    30,
	RoleManager:  20,
	RoleEmployee: 10,
}

// Roles lists every assignable role.
var Roles = []Role{RoleAdmin, RoleManager, RoleEmployee}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

// Priority orders roles; higher values carry more privileges.
func (r Role) Priority() int {
	return rolePriorities[r]
}

// AtLeast reports whether r is as privileged as other.
func (r Role) AtLeast(other Role) bool {
	return r.Priority() >= other.Priority() && r.Valid()
}

// User is an account that logs time, requests leave and, depending on its role,
// administers the rest of the system.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	Department   string     `json:"department,omitempty"`
	IsActive     bool       `json:"is_active"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// IsManager is true for managers and admins.
func (u *User) IsManager() bool {
	return u.Role.AtLeast(RoleManager)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
