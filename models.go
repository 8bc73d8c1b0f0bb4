package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role within the LMS
type UserRole string

const (
	// RoleGuest is the fallback for a missing or unknown role
	RoleGuest UserRole = "guest"
	// RoleStudent is the default role for new registrations
	RoleStudent UserRole = "student"
	// RoleLecturer can manage modules, assignments, and quizzes
	RoleLecturer UserRole = "lecturer"
	// RoleAdmin manages the whole installation
	RoleAdmin UserRole = "admin"
	// RoleCollegeAdmin manages a single college
	RoleCollegeAdmin UserRole = "college_admin"
)

// User is the LMS identity record. JSON tags follow the REST contract of the
// identity API; bun tags are used by the reference server's users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"firstName,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"lastName,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// EnsureRole defaults a missing or unknown role to guest rather than failing
func (u *User) EnsureRole() {
	if u == nil {
		return
	}
	if _, ok := ParseRole(string(u.Role)); !ok {
		u.Role = RoleGuest
	}
}

// DisplayName combines first and last name, falling back to the email local part
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}

	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}

	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}

	return u.Email
}

// Clone returns a copy so callers cannot mutate shared session state
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// ProfilePatch carries partial profile updates for PUT /auth/me. Nil fields
// are left untouched.
type ProfilePatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Apply merges the patch into the given user record
func (p ProfilePatch) Apply(u *User) {
	if u == nil {
		return
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
}

// IsEmpty reports whether the patch carries no changes
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil
}
