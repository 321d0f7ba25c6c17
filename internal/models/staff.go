package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents a staff role in the admin console.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleOperator Role = "Operator"
	RoleStaff    Role = "Staff"
)

// AuthMethod is how a staff account signs in.
type AuthMethod string

const (
	AuthMethodPassword AuthMethod = "password"
	AuthMethodGoogle   AuthMethod = "google"
)

// Module keys gate access to admin areas.
const (
	ModuleDashboard     = "dashboard"
	ModuleUsers         = "users"
	ModuleAttendance    = "attendance"
	ModuleBreak         = "break"
	ModuleTeams         = "teams"
	ModuleNotifications = "notifications"
	ModuleSettings      = "settings"
	ModuleMessages      = "messages"
	ModuleHistory       = "history"
	ModulePayment       = "payment"
	ModuleVolunteers    = "volunteers"
)

var allModules = []string{
	ModuleDashboard, ModuleUsers, ModuleAttendance, ModuleBreak, ModuleTeams,
	ModuleNotifications, ModuleSettings, ModuleMessages, ModuleHistory,
	ModulePayment, ModuleVolunteers,
}

// AllModules returns every module key in display order.
func AllModules() []string {
	out := make([]string, len(allModules))
	copy(out, allModules)
	return out
}

// IsModule reports whether key is a known module key.
func IsModule(key string) bool {
	for _, m := range allModules {
		if m == key {
			return true
		}
	}
	return false
}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	for _, r := range []Role{RoleAdmin, RoleOperator, RoleStaff} {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

var (
	ErrAuthModeMixed   = errors.New("account must use exactly one authentication method")
	ErrUnknownRole     = errors.New("unknown role")
	ErrUnknownModule   = errors.New("unknown permission module")
	ErrMissingPassword = errors.New("password account requires identifier and password hash")
	ErrMissingGoogle   = errors.New("google account requires provider email")
)

// StaffAccount is a dashboard user.
type StaffAccount struct {
	ID           uuid.UUID  `json:"id"`
	AuthMethod   AuthMethod `json:"auth_method"`
	EmailOrPhone string     `json:"email_or_phone,omitempty"`
	PasswordHash string     `json:"-"`
	GoogleEmail  string     `json:"google_email,omitempty"`
	GoogleUID    string     `json:"google_uid,omitempty"`
	DisplayName  string     `json:"display_name,omitempty"`
	PhotoURL     string     `json:"photo_url,omitempty"`
	Role         Role       `json:"role"`
	Permissions  []string   `json:"permissions"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Validate enforces that exactly one authentication mode's fields are populated.
func (a *StaffAccount) Validate() error {
	if _, ok := ParseRole(string(a.Role)); !ok {
		return ErrUnknownRole
	}
	for _, p := range a.Permissions {
		if !IsModule(p) {
			return ErrUnknownModule
		}
	}
	hasPassword := a.EmailOrPhone != "" || a.PasswordHash != ""
	hasGoogle := a.GoogleEmail != "" || a.GoogleUID != ""
	switch a.AuthMethod {
	case AuthMethodPassword:
		if hasGoogle {
			return ErrAuthModeMixed
		}
		if a.EmailOrPhone == "" || a.PasswordHash == "" {
			return ErrMissingPassword
		}
	case AuthMethodGoogle:
		if hasPassword {
			return ErrAuthModeMixed
		}
		if a.GoogleEmail == "" {
			return ErrMissingGoogle
		}
	default:
		return ErrAuthModeMixed
	}
	return nil
}

// HasPermission reports whether the account may open module. Admins hold every module.
func (a *StaffAccount) HasPermission(module string) bool {
	return HasPermission(a.Role, a.Permissions, module)
}

// Identifier returns the login identity for display and logs.
func (a *StaffAccount) Identifier() string {
	if a.AuthMethod == AuthMethodGoogle {
		return a.GoogleEmail
	}
	return a.EmailOrPhone
}

// ErrGrantExceedsCaller is returned when a caller tries to hand out more than it holds.
var ErrGrantExceedsCaller = errors.New("cannot grant a higher role or permissions you do not hold")

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleOperator:
		return 2
	case RoleStaff:
		return 1
	}
	return 0
}

// CanGrant checks that a caller with callerRole and callerPerms may create an account or invitation
// carrying role and perms. Admins may grant anything; others only their own role or lower and
// modules they hold themselves.
func CanGrant(callerRole Role, callerPerms []string, role Role, perms []string) error {
	if callerRole == RoleAdmin {
		return nil
	}
	if callerRole.rank() == 0 || role.rank() > callerRole.rank() {
		return ErrGrantExceedsCaller
	}
	for _, p := range perms {
		if !HasPermission(callerRole, callerPerms, p) {
			return ErrGrantExceedsCaller
		}
	}
	return nil
}

// HasPermission is the shared capability check used by sessions and accounts.
func HasPermission(role Role, permissions []string, module string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, p := range permissions {
		if p == module {
			return true
		}
	}
	return false
}
