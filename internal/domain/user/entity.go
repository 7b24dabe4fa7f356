package user

import (
	"slices"
	"time"
)

type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"   // Submits absence requests
	RoleSupervisor Role = "SUPERVISOR" // First approval stage, direct reports only
	RoleManager    Role = "MANAGER"    // Second approval stage
	RoleHR         Role = "HR"         // Final approval stage
	RolePayroll    Role = "PAYROLL"    // Notified of fully approved requests
)

// AllRoles returns every role in reporting order
func AllRoles() []Role {
	return []Role{RoleEmployee, RoleSupervisor, RoleManager, RoleHR, RolePayroll}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return slices.Contains(AllRoles(), r)
}

type User struct {
	ID           string
	Email        string
	PasswordHash *string
	Name         string
	Role         Role
	Department   *string
	SupervisorID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSupervisor reports whether the user reports to someone
func (u User) HasSupervisor() bool {
	return u.SupervisorID != nil && *u.SupervisorID != ""
}

// Actor is the authenticated caller as supplied by the session provider.
// Its role is trusted as-is for authorization.
type Actor struct {
	ID         string
	Email      string
	Name       string
	Role       Role
	Department *string
}

// Authenticated reports whether the actor carries an identity and a known role
func (a Actor) Authenticated() bool {
	return a.ID != "" && a.Role.Valid()
}

// CanViewAll reports whether the role sees requests across all employees
func (a Actor) CanViewAll() bool {
	return a.Role == RoleManager || a.Role == RoleHR || a.Role == RolePayroll
}

// ActorFromUser builds an actor from a stored user
func ActorFromUser(u User) Actor {
	return Actor{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Department: u.Department,
	}
}
