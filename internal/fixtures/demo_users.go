package fixtures

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
)

// DefaultDemoPassword is shared by every demo account
const DefaultDemoPassword = "password123"

func strPtr(s string) *string { return &s }

// ==========================================
// DEMO USERS
// ==========================================

// DemoUser describes one account of the demo reporting tree.
// SupervisorEmail must reference an account listed earlier.
type DemoUser struct {
	Email           string
	Name            string
	Role            user.Role
	Department      *string
	SupervisorEmail string
}

// GetDemoUsers returns the demo reporting tree in insertion order
func GetDemoUsers() []DemoUser {
	return []DemoUser{
		{Email: "manager@company.com", Name: "Mark Manager", Role: user.RoleManager, Department: strPtr("Executive")},
		{Email: "supervisor@company.com", Name: "Sam Supervisor", Role: user.RoleSupervisor, Department: strPtr("Sales"), SupervisorEmail: "manager@company.com"},
		{Email: "hr@company.com", Name: "Holly HR", Role: user.RoleHR, Department: strPtr("HR"), SupervisorEmail: "manager@company.com"},
		{Email: "payroll@company.com", Name: "Peter Payroll", Role: user.RolePayroll, Department: strPtr("Finance"), SupervisorEmail: "manager@company.com"},
		{Email: "employee@company.com", Name: "Emma Employee", Role: user.RoleEmployee, Department: strPtr("Sales"), SupervisorEmail: "supervisor@company.com"},
	}
}

// ==========================================
// SEEDING
// ==========================================

// SeedDemoUsers inserts the demo accounts inside one transaction.
// Accounts whose email already exists are kept as they are, so seeding can be repeated.
func SeedDemoUsers(ctx context.Context, users user.UserRepository, tx absence.TxManager, password string) ([]user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo password: %w", err)
	}
	hashed := string(hash)

	var seeded []user.User
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		seeded = seeded[:0]
		byEmail := make(map[string]string)

		for _, demo := range GetDemoUsers() {
			existing, err := users.GetByEmail(ctx, demo.Email)
			if err == nil {
				byEmail[demo.Email] = existing.ID
				seeded = append(seeded, existing)
				continue
			}
			if !errors.Is(err, user.ErrUserNotFound) {
				return fmt.Errorf("failed to look up %s: %w", demo.Email, err)
			}

			newUser := user.User{
				Email:        demo.Email,
				PasswordHash: &hashed,
				Name:         demo.Name,
				Role:         demo.Role,
				Department:   demo.Department,
			}
			if demo.SupervisorEmail != "" {
				supervisorID, ok := byEmail[demo.SupervisorEmail]
				if !ok {
					return fmt.Errorf("supervisor %s of %s is not seeded before it", demo.SupervisorEmail, demo.Email)
				}
				newUser.SupervisorID = &supervisorID
			}

			created, err := users.Create(ctx, newUser)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", demo.Email, err)
			}
			byEmail[demo.Email] = created.ID
			seeded = append(seeded, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return seeded, nil
}
