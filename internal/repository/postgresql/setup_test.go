package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/database"
	"github.com/cmlabs-hris/absence-workflow/internal/repository/postgresql"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and empties every table.
// Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolConfig{MaxConns: 20, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	truncateAllTables(t, db)
	return db
}

func truncateAllTables(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	for _, table := range []string{"notifications", "approval_history", "absence_requests", "users"} {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, table)
	}

	require.NoError(t, tx.Commit(ctx))
}

func createTestUser(t *testing.T, repo user.UserRepository, email string, role user.Role, supervisorID *string) user.User {
	t.Helper()
	created, err := repo.Create(context.Background(), user.User{
		Email:        email,
		Name:         email,
		Role:         role,
		SupervisorID: supervisorID,
	})
	require.NoError(t, err)
	return created
}

func createTestRequest(t *testing.T, repo absence.RequestRepository, employeeID, start, end string) absence.AbsenceRequest {
	t.Helper()
	startDate, err := time.Parse(time.DateOnly, start)
	require.NoError(t, err)
	endDate, err := time.Parse(time.DateOnly, end)
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), absence.AbsenceRequest{
		EmployeeID:  employeeID,
		RequestType: "vacation",
		StartDate:   startDate,
		EndDate:     endDate,
		TotalDays:   endDate.Sub(startDate).Hours()/24 + 1,
		Reason:      "Trip",
		Status:      absence.StatusPending,
		Stage:       absence.StageSupervisor,
	})
	require.NoError(t, err)
	return created
}

type repos struct {
	users    user.UserRepository
	requests absence.RequestRepository
	tx       absence.TxManager
}

func newRepos(db *database.DB) repos {
	return repos{
		users:    postgresql.NewUserRepository(db),
		requests: postgresql.NewAbsenceRequestRepository(db),
		tx:       postgresql.NewTxManager(db),
	}
}
