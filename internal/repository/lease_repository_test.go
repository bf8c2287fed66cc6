package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// Expectations are ordered: the lease row lock must be taken before the
// signature insert and the role read. Two cross-role submissions otherwise
// each see only their own row and recompute a single-signed status.
func TestLeaseRepository_AddSignature_LocksLeaseBeforeInsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "leases" WHERE .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(10, models.LeaseStatusOwnerSigned))
	mock.ExpectQuery(`INSERT INTO "lease_signatures"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`SELECT "role" FROM "lease_signatures"`).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).
			AddRow(models.SignerRoleOwner).
			AddRow(models.SignerRoleTenant))
	mock.ExpectExec(`UPDATE "leases" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, err := repo.AddSignature(context.Background(), &models.LeaseSignature{
		LeaseID:         10,
		Role:            models.SignerRoleTenant,
		SignerUserID:    1,
		SignerEmail:     "tenant@example.com",
		SignerName:      "Tina Tenant",
		ConsentGiven:    true,
		DocumentVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeaseStatusFinalized, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaseRepository_AddSignature_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeaseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "leases" WHERE .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(10, models.LeaseStatusTenantSigned))
	mock.ExpectQuery(`INSERT INTO "lease_signatures"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.AddSignature(context.Background(), &models.LeaseSignature{
		LeaseID:         10,
		Role:            models.SignerRoleTenant,
		SignerUserID:    1,
		SignerEmail:     "tenant@example.com",
		SignerName:      "Tina Tenant",
		ConsentGiven:    true,
		DocumentVersion: 1,
	})
	assert.ErrorIs(t, err, ErrDuplicateSignature)
	assert.NoError(t, mock.ExpectationsWereMet())
}
