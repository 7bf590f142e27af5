package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens gorm against a sqlmock connection so PostCollection's real
// transaction code runs and every statement it issues is asserted in order.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, PreferSimpleProtocol: true}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestPostCollection_AppliesDetailToActiveLoan(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "collections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectQuery(`SELECT \* FROM "loans" WHERE customer_id = \$1 AND status = \$2 ORDER BY start_date DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "status", "paid_total"}).AddRow(7, 2, 1, 0))
	mock.ExpectExec(`UPDATE "loans" SET "paid_total"=paid_total`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "collection_details"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	header := &models.Collection{ReferenceCode: "ref-1", CollectorID: 9, CustomerID: 2, Total: 100, PaymentMethod: models.PaymentMethodCash}
	details := []models.CollectionDetail{{CustomerID: 2, Amount: 100, Status: models.DetailStatusPaid}}

	err := repo.PostCollection(context.Background(), header, details, nil)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), header.ID)
	assert.Equal(t, uint(42), details[0].CollectionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCollection_NotPaidWithAmountStillIncrements(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "collections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	mock.ExpectQuery(`SELECT \* FROM "loans" WHERE customer_id = \$1 AND status = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "status", "paid_total"}).AddRow(7, 2, 1, 50))
	mock.ExpectExec(`UPDATE "loans" SET "paid_total"=paid_total`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "collection_details"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	header := &models.Collection{ReferenceCode: "ref-2", CollectorID: 9, CustomerID: 2, Total: 60}
	details := []models.CollectionDetail{{CustomerID: 2, Amount: 60, Status: models.DetailStatusNotPaid}}

	err := repo.PostCollection(context.Background(), header, details, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCollection_NoActiveLoanMeansNoIncrement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCollectionRepository(db)

	// The loan lookup comes back empty; the only writes are the header and the
	// detail row. An unexpected UPDATE would fail the ordered expectations.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "collections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(44))
	mock.ExpectQuery(`SELECT \* FROM "loans" WHERE customer_id = \$1 AND status = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "collection_details"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	header := &models.Collection{ReferenceCode: "ref-3", CollectorID: 9, CustomerID: 3, Total: 40}
	details := []models.CollectionDetail{{CustomerID: 3, Amount: 40, Status: models.DetailStatusPaid}}

	err := repo.PostCollection(context.Background(), header, details, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCollection_ZeroAmountDetailSkipsLoanLookup(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "collections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(45))
	mock.ExpectQuery(`INSERT INTO "collection_details"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	header := &models.Collection{ReferenceCode: "ref-4", CollectorID: 9, CustomerID: 3, Total: 10}
	details := []models.CollectionDetail{{CustomerID: 3, Amount: 0, Status: models.DetailStatusNotPaid}}

	err := repo.PostCollection(context.Background(), header, details, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCollection_MidBatchFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "collections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(46))
	mock.ExpectQuery(`SELECT \* FROM "loans" WHERE customer_id = \$1 AND status = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "status", "paid_total"}).AddRow(7, 2, 1, 0))
	mock.ExpectExec(`UPDATE "loans" SET "paid_total"=paid_total`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "collection_details"`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	header := &models.Collection{ReferenceCode: "ref-5", CollectorID: 9, CustomerID: 2, Total: 100}
	details := []models.CollectionDetail{{CustomerID: 2, Amount: 100, Status: models.DetailStatusPaid}}

	err := repo.PostCollection(context.Background(), header, details, nil)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "the loan increment must be rolled back with the failed insert")
}

func TestPostCollection_SingleLoanPath(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCollectionRepository(db)

	// Whole total applied to the named loan, no detail rows created
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "collections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(47))
	mock.ExpectExec(`UPDATE "loans" SET "paid_total"=paid_total`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	loanID := uint(7)
	header := &models.Collection{ReferenceCode: "ref-6", CollectorID: 9, CustomerID: 2, Total: 500}

	err := repo.PostCollection(context.Background(), header, nil, &loanID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCollection_SingleLoanUnknownRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCollectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "collections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(48))
	mock.ExpectExec(`UPDATE "loans" SET "paid_total"=paid_total`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	loanID := uint(999)
	header := &models.Collection{ReferenceCode: "ref-7", CollectorID: 9, CustomerID: 2, Total: 500}

	err := repo.PostCollection(context.Background(), header, nil, &loanID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
