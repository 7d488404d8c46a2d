package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

func TestUpsertQueryPerStrategy(t *testing.T) {
	skip := upsertQuery(models.DuplicateSkip)
	assert.Contains(t, skip, "INSERT IGNORE INTO entity_records")
	assert.NotContains(t, skip, "ON DUPLICATE KEY UPDATE")

	overwrite := upsertQuery(models.DuplicateOverwrite)
	assert.Contains(t, overwrite, "ON DUPLICATE KEY UPDATE attributes = VALUES(attributes)")
	assert.NotContains(t, overwrite, "IGNORE")

	merge := upsertQuery(models.DuplicateMerge)
	assert.Contains(t, merge, "JSON_MERGE_PATCH(VALUES(attributes), attributes)")

	// unknown strategies fall back to the non-destructive skip
	assert.Equal(t, skip, upsertQuery("something-else"))
}

func sampleRecords(n int) []models.EntityRecord {
	records := make([]models.EntityRecord, n)
	for i := range records {
		records[i] = models.EntityRecord{
			CompanyID:   "co-1",
			EntityType:  "customers",
			ExternalKey: "ext",
			Attributes:  models.JSONMap{"name": "Acme"},
			ImportJobID: 7,
		}
	}
	return records
}

func TestBulkUpsertSkip(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRecordRepository(db)

	mock.ExpectExec("INSERT IGNORE INTO entity_records").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.BulkUpsert(context.Background(), sampleRecords(3), models.DuplicateSkip))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertOverwrite(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRecordRepository(db)

	mock.ExpectExec("INSERT INTO entity_records").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.BulkUpsert(context.Background(), sampleRecords(2), models.DuplicateOverwrite))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertEmptyIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRecordRepository(db)

	require.NoError(t, repo.BulkUpsert(context.Background(), nil, models.DuplicateSkip))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertOneMerge(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRecordRepository(db)

	mock.ExpectExec("INSERT INTO entity_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpsertOne(context.Background(), sampleRecords(1)[0], models.DuplicateMerge))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByImportJob(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRecordRepository(db)

	mock.ExpectExec("DELETE FROM entity_records WHERE company_id = \\? AND import_job_id = \\?").
		WithArgs("co-1", 7).
		WillReturnResult(sqlmock.NewResult(0, 20))

	removed, err := repo.DeleteByImportJob(context.Background(), "co-1", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(20), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByCompany(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntityRecordRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM entity_records").
		WithArgs("co-1", "customers").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))

	count, err := repo.CountByCompany(context.Background(), "co-1", "customers")
	require.NoError(t, err)
	assert.Equal(t, int64(120), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
