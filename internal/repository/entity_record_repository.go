package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

// EntityRecordRepository is the tenant-scoped store for canonical business
// records. Duplicate handling is resolved atomically at the store layer by
// upserting on the natural key UNIQUE(company_id, entity_type, external_key),
// so two imports racing on the same logical record cannot both insert it.
type EntityRecordRepository struct {
	db *sqlx.DB
}

func NewEntityRecordRepository(db *sqlx.DB) *EntityRecordRepository {
	return &EntityRecordRepository{db: db}
}

// Upsert chunk size keeps below the MySQL placeholder limit; each record
// carries 5 placeholders.
const recordChunkSize = 5000

func upsertQuery(strategy string) string {
	base := `INSERT %s INTO entity_records (company_id, entity_type, external_key, attributes, import_job_id)
	         VALUES (:company_id, :entity_type, :external_key, :attributes, :import_job_id)`

	switch strategy {
	case models.DuplicateOverwrite:
		return fmt.Sprintf(base, "") + `
	         ON DUPLICATE KEY UPDATE attributes = VALUES(attributes),
	         import_job_id = VALUES(import_job_id), updated_at = NOW()`
	case models.DuplicateMerge:
		// Existing non-null attributes win; the incoming payload only fills
		// fields the stored record does not own yet.
		return fmt.Sprintf(base, "") + `
	         ON DUPLICATE KEY UPDATE attributes = JSON_MERGE_PATCH(VALUES(attributes), attributes),
	         import_job_id = VALUES(import_job_id), updated_at = NOW()`
	default: // skip
		return fmt.Sprintf(base, "IGNORE")
	}
}

func (r *EntityRecordRepository) BulkUpsert(ctx context.Context, records []models.EntityRecord, strategy string) error {
	if len(records) == 0 {
		return nil
	}

	query := upsertQuery(strategy)
	for start := 0; start < len(records); start += recordChunkSize {
		end := start + recordChunkSize
		if end > len(records) {
			end = len(records)
		}
		if _, err := r.db.NamedExecContext(ctx, query, records[start:end]); err != nil {
			return fmt.Errorf("error upserting records %d-%d: %w", start+1, end, err)
		}
	}

	return nil
}

func (r *EntityRecordRepository) UpsertOne(ctx context.Context, record models.EntityRecord, strategy string) error {
	_, err := r.db.NamedExecContext(ctx, upsertQuery(strategy), record)
	return err
}

// DeleteByImportJob removes every record whose last write came from the
// given import. Used by the rollback operation.
func (r *EntityRecordRepository) DeleteByImportJob(ctx context.Context, companyID string, importJobID int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM entity_records WHERE company_id = ? AND import_job_id = ?",
		companyID, importJobID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountByCompany reports how many records of one entity type a tenant holds.
func (r *EntityRecordRepository) CountByCompany(ctx context.Context, companyID, entityType string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM entity_records WHERE company_id = ? AND entity_type = ?",
		companyID, entityType)
	return count, err
}
