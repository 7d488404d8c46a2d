package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

type ImportJobRepository struct {
	db *sqlx.DB
}

func NewImportJobRepository(db *sqlx.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) CreateJob(ctx context.Context, job *models.ImportJob) error {
	query := `INSERT INTO import_jobs (job_code, company_id, user_id, entity_type, source_platform,
	          mapping_id, is_dry_run, duplicate_handling, mappings, total_rows, successful_rows,
	          failed_rows, status, error_message, error_log, estimated_seconds,
	          rollback_eligible_until, created_at)
	          VALUES (:job_code, :company_id, :user_id, :entity_type, :source_platform,
	          :mapping_id, :is_dry_run, :duplicate_handling, :mappings, :total_rows, :successful_rows,
	          :failed_rows, :status, :error_message, :error_log, :estimated_seconds,
	          :rollback_eligible_until, :created_at)`
	result, err := r.db.NamedExecContext(ctx, query, job)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	job.ID = int(id)
	return nil
}

func (r *ImportJobRepository) GetJobByID(ctx context.Context, id int) (*models.ImportJob, error) {
	var job models.ImportJob
	query := "SELECT * FROM import_jobs WHERE id = ? LIMIT 1"
	err := r.db.GetContext(ctx, &job, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ImportJobRepository) GetJobByCode(ctx context.Context, code string) (*models.ImportJob, error) {
	var job models.ImportJob
	query := "SELECT * FROM import_jobs WHERE job_code = ? LIMIT 1"
	err := r.db.GetContext(ctx, &job, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ImportJobRepository) GetJobs(ctx context.Context, companyID string, limit, offset int) ([]models.ImportJob, int, error) {
	var total int
	countQuery := "SELECT COUNT(*) FROM import_jobs WHERE company_id = ?"
	if err := r.db.GetContext(ctx, &total, countQuery, companyID); err != nil {
		return nil, 0, err
	}

	var jobs []models.ImportJob
	query := `SELECT * FROM import_jobs WHERE company_id = ?
	          ORDER BY created_at DESC LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &jobs, query, companyID, limit, offset); err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// UpdateJob persists the job's mutable columns: counters, status, error
// state. Identity and intent columns never change after creation.
func (r *ImportJobRepository) UpdateJob(ctx context.Context, job *models.ImportJob) error {
	query := `UPDATE import_jobs SET successful_rows = :successful_rows,
	          failed_rows = :failed_rows, status = :status, error_message = :error_message,
	          error_log = :error_log, updated_at = NOW()
	          WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, job)
	return err
}

// Staging chunk size keeps well below the MySQL placeholder limit (65535);
// each staged row carries 3 placeholders.
const stageChunkSize = 5000

// StageRecords persists the submitted raw rows for the background worker.
func (r *ImportJobRepository) StageRecords(ctx context.Context, jobID int, records []models.RawRecord) error {
	if len(records) == 0 {
		return nil
	}

	for start := 0; start < len(records); start += stageChunkSize {
		end := start + stageChunkSize
		if end > len(records) {
			end = len(records)
		}

		chunk := make([]models.StagedRecord, 0, end-start)
		for i := start; i < end; i++ {
			chunk = append(chunk, models.StagedRecord{
				JobID:    jobID,
				RowIndex: i,
				Payload:  models.JSONMap(records[i]),
			})
		}

		query := `INSERT INTO import_records (job_id, row_index, payload)
		          VALUES (:job_id, :row_index, :payload)`
		if _, err := r.db.NamedExecContext(ctx, query, chunk); err != nil {
			return fmt.Errorf("error staging rows %d-%d: %w", start+1, end, err)
		}
	}

	return nil
}

func (r *ImportJobRepository) GetStagedRecords(ctx context.Context, jobID int) ([]models.StagedRecord, error) {
	var records []models.StagedRecord
	query := "SELECT * FROM import_records WHERE job_id = ? ORDER BY row_index ASC"
	if err := r.db.SelectContext(ctx, &records, query, jobID); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ImportJobRepository) DeleteStagedRecords(ctx context.Context, jobID int) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM import_records WHERE job_id = ?", jobID)
	return err
}
