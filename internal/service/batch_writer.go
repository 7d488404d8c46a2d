package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

// RecordStore is the tenant-scoped persistence surface the batch writer
// drives. Both methods apply the duplicate-handling strategy atomically on
// the record's natural key.
type RecordStore interface {
	BulkUpsert(ctx context.Context, records []models.EntityRecord, strategy string) error
	UpsertOne(ctx context.Context, record models.EntityRecord, strategy string) error
}

// BatchProgressFunc is invoked after every batch with the batch outcome and
// cumulative processed count over the whole write.
type BatchProgressFunc func(result models.BatchResult, processed, total int)

// BatchWriter persists pre-validated canonical records in fixed-size batches,
// strictly in sequence. Failures inside one batch never stop the remaining
// records of that batch or any later batch.
type BatchWriter struct {
	store     RecordStore
	batchSize int
	log       *logrus.Logger
}

func NewBatchWriter(store RecordStore, batchSize int, log *logrus.Logger) *BatchWriter {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &BatchWriter{store: store, batchSize: batchSize, log: log}
}

// Write persists records for the given job and reports progress after each
// batch. The returned results hold one entry per batch; the only error Write
// itself returns is context cancellation.
func (w *BatchWriter) Write(ctx context.Context, job *models.ImportJob, records []models.TransformedRecord, onProgress BatchProgressFunc) ([]models.BatchResult, error) {
	total := len(records)
	results := make([]models.BatchResult, 0, (total+w.batchSize-1)/w.batchSize)
	processed := 0

	for start := 0; start < total; start += w.batchSize {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		end := start + w.batchSize
		if end > total {
			end = total
		}

		batch := records[start:end]
		result := w.writeBatch(ctx, job, batch)
		results = append(results, result)
		processed += result.Attempted

		if w.log != nil {
			w.log.WithFields(logrus.Fields{
				"job_code":  job.JobCode,
				"processed": processed,
				"total":     total,
				"failed":    result.Failed,
			}).Info("import batch written")
		}

		if onProgress != nil {
			onProgress(result, processed, total)
		}
	}

	return results, nil
}

// writeBatch attempts one bulk upsert and falls back to per-record writes
// when the bulk statement fails, so a single bad record cannot take the rest
// of its batch down with it.
func (w *BatchWriter) writeBatch(ctx context.Context, job *models.ImportJob, batch []models.TransformedRecord) models.BatchResult {
	result := models.BatchResult{Attempted: len(batch)}

	rows := make([]models.EntityRecord, len(batch))
	for i, record := range batch {
		rows[i] = buildEntityRecord(job, record)
	}

	if err := w.store.BulkUpsert(ctx, rows, job.DuplicateHandling); err == nil {
		result.Succeeded = len(batch)
		return result
	}

	for i, row := range rows {
		if err := w.store.UpsertOne(ctx, row, job.DuplicateHandling); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportError{
				RowIndex: batch[i].RowIndex,
				Message:  fmt.Sprintf("failed to persist record: %v", err),
			})
			continue
		}
		result.Succeeded++
	}

	return result
}

func buildEntityRecord(job *models.ImportJob, record models.TransformedRecord) models.EntityRecord {
	attributes := make(models.JSONMap, len(record.Fields))
	for k, v := range record.Fields {
		// Null fields carry no information and must not clobber existing
		// values under the merge strategy.
		if v == nil {
			continue
		}
		attributes[k] = v
	}

	return models.EntityRecord{
		CompanyID:   job.CompanyID,
		EntityType:  job.EntityType,
		ExternalKey: naturalKey(job.CompanyID, job.EntityType, attributes),
		Attributes:  attributes,
		ImportJobID: job.ID,
	}
}

// naturalKey derives the upsert key for a record: the mapped external id when
// the source system provided one, otherwise a digest of the canonical
// payload. Content-derived keys make re-imports of the same file idempotent
// under the skip strategy.
func naturalKey(companyID, entityType string, attributes models.JSONMap) string {
	if id, ok := attributes["external_id"].(string); ok && id != "" {
		return id
	}

	// json.Marshal sorts map keys, so equal payloads digest equally.
	payload, err := json.Marshal(attributes)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", attributes))
	}

	h := sha256.New()
	h.Write([]byte(companyID))
	h.Write([]byte{0})
	h.Write([]byte(entityType))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))[:40]
}
