package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/byronwade/Thorbis-sub043/internal/config"
	"github.com/byronwade/Thorbis-sub043/internal/models"
	"github.com/byronwade/Thorbis-sub043/internal/service"
	"github.com/byronwade/Thorbis-sub043/internal/utils"
)

// ImportService is the orchestrator surface the handler drives.
type ImportService interface {
	Submit(ctx context.Context, req service.ImportRequest) (*models.ImportJob, error)
	Rollback(ctx context.Context, companyID, jobCode string) (*models.ImportJob, int64, error)
}

// JobReader is the read-only projection used by the polling endpoints.
type JobReader interface {
	GetJobByCode(ctx context.Context, code string) (*models.ImportJob, error)
	GetJobs(ctx context.Context, companyID string, limit, offset int) ([]models.ImportJob, int, error)
}

// MappingReader resolves saved mapping references on submission.
type MappingReader interface {
	GetByID(ctx context.Context, companyID string, id int) (*models.ImportMapping, error)
}

type ImportHandler struct {
	imports      ImportService
	jobs         JobReader
	mappings     MappingReader
	spreadsheets *service.SpreadsheetService
	redis        *redis.Client
	cfg          *config.Config
}

func NewImportHandler(
	imports ImportService,
	jobs JobReader,
	mappings MappingReader,
	spreadsheets *service.SpreadsheetService,
	redisClient *redis.Client,
	cfg *config.Config,
) *ImportHandler {
	return &ImportHandler{
		imports:      imports,
		jobs:         jobs,
		mappings:     mappings,
		spreadsheets: spreadsheets,
		redis:        redisClient,
		cfg:          cfg,
	}
}

type submitImportRequest struct {
	Records           []models.RawRecord    `json:"records"`
	EntityType        string                `json:"entityType"`
	Mappings          []models.FieldMapping `json:"mappings"`
	CompanyID         string                `json:"companyId"`
	UserID            string                `json:"userId"`
	IsDryRun          bool                  `json:"isDryRun"`
	DuplicateHandling string                `json:"duplicateHandling"`
	SourcePlatform    string                `json:"sourcePlatform"`
	MappingID         string                `json:"mappingId"`
}

// SubmitImport accepts a bulk import, creates the job, and returns its id
// immediately; the pipeline runs in the background worker.
func (h *ImportHandler) SubmitImport(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	var req submitImportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if req.CompanyID == "" || req.UserID == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "companyId and userId are required", nil)
	}
	if req.CompanyID != companyID {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "companyId does not match the authenticated tenant", nil)
	}

	mappings := req.Mappings
	if len(mappings) == 0 && req.MappingID != "" {
		saved, err := h.resolveSavedMapping(c.UserContext(), companyID, req.MappingID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown mappingId", err)
		}
		mappings = saved
	}

	job, err := h.imports.Submit(c.UserContext(), service.ImportRequest{
		Records:           req.Records,
		EntityType:        req.EntityType,
		Mappings:          mappings,
		CompanyID:         req.CompanyID,
		UserID:            req.UserID,
		IsDryRun:          req.IsDryRun,
		DuplicateHandling: req.DuplicateHandling,
		SourcePlatform:    req.SourcePlatform,
		MappingID:         req.MappingID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoRecords),
			errors.Is(err, service.ErrEntityTypeRequired),
			errors.Is(err, service.ErrCompanyRequired),
			errors.Is(err, service.ErrUserRequired),
			errors.Is(err, service.ErrTooManyRecords),
			errors.Is(err, service.ErrInvalidDuplicatePolicy):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid import request", err)
		case errors.Is(err, service.ErrQueueUnavailable):
			return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Background job processing is not available", err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create import job", err)
		}
	}

	return utils.SuccessResponse(c, "Import started", fiber.Map{
		"importId":                 job.JobCode,
		"status":                   models.StatusInProgress,
		"totalRecords":             job.TotalRows,
		"estimatedDurationSeconds": job.EstimatedSeconds,
	})
}

func (h *ImportHandler) resolveSavedMapping(ctx context.Context, companyID, mappingID string) ([]models.FieldMapping, error) {
	id, err := strconv.Atoi(mappingID)
	if err != nil {
		return nil, errors.New("mappingId must be numeric")
	}
	saved, err := h.mappings.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, errors.New("saved mapping not found")
	}
	return saved.Mappings, nil
}

// GetImport is the polling surface: a read-only projection of the job row
// plus the live completion percentage when the worker has published one.
func (h *ImportHandler) GetImport(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	job, err := h.jobs.GetJobByCode(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve import job", err)
	}
	if job == nil || job.CompanyID != companyID {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", nil)
	}

	data := fiber.Map{"job": job}
	if h.redis != nil {
		if percent, err := h.redis.Get(c.UserContext(), service.ProgressKey(job.JobCode)).Result(); err == nil {
			data["progress_percent"] = percent
		}
	}

	return utils.SuccessResponse(c, "Import job retrieved", data)
}

func (h *ImportHandler) GetImports(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	jobs, total, err := h.jobs.GetJobs(c.UserContext(), companyID, params.Limit, offset)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve import jobs", err)
	}

	return utils.SuccessResponse(c, "Import jobs retrieved", fiber.Map{
		"jobs":       jobs,
		"pagination": utils.CalculatePagination(params.Page, params.Limit, int64(total)),
	})
}

// ParseUpload parses an uploaded spreadsheet into raw records so the client
// can build field mappings. No job is created.
func (h *ImportHandler) ParseUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}
	if file.Size > int64(h.cfg.UploadMaxSize) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File size exceeds maximum limit", nil)
	}

	src, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read uploaded file", err)
	}
	defer src.Close()

	result, err := h.spreadsheets.ParseFile(file.Filename, src)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to parse file", err)
	}

	return utils.SuccessResponse(c, "File parsed", fiber.Map{
		"columns":    result.Columns,
		"total_rows": result.TotalRows,
		"records":    result.Records,
		"preview":    previewRecords(result.Records, 10),
	})
}

// RollbackImport undoes a finished import's writes, refusing requests past
// the rollback window.
func (h *ImportHandler) RollbackImport(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	job, removed, err := h.imports.Rollback(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", nil)
		case errors.Is(err, service.ErrJobNotTerminal),
			errors.Is(err, service.ErrNothingToRollback),
			errors.Is(err, service.ErrRollbackWindowExpired):
			return utils.ErrorResponse(c, fiber.StatusConflict, "Import cannot be rolled back", err)
		default:
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to roll back import", err)
		}
	}

	return utils.SuccessResponse(c, "Import rolled back", fiber.Map{
		"job":             job,
		"records_removed": removed,
	})
}

func previewRecords(records []models.RawRecord, limit int) []models.RawRecord {
	if len(records) > limit {
		return records[:limit]
	}
	return records
}
