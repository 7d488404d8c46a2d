package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/byronwade/Thorbis-sub043/internal/models"
	"github.com/byronwade/Thorbis-sub043/internal/utils"
)

// MappingStore is the persistence surface for saved mapping templates.
type MappingStore interface {
	Create(ctx context.Context, mapping *models.ImportMapping) error
	GetByCompany(ctx context.Context, companyID string) ([]models.ImportMapping, error)
	Delete(ctx context.Context, companyID string, id int) error
}

type MappingHandler struct {
	store MappingStore
}

func NewMappingHandler(store MappingStore) *MappingHandler {
	return &MappingHandler{store: store}
}

func (h *MappingHandler) GetMappings(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	mappings, err := h.store.GetByCompany(c.UserContext(), companyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve mappings", err)
	}

	return utils.SuccessResponse(c, "Mappings retrieved", fiber.Map{"mappings": mappings})
}

type createMappingRequest struct {
	Name           string                `json:"name"`
	EntityType     string                `json:"entityType"`
	SourcePlatform string                `json:"sourcePlatform"`
	Mappings       []models.FieldMapping `json:"mappings"`
}

func (h *MappingHandler) CreateMapping(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	var req createMappingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if req.Name == "" || req.EntityType == "" || len(req.Mappings) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "name, entityType and mappings are required", nil)
	}

	mapping := &models.ImportMapping{
		CompanyID:      companyID,
		Name:           req.Name,
		EntityType:     req.EntityType,
		SourcePlatform: req.SourcePlatform,
		Mappings:       req.Mappings,
	}
	if err := h.store.Create(c.UserContext(), mapping); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save mapping", err)
	}

	return utils.SuccessResponse(c, "Mapping saved", mapping)
}

func (h *MappingHandler) DeleteMapping(c *fiber.Ctx) error {
	companyID := c.Locals("company_id").(string)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid mapping ID", err)
	}

	if err := h.store.Delete(c.UserContext(), companyID, id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete mapping", err)
	}

	return utils.SuccessResponse(c, "Mapping deleted", nil)
}
