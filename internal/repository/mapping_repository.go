package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/byronwade/Thorbis-sub043/internal/models"
)

// MappingRepository stores saved field-mapping templates per tenant.
type MappingRepository struct {
	db *sqlx.DB
}

func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

func (r *MappingRepository) Create(ctx context.Context, mapping *models.ImportMapping) error {
	query := `INSERT INTO import_mappings (company_id, name, entity_type, source_platform, mappings)
	          VALUES (:company_id, :name, :entity_type, :source_platform, :mappings)`
	result, err := r.db.NamedExecContext(ctx, query, mapping)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	mapping.ID = int(id)
	return nil
}

func (r *MappingRepository) GetByID(ctx context.Context, companyID string, id int) (*models.ImportMapping, error) {
	var mapping models.ImportMapping
	query := "SELECT * FROM import_mappings WHERE id = ? AND company_id = ? LIMIT 1"
	err := r.db.GetContext(ctx, &mapping, query, id, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *MappingRepository) GetByCompany(ctx context.Context, companyID string) ([]models.ImportMapping, error) {
	var mappings []models.ImportMapping
	query := "SELECT * FROM import_mappings WHERE company_id = ? ORDER BY created_at DESC"
	if err := r.db.SelectContext(ctx, &mappings, query, companyID); err != nil {
		return nil, err
	}
	return mappings, nil
}

func (r *MappingRepository) Delete(ctx context.Context, companyID string, id int) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM import_mappings WHERE id = ? AND company_id = ?", id, companyID)
	return err
}
