package models

import "time"

// ImportMapping is a saved mapping template a tenant can reuse across
// imports from the same source platform.
type ImportMapping struct {
	ID             int              `db:"id" json:"id"`
	CompanyID      string           `db:"company_id" json:"company_id"`
	Name           string           `db:"name" json:"name"`
	EntityType     string           `db:"entity_type" json:"entity_type"`
	SourcePlatform string           `db:"source_platform" json:"source_platform,omitempty"`
	Mappings       FieldMappingList `db:"mappings" json:"mappings"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}
