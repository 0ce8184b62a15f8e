package fields

import (
	"time"

	"gorm.io/gorm"
)

// EntityType names the record kinds that can carry custom fields.
type EntityType string

const (
	EntityDeal         EntityType = "deal"
	EntityLead         EntityType = "lead"
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
)

func ValidEntityType(e EntityType) bool {
	switch e {
	case EntityDeal, EntityLead, EntityPerson, EntityOrganization:
		return true
	}
	return false
}

// FieldType names the value shape a definition accepts.
type FieldType string

const (
	TypeText        FieldType = "text"
	TypeNumber      FieldType = "number"
	TypeBoolean     FieldType = "boolean"
	TypeDate        FieldType = "date"
	TypeMultiSelect FieldType = "multiselect"
)

// FieldDefinition declares one custom field on an entity type. Key is the
// identifier values are stored under; Options constrains multiselect values.
type FieldDefinition struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EntityType EntityType `gorm:"size:20;not null;uniqueIndex:idx_field_defs_entity_key,priority:1" json:"entityType"`
	Key        string     `gorm:"size:100;not null;uniqueIndex:idx_field_defs_entity_key,priority:2" json:"key"`
	Label      string     `gorm:"size:255;not null" json:"label"`
	Type       FieldType  `gorm:"size:20;not null" json:"type"`
	Required   bool       `gorm:"not null;default:false" json:"required"`
	Options    []string   `gorm:"type:jsonb;serializer:json" json:"options"`
	Position   int        `gorm:"not null;default:0" json:"position"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Migrate creates the definition table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&FieldDefinition{})
}
