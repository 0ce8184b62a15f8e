package fields

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) LoadDefinitions(ctx context.Context, entity EntityType) ([]FieldDefinition, error) {
	var defs []FieldDefinition
	err := r.DB.WithContext(ctx).
		Where("entity_type = ?", entity).
		Order("position ASC, id ASC").
		Find(&defs).Error
	return defs, err
}

func (r *Repository) Create(def *FieldDefinition) error {
	return r.DB.Create(def).Error
}

func (r *Repository) FindByID(id uint) (*FieldDefinition, error) {
	var def FieldDefinition
	if err := r.DB.First(&def, id).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *Repository) Update(def *FieldDefinition) error {
	return r.DB.Save(def).Error
}

func (r *Repository) Delete(id uint) error {
	res := r.DB.Delete(&FieldDefinition{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
