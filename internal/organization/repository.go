package organization

import (
	"gorm.io/gorm"
)

type Repository interface {
	Save(db *gorm.DB, o *Organization) error
	FindByID(db *gorm.DB, id uint) (*Organization, error)
	FindByTaxID(db *gorm.DB, taxID string) (*Organization, error)
	ListAll(db *gorm.DB) ([]Organization, error)
	Update(db *gorm.DB, id uint, req *UpdateOrganizationRequest) error
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Save(db *gorm.DB, o *Organization) error {
	return db.Create(o).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Organization, error) {
	var o Organization
	if err := db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repositoryImpl) FindByTaxID(db *gorm.DB, taxID string) (*Organization, error) {
	var o Organization
	if err := db.Where("tax_id = ?", taxID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repositoryImpl) ListAll(db *gorm.DB) ([]Organization, error) {
	var list []Organization
	err := db.Order("name").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Update(db *gorm.DB, id uint, req *UpdateOrganizationRequest) error {
	var o Organization
	if err := db.First(&o, id).Error; err != nil {
		return err
	}
	if req.Name != nil {
		o.Name = *req.Name
	}
	if req.Website != nil {
		o.Website = *req.Website
	}
	if req.Email != nil {
		o.Email = *req.Email
	}
	if req.Phone != nil {
		o.Phone = *req.Phone
	}
	if req.Region != nil {
		o.Region = *req.Region
	}
	if req.LogoURL != nil {
		o.LogoURL = *req.LogoURL
	}
	return db.Save(&o).Error
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	return db.Delete(&Organization{}, id).Error
}
