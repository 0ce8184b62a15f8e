package deal

import (
	"gorm.io/gorm"
)

type Repository interface {
	Save(db *gorm.DB, d *Deal) error
	FindByID(db *gorm.DB, id uint) (*Deal, error)
	ListAll(db *gorm.DB) ([]Deal, error)
	ListByUser(db *gorm.DB, userID uint) ([]Deal, error)
	CountByCompany(db *gorm.DB, company string, excludeID uint) (int64, uint, error)
	Update(db *gorm.DB, d *Deal) error
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Save(db *gorm.DB, d *Deal) error {
	return db.Create(d).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Deal, error) {
	var d Deal
	err := db.
		Preload("Comments").
		Preload("Quotes", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("version_number ASC")
		}).
		Preload("Agreements").
		First(&d, id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repositoryImpl) ListAll(db *gorm.DB) ([]Deal, error) {
	var list []Deal
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) ListByUser(db *gorm.DB, userID uint) ([]Deal, error) {
	var list []Deal
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// CountByCompany reports how many other deals share a company name and the
// id of the most recent one.
func (r *repositoryImpl) CountByCompany(db *gorm.DB, company string, excludeID uint) (int64, uint, error) {
	var dup Deal
	q := db.Model(&Deal{}).Where("company_name = ? AND id <> ?", company, excludeID)
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}
	if err := q.Order("created_at DESC").First(&dup).Error; err != nil {
		return count, 0, err
	}
	return count, dup.ID, nil
}

func (r *repositoryImpl) Update(db *gorm.DB, d *Deal) error {
	return db.Save(d).Error
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	res := db.Delete(&Deal{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
