package agreement

import (
	"gorm.io/gorm"
)

type Repository interface {
	Save(db *gorm.DB, a *Agreement) error
	FindByID(db *gorm.DB, id uint) (*Agreement, error)
	FindByQuoteID(db *gorm.DB, quoteID uint) (*Agreement, error)
	ListByDeal(db *gorm.DB, dealID uint) ([]Agreement, error)
	Update(db *gorm.DB, a *Agreement) error
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Save(db *gorm.DB, a *Agreement) error {
	return db.Create(a).Error
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Agreement, error) {
	var a Agreement
	if err := db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repositoryImpl) FindByQuoteID(db *gorm.DB, quoteID uint) (*Agreement, error) {
	var a Agreement
	if err := db.Where("quote_id = ?", quoteID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repositoryImpl) ListByDeal(db *gorm.DB, dealID uint) ([]Agreement, error) {
	var list []Agreement
	err := db.Where("deal_id = ?", dealID).Order("signed_at DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Update(db *gorm.DB, a *Agreement) error {
	return db.Save(a).Error
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	res := db.Delete(&Agreement{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
