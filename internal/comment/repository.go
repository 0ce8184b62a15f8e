package comment

import "gorm.io/gorm"

type Repository interface {
	Create(db *gorm.DB, c *Comment) error
	ListByDeal(db *gorm.DB, dealID uint) ([]Comment, error)
	ListAll(db *gorm.DB) ([]Comment, error)
	FindByID(db *gorm.DB, id uint) (*Comment, error)
	UpdateText(db *gorm.DB, id uint, text string) error
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Create(db *gorm.DB, c *Comment) error {
	return db.Create(c).Error
}

func (r *repositoryImpl) ListByDeal(db *gorm.DB, dealID uint) ([]Comment, error) {
	var comments []Comment
	err := db.Where("deal_id = ?", dealID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

func (r *repositoryImpl) ListAll(db *gorm.DB) ([]Comment, error) {
	var comments []Comment
	err := db.Find(&comments).Error
	return comments, err
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Comment, error) {
	var c Comment
	err := db.First(&c, id).Error
	return &c, err
}

func (r *repositoryImpl) UpdateText(db *gorm.DB, id uint, text string) error {
	return db.Model(&Comment{}).Where("id = ?", id).Update("text", text).Error
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	return db.Delete(&Comment{}, id).Error
}
