package quote

import (
	"gorm.io/gorm"
)

// Repository wraps data access for quotes.
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// WithDB returns a copy bound to a specific *gorm.DB (e.g. a transaction).
func (r *Repository) WithDB(db *gorm.DB) *Repository {
	if db == nil {
		db = r.DB
	}
	return &Repository{DB: db}
}

// NextVersionForDeal allocates the next version number in a deal's series.
func (r *Repository) NextVersionForDeal(dealID uint) (int, error) {
	var max int
	err := r.DB.Model(&PriceQuote{}).
		Where("deal_id = ?", dealID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	return max + 1, err
}

// Create inserts the quote together with its cost lines.
func (r *Repository) Create(q *PriceQuote) error {
	return r.DB.Create(q).Error
}

// FindByID loads a quote with its costs and schedule.
func (r *Repository) FindByID(id uint) (*PriceQuote, error) {
	var q PriceQuote
	err := r.DB.
		Preload("AdditionalCosts", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("ScheduleEntries", func(db *gorm.DB) *gorm.DB { return db.Order("due_date ASC, id ASC") }).
		First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByDeal returns a deal's quotes, newest version first.
func (r *Repository) ListByDeal(dealID uint) ([]PriceQuote, error) {
	var list []PriceQuote
	err := r.DB.
		Where("deal_id = ?", dealID).
		Preload("AdditionalCosts").
		Preload("ScheduleEntries").
		Order("version_number DESC").
		Find(&list).Error
	return list, err
}

// ListByDealAndStatus filters a deal's quotes by status.
func (r *Repository) ListByDealAndStatus(dealID uint, status string) ([]PriceQuote, error) {
	var list []PriceQuote
	err := r.DB.
		Where("deal_id = ? AND status = ?", dealID, status).
		Preload("AdditionalCosts").
		Preload("ScheduleEntries").
		Order("version_number DESC").
		Find(&list).Error
	return list, err
}

// Save persists all fields of an existing quote (requires PK).
func (r *Repository) Save(q *PriceQuote) error {
	return r.DB.Save(q).Error
}

// UpdateStatus changes only the status column.
func (r *Repository) UpdateStatus(id uint, status string) error {
	return r.DB.Model(&PriceQuote{}).Where("id = ?", id).Update("status", status).Error
}

// MarkSupersededExcept retires every open sibling version once one quote of
// the deal is accepted.
func (r *Repository) MarkSupersededExcept(dealID, exceptID uint) error {
	return r.DB.Model(&PriceQuote{}).
		Where("deal_id = ? AND id <> ? AND status IN ?", dealID, exceptID, []string{StatusDraft, StatusProposed}).
		Update("status", StatusSuperseded).Error
}

// DeleteCosts drops a quote's cost lines. Used before regeneration.
func (r *Repository) DeleteCosts(quoteID uint) error {
	return r.DB.Where("quote_id = ?", quoteID).Delete(&AdditionalCost{}).Error
}

// Delete removes the quote; returns gorm.ErrRecordNotFound when nothing
// was deleted.
func (r *Repository) Delete(id uint) error {
	res := r.DB.Delete(&PriceQuote{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
