package installment

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository wraps data access for schedule entries.
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

// CreateInBatch inserts all entries at once (no-op when empty).
func (r *Repository) CreateInBatch(entries []*InvoiceScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.DB.Create(entries).Error
}

// ListByQuoteID returns a quote's schedule ordered by due date.
func (r *Repository) ListByQuoteID(quoteID uint) ([]InvoiceScheduleEntry, error) {
	var entries []InvoiceScheduleEntry
	err := r.DB.
		Where("quote_id = ?", quoteID).
		Order("due_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

// DeleteByQuoteID drops a quote's whole schedule. Used before regeneration.
func (r *Repository) DeleteByQuoteID(quoteID uint) error {
	return r.DB.Where("quote_id = ?", quoteID).Delete(&InvoiceScheduleEntry{}).Error
}

// SumAmountByQuoteID totals the entries of a quote straight from the table.
func (r *Repository) SumAmountByQuoteID(quoteID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB.Model(&InvoiceScheduleEntry{}).
		Where("quote_id = ?", quoteID).
		Select("COALESCE(SUM(amount_due), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
