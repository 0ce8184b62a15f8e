package installment

import (
	"time"

	"github.com/Dealgrid/api-quotes/internal/pricing"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceScheduleEntry is one persisted payment obligation of a quote's
// schedule. Entries are regenerated wholesale on every recalculation and are
// never edited individually.
type InvoiceScheduleEntry struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	QuoteID     uint            `gorm:"not null;index" json:"quoteId"`
	EntryType   string          `gorm:"size:20;not null" json:"entryType"` // "upfront" | "installment"
	DueDate     time.Time       `gorm:"not null" json:"dueDate"`
	AmountDue   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amountDue"`
	Description string          `gorm:"size:255" json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Migrate creates the table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&InvoiceScheduleEntry{})
}

// FromCalculation converts generated schedule entries into rows owned by a
// quote.
func FromCalculation(quoteID uint, entries []pricing.Entry) []*InvoiceScheduleEntry {
	out := make([]*InvoiceScheduleEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, &InvoiceScheduleEntry{
			QuoteID:     quoteID,
			EntryType:   string(e.Type),
			DueDate:     e.DueDate,
			AmountDue:   e.AmountDue,
			Description: e.Description,
		})
	}
	return out
}
