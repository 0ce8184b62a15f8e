package quote

import (
	"time"

	"github.com/Dealgrid/api-quotes/internal/installment"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quote lifecycle statuses.
const (
	StatusDraft      = "draft"
	StatusProposed   = "proposed"
	StatusAccepted   = "accepted"
	StatusRejected   = "rejected"
	StatusSuperseded = "superseded"
)

// PriceQuote is a persisted, versioned quote for a deal. Version numbers
// strictly increase within a deal; editing an existing quote never mints a
// new version.
type PriceQuote struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	DealID        uint   `gorm:"not null;uniqueIndex:idx_quotes_deal_version,priority:1" json:"dealId"`
	UserID        uint   `gorm:"not null;index" json:"userId"`
	VersionNumber int    `gorm:"not null;uniqueIndex:idx_quotes_deal_version,priority:2" json:"versionNumber"`
	Status        string `gorm:"size:20;not null;default:'draft';index" json:"status"`
	Name          string `gorm:"size:255" json:"name"`

	// Editable pricing inputs. Percentages are plain numbers (20 = 20%).
	BaseMinimumPrice        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"baseMinimumPrice"`
	TargetMarkupPercent     decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"targetMarkupPercent"`
	FinalOfferPrice         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"finalOfferPrice"`
	OverallDiscountPercent  decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"overallDiscountPercent"`
	UpfrontPaymentPercent   decimal.Decimal `gorm:"type:decimal(9,4);not null" json:"upfrontPaymentPercent"`
	UpfrontPaymentDueDays   int             `gorm:"not null;default:0" json:"upfrontPaymentDueDays"`
	InstallmentCount        int             `gorm:"not null;default:0" json:"installmentCount"`
	InstallmentIntervalDays int             `gorm:"not null;default:0" json:"installmentIntervalDays"`
	AgreementDate           time.Time       `gorm:"not null" json:"agreementDate"`

	AdditionalCosts []AdditionalCost `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"additionalCosts"`

	// Derived fields, overwritten on every recalculation.
	TotalDirectCost        decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"totalDirectCost"`
	TargetPrice            decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"targetPrice"`
	FullTargetPrice        decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"fullTargetPrice"`
	DiscountedOfferPrice   decimal.Decimal     `gorm:"type:decimal(18,2);not null" json:"discountedOfferPrice"`
	EffectiveMarkupPercent decimal.NullDecimal `gorm:"type:decimal(9,4)" json:"effectiveMarkupPercent"`
	EscalationStatus       string              `gorm:"size:20;not null" json:"escalationStatus"`
	EscalationDetails      string              `gorm:"size:255" json:"escalationDetails"`

	ScheduleEntries []installment.InvoiceScheduleEntry `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"invoiceScheduleEntries"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

// AdditionalCost is a named cost line owned by a quote. Position preserves
// insertion order; lines have no identity beyond it.
type AdditionalCost struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	QuoteID     uint            `gorm:"not null;index" json:"quoteId"`
	Position    int             `gorm:"not null" json:"position"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
}

// Migrate creates the quote tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&PriceQuote{}, &AdditionalCost{})
}

func validStatus(s string) bool {
	switch s {
	case StatusDraft, StatusProposed, StatusAccepted, StatusRejected, StatusSuperseded:
		return true
	}
	return false
}
