package agreement

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Agreement statuses.
const (
	StatusActive     = "active"
	StatusTerminated = "terminated"
	StatusExpired    = "expired"
)

// Agreement is the signed contract behind an accepted quote.
type Agreement struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	DealID  uint `gorm:"not null;index" json:"dealId"`
	QuoteID uint `gorm:"not null;uniqueIndex" json:"quoteId"`
	UserID  uint `gorm:"not null" json:"userId"`

	SignedAt    time.Time       `json:"signedAt"`
	SupplyStart time.Time       `json:"supplyStart"`
	SupplyEnd   time.Time       `json:"supplyEnd"`
	Value       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"value"`
	Status      string          `gorm:"size:20;not null;default:'active'" json:"status"`
	DocumentURL string          `gorm:"size:512" json:"documentUrl"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Agreement{})
}

func validStatus(s string) bool {
	switch s {
	case StatusActive, StatusTerminated, StatusExpired:
		return true
	}
	return false
}
