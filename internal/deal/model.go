package deal

import (
	"time"

	"github.com/Dealgrid/api-quotes/internal/agreement"
	"github.com/Dealgrid/api-quotes/internal/comment"
	"github.com/Dealgrid/api-quotes/internal/quote"
	"gorm.io/gorm"
)

// Deal statuses.
const (
	StatusOpen = "open"
	StatusWon  = "won"
	StatusLost = "lost"
)

// Deal is a sales opportunity owned by a user. Quotes, comments, and signed
// agreements hang off it.
type Deal struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`

	Name         string `gorm:"size:255;not null" json:"name"`
	CompanyName  string `gorm:"size:255;index" json:"companyName"`
	ContactName  string `gorm:"size:255" json:"contactName"`
	ContactEmail string `gorm:"size:255" json:"contactEmail"`
	ContactPhone string `gorm:"size:50" json:"contactPhone"`
	Region       string `gorm:"size:100" json:"region"`

	Status string `gorm:"size:20;not null;default:'open';index" json:"status"`
	UserID uint   `gorm:"not null;index" json:"userId"`

	OrganizationID *uint `json:"organizationId"`

	Attachments []string `gorm:"type:jsonb;serializer:json" json:"attachments"`

	// CustomFields holds typed values keyed by field key, validated against
	// the deal entity's definitions on every write.
	CustomFields map[string]any `gorm:"type:jsonb;serializer:json" json:"customFields"`

	Comments   []comment.Comment     `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"comments"`
	Quotes     []quote.PriceQuote    `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"quotes"`
	Agreements []agreement.Agreement `gorm:"foreignKey:DealID" json:"agreements"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Deal{})
}

func validStatus(s string) bool {
	switch s {
	case StatusOpen, StatusWon, StatusLost:
		return true
	}
	return false
}
