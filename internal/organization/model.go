package organization

import (
	"time"

	"gorm.io/gorm"
)

// Organization is a company a deal is negotiated with.
type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	TaxID     string    `gorm:"size:32;uniqueIndex" json:"taxId"`
	Website   string    `gorm:"size:255" json:"website"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Region    string    `gorm:"size:10" json:"region"`
	LogoURL   string    `gorm:"size:255" json:"logoUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Organization{})
}
