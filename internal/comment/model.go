package comment

import "gorm.io/gorm"

// Comment is a note or history record on a deal. System comments (quote
// escalated, quote accepted, …) carry UserID 0 and System=true.
type Comment struct {
	gorm.Model
	Text   string `json:"text"`
	DealID uint   `gorm:"not null;index" json:"dealId"`
	UserID uint   `json:"userId"` // 0 for system comments
	System bool   `gorm:"default:false" json:"system"`
}

// Migrate creates the comments table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Comment{})
}
