package user

import (
	"gorm.io/gorm"
)

// User is a sales rep (or admin) who owns deals and quotes.
type User struct {
	gorm.Model
	FirstName         string `gorm:"size:100;not null" json:"firstName"`
	LastName          string `gorm:"size:100;not null" json:"lastName"`
	Email             string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone             string `gorm:"size:20" json:"phone"`
	AvatarURL         string `gorm:"size:255" json:"avatarUrl"`
	Password          string `gorm:"size:255;not null" json:"-"`
	MustResetPassword bool   `json:"-"`
	IsAdmin           bool   `gorm:"default:false" json:"isAdmin"`
}

// Migrate creates the users table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
