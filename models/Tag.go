package models

import "gorm.io/gorm"

// Tag labels recipes within a single user's catalog. Names are not unique;
// two users may each have their own "Vegan" tag.
type Tag struct {
	gorm.Model
	Name    string `gorm:"not null" json:"name"`
	OwnerID uint   `gorm:"not null;index" json:"-"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"-"`
}
