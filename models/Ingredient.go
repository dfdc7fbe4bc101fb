package models

import "gorm.io/gorm"

// Ingredient is a pantry item scoped to its owning user. Shape matches Tag
// but the two are distinct tables with distinct recipe associations.
type Ingredient struct {
	gorm.Model
	Name    string `gorm:"not null" json:"name"`
	OwnerID uint   `gorm:"not null;index" json:"-"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"-"`
}
