package models

import "gorm.io/gorm"

// Recipe is the central catalog entity. Tags and Ingredients are shared
// associations: either side may be referenced by many of the other, while
// the recipe itself belongs to exactly one user.
type Recipe struct {
	gorm.Model
	OwnerID     uint         `gorm:"not null;index" json:"-"`
	Owner       *User        `gorm:"foreignKey:OwnerID" json:"-"`
	Title       string       `gorm:"not null" json:"title"`
	TimeMinutes int          `gorm:"not null" json:"time_minutes"`
	Price       float64      `gorm:"not null;type:numeric(5,2)" json:"price"`
	Link        string       `json:"link,omitempty"`
	Image       string       `json:"image,omitempty"`
	Tags        []Tag        `gorm:"many2many:recipe_tags" json:"-"`
	Ingredients []Ingredient `gorm:"many2many:recipe_ingredients" json:"-"`
}
