package models

type Allergen struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"size:100;not null;uniqueIndex:idx_allergens_restaurant_name,priority:2" json:"name"`
	Icon         *string `gorm:"size:100" json:"icon"`
	RestaurantID *uint   `gorm:"uniqueIndex:idx_allergens_restaurant_name,priority:1" json:"restaurant_id"`
}
