package models

// Category groups dishes on the menu. (restaurant_id, name) is the natural key.
type Category struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:100;not null;uniqueIndex:idx_categories_restaurant_name,priority:2" json:"name"`
	OrderIndex   int    `gorm:"not null;default:0" json:"order_index"`
	RestaurantID *uint  `gorm:"uniqueIndex:idx_categories_restaurant_name,priority:1" json:"restaurant_id"`
}
