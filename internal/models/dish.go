package models

type Dish struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Description  *string    `gorm:"type:text" json:"description"`
	Price        *float64   `json:"price"`
	CategoryID   *uint      `gorm:"index" json:"category_id"`
	ImageURL     *string    `gorm:"type:text" json:"image_url"`
	RestaurantID *uint      `gorm:"index" json:"restaurant_id"`
	Category     *Category  `gorm:"foreignKey:CategoryID" json:"-"`
	Allergens    []Allergen `gorm:"many2many:dish_allergens;" json:"-"`
}

// DishAllergen is the join row between a dish and an allergen.
type DishAllergen struct {
	DishID     uint `gorm:"primaryKey" json:"dish_id"`
	AllergenID uint `gorm:"primaryKey" json:"allergen_id"`
}
