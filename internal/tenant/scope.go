package tenant

import "gorm.io/gorm"

// ForRestaurant returns a GORM scope that filters by restaurant_id.
// A zero id selects legacy rows that predate multi-tenancy (restaurant_id IS NULL);
// HTTP handlers always pass a verified, non-zero id.
func ForRestaurant(restaurantID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if restaurantID == 0 {
			return db.Where("restaurant_id IS NULL")
		}
		return db.Where("restaurant_id = ?", restaurantID)
	}
}

// RestaurantRef converts a restaurant id into the nullable column value used
// by catalog rows.
func RestaurantRef(restaurantID uint) *uint {
	if restaurantID == 0 {
		return nil
	}
	id := restaurantID
	return &id
}
