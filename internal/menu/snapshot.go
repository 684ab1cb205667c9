package menu

import "time"

// Defaults applied when rendering rows that lack optional values.
const (
	DefaultCategoryName   = "Other"
	DefaultRestaurantName = "Restaurant"
	DefaultOpeningHours   = "Contact us for opening hours"
	PlaceholderImage      = "/placeholder.svg"
)

// MenuItem is a dish as presented on the menu, with its category and
// allergens denormalized to names.
type MenuItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image,omitempty"`
	Allergens   []string `json:"allergens"`
}

type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

type RestaurantInfo struct {
	Name         string      `json:"name"`
	OpeningHours string      `json:"openingHours"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	SocialLinks  SocialLinks `json:"socialLinks"`
	Logo         string      `json:"logo,omitempty"`
}

// Snapshot is one consistent view of a restaurant's menu. It is the unit
// written to and read from the snapshot cache.
type Snapshot struct {
	RestaurantID   uint           `json:"restaurantId"`
	GeneratedAt    time.Time      `json:"generatedAt"`
	MenuItems      []MenuItem     `json:"menuItems"`
	Categories     []string       `json:"categories"`
	Allergens      []string       `json:"allergens"`
	RestaurantInfo RestaurantInfo `json:"restaurantInfo"`
}

// Source tells where a served snapshot came from.
type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)
