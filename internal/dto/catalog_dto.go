package dto

import "encoding/json"

type CreateRestaurantRequest struct {
	Name      string  `json:"name"`
	Subdomain string  `json:"subdomain"`
	LogoURL   *string `json:"logo_url,omitempty"`
}

// MenuItemInput creates or replaces a dish. Category and allergens are
// given by name and created on first use.
type MenuItemInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    string   `json:"category"`
	Image       *string  `json:"image,omitempty"`
	Allergens   []string `json:"allergens"`
}

type NamedRequest struct {
	Name string `json:"name"`
}

// DishResponse is the owner-facing view of a dish with allergen names.
type DishResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	CategoryID  *uint    `json:"category_id"`
	Image       *string  `json:"image"`
	Allergens   []string `json:"allergens"`
}

type IDResponse struct {
	ID uint `json:"id"`
}

type DishAllergensRequest struct {
	AllergenIDs []uint `json:"allergen_ids"`
}

// RestaurantInfoInput is the settings form. OpeningHours is stored as given:
// a JSON string or any JSON value.
type RestaurantInfoInput struct {
	Name         *string         `json:"name,omitempty"`
	Address      *string         `json:"address,omitempty"`
	Phone        *string         `json:"phone,omitempty"`
	OpeningHours json.RawMessage `json:"openingHours,omitempty"`
	FacebookURL  *string         `json:"facebookUrl,omitempty"`
	InstagramURL *string         `json:"instagramUrl,omitempty"`
	OtherSocial  *string         `json:"otherSocial,omitempty"`
	Logo         *string         `json:"logo,omitempty"`
}
