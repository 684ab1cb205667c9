package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// MenuService assembles the public menu of one restaurant.
type MenuService struct {
	db           *gorm.DB
	catalog      *CatalogService
	restaurants  *RestaurantService
	demoFallback bool
}

func NewMenuService(db *gorm.DB, catalog *CatalogService, restaurants *RestaurantService, demoFallback bool) *MenuService {
	return &MenuService{db: db, catalog: catalog, restaurants: restaurants, demoFallback: demoFallback}
}

// ResolveRestaurant picks the restaurant a public request refers to: the
// explicit id first, then the subdomain, then (when enabled) the first
// restaurant as a demo.
func (s *MenuService) ResolveRestaurant(ctx context.Context, explicitID uint, subdomain string) (uint, error) {
	db := s.db.WithContext(ctx)

	if explicitID != 0 {
		var count int64
		if err := db.Model(&models.Restaurant{}).Where("id = ?", explicitID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, ErrRestaurantNotFound
		}
		return explicitID, nil
	}

	if subdomain != "" {
		restaurant, err := s.restaurants.GetBySubdomain(ctx, subdomain)
		if err != nil {
			return 0, err
		}
		return restaurant.ID, nil
	}

	if !s.demoFallback {
		return 0, ErrRestaurantNotFound
	}
	var restaurant models.Restaurant
	err := db.Select("id").Order("id ASC").Take(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrRestaurantNotFound
	}
	if err != nil {
		return 0, err
	}
	return restaurant.ID, nil
}

// Aggregate reads dishes, categories, allergens and settings concurrently
// and merges them into one snapshot. Any failed read fails the whole call.
func (s *MenuService) Aggregate(ctx context.Context, restaurantID uint) (*menu.Snapshot, error) {
	var (
		dishes     []models.Dish
		categories []models.Category
		allergens  []models.Allergen
		settings   *models.Settings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dishes, err = s.catalog.ListDishes(gctx, restaurantID)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.catalog.ListCategories(gctx, restaurantID)
		return err
	})
	g.Go(func() (err error) {
		allergens, err = s.catalog.ListAllergens(gctx, restaurantID)
		return err
	})
	g.Go(func() (err error) {
		settings, err = s.catalog.GetSettings(gctx, restaurantID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate menu for restaurant %d: %w", restaurantID, err)
	}

	return BuildSnapshot(restaurantID, dishes, categories, allergens, settings), nil
}

// BuildSnapshot converts catalog rows into the menu presentation.
func BuildSnapshot(restaurantID uint, dishes []models.Dish, categories []models.Category, allergens []models.Allergen, settings *models.Settings) *menu.Snapshot {
	categoryNames := make(map[uint]string, len(categories))
	snap := &menu.Snapshot{
		RestaurantID:   restaurantID,
		GeneratedAt:    time.Now().UTC(),
		MenuItems:      make([]menu.MenuItem, 0, len(dishes)),
		Categories:     make([]string, 0, len(categories)),
		Allergens:      make([]string, 0, len(allergens)),
		RestaurantInfo: RestaurantInfo(settings),
	}

	for _, c := range categories {
		categoryNames[c.ID] = c.Name
		snap.Categories = append(snap.Categories, c.Name)
	}
	for _, a := range allergens {
		snap.Allergens = append(snap.Allergens, a.Name)
	}
	for _, d := range dishes {
		snap.MenuItems = append(snap.MenuItems, toMenuItem(d, categoryNames))
	}
	return snap
}

func toMenuItem(d models.Dish, categoryNames map[uint]string) menu.MenuItem {
	item := menu.MenuItem{
		ID:        strconv.FormatUint(uint64(d.ID), 10),
		Name:      d.Name,
		Category:  menu.DefaultCategoryName,
		Image:     menu.PlaceholderImage,
		Allergens: make([]string, 0, len(d.Allergens)),
	}
	if d.Description != nil {
		item.Description = *d.Description
	}
	if d.Price != nil {
		item.Price = *d.Price
	}
	if d.CategoryID != nil {
		if name, ok := categoryNames[*d.CategoryID]; ok {
			item.Category = name
		}
	}
	if d.ImageURL != nil && *d.ImageURL != "" {
		item.Image = *d.ImageURL
	}
	for _, a := range d.Allergens {
		item.Allergens = append(item.Allergens, a.Name)
	}
	return item
}

// RestaurantInfo renders settings with defaults for every missing value.
func RestaurantInfo(settings *models.Settings) menu.RestaurantInfo {
	info := menu.RestaurantInfo{
		Name:         menu.DefaultRestaurantName,
		OpeningHours: menu.DefaultOpeningHours,
		Logo:         menu.PlaceholderImage,
	}
	if settings == nil {
		return info
	}

	info.Name = valueOr(settings.RestaurantName, menu.DefaultRestaurantName)
	info.Phone = valueOr(settings.Phone, "")
	info.Address = valueOr(settings.Address, "")
	info.SocialLinks.Facebook = valueOr(settings.FacebookURL, "")
	info.SocialLinks.Instagram = valueOr(settings.InstagramURL, "")
	info.Logo = valueOr(settings.LogoURL, menu.PlaceholderImage)
	if hours := openingHoursText(settings.OpeningHours); hours != "" {
		info.OpeningHours = hours
	}
	return info
}

// openingHoursText returns a JSON string value as is and any other JSON
// value in its serialized form.
func openingHoursText(raw []byte) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
