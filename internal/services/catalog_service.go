package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/menu"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/tenant"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDishNotFound    = errors.New("dish not found")
	ErrForeignAllergen = errors.New("allergen does not belong to this restaurant")
	ErrNameRequired    = errors.New("name is required")
)

// CatalogKind selects the lookup table for ResolveOrCreate.
type CatalogKind int

const (
	KindCategory CatalogKind = iota
	KindAllergen
)

var settingsColumns = []string{
	"restaurant_name", "address", "phone", "opening_hours",
	"facebook_url", "instagram_url", "other_social", "logo_url",
}

// CatalogService reads and writes one restaurant's dishes, categories,
// allergens and settings. Every method takes the restaurant explicitly; a
// zero id addresses legacy rows without a restaurant.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ResolveOrCreate returns the id of the named category or allergen, creating
// it when missing. Concurrent first creates converge on a single row.
func (s *CatalogService) ResolveOrCreate(ctx context.Context, kind CatalogKind, restaurantID uint, name string) (uint, error) {
	return resolveOrCreate(s.db.WithContext(ctx), kind, restaurantID, name)
}

func resolveOrCreate(db *gorm.DB, kind CatalogKind, restaurantID uint, name string) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrNameRequired
	}

	model := catalogModel(kind)
	if id, err := lookupID(db, model, restaurantID, name); err != nil || id != 0 {
		return id, err
	}

	var (
		res       *gorm.DB
		createdID uint
	)
	insert := db.Clauses(clause.OnConflict{DoNothing: true})
	switch kind {
	case KindCategory:
		next, err := nextOrderIndex(db, restaurantID)
		if err != nil {
			return 0, err
		}
		row := &models.Category{Name: name, OrderIndex: next, RestaurantID: tenant.RestaurantRef(restaurantID)}
		res = insert.Create(row)
		createdID = row.ID
	case KindAllergen:
		row := &models.Allergen{Name: name, RestaurantID: tenant.RestaurantRef(restaurantID)}
		res = insert.Create(row)
		createdID = row.ID
	}
	if res.Error != nil {
		return 0, fmt.Errorf("failed to create %s %q: %w", kindName(kind), name, res.Error)
	}
	if res.RowsAffected > 0 && createdID != 0 {
		return createdID, nil
	}

	// Another writer inserted the same name first.
	id, err := lookupID(db, model, restaurantID, name)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("failed to resolve %s %q", kindName(kind), name)
	}
	return id, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, restaurantID uint) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForRestaurant(restaurantID)).
		Order("order_index ASC, id ASC").
		Find(&categories).Error
	return categories, err
}

func (s *CatalogService) ListAllergens(ctx context.Context, restaurantID uint) ([]models.Allergen, error) {
	var allergens []models.Allergen
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForRestaurant(restaurantID)).
		Order("name ASC").
		Find(&allergens).Error
	return allergens, err
}

// ListDishes returns the restaurant's dishes with their allergens loaded.
func (s *CatalogService) ListDishes(ctx context.Context, restaurantID uint) ([]models.Dish, error) {
	var dishes []models.Dish
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForRestaurant(restaurantID)).
		Preload("Allergens", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Order("id ASC").
		Find(&dishes).Error
	return dishes, err
}

func (s *CatalogService) GetDish(ctx context.Context, restaurantID, dishID uint) (*models.Dish, error) {
	var dish models.Dish
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForRestaurant(restaurantID)).
		Preload("Allergens").
		Where("id = ?", dishID).
		Take(&dish).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDishNotFound
	}
	return &dish, err
}

// DishAllergenNames returns the allergen names attached to one of the
// restaurant's dishes.
func (s *CatalogService) DishAllergenNames(ctx context.Context, restaurantID, dishID uint) ([]string, error) {
	db := s.db.WithContext(ctx)
	if err := findDish(db, restaurantID, dishID); err != nil {
		return nil, err
	}

	names := []string{}
	err := db.
		Model(&models.Allergen{}).
		Joins("JOIN dish_allergens ON dish_allergens.allergen_id = allergens.id").
		Where("dish_allergens.dish_id = ?", dishID).
		Order("allergens.name ASC").
		Pluck("allergens.name", &names).Error
	return names, err
}

// CreateDish stores a dish, creating its category and allergens by name
// when needed. All writes share one transaction.
func (s *CatalogService) CreateDish(ctx context.Context, restaurantID uint, in *dto.MenuItemInput) (*models.Dish, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}

	var dish models.Dish
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryID, allergenIDs, err := resolveDishRefs(tx, restaurantID, in)
		if err != nil {
			return err
		}

		dish = models.Dish{
			Name:         strings.TrimSpace(in.Name),
			Description:  in.Description,
			Price:        in.Price,
			CategoryID:   categoryID,
			ImageURL:     storedImage(in.Image),
			RestaurantID: tenant.RestaurantRef(restaurantID),
		}
		if err := tx.Create(&dish).Error; err != nil {
			return fmt.Errorf("failed to create dish: %w", err)
		}
		return setDishAllergens(tx, restaurantID, dish.ID, allergenIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetDish(ctx, restaurantID, dish.ID)
}

// UpdateDish replaces every editable field of a dish and its allergen set.
func (s *CatalogService) UpdateDish(ctx context.Context, restaurantID, dishID uint, in *dto.MenuItemInput) (*models.Dish, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findDish(tx, restaurantID, dishID); err != nil {
			return err
		}
		categoryID, allergenIDs, err := resolveDishRefs(tx, restaurantID, in)
		if err != nil {
			return err
		}

		updates := models.Dish{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       in.Price,
			CategoryID:  categoryID,
			ImageURL:    storedImage(in.Image),
		}
		err = tx.Model(&models.Dish{ID: dishID}).
			Select("name", "description", "price", "category_id", "image_url").
			Updates(&updates).Error
		if err != nil {
			return fmt.Errorf("failed to update dish: %w", err)
		}
		return setDishAllergens(tx, restaurantID, dishID, allergenIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.GetDish(ctx, restaurantID, dishID)
}

// DeleteDish removes a dish together with its allergen links.
func (s *CatalogService) DeleteDish(ctx context.Context, restaurantID, dishID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findDish(tx, restaurantID, dishID); err != nil {
			return err
		}
		if err := tx.Where("dish_id = ?", dishID).Delete(&models.DishAllergen{}).Error; err != nil {
			return fmt.Errorf("failed to delete dish allergens: %w", err)
		}
		return tx.Delete(&models.Dish{}, dishID).Error
	})
}

// UpdateDishAllergens replaces the allergen set of a dish atomically. Every
// allergen must belong to the same restaurant.
func (s *CatalogService) UpdateDishAllergens(ctx context.Context, restaurantID, dishID uint, allergenIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findDish(tx, restaurantID, dishID); err != nil {
			return err
		}
		return setDishAllergens(tx, restaurantID, dishID, allergenIDs)
	})
}

// GetSettings returns the restaurant's settings row, or nil when it has none.
func (s *CatalogService) GetSettings(ctx context.Context, restaurantID uint) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForRestaurant(restaurantID)).
		Order("id ASC").
		Take(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings creates or replaces the restaurant's settings in a single
// upsert on restaurant_id.
func (s *CatalogService) SaveSettings(ctx context.Context, restaurantID uint, in *dto.RestaurantInfoInput) (*models.Settings, error) {
	row := models.Settings{
		RestaurantID:   tenant.RestaurantRef(restaurantID),
		RestaurantName: in.Name,
		Address:        in.Address,
		Phone:          in.Phone,
		OpeningHours:   datatypes.JSON(in.OpeningHours),
		FacebookURL:    in.FacebookURL,
		InstagramURL:   in.InstagramURL,
		OtherSocial:    in.OtherSocial,
		LogoURL:        in.Logo,
	}

	db := s.db.WithContext(ctx)
	if restaurantID == 0 {
		// Legacy rows have no unique key to conflict on.
		existing, err := s.GetSettings(ctx, 0)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			err = db.Create(&row).Error
		} else {
			row.ID = existing.ID
			err = db.Model(&models.Settings{ID: existing.ID}).Select(settingsColumns).Updates(&row).Error
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save settings: %w", err)
		}
		return &row, nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "restaurant_id"}},
		DoUpdates: clause.AssignmentColumns(settingsColumns),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return s.GetSettings(ctx, restaurantID)
}

func resolveDishRefs(tx *gorm.DB, restaurantID uint, in *dto.MenuItemInput) (*uint, []uint, error) {
	var categoryID *uint
	if name := strings.TrimSpace(in.Category); name != "" {
		id, err := resolveOrCreate(tx, KindCategory, restaurantID, name)
		if err != nil {
			return nil, nil, err
		}
		categoryID = &id
	}

	allergenIDs := make([]uint, 0, len(in.Allergens))
	for _, name := range in.Allergens {
		if strings.TrimSpace(name) == "" {
			continue
		}
		id, err := resolveOrCreate(tx, KindAllergen, restaurantID, name)
		if err != nil {
			return nil, nil, err
		}
		allergenIDs = append(allergenIDs, id)
	}
	return categoryID, allergenIDs, nil
}

func setDishAllergens(tx *gorm.DB, restaurantID, dishID uint, allergenIDs []uint) error {
	ids := uniqueIDs(allergenIDs)
	if len(ids) > 0 {
		var owned int64
		err := tx.Model(&models.Allergen{}).
			Scopes(tenant.ForRestaurant(restaurantID)).
			Where("id IN ?", ids).
			Count(&owned).Error
		if err != nil {
			return err
		}
		if int(owned) != len(ids) {
			return ErrForeignAllergen
		}
	}

	if err := tx.Where("dish_id = ?", dishID).Delete(&models.DishAllergen{}).Error; err != nil {
		return fmt.Errorf("failed to clear dish allergens: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	links := make([]models.DishAllergen, 0, len(ids))
	for _, id := range ids {
		links = append(links, models.DishAllergen{DishID: dishID, AllergenID: id})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link dish allergens: %w", err)
	}
	return nil
}

func findDish(tx *gorm.DB, restaurantID, dishID uint) error {
	var count int64
	err := tx.Model(&models.Dish{}).
		Scopes(tenant.ForRestaurant(restaurantID)).
		Where("id = ?", dishID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrDishNotFound
	}
	return nil
}

func lookupID(db *gorm.DB, model interface{}, restaurantID uint, name string) (uint, error) {
	var ids []uint
	err := db.Model(model).
		Scopes(tenant.ForRestaurant(restaurantID)).
		Where("name = ?", name).
		Order("id ASC").
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}

func nextOrderIndex(db *gorm.DB, restaurantID uint) (int, error) {
	var last int
	err := db.Model(&models.Category{}).
		Scopes(tenant.ForRestaurant(restaurantID)).
		Select("COALESCE(MAX(order_index), -1)").
		Row().Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to read category order: %w", err)
	}
	return last + 1, nil
}

func catalogModel(kind CatalogKind) interface{} {
	if kind == KindAllergen {
		return &models.Allergen{}
	}
	return &models.Category{}
}

func kindName(kind CatalogKind) string {
	if kind == KindAllergen {
		return "allergen"
	}
	return "category"
}

// storedImage drops the placeholder so it is never persisted as a real URL.
func storedImage(image *string) *string {
	if image == nil || *image == "" || *image == menu.PlaceholderImage {
		return nil
	}
	return image
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
