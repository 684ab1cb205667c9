package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/menu-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrNotOwner           = errors.New("restaurant belongs to another user")
	ErrSubdomainTaken     = errors.New("subdomain already in use")
	ErrInvalidRestaurant  = errors.New("name and subdomain are required")
	ErrInvalidSubdomain   = errors.New("subdomain may contain lowercase letters, digits and hyphens only")
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

type RestaurantService struct {
	db *gorm.DB
}

func NewRestaurantService(db *gorm.DB) *RestaurantService {
	return &RestaurantService{db: db}
}

// Create registers a restaurant owned by userID. The subdomain is fixed for
// the lifetime of the restaurant.
func (s *RestaurantService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateRestaurantRequest) (*models.Restaurant, error) {
	name := strings.TrimSpace(req.Name)
	subdomain := strings.ToLower(strings.TrimSpace(req.Subdomain))
	if name == "" || subdomain == "" {
		return nil, ErrInvalidRestaurant
	}
	if !subdomainPattern.MatchString(subdomain) {
		return nil, ErrInvalidSubdomain
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Restaurant{}).Where("subdomain = ?", subdomain).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check subdomain: %w", err)
	}
	if count > 0 {
		return nil, ErrSubdomainTaken
	}

	restaurant := models.Restaurant{
		Name:      name,
		Subdomain: subdomain,
		LogoURL:   req.LogoURL,
		UserID:    userID,
	}
	if err := db.Create(&restaurant).Error; err != nil {
		// Lost a race with a concurrent create of the same subdomain.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSubdomainTaken
		}
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	return &restaurant, nil
}

func (s *RestaurantService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&restaurants).Error
	return restaurants, err
}

// EnsureOwner loads the restaurant and checks that userID owns it.
func (s *RestaurantService) EnsureOwner(ctx context.Context, userID uuid.UUID, restaurantID uint) (*models.Restaurant, error) {
	return ensureOwner(s.db.WithContext(ctx), userID, restaurantID)
}

// GetBySubdomain matches subdomains the way Create stores them: trimmed and
// lowercased.
func (s *RestaurantService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).
		Where("subdomain = ?", strings.ToLower(strings.TrimSpace(subdomain))).
		Take(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func ensureOwner(db *gorm.DB, userID uuid.UUID, restaurantID uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := db.First(&restaurant, restaurantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant: %w", err)
	}
	if restaurant.UserID != userID {
		return nil, ErrNotOwner
	}
	return &restaurant, nil
}
