package service

import (
	"context"
	"strings"

	"leadwire/internal/errors"
	"leadwire/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PropertyStore defines the storage operations the listing catalog needs.
type PropertyStore interface {
	SaveProperty(ctx context.Context, property *models.Property) error
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	ListProperties(ctx context.Context) ([]models.Property, error)
	UpdateProperty(ctx context.Context, property *models.Property) error
	DeleteProperty(ctx context.Context, id string) (bool, error)
	CountPropertiesByStatus(ctx context.Context, status models.PropertyStatus) (int, error)
}

// PropertyService is the listing catalog behind the operator API and the
// auto-responder's inventory count.
type PropertyService struct {
	db     PropertyStore
	logger *logrus.Logger
}

func NewPropertyService(db PropertyStore, logger *logrus.Logger) *PropertyService {
	return &PropertyService{db: db, logger: logger}
}

// PropertyInput is the operator-supplied listing payload.
type PropertyInput struct {
	Address       string                `json:"address"`
	City          string                `json:"city"`
	State         string                `json:"state"`
	ZipCode       string                `json:"zipCode"`
	Price         float64               `json:"price"`
	Bedrooms      int                   `json:"bedrooms"`
	Bathrooms     float64               `json:"bathrooms"`
	SquareFootage int                   `json:"squareFootage"`
	Description   string                `json:"description"`
	Status        models.PropertyStatus `json:"status"`
}

func (in PropertyInput) validate() error {
	if strings.TrimSpace(in.Address) == "" {
		return errors.NewValidationError("address", "address is required")
	}
	if in.Price < 0 {
		return errors.NewValidationError("price", "price cannot be negative")
	}
	if in.Bedrooms < 0 {
		return errors.NewValidationError("bedrooms", "bedrooms cannot be negative")
	}
	if in.Bathrooms < 0 {
		return errors.NewValidationError("bathrooms", "bathrooms cannot be negative")
	}
	if in.Status != "" && !in.Status.IsValid() {
		return errors.NewValidationError("status", "unknown property status")
	}
	return nil
}

func (s *PropertyService) CreateProperty(ctx context.Context, input PropertyInput) (*models.Property, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.PropertyStatusAvailable
	}

	property := &models.Property{
		ID:            uuid.NewString(),
		Address:       strings.TrimSpace(input.Address),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		ZipCode:       strings.TrimSpace(input.ZipCode),
		Price:         input.Price,
		Bedrooms:      input.Bedrooms,
		Bathrooms:     input.Bathrooms,
		SquareFootage: input.SquareFootage,
		Description:   strings.TrimSpace(input.Description),
		Status:        status,
	}

	if err := s.db.SaveProperty(ctx, property); err != nil {
		return nil, errors.NewStorageError("property create", err)
	}

	s.logger.WithField("property_id", property.ID).Info("Property created")

	return s.GetProperty(ctx, property.ID)
}

func (s *PropertyService) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	property, err := s.db.GetProperty(ctx, id)
	if err != nil {
		return nil, errors.NewStorageError("property lookup", err)
	}
	if property == nil {
		return nil, errors.NewNotFoundError("Property", id)
	}
	return property, nil
}

func (s *PropertyService) ListProperties(ctx context.Context) ([]models.Property, error) {
	properties, err := s.db.ListProperties(ctx)
	if err != nil {
		return nil, errors.NewStorageError("property list", err)
	}
	return properties, nil
}

// UpdateProperty applies an operator edit over the existing row. Zero-valued
// numeric fields in the input are treated as "unchanged" to match partial
// updates from the API.
func (s *PropertyService) UpdateProperty(ctx context.Context, id string, input PropertyInput) (*models.Property, error) {
	if input.Price < 0 {
		return nil, errors.NewValidationError("price", "price cannot be negative")
	}
	if input.Bedrooms < 0 {
		return nil, errors.NewValidationError("bedrooms", "bedrooms cannot be negative")
	}
	if input.Bathrooms < 0 {
		return nil, errors.NewValidationError("bathrooms", "bathrooms cannot be negative")
	}

	existing, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Address) != "" {
		existing.Address = strings.TrimSpace(input.Address)
	}
	if strings.TrimSpace(input.City) != "" {
		existing.City = strings.TrimSpace(input.City)
	}
	if strings.TrimSpace(input.State) != "" {
		existing.State = strings.TrimSpace(input.State)
	}
	if strings.TrimSpace(input.ZipCode) != "" {
		existing.ZipCode = strings.TrimSpace(input.ZipCode)
	}
	if input.Price > 0 {
		existing.Price = input.Price
	}
	if input.Bedrooms > 0 {
		existing.Bedrooms = input.Bedrooms
	}
	if input.Bathrooms > 0 {
		existing.Bathrooms = input.Bathrooms
	}
	if input.SquareFootage > 0 {
		existing.SquareFootage = input.SquareFootage
	}
	if strings.TrimSpace(input.Description) != "" {
		existing.Description = strings.TrimSpace(input.Description)
	}
	if input.Status != "" {
		if !input.Status.IsValid() {
			return nil, errors.NewValidationError("status", "unknown property status")
		}
		existing.Status = input.Status
	}

	if err := s.db.UpdateProperty(ctx, existing); err != nil {
		return nil, errors.NewStorageError("property update", err)
	}

	return s.GetProperty(ctx, id)
}

func (s *PropertyService) DeleteProperty(ctx context.Context, id string) error {
	deleted, err := s.db.DeleteProperty(ctx, id)
	if err != nil {
		return errors.NewStorageError("property delete", err)
	}
	if !deleted {
		return errors.NewNotFoundError("Property", id)
	}
	return nil
}

// CountAvailable reports how many listings are currently available.
func (s *PropertyService) CountAvailable(ctx context.Context) (int, error) {
	count, err := s.db.CountPropertiesByStatus(ctx, models.PropertyStatusAvailable)
	if err != nil {
		return 0, errors.NewStorageError("property count", err)
	}
	return count, nil
}
