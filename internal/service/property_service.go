package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/drukstay/internal/domain"
)

// ImageStore persists inline image payloads and returns hosted URLs
type ImageStore interface {
	SaveInline(name, mimeType, inlineData string) (string, error)
}

// ImageInput is either an already-hosted URL or an inline descriptor
// awaiting upload.
type ImageInput struct {
	URL        string
	Name       string
	MimeType   string
	InlineData string
}

// CreatePropertyInput carries the fields accepted on property creation
type CreatePropertyInput struct {
	Title        string
	Location     string
	Price        *float64
	Availability string
	Amenities    []string
	Images       []ImageInput
	Coordinates  []float64
}

// UpdatePropertyInput mirrors domain.PropertyUpdate with inline image support
type UpdatePropertyInput struct {
	Title        *string
	Location     *string
	Price        *float64
	Availability *string
	Amenities    *[]string
	Images       *[]ImageInput
	Coordinates  *[]float64
}

// PropertyService implements listing CRUD with ownership authorization
type PropertyService struct {
	propertyRepo domain.PropertyRepository
	userRepo     domain.UserRepository
	images       ImageStore
	events       domain.EventPublisher
	logger       *slog.Logger
}

// NewPropertyService creates a new property service. events may be nil when
// no live feed is attached (tests, CLI tooling).
func NewPropertyService(
	propertyRepo domain.PropertyRepository,
	userRepo domain.UserRepository,
	images ImageStore,
	events domain.EventPublisher,
	logger *slog.Logger,
) *PropertyService {
	if logger == nil {
		logger = slog.Default()
	}

	return &PropertyService{
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
		images:       images,
		events:       events,
		logger:       logger,
	}
}

// Create validates input, enforces the OWNER role, uploads inline images and
// writes the property record. The record is owned by the caller regardless
// of anything the client supplied. Image upload is atomic with respect to
// the record: any decode/write failure aborts the call before the property
// exists; files already written in the failed batch are left for the janitor.
func (s *PropertyService) Create(callerID string, input CreatePropertyInput) (*domain.Property, error) {
	caller, err := s.userRepo.GetByID(callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load caller: %w", err)
	}
	if caller.Role != domain.RoleOwner {
		return nil, domain.ErrForbidden
	}

	if input.Title == "" || input.Location == "" {
		return nil, domain.Validationf("title and location are required")
	}
	if input.Price == nil {
		return nil, domain.Validationf("price is required")
	}
	if *input.Price < 0 {
		return nil, domain.Validationf("price must be non-negative")
	}

	availability := input.Availability
	if availability == "" {
		availability = domain.AvailabilityAvailable
	}
	if availability != domain.AvailabilityAvailable && availability != domain.AvailabilityOccupied {
		return nil, domain.Validationf("availability must be Available or Occupied")
	}

	if err := validateCoordinates(input.Coordinates); err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(input.Images)
	if err != nil {
		return nil, err
	}

	property := &domain.Property{
		OwnerID:      caller.ID,
		Title:        input.Title,
		Location:     input.Location,
		Price:        *input.Price,
		Availability: availability,
		Amenities:    normalizeAmenities(input.Amenities),
		Images:       urls,
		Coordinates:  input.Coordinates,
	}

	if err := s.propertyRepo.Create(property); err != nil {
		return nil, err
	}

	s.logger.Info("property created",
		slog.String("property_id", property.ID),
		slog.String("owner_id", property.OwnerID),
	)
	s.publish(domain.PropertyEvent{
		Type:       domain.EventPropertyCreated,
		PropertyID: property.ID,
		Property:   property,
	})

	return property, nil
}

// Update applies a partial update to a property the caller owns
func (s *PropertyService) Update(callerID, propertyID string, input UpdatePropertyInput) (*domain.Property, error) {
	if input.Price != nil && *input.Price < 0 {
		return nil, domain.Validationf("price must be non-negative")
	}
	if input.Availability != nil &&
		*input.Availability != domain.AvailabilityAvailable &&
		*input.Availability != domain.AvailabilityOccupied {
		return nil, domain.Validationf("availability must be Available or Occupied")
	}
	if input.Coordinates != nil {
		if err := validateCoordinates(*input.Coordinates); err != nil {
			return nil, err
		}
	}

	update := domain.PropertyUpdate{
		Title:        input.Title,
		Location:     input.Location,
		Price:        input.Price,
		Availability: input.Availability,
		Coordinates:  input.Coordinates,
	}

	if input.Amenities != nil {
		normalized := normalizeAmenities(*input.Amenities)
		update.Amenities = &normalized
	}

	if input.Images != nil {
		urls, err := s.uploadImages(*input.Images)
		if err != nil {
			return nil, err
		}
		update.Images = &urls
	}

	property, err := s.propertyRepo.UpdateOwned(propertyID, callerID, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("property updated",
		slog.String("property_id", property.ID),
		slog.String("owner_id", callerID),
	)
	s.publish(domain.PropertyEvent{
		Type:       domain.EventPropertyUpdated,
		PropertyID: property.ID,
		Property:   property,
	})

	return property, nil
}

// Delete removes a property the caller owns. No soft-delete.
func (s *PropertyService) Delete(callerID, propertyID string) error {
	if err := s.propertyRepo.DeleteOwned(propertyID, callerID); err != nil {
		return err
	}

	s.logger.Info("property deleted",
		slog.String("property_id", propertyID),
		slog.String("owner_id", callerID),
	)
	s.publish(domain.PropertyEvent{
		Type:       domain.EventPropertyDeleted,
		PropertyID: propertyID,
	})

	return nil
}

// ToggleAvailability flips a property between Available and Occupied
func (s *PropertyService) ToggleAvailability(callerID, propertyID string) (*domain.Property, error) {
	current, err := s.propertyRepo.GetByID(propertyID)
	if err != nil {
		return nil, err
	}

	next := domain.AvailabilityAvailable
	if current.Availability == domain.AvailabilityAvailable {
		next = domain.AvailabilityOccupied
	}

	// UpdateOwned re-checks ownership atomically; the read above only
	// chose the target state.
	return s.Update(callerID, propertyID, UpdatePropertyInput{Availability: &next})
}

// ListOwned returns the caller's properties, newest first
func (s *PropertyService) ListOwned(callerID string) ([]*domain.Property, error) {
	return s.propertyRepo.ListByOwner(callerID)
}

// ListAvailable returns the public listing honoring the filter
func (s *PropertyService) ListAvailable(filter domain.ListingFilter) ([]*domain.Property, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, domain.Validationf("minPrice must not exceed maxPrice")
	}
	return s.propertyRepo.ListAvailable(filter)
}

// uploadImages resolves a mixed batch of hosted URLs and inline descriptors.
// The first failing descriptor aborts the whole batch.
func (s *PropertyService) uploadImages(inputs []ImageInput) ([]string, error) {
	urls := make([]string, 0, len(inputs))
	for i, img := range inputs {
		if img.URL != "" {
			urls = append(urls, img.URL)
			continue
		}
		if s.images == nil {
			return nil, fmt.Errorf("%w: no image store configured", domain.ErrUpload)
		}
		url, err := s.images.SaveInline(img.Name, img.MimeType, img.InlineData)
		if err != nil {
			s.logger.Error("image upload failed mid-batch",
				slog.Int("index", i),
				slog.String("name", img.Name),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("%w: image %d of %d: %s", domain.ErrUpload, i+1, len(inputs), err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *PropertyService) publish(event domain.PropertyEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

// normalizeAmenities trims tags and drops empties; a nil list stays an empty
// set rather than an error.
func normalizeAmenities(amenities []string) []string {
	out := make([]string, 0, len(amenities))
	seen := map[string]bool{}
	for _, a := range amenities {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func validateCoordinates(coords []float64) error {
	if len(coords) != 0 && len(coords) != 2 {
		return domain.Validationf("coordinates must be [lat, lng]")
	}
	return nil
}
