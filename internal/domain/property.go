package domain

import "time"

// Availability states for a property listing
const (
	AvailabilityAvailable = "Available"
	AvailabilityOccupied  = "Occupied"
)

// Property represents a rental listing owned by a single user
type Property struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	Price        float64   `json:"price"`
	Availability string    `json:"availability"`
	Amenities    []string  `json:"amenities"`
	Images       []string  `json:"images"`
	Coordinates  []float64 `json:"coordinates,omitempty"` // [lat, lng] when known
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasCoordinates reports whether the property carries a usable map position
func (p *Property) HasCoordinates() bool {
	return len(p.Coordinates) == 2
}

// PropertyUpdate carries a partial update; nil fields are left unchanged
type PropertyUpdate struct {
	Title        *string
	Location     *string
	Price        *float64
	Availability *string
	Amenities    *[]string
	Images       *[]string
	Coordinates  *[]float64
}

// ListingFilter narrows the public available-properties listing.
// Zero values mean "no constraint"; Amenities uses any-match semantics.
type ListingFilter struct {
	MinPrice  *float64
	MaxPrice  *float64
	Location  string
	Amenities []string
}

// PropertyRepository defines data access for properties.
// UpdateOwned and DeleteOwned must apply the ownership check and the mutation
// as one conditional statement so concurrent callers cannot race it.
type PropertyRepository interface {
	Create(property *Property) error
	GetByID(id string) (*Property, error)
	UpdateOwned(id, ownerID string, update PropertyUpdate) (*Property, error)
	DeleteOwned(id, ownerID string) error
	ListByOwner(ownerID string) ([]*Property, error)
	ListAvailable(filter ListingFilter) ([]*Property, error)
	ReferencedImages() (map[string]bool, error)
}
