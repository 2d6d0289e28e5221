// Package mapview owns the browse-map viewport state. Four independent
// signal sources (user geolocation, active search location, explicit
// recenter requests, property selection) are reconciled into one
// deterministic viewport through a strict precedence order:
//
//  1. explicit center-on-user request with a known user location
//  2. active search/selection location
//  3. fixed default town center, once any search has happened
//  4. one-time centering on the user location at initial acquisition,
//     otherwise the fixed default center
package mapview

import (
	"math"

	"github.com/yourorg/drukstay/internal/domain"
)

// Viewport is the resolved map view
type Viewport struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

// Marker is a property pin on the map
type Marker struct {
	PropertyID string  `json:"propertyId"`
	Position   LatLng  `json:"position"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
}

// Controller reconciles viewport signals. It is not safe for concurrent
// use; each map session drives its controller from a single goroutine.
type Controller struct {
	userLocation    *LatLng
	activeLocation  *LatLng
	centerOnUser    bool
	hasSearched     bool
	initialCentered bool
	selected        string
	markers         []Marker
	userMarker      *LatLng
	viewport        Viewport
}

// NewController starts at the fixed default center
func NewController() *Controller {
	return &Controller{
		viewport: Viewport{Center: DefaultCenter, Zoom: DefaultZoom},
	}
}

// LocationAcquired records a geolocation fix. Before any search, the first
// valid fix centers the map once; later fixes only move the user marker.
// Invalid coordinates are treated as a failed acquisition.
func (c *Controller) LocationAcquired(lat, lng float64) {
	if !validCoordinate(lat, lng) {
		c.LocationFailed()
		return
	}
	loc := LatLng{Lat: lat, Lng: lng}
	c.userLocation = &loc
	c.userMarker = &loc // replaced, never accumulated
	if !c.hasSearched && !c.initialCentered {
		c.initialCentered = true
	}
	c.recompute()
}

// LocationFailed substitutes the fixed fallback for the user location, as
// the browse page does when geolocation errors or times out.
func (c *Controller) LocationFailed() {
	loc := DefaultCenter
	c.userLocation = &loc
	c.userMarker = &loc
	if !c.hasSearched && !c.initialCentered {
		c.initialCentered = true
	}
	c.recompute()
}

// Search resolves a free-text query against the region table. Any search
// marks the session as searched; an explicit recenter request is dropped so
// the search result wins.
func (c *Controller) Search(query string) {
	c.hasSearched = true
	c.centerOnUser = false
	if region, ok := MatchRegion(query); ok {
		center := region.Center
		c.activeLocation = &center
	}
	c.recompute()
}

// SelectRegion handles the dzongkhag dropdown. An empty name ("all
// regions") clears the active location and recenters on the user when a
// location is known.
func (c *Controller) SelectRegion(name string) {
	if name == "" {
		c.activeLocation = nil
		c.centerOnUser = c.userLocation != nil
		c.recompute()
		return
	}
	region, ok := LookupRegion(name)
	if !ok {
		return
	}
	c.hasSearched = true
	c.centerOnUser = false
	center := region.Center
	c.activeLocation = &center
	c.recompute()
}

// SelectProperty marks a marker as selected and centers on it
func (c *Controller) SelectProperty(propertyID string) {
	for _, m := range c.markers {
		if m.PropertyID == propertyID {
			c.selected = propertyID
			c.hasSearched = true
			c.centerOnUser = false
			pos := m.Position
			c.activeLocation = &pos
			c.recompute()
			return
		}
	}
}

// CenterOnUser handles the explicit "my location" request. Without a known
// user location it is a no-op.
func (c *Controller) CenterOnUser() {
	if c.userLocation == nil {
		return
	}
	c.centerOnUser = true
	c.recompute()
}

// SetProperties replaces the full marker set (no diffing). Properties
// without valid 2-element coordinates are silently excluded from the map;
// they still appear in list views. A selected property that disappeared
// from the set is deselected.
func (c *Controller) SetProperties(properties []*domain.Property) {
	markers := make([]Marker, 0, len(properties))
	selectedAlive := false
	for _, p := range properties {
		if !p.HasCoordinates() || !validCoordinate(p.Coordinates[0], p.Coordinates[1]) {
			continue
		}
		if p.ID == c.selected {
			selectedAlive = true
		}
		markers = append(markers, Marker{
			PropertyID: p.ID,
			Position:   LatLng{Lat: p.Coordinates[0], Lng: p.Coordinates[1]},
			Title:      p.Title,
			Price:      p.Price,
		})
	}
	c.markers = markers
	if !selectedAlive {
		c.selected = ""
	}
	c.recompute()
}

// Viewport returns the current resolved viewport
func (c *Controller) Viewport() Viewport {
	return c.viewport
}

// Markers returns the current property markers
func (c *Controller) Markers() []Marker {
	return c.markers
}

// UserMarker returns the user-location marker, nil until a fix or fallback
func (c *Controller) UserMarker() *LatLng {
	if c.userMarker == nil {
		return nil
	}
	m := *c.userMarker
	return &m
}

// SelectedProperty returns the id of the selected marker, "" for none
func (c *Controller) SelectedProperty() string {
	return c.selected
}

// recompute applies the precedence order to derive the viewport
func (c *Controller) recompute() {
	switch {
	case c.centerOnUser && c.userLocation != nil:
		c.viewport = Viewport{Center: *c.userLocation, Zoom: UserLocationZoom}
	case c.activeLocation != nil:
		c.viewport = Viewport{Center: *c.activeLocation, Zoom: DefaultZoom}
	case c.hasSearched:
		c.viewport = Viewport{Center: DefaultCenter, Zoom: DefaultZoom}
	case c.userLocation != nil && c.initialCentered:
		c.viewport = Viewport{Center: *c.userLocation, Zoom: UserLocationZoom}
	default:
		c.viewport = Viewport{Center: DefaultCenter, Zoom: DefaultZoom}
	}
}

func validCoordinate(lat, lng float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) &&
		!math.IsNaN(lng) && !math.IsInf(lng, 0)
}
