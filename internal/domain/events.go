package domain

// Property event types broadcast to live map sessions
const (
	EventPropertyCreated = "property_created"
	EventPropertyUpdated = "property_updated"
	EventPropertyDeleted = "property_deleted"
)

// PropertyEvent describes a change to the listing set. Property is nil for
// deletions; PropertyID is always set.
type PropertyEvent struct {
	Type       string    `json:"type"`
	PropertyID string    `json:"propertyId"`
	Property   *Property `json:"property,omitempty"`
}

// EventPublisher fans property changes out to interested subscribers
type EventPublisher interface {
	Publish(event PropertyEvent)
}
