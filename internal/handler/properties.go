package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/drukstay/internal/domain"
	"github.com/yourorg/drukstay/internal/observability/metrics"
	"github.com/yourorg/drukstay/internal/security/audit"
	"github.com/yourorg/drukstay/internal/security/middleware"
	"github.com/yourorg/drukstay/internal/service"
)

// amenityList tolerates clients that send amenities as something other than
// a JSON array. Any non-list value is coerced to the empty set instead of
// failing the whole request.
type amenityList []string

func (a *amenityList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		*a = amenityList{}
		return nil
	}
	*a = amenityList(list)
	return nil
}

// imageEntry is one element of an images array: either a plain URL string or
// an inline descriptor {name, mimeType, inlineData}.
type imageEntry struct {
	URL        string
	Name       string
	MimeType   string
	InlineData string
}

func (e *imageEntry) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		e.URL = url
		return nil
	}

	var inline struct {
		Name       string `json:"name"`
		MimeType   string `json:"mimeType"`
		InlineData string `json:"inlineData"`
	}
	if err := json.Unmarshal(data, &inline); err != nil {
		return err
	}
	e.Name = inline.Name
	e.MimeType = inline.MimeType
	e.InlineData = inline.InlineData
	return nil
}

type imageList []imageEntry

func (l imageList) toInputs() []service.ImageInput {
	inputs := make([]service.ImageInput, 0, len(l))
	for _, e := range l {
		inputs = append(inputs, service.ImageInput{
			URL:        e.URL,
			Name:       e.Name,
			MimeType:   e.MimeType,
			InlineData: e.InlineData,
		})
	}
	return inputs
}

// CreatePropertyRequest is the POST /api/properties payload
type CreatePropertyRequest struct {
	Title        string      `json:"title"`
	Location     string      `json:"location"`
	Price        *float64    `json:"price"`
	Availability string      `json:"availability"`
	Amenities    amenityList `json:"amenities"`
	Images       imageList   `json:"images"`
	Coordinates  []float64   `json:"coordinates"`
}

// UpdatePropertyRequest is the PUT /api/properties/{id} payload; absent
// fields leave the stored value alone.
type UpdatePropertyRequest struct {
	Title        *string      `json:"title"`
	Location     *string      `json:"location"`
	Price        *float64     `json:"price"`
	Availability *string      `json:"availability"`
	Amenities    *amenityList `json:"amenities"`
	Images       *imageList   `json:"images"`
	Coordinates  *[]float64   `json:"coordinates"`
}

// PropertiesHandler serves the property CRUD and listing endpoints
type PropertiesHandler struct {
	propertyService *service.PropertyService
	auditLog        *audit.Logger
	logger          *slog.Logger
}

// NewPropertiesHandler creates a new properties handler
func NewPropertiesHandler(propertyService *service.PropertyService, auditLog *audit.Logger, logger *slog.Logger) *PropertiesHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &PropertiesHandler{
		propertyService: propertyService,
		auditLog:        auditLog,
		logger:          logger,
	}
}

// List handles GET /api/properties. Authenticated owners get their own
// listings for management; anonymous callers get the public available set.
func (h *PropertiesHandler) List(w http.ResponseWriter, r *http.Request) {
	if callerID := middleware.CallerFromContext(r.Context()); callerID != "" {
		properties, err := h.propertyService.ListOwned(callerID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		metrics.ObservePropertyOperation("list_owned", "success")
		writeJSON(w, http.StatusOK, properties)
		return
	}

	h.listAvailable(w, r, "list_public")
}

// Available handles GET /api/properties/available
func (h *PropertiesHandler) Available(w http.ResponseWriter, r *http.Request) {
	h.listAvailable(w, r, "list_available")
}

func (h *PropertiesHandler) listAvailable(w http.ResponseWriter, r *http.Request, operation string) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	properties, err := h.propertyService.ListAvailable(filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	metrics.ObservePropertyOperation(operation, "success")
	writeJSON(w, http.StatusOK, properties)
}

// Create handles POST /api/properties
func (h *PropertiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.CallerFromContext(r.Context())
	if callerID == "" {
		h.auditLog.LogDenied(r.Context(), "", "property create without session")
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}

	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	property, err := h.propertyService.Create(callerID, service.CreatePropertyInput{
		Title:        req.Title,
		Location:     req.Location,
		Price:        req.Price,
		Availability: req.Availability,
		Amenities:    []string(req.Amenities),
		Images:       req.Images.toInputs(),
		Coordinates:  req.Coordinates,
	})
	if err != nil {
		metrics.ObservePropertyOperation("create", "failure")
		h.auditLog.LogPropertyMutation(r.Context(), callerID, "create", "", "denied")
		writeError(w, h.logger, err)
		return
	}

	metrics.ObservePropertyOperation("create", "success")
	h.auditLog.LogPropertyMutation(r.Context(), callerID, "create", property.ID, "success")
	writeJSON(w, http.StatusCreated, property)
}

// Update handles PUT /api/properties/{id}
func (h *PropertiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.CallerFromContext(r.Context())
	if callerID == "" {
		h.auditLog.LogDenied(r.Context(), "", "property update without session")
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	propertyID := r.PathValue("id")

	var req UpdatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input := service.UpdatePropertyInput{
		Title:        req.Title,
		Location:     req.Location,
		Price:        req.Price,
		Availability: req.Availability,
		Coordinates:  req.Coordinates,
	}
	if req.Amenities != nil {
		amenities := []string(*req.Amenities)
		input.Amenities = &amenities
	}
	if req.Images != nil {
		images := req.Images.toInputs()
		input.Images = &images
	}

	property, err := h.propertyService.Update(callerID, propertyID, input)
	if err != nil {
		metrics.ObservePropertyOperation("update", "failure")
		h.auditLog.LogPropertyMutation(r.Context(), callerID, "update", propertyID, "denied")
		writeError(w, h.logger, err)
		return
	}

	metrics.ObservePropertyOperation("update", "success")
	h.auditLog.LogPropertyMutation(r.Context(), callerID, "update", propertyID, "success")
	writeJSON(w, http.StatusOK, property)
}

// Delete handles DELETE /api/properties/{id}
func (h *PropertiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.CallerFromContext(r.Context())
	if callerID == "" {
		h.auditLog.LogDenied(r.Context(), "", "property delete without session")
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	propertyID := r.PathValue("id")

	if err := h.propertyService.Delete(callerID, propertyID); err != nil {
		metrics.ObservePropertyOperation("delete", "failure")
		h.auditLog.LogPropertyMutation(r.Context(), callerID, "delete", propertyID, "denied")
		writeError(w, h.logger, err)
		return
	}

	metrics.ObservePropertyOperation("delete", "success")
	h.auditLog.LogPropertyMutation(r.Context(), callerID, "delete", propertyID, "success")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Property deleted successfully"})
}

// Toggle handles PATCH /api/properties/{id}/availability
func (h *PropertiesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.CallerFromContext(r.Context())
	if callerID == "" {
		h.auditLog.LogDenied(r.Context(), "", "availability toggle without session")
		writeError(w, h.logger, domain.ErrUnauthorized)
		return
	}
	propertyID := r.PathValue("id")

	property, err := h.propertyService.ToggleAvailability(callerID, propertyID)
	if err != nil {
		metrics.ObservePropertyOperation("toggle", "failure")
		writeError(w, h.logger, err)
		return
	}

	metrics.ObservePropertyOperation("toggle", "success")
	h.auditLog.LogPropertyMutation(r.Context(), callerID, "toggle_availability", propertyID, "success")
	writeJSON(w, http.StatusOK, property)
}

// parseFilter reads listing filter params from the query string. Amenities
// may be repeated params or a single comma-separated value.
func parseFilter(r *http.Request) (domain.ListingFilter, error) {
	var filter domain.ListingFilter
	q := r.URL.Query()

	if raw := q.Get("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, domain.Validationf("minPrice must be a number")
		}
		filter.MinPrice = &v
	}
	if raw := q.Get("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, domain.Validationf("maxPrice must be a number")
		}
		filter.MaxPrice = &v
	}

	filter.Location = strings.TrimSpace(q.Get("location"))

	for _, raw := range q["amenities"] {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				filter.Amenities = append(filter.Amenities, a)
			}
		}
	}

	return filter, nil
}
