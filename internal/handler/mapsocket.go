package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/drukstay/internal/domain"
	"github.com/yourorg/drukstay/internal/mapview"
	"github.com/yourorg/drukstay/internal/observability/metrics"
	"github.com/yourorg/drukstay/internal/realtime"
	"github.com/yourorg/drukstay/internal/service"
	"github.com/yourorg/drukstay/pkg/cache"
)

const (
	listingsCacheKey = "listings:available"
	listingsCacheTTL = 2 * time.Second
	writeWait        = 5 * time.Second
	pingInterval     = 15 * time.Second
)

// mapCommand is an inbound client message on a map session
type mapCommand struct {
	Type       string  `json:"type"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Query      string  `json:"query"`
	Region     string  `json:"region"`
	PropertyID string  `json:"propertyId"`
}

// mapSnapshot is the full view state pushed after every change
type mapSnapshot struct {
	Type               string           `json:"type"`
	Viewport           mapview.Viewport `json:"viewport"`
	Markers            []mapview.Marker `json:"markers"`
	UserMarker         *mapview.LatLng  `json:"userMarker"`
	SelectedPropertyID string           `json:"selectedPropertyId"`
}

// MapSocketHandler runs websocket map sessions. Each connection owns a
// viewport controller driven by client commands and by property events
// fanned out from the hub.
type MapSocketHandler struct {
	propertyService *service.PropertyService
	hub             *realtime.Hub
	listings        *cache.Cache
	allowedOrigins  []string
	logger          *slog.Logger
}

// NewMapSocketHandler creates a new map session handler
func NewMapSocketHandler(
	propertyService *service.PropertyService,
	hub *realtime.Hub,
	listings *cache.Cache,
	allowedOrigins []string,
	logger *slog.Logger,
) *MapSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &MapSocketHandler{
		propertyService: propertyService,
		hub:             hub,
		listings:        listings,
		allowedOrigins:  allowedOrigins,
		logger:          logger,
	}
}

// upgrader is initialized per-request to use the instance's allowed origins
func (h *MapSocketHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/map
func (h *MapSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	client := h.hub.Register()
	defer h.hub.Unregister(client)
	metrics.IncrementMapSessions()
	defer metrics.DecrementMapSessions()

	controller := mapview.NewController()
	controller.SetProperties(h.availableListings())
	if err := h.writeSnapshot(ws, controller); err != nil {
		return
	}

	// Read pump: the websocket read loop runs in its own goroutine and
	// feeds commands to the session loop, which owns the controller.
	// done unblocks a pump stuck handing off a command after the loop exits.
	inbound := make(chan mapCommand)
	readDone := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(readDone)
		for {
			var cmd mapCommand
			if err := ws.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("map session read error", slog.String("error", err.Error()))
				}
				return
			}
			select {
			case inbound <- cmd:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-inbound:
			h.applyCommand(controller, cmd)
			if err := h.writeSnapshot(ws, controller); err != nil {
				return
			}

		case _, open := <-client.Send:
			if !open {
				return
			}
			// A property changed somewhere; refresh markers from a fresh
			// listing snapshot rather than patching from the event.
			h.listings.Delete(listingsCacheKey)
			controller.SetProperties(h.availableListings())
			if err := h.writeSnapshot(ws, controller); err != nil {
				return
			}

		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-readDone:
			return

		case <-r.Context().Done():
			return
		}
	}
}

func (h *MapSocketHandler) applyCommand(c *mapview.Controller, cmd mapCommand) {
	switch cmd.Type {
	case "location":
		c.LocationAcquired(cmd.Lat, cmd.Lng)
	case "location_failed":
		c.LocationFailed()
	case "search":
		c.Search(cmd.Query)
	case "select_region":
		c.SelectRegion(cmd.Region)
	case "select_property":
		c.SelectProperty(cmd.PropertyID)
	case "center_on_user":
		c.CenterOnUser()
	default:
		h.logger.Debug("unknown map command", slog.String("type", cmd.Type))
	}
}

func (h *MapSocketHandler) writeSnapshot(ws *websocket.Conn, c *mapview.Controller) error {
	snapshot := mapSnapshot{
		Type:               "viewport",
		Viewport:           c.Viewport(),
		Markers:            c.Markers(),
		UserMarker:         c.UserMarker(),
		SelectedPropertyID: c.SelectedProperty(),
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(websocket.TextMessage, payload)
}

// availableListings returns the shared available-listings snapshot so many
// concurrent sessions do not each hit the database per broadcast.
func (h *MapSocketHandler) availableListings() []*domain.Property {
	if cached, ok := h.listings.Get(listingsCacheKey); ok {
		if properties, ok := cached.([]*domain.Property); ok {
			return properties
		}
	}

	properties, err := h.propertyService.ListAvailable(domain.ListingFilter{})
	if err != nil {
		h.logger.Error("failed to load listings for map session", slog.String("error", err.Error()))
		return nil
	}

	h.listings.Set(listingsCacheKey, properties, listingsCacheTTL)
	return properties
}
