package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/drukstay/internal/domain"
	"github.com/yourorg/drukstay/internal/security/audit"
	"github.com/yourorg/drukstay/internal/security/auth"
	"github.com/yourorg/drukstay/internal/security/middleware"
	"github.com/yourorg/drukstay/internal/service"
)

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (r *memUserRepo) Create(user *domain.User) error {
	if _, taken := r.byEmail[user.Email]; taken {
		return domain.ErrEmailTaken
	}
	user.ID = uuid.NewString()
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *memUserRepo) GetByID(id string) (*domain.User, error) {
	if u, ok := r.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) GetByEmail(email string) (*domain.User, error) {
	if u, ok := r.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) Update(user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *user
	r.byID[user.ID] = &stored
	return nil
}

type memPropertyRepo struct {
	properties map[string]*domain.Property
	order      []string
}

func newMemPropertyRepo() *memPropertyRepo {
	return &memPropertyRepo{properties: map[string]*domain.Property{}}
}

func (r *memPropertyRepo) Create(p *domain.Property) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	r.properties[p.ID] = &stored
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memPropertyRepo) GetByID(id string) (*domain.Property, error) {
	if p, ok := r.properties[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memPropertyRepo) UpdateOwned(id, ownerID string, update domain.PropertyUpdate) (*domain.Property, error) {
	p, ok := r.properties[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	if update.Title != nil {
		p.Title = *update.Title
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Availability != nil {
		p.Availability = *update.Availability
	}
	if update.Amenities != nil {
		p.Amenities = *update.Amenities
	}
	copied := *p
	return &copied, nil
}

func (r *memPropertyRepo) DeleteOwned(id, ownerID string) error {
	p, ok := r.properties[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	delete(r.properties, id)
	return nil
}

func (r *memPropertyRepo) ListByOwner(ownerID string) ([]*domain.Property, error) {
	out := []*domain.Property{}
	for i := len(r.order) - 1; i >= 0; i-- {
		if p, ok := r.properties[r.order[i]]; ok && p.OwnerID == ownerID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ListAvailable walks insertion order newest first and applies the same
// predicate as the SQL listing: price bounds, case-insensitive literal
// location substring, amenity any-match.
func (r *memPropertyRepo) ListAvailable(filter domain.ListingFilter) ([]*domain.Property, error) {
	out := []*domain.Property{}
	for i := len(r.order) - 1; i >= 0; i-- {
		p, ok := r.properties[r.order[i]]
		if !ok || p.Availability != domain.AvailabilityAvailable {
			continue
		}
		if filter.MinPrice != nil && p.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		if filter.Location != "" &&
			!strings.Contains(strings.ToLower(p.Location), strings.ToLower(filter.Location)) {
			continue
		}
		if len(filter.Amenities) > 0 && !overlaps(filter.Amenities, p.Amenities) {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func overlaps(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

func (r *memPropertyRepo) ReferencedImages() (map[string]bool, error) {
	return map[string]bool{}, nil
}

// newTestServer wires the API against in-memory repositories, mirroring the
// production route table.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	tm := auth.NewTokenManager("test-secret", "drukstay-test", 24*time.Hour, false)
	auditLog := audit.NewLogger(logger)

	userRepo := newMemUserRepo()
	propertyRepo := newMemPropertyRepo()

	authService := service.NewAuthService(userRepo, tm, logger)
	propertyService := service.NewPropertyService(propertyRepo, userRepo, nil, nil, logger)

	authHandler := NewAuthHandler(authService, tm, nil, auditLog, logger)
	propertiesHandler := NewPropertiesHandler(propertyService, auditLog, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/user/me", authHandler.Me)
	mux.HandleFunc("PATCH /api/user/me", authHandler.UpdateMe)
	mux.HandleFunc("GET /api/properties", propertiesHandler.List)
	mux.HandleFunc("POST /api/properties", propertiesHandler.Create)
	mux.HandleFunc("PUT /api/properties/{id}", propertiesHandler.Update)
	mux.HandleFunc("DELETE /api/properties/{id}", propertiesHandler.Delete)
	mux.HandleFunc("PATCH /api/properties/{id}/availability", propertiesHandler.Toggle)
	mux.HandleFunc("GET /api/properties/available", propertiesHandler.Available)

	server := httptest.NewServer(middleware.SessionMiddleware(tm, logger)(mux))
	t.Cleanup(server.Close)
	return server
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func doJSON(t *testing.T, method, url string, body any, cookie *http.Cookie) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("expected session cookie on response")
	return nil
}

func registerAndLogin(t *testing.T, base, email, role string) *http.Cookie {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, base+"/api/register", map[string]string{
		"name": "u", "email": email, "password": "p", "role": role,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register returned %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, base+"/api/login", map[string]string{
		"email": email, "password": "p",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	return sessionCookie(t, resp)
}

func TestRegisterLoginFlow(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/register", map[string]string{
		"name": "Pema", "email": "pema@drukstay.bt", "password": "p", "role": "TENANT",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["message"] != "Registration successful" {
		t.Fatalf("unexpected message %v", body["message"])
	}

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/login", map[string]string{
		"email": "pema@drukstay.bt", "password": "p",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	user, _ := body["user"].(map[string]any)
	if user["role"] != "TENANT" {
		t.Fatalf("expected TENANT role, got %v", user["role"])
	}
	if user["password"] != nil || user["passwordHash"] != nil {
		t.Fatalf("password material leaked: %v", user)
	}
	cookie := sessionCookie(t, resp)
	if !cookie.HttpOnly {
		t.Fatalf("expected httpOnly session cookie")
	}
}

func TestRegisterValidation(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/register", map[string]string{
		"name": "Pema", "email": "pema@drukstay.bt",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDuplicateRegistrationConflict(t *testing.T) {
	server := newTestServer(t)
	registerAndLogin(t, server.URL, "a@b.bt", "TENANT")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/register", map[string]string{
		"name": "u", "email": "a@b.bt", "password": "p", "role": "TENANT",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if body["message"] != "Email already exists" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestLoginFailureIsUniform(t *testing.T) {
	server := newTestServer(t)
	registerAndLogin(t, server.URL, "a@b.bt", "TENANT")

	respUnknown, bodyUnknown := doJSON(t, http.MethodPost, server.URL+"/api/login", map[string]string{
		"email": "nobody@b.bt", "password": "p",
	}, nil)
	respWrong, bodyWrong := doJSON(t, http.MethodPost, server.URL+"/api/login", map[string]string{
		"email": "a@b.bt", "password": "wrong",
	}, nil)

	if respUnknown.StatusCode != http.StatusBadRequest || respWrong.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400/400, got %d/%d", respUnknown.StatusCode, respWrong.StatusCode)
	}
	if bodyUnknown["message"] != bodyWrong["message"] {
		t.Fatalf("failure responses differ: %v vs %v", bodyUnknown["message"], bodyWrong["message"])
	}
}

func TestMeRequiresSession(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/user/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	cookie := registerAndLogin(t, server.URL, "a@b.bt", "OWNER")
	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/user/me", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["email"] != "a@b.bt" {
		t.Fatalf("unexpected profile %v", body)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "a@b.bt", "TENANT")

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/logout", nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cleared := sessionCookie(t, resp)
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("expected expired empty cookie, got value=%q maxAge=%d", cleared.Value, cleared.MaxAge)
	}
}

func TestUpdateProfileEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPatch, server.URL+"/api/user/me", map[string]string{
		"name": "New Name",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}

	cookie := registerAndLogin(t, server.URL, "a@b.bt", "TENANT")
	resp, body := doJSON(t, http.MethodPatch, server.URL+"/api/user/me", map[string]string{
		"name": "Pema Dorji", "avatarUrl": "/property/avatar.jpg",
	}, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", resp.StatusCode, body)
	}
	if body["name"] != "Pema Dorji" || body["avatarUrl"] != "/property/avatar.jpg" {
		t.Fatalf("unexpected profile %v", body)
	}

	// The edit must be visible on the next read
	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/user/me", nil, cookie)
	if resp.StatusCode != http.StatusOK || body["name"] != "Pema Dorji" {
		t.Fatalf("expected persisted name, got %d (%v)", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodPatch, server.URL+"/api/user/me", map[string]string{
		"name": "   ",
	}, cookie)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", resp.StatusCode)
	}
}

func TestAvailableListingEmpty(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/properties/available")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var listed []any
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("expected a JSON array: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty listing, got %v", listed)
	}
}

func TestOwnerCreatesProperty(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title":    "Riverside Flat",
		"location": "Thimphu",
		"price":    18000,
	}, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["availability"] != "Available" {
		t.Fatalf("expected default availability, got %v", body["availability"])
	}
	if body["ownerId"] == "" || body["ownerId"] == nil {
		t.Fatalf("expected ownerId set, got %v", body["ownerId"])
	}
}

func TestCreateRequiresAuthentication(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "Flat", "location": "Paro", "price": 1,
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestTenantCannotCreate(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "tenant@b.bt", "TENANT")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "Flat", "location": "Paro", "price": 1,
	}, cookie)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%v)", resp.StatusCode, body)
	}
}

func TestTenantCannotDeleteOthersProperty(t *testing.T) {
	server := newTestServer(t)
	ownerCookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")
	tenantCookie := registerAndLogin(t, server.URL, "tenant@b.bt", "TENANT")

	resp, created := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "Flat", "location": "Paro", "price": 10000,
	}, ownerCookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create returned %d", resp.StatusCode)
	}
	propertyID := created["id"].(string)

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/properties/%s", server.URL, propertyID), nil, tenantCookie)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	// The property must still be visible publicly
	listResp, err := http.Get(server.URL + "/api/properties/available")
	if err != nil {
		t.Fatal(err)
	}
	defer listResp.Body.Close()
	var listed []map[string]any
	json.NewDecoder(listResp.Body).Decode(&listed)
	if len(listed) != 1 {
		t.Fatalf("expected property to survive denied delete, got %v", listed)
	}
}

func TestDeleteMissingPropertyIs404(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/api/properties/"+uuid.NewString(), nil, cookie)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAuthenticatedListReturnsOwnProperties(t *testing.T) {
	server := newTestServer(t)
	ownerA := registerAndLogin(t, server.URL, "a@b.bt", "OWNER")
	ownerB := registerAndLogin(t, server.URL, "b@b.bt", "OWNER")

	doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "A1", "location": "Paro", "price": 1,
	}, ownerA)
	doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "B1", "location": "Haa", "price": 2,
	}, ownerB)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/properties", nil)
	req.AddCookie(ownerA)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var listed []map[string]any
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed) != 1 || listed[0]["title"] != "A1" {
		t.Fatalf("expected only owner A's properties, got %v", listed)
	}
}

func TestPriceFilter(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")

	for title, price := range map[string]float64{"cheap": 5000, "mid": 15000, "steep": 40000} {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
			"title": title, "location": "Thimphu", "price": price,
		}, cookie)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %s returned %d", title, resp.StatusCode)
		}
	}

	resp, err := http.Get(server.URL + "/api/properties/available?minPrice=10000&maxPrice=20000")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var listed []map[string]any
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed) != 1 || listed[0]["title"] != "mid" {
		t.Fatalf("expected only mid-priced listing, got %v", listed)
	}
}

func TestLocationFilterEndpoint(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")

	for title, location := range map[string]string{
		"capital": "Upper Thimphu",
		"valley":  "Paro",
	} {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
			"title": title, "location": location, "price": 1,
		}, cookie)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %s returned %d", title, resp.StatusCode)
		}
	}

	// Case-insensitive substring match
	resp, err := http.Get(server.URL + "/api/properties/available?location=thimphu")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var listed []map[string]any
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed) != 1 || listed[0]["title"] != "capital" {
		t.Fatalf("expected only the Thimphu listing, got %v", listed)
	}

	// A wildcard character must match literally, not as a pattern
	resp, err = http.Get(server.URL + "/api/properties/available?location=%25")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	listed = nil
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed) != 0 {
		t.Fatalf("expected %% to match nothing, got %v", listed)
	}
}

func TestAmenitiesFilterEndpoint(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "wired", "location": "Thimphu", "price": 1, "amenities": []string{"WiFi"},
	}, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create returned %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "bare", "location": "Thimphu", "price": 1,
	}, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create returned %d", resp.StatusCode)
	}

	// Any-match: asking for Parking or WiFi keeps the WiFi-only listing
	getResp, err := http.Get(server.URL + "/api/properties/available?amenities=Parking,WiFi")
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	var listed []map[string]any
	json.NewDecoder(getResp.Body).Decode(&listed)
	if len(listed) != 1 || listed[0]["title"] != "wired" {
		t.Fatalf("expected only the WiFi listing, got %v", listed)
	}
}

func TestAvailableOrderedNewestFirst(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")

	for _, title := range []string{"first", "second", "third"} {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
			"title": title, "location": "Thimphu", "price": 1,
		}, cookie)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %s returned %d", title, resp.StatusCode)
		}
	}

	resp, err := http.Get(server.URL + "/api/properties/available")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var listed []map[string]any
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed) != 3 {
		t.Fatalf("expected 3 listings, got %v", listed)
	}
	for i, want := range []string{"third", "second", "first"} {
		if listed[i]["title"] != want {
			t.Fatalf("position %d: expected %q, got %v", i, want, listed[i]["title"])
		}
	}
}

func TestBadPriceFilterRejected(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/properties/available?minPrice=abc")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestToggleAvailabilityEndpoint(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")

	resp, created := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "Flat", "location": "Paro", "price": 10000,
	}, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create returned %d", resp.StatusCode)
	}
	propertyID := created["id"].(string)

	resp, body := doJSON(t, http.MethodPatch,
		fmt.Sprintf("%s/api/properties/%s/availability", server.URL, propertyID), nil, cookie)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["availability"] != "Occupied" {
		t.Fatalf("expected Occupied, got %v", body["availability"])
	}
}

func TestAmenitiesCoercedWhenNotAList(t *testing.T) {
	server := newTestServer(t)
	cookie := registerAndLogin(t, server.URL, "owner@b.bt", "OWNER")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/properties", map[string]any{
		"title": "Flat", "location": "Paro", "price": 1, "amenities": "WiFi",
	}, cookie)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	amenities, ok := body["amenities"].([]any)
	if !ok || len(amenities) != 0 {
		t.Fatalf("expected empty amenity set, got %v", body["amenities"])
	}
}
