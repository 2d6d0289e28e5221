package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/yourorg/drukstay/internal/domain"
)

// PostgresPropertyRepository implements domain.PropertyRepository using PostgreSQL
type PostgresPropertyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPropertyRepository creates a new property repository
func NewPostgresPropertyRepository(db *sql.DB, logger *slog.Logger) *PostgresPropertyRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPropertyRepository{
		db:     db,
		logger: logger,
	}
}

const propertyColumns = `id, owner_id, title, location, price, availability, amenities, images, coordinates, created_at, updated_at`

func scanProperty(row interface{ Scan(...any) error }) (*domain.Property, error) {
	p := &domain.Property{}
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Location,
		&p.Price,
		&p.Availability,
		pq.Array(&p.Amenities),
		pq.Array(&p.Images),
		pq.Array(&p.Coordinates),
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ensureArrays replaces nil slices with empty ones. pq.Array binds a nil
// slice as SQL NULL, which the NOT NULL array columns reject; a property
// without coordinates must insert as an empty array, not fail.
func ensureArrays(property *domain.Property) {
	if property.Amenities == nil {
		property.Amenities = []string{}
	}
	if property.Images == nil {
		property.Images = []string{}
	}
	if property.Coordinates == nil {
		property.Coordinates = []float64{}
	}
}

// Create inserts a new property owned by property.OwnerID
func (r *PostgresPropertyRepository) Create(property *domain.Property) error {
	if property.ID == "" {
		property.ID = uuid.NewString()
	}
	ensureArrays(property)

	query := `
		INSERT INTO properties (id, owner_id, title, location, price, availability, amenities, images, coordinates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		property.ID,
		property.OwnerID,
		property.Title,
		property.Location,
		property.Price,
		property.Availability,
		pq.Array(property.Amenities),
		pq.Array(property.Images),
		pq.Array(property.Coordinates),
	).Scan(&property.CreatedAt, &property.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create property",
			slog.String("owner_id", property.OwnerID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create property: %w", err)
	}

	return nil
}

// GetByID retrieves a property by ID
func (r *PostgresPropertyRepository) GetByID(id string) (*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	p, err := scanProperty(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return p, nil
}

// UpdateOwned applies a partial update as one conditional statement filtered
// by both id and owner, so the ownership check cannot race a concurrent
// mutation. Zero affected rows is resolved to NotFound or Forbidden with a
// follow-up read.
func (r *PostgresPropertyRepository) UpdateOwned(id, ownerID string, update domain.PropertyUpdate) (*domain.Property, error) {
	sets := []string{"updated_at = now()"}
	args := []any{}
	n := 1

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Location != nil {
		add("location", *update.Location)
	}
	if update.Price != nil {
		add("price", *update.Price)
	}
	if update.Availability != nil {
		add("availability", *update.Availability)
	}
	if update.Amenities != nil {
		add("amenities", pq.Array(nonNil(*update.Amenities)))
	}
	if update.Images != nil {
		add("images", pq.Array(nonNil(*update.Images)))
	}
	if update.Coordinates != nil {
		add("coordinates", pq.Array(nonNil(*update.Coordinates)))
	}

	query := fmt.Sprintf(
		`UPDATE properties SET %s WHERE id = $%d AND owner_id = $%d RETURNING `+propertyColumns,
		strings.Join(sets, ", "), n, n+1,
	)
	args = append(args, id, ownerID)

	p, err := scanProperty(r.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyMiss(id)
		}
		r.logger.Error("failed to update property",
			slog.String("property_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	return p, nil
}

// DeleteOwned removes a property permanently, conditional on ownership
func (r *PostgresPropertyRepository) DeleteOwned(id, ownerID string) error {
	result, err := r.db.Exec(`DELETE FROM properties WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rows == 0 {
		return r.classifyMiss(id)
	}

	return nil
}

// classifyMiss distinguishes a missing property from someone else's property
// after a conditional mutation touched zero rows.
func (r *PostgresPropertyRepository) classifyMiss(id string) error {
	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM properties WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check property existence: %w", err)
	}
	if exists {
		return domain.ErrForbidden
	}
	return domain.ErrNotFound
}

// ListByOwner lists all properties owned by a user, newest first
func (r *PostgresPropertyRepository) ListByOwner(ownerID string) ([]*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		r.logger.Error("failed to list properties by owner",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

// ListAvailable lists available properties matching the filter, newest first.
// The amenities filter uses any-match semantics (array overlap).
func (r *PostgresPropertyRepository) ListAvailable(filter domain.ListingFilter) ([]*domain.Property, error) {
	conds := []string{"availability = $1"}
	args := []any{domain.AvailabilityAvailable}
	n := 2

	if filter.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("price >= $%d", n))
		args = append(args, *filter.MinPrice)
		n++
	}
	if filter.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("price <= $%d", n))
		args = append(args, *filter.MaxPrice)
		n++
	}
	if filter.Location != "" {
		conds = append(conds, fmt.Sprintf("location ILIKE $%d", n))
		args = append(args, "%"+escapeLike(filter.Location)+"%")
		n++
	}
	if len(filter.Amenities) > 0 {
		conds = append(conds, fmt.Sprintf("amenities && $%d", n))
		args = append(args, pq.Array(filter.Amenities))
		n++
	}

	query := `SELECT ` + propertyColumns + ` FROM properties WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("failed to list available properties", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

// ReferencedImages returns the set of image URLs referenced by any property;
// the janitor uses it to identify orphaned upload files.
func (r *PostgresPropertyRepository) ReferencedImages() (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT unnest(images) FROM properties`)
	if err != nil {
		return nil, fmt.Errorf("failed to list referenced images: %w", err)
	}
	defer rows.Close()

	refs := map[string]bool{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan image url: %w", err)
		}
		refs[url] = true
	}

	return refs, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// escapeLike neutralizes LIKE metacharacters so a location filter matches
// literally instead of acting as a wildcard pattern.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func collect(rows *sql.Rows) ([]*domain.Property, error) {
	var properties []*domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}
