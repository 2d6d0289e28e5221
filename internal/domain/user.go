package domain

import "time"

// Roles a user can register with. Stored uppercase.
const (
	RoleTenant = "TENANT"
	RoleOwner  = "OWNER"
)

// User represents a registered account
type User struct {
	ID           string // UUID
	Name         string
	Email        string // Unique email address
	PasswordHash string // Bcrypt hashed password (not returned in API)
	Role         string // TENANT or OWNER
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicProfile is the API-safe projection of a user
type PublicProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      string `json:"role"`
}

// Public returns the profile without credential material
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}

// ValidRole reports whether role (already uppercased) is a known role
func ValidRole(role string) bool {
	return role == RoleTenant || role == RoleOwner
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	Update(user *User) error
}
