package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/drukstay/internal/domain"
	"github.com/yourorg/drukstay/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the unknown-email login path doing a bcrypt comparison so
// it takes comparable time to the wrong-password path.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("drukstay-timing-pad"), bcrypt.DefaultCost)

// AuthService handles registration, login and caller resolution
type AuthService struct {
	userRepo     domain.UserRepository
	tokenManager *auth.TokenManager
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo domain.UserRepository, tokenManager *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		userRepo:     userRepo,
		tokenManager: tokenManager,
		logger:       logger,
	}
}

// LoginResult carries the signed session token alongside the public profile
type LoginResult struct {
	User  domain.PublicProfile
	Token string
}

// Register creates a new account. Role is accepted case-insensitively and
// stored uppercase.
func (s *AuthService) Register(name, email, password, role string) (*domain.User, error) {
	if name == "" || email == "" || password == "" || role == "" {
		return nil, domain.Validationf("all fields (name, email, password, role) are required")
	}

	role = strings.ToUpper(role)
	if !domain.ValidRole(role) {
		return nil, domain.Validationf("invalid role, must be TENANT or OWNER")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return user, nil
}

// Login authenticates credentials and issues a session token. Unknown email
// and wrong password both return domain.ErrInvalidCredentials so callers
// cannot enumerate accounts.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.logger.Info("login attempt with unknown email")
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokenManager.GenerateToken(user.ID)
	if err != nil {
		s.logger.Error("failed to sign session token",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return &LoginResult{User: user.Public(), Token: token}, nil
}

// ProfileUpdate carries the optional profile edit fields; nil means keep
// the stored value.
type ProfileUpdate struct {
	Name      *string
	AvatarURL *string
}

// UpdateProfile applies a partial edit to the session user's profile
func (s *AuthService) UpdateProfile(token string, update ProfileUpdate) (*domain.PublicProfile, error) {
	userID, err := s.ResolveCaller(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.Validationf("name cannot be empty")
		}
		user.Name = name
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}

	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("failed to update profile",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("user_id", user.ID))

	profile := user.Public()
	return &profile, nil
}

// ResolveCaller validates a session token and returns the caller's user id.
// An absent token is Unauthorized; a bad or expired one is InvalidToken.
func (s *AuthService) ResolveCaller(token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}

	claims, err := s.tokenManager.ValidateToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidToken, err)
	}

	return claims.UserID, nil
}

// CurrentUser resolves the caller and loads the public profile. A valid
// token for a user that no longer exists is NotFound.
func (s *AuthService) CurrentUser(token string) (*domain.PublicProfile, error) {
	userID, err := s.ResolveCaller(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	profile := user.Public()
	return &profile, nil
}
