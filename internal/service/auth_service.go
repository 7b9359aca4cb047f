package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/equipnfc/equipment-manager/internal/config"
	"github.com/equipnfc/equipment-manager/internal/model"
	"github.com/equipnfc/equipment-manager/internal/repository"
	"github.com/equipnfc/equipment-manager/internal/utils"
)

// minPasswordLen is the password policy enforced at the domain layer.
// Composition rules (digits, case mix) belong to request validation.
const minPasswordLen = 8

// UserStore is the persistence surface the auth service needs.
// *repository.UserRepo satisfies it; tests substitute fakes.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error)
	UpdateProfile(ctx context.Context, id uint64, firstName, lastName, email *string) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	ProfileCounts(ctx context.Context, id uint64) (equipments, events int64, err error)
}

// Profile is a user with the credential excluded, as returned by every
// auth endpoint.
type Profile struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileWithCounts adds the derived counters shown on the profile
// page.
type ProfileWithCounts struct {
	Profile
	EquipmentsCreated int64 `json:"equipmentsCreated"`
	EventsAuthored    int64 `json:"eventsAuthored"`
}

// AuthResult is a session credential plus the owning profile.
type AuthResult struct {
	User    Profile   `json:"user"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// AuthService owns the user identity lifecycle: registration, login,
// profile maintenance and credential rotation.
type AuthService struct {
	cfg   config.Config
	users UserStore
}

func NewAuthService(cfg config.Config, users UserStore) *AuthService {
	return &AuthService{cfg: cfg, users: users}
}

func toProfile(u model.User) Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (s *AuthService) issue(u model.User) (AuthResult, error) {
	tok, err := utils.NewAccessToken(s.cfg.JWTSecret,
		utils.Claims{UserID: u.ID, Email: u.Email, Role: u.Role}, s.cfg.TokenTTLDays)
	if err != nil {
		return AuthResult{}, internal(err)
	}
	return AuthResult{User: toProfile(u), Token: tok.Token, Expires: tok.Exp}, nil
}

// Register creates a user and returns a session credential. The
// plaintext password is hashed with a per-call salt before it ever
// reaches the repository and is never logged. Role defaults to USER;
// anything other than ADMIN is coerced to USER.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName, role string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || firstName == "" || lastName == "" {
		return AuthResult{}, invalid("email, firstName and lastName are required")
	}
	if len(password) < minPasswordLen {
		return AuthResult{}, invalid("password must be at least 8 characters")
	}
	if role != model.RoleAdmin {
		role = model.RoleUser
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, internal(err)
	}

	u := model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, conflict("a user with this email already exists")
		}
		return AuthResult{}, internal(err)
	}

	log.Printf("user registered: %s", u.Email)
	return s.issue(u)
}

// Login verifies credentials and returns a session credential. The
// same message is used for an unknown email and a wrong password so
// responses cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, unauthorized("invalid email or password")
		}
		return AuthResult{}, internal(err)
	}
	if !u.IsActive {
		return AuthResult{}, unauthorized("account disabled")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, unauthorized("invalid email or password")
	}

	log.Printf("user logged in: %s", u.Email)
	return s.issue(u)
}

// Profile returns the user's profile plus derived counts.
func (s *AuthService) Profile(ctx context.Context, userID uint64) (ProfileWithCounts, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProfileWithCounts{}, notFound("user not found")
		}
		return ProfileWithCounts{}, internal(err)
	}
	equipments, events, err := s.users.ProfileCounts(ctx, userID)
	if err != nil {
		return ProfileWithCounts{}, internal(err)
	}
	return ProfileWithCounts{
		Profile:           toProfile(u),
		EquipmentsCreated: equipments,
		EventsAuthored:    events,
	}, nil
}

// UpdateProfile applies the provided fields. A changed email is
// re-validated for uniqueness against all other users.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, firstName, lastName, email *string) (Profile, error) {
	if email != nil {
		taken, err := s.users.EmailTaken(ctx, *email, userID)
		if err != nil {
			return Profile{}, internal(err)
		}
		if taken {
			return Profile{}, conflict("a user with this email already exists")
		}
	}
	u, err := s.users.UpdateProfile(ctx, userID, firstName, lastName, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return Profile{}, conflict("a user with this email already exists")
		case errors.Is(err, repository.ErrNotFound):
			return Profile{}, notFound("user not found")
		}
		return Profile{}, internal(err)
	}
	log.Printf("profile updated: %s", u.Email)
	return toProfile(u), nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user not found")
		}
		return internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return unauthorized("current password is incorrect")
	}
	if len(next) < minPasswordLen {
		return invalid("password must be at least 8 characters")
	}
	hash, err := utils.HashPassword(next, s.cfg.BcryptCost)
	if err != nil {
		return internal(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return internal(err)
	}
	log.Printf("password changed for user: %s", u.Email)
	return nil
}
