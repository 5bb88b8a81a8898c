package auth

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/config"
	"github.com/mrlokans/staffmanager/internal/entities"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidRole      = errors.New("role must be Admin or Staff")
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

const (
	defaultLockoutAttempts = 5
	defaultLockoutDuration = 30 * time.Minute
	maxEmailLength         = 254
)

// Service owns the user accounts that may sign in to the staff pages and
// the API: password checks, account lockout and personal API tokens.
type Service struct {
	db  *gorm.DB
	cfg config.Auth
	now func() time.Time
}

func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{db: db, cfg: cfg, now: time.Now}
}

// IsAuthEnabled reports whether requests must sign in.
func (s *Service) IsAuthEnabled() bool {
	return s.cfg.Mode == config.AuthModeLocal
}

func validateAccount(username, email, password string, role entities.UserRole) error {
	switch {
	case username == "":
		return ErrUsernameRequired
	case email == "":
		return ErrEmailRequired
	case password == "":
		return ErrPasswordRequired
	case !usernamePattern.MatchString(username):
		return ErrUsernameInvalid
	case len(email) > maxEmailLength || !emailPattern.MatchString(email):
		return ErrEmailInvalid
	}
	if role != entities.UserRoleAdmin && role != entities.UserRoleStaff {
		return ErrInvalidRole
	}
	return nil
}

// CreateUser adds an Admin or Staff account. Usernames and emails are
// unique across all accounts.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	if err := validateAccount(username, email, password, role); err != nil {
		return nil, err
	}

	var taken int64
	if err := s.db.Model(&entities.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if taken > 0 {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// EnsureAdmin seeds the administrator named in the configuration. Nothing
// happens when no password is configured or the username is already taken;
// in that case the returned user is nil.
func (s *Service) EnsureAdmin(username, email, password string) (*entities.User, error) {
	if password == "" {
		return nil, nil
	}

	existing, err := s.findUser("username = ?", username)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			log.Printf("User %q exists with role %s; not promoting it to Admin", username, existing.Role)
		}
		return nil, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	user, err := s.CreateUser(username, email, password, entities.UserRoleAdmin)
	if errors.Is(err, ErrUserExists) {
		return nil, fmt.Errorf("admin email %q belongs to another user: %w", email, err)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("Seeded administrator %q", username)
	return user, nil
}

// HasUsers reports whether any account exists. The setup page is only
// offered while it returns false.
func (s *Service) HasUsers() (bool, error) {
	var n int64
	if err := s.db.Model(&entities.User{}).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.findUser("id = ?", id)
}

func (s *Service) findUser(query string, args ...any) (*entities.User, error) {
	var user entities.User
	err := s.db.Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// Authenticate signs a user in by username or email. Repeated failures lock
// the account for the configured lockout duration.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	user, err := s.findUser("username = ? OR email = ?", login, login)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailure(user, now)
		return nil, err
	}

	if err := s.db.Model(user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error; err != nil {
		log.Printf("Failed to record sign-in for %q: %v", user.Username, err)
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	return user, nil
}

func (s *Service) recordFailure(user *entities.User, now time.Time) {
	limit := s.cfg.MaxLoginAttempts
	if limit <= 0 {
		limit = defaultLockoutAttempts
	}
	lockout := s.cfg.LockoutDuration
	if lockout <= 0 {
		lockout = defaultLockoutDuration
	}

	user.FailedLoginCount++
	updates := map[string]any{"failed_login_count": user.FailedLoginCount}
	if user.FailedLoginCount >= limit {
		until := now.Add(lockout)
		user.LockedUntil = &until
		updates["locked_until"] = until
		log.Printf("Locked account %q until %s", user.Username, until.Format(time.RFC3339))
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		log.Printf("Failed to record failed sign-in for %q: %v", user.Username, err)
	}
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(userID uint, current, replacement string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(current, user.PasswordHash); err != nil {
		return err
	}
	hash, err := HashPassword(replacement, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password_hash", hash).Error
}

// GenerateToken issues a new API token, replacing any previous one.
func (s *Service) GenerateToken(userID uint) (string, error) {
	token, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	res := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": s.now(),
	})
	if res.Error != nil {
		return "", fmt.Errorf("save token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", ErrUserNotFound
	}
	return token, nil
}

func (s *Service) RevokeToken(userID uint) error {
	err := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// ValidateToken resolves a bearer token to its user. Tokens older than the
// configured expiry are refused with ErrTokenExpired.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.findUser("token_hash = ?", HashToken(token))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if s.cfg.TokenExpiry > 0 && user.TokenCreatedAt != nil &&
		s.now().Sub(*user.TokenCreatedAt) > s.cfg.TokenExpiry {
		return nil, ErrTokenExpired
	}
	return user, nil
}
