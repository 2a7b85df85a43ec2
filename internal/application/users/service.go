package users

import (
	"context"
	"strings"
	"unicode"

	"bluecarbon-backend/internal/domain"
	"bluecarbon-backend/internal/pkg/apperr"
	"bluecarbon-backend/internal/pkg/constants"
	"bluecarbon-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// WelcomeMailer sends the post-registration email. Best effort; registration
// never fails on mail errors.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, toEmail, firstName string) error
}

// Service holds DB for user operations.
type Service struct {
	DB     *gorm.DB
	Mailer WelcomeMailer
}

// RegisterInput is the self-registration payload. Role is fixed at creation
// and never changes afterwards.
type RegisterInput struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
	Role     string `json:"role"`
}

// Register creates a user account. Admin accounts cannot be self-registered.
// Returns the created model (caller sanitizes password_hash).
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.UserName) == "" {
		return nil, apperr.Validationf("Username is required and must be a non-empty string")
	}
	if in.Email == "" || !validation.IsValidEmail(in.Email) {
		return nil, apperr.Validationf("Invalid email format")
	}
	if in.Password == "" || !validation.IsValidPassword(in.Password) {
		return nil, apperr.Validationf("Invalid password format")
	}
	if strings.TrimSpace(in.Fullname) == "" {
		return nil, apperr.Validationf("Full name is required and must be a non-empty string")
	}
	trimmed := strings.TrimSpace(in.Fullname)
	if !validation.IsValidFullname(trimmed) {
		return nil, apperr.Validationf("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if role == "" {
		role = constants.Community
	}
	if !constants.IsValidRole(role) {
		return nil, apperr.Validationf("unknown role %q", in.Role)
	}
	if role == constants.Admin {
		return nil, apperr.Unauthorizedf("admin accounts cannot be self-registered")
	}

	userName := strings.TrimSpace(in.UserName)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	fullname := titleCaseAndNormalize(trimmed)

	var existing domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, apperr.Conflictf("Email already registered")
	}
	if err := s.DB.WithContext(ctx).Where("user_name = ?", userName).First(&existing).Error; err == nil {
		return nil, apperr.Conflictf("Username already registered")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		UserName:     userName,
		Email:        email,
		PasswordHash: hash,
		Fullname:     fullname,
		Role:         role,
		Status:       constants.AccountActive,
		TrustScore:   50,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}

	if s.Mailer != nil {
		first := fullname
		if i := strings.IndexByte(first, ' '); i > 0 {
			first = first[:i]
		}
		if err := s.Mailer.SendWelcome(ctx, email, first); err != nil {
			log.Warn().Err(err).Str("email", email).Msg("welcome email failed")
		}
	}
	return u, nil
}

// UpdateProfile updates allowed self-service fields. Role and status are
// never updatable here (role is fixed at creation; status is the trust
// engine's concern).
func (s *Service) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) (*domain.User, error) {
	if userID == "" {
		return nil, apperr.Validationf("Missing user ID")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperr.Validationf("Invalid user ID format (must be a valid UUID)")
	}
	if len(fields) == 0 {
		return nil, apperr.Validationf("Missing update fields")
	}

	allowed := map[string]bool{
		"user_name": true, "email": true, "password": true, "fullname": true,
	}
	upd := make(map[string]interface{})
	for k, v := range fields {
		if !allowed[k] {
			continue
		}
		upd[k] = v
	}
	if len(upd) == 0 {
		return nil, apperr.Validationf("No valid update fields provided")
	}

	if e, ok := upd["email"].(string); ok && e != "" {
		if !validation.IsValidEmail(e) {
			return nil, apperr.Validationf("Invalid email format")
		}
		upd["email"] = strings.TrimSpace(strings.ToLower(e))
	}
	if p, ok := upd["password"].(string); ok && p != "" {
		if !validation.IsValidPassword(p) {
			return nil, apperr.Validationf("Invalid password format")
		}
		hash, err := HashPassword(p)
		if err != nil {
			return nil, err
		}
		upd["password_hash"] = hash
		delete(upd, "password")
	}
	if fn, ok := upd["fullname"].(string); ok {
		trimmed := strings.TrimSpace(fn)
		if trimmed == "" {
			return nil, apperr.Validationf("Full name must be a non-empty string")
		}
		if !validation.IsValidFullname(trimmed) {
			return nil, apperr.Validationf("Full name contains invalid characters")
		}
		upd["fullname"] = titleCaseAndNormalize(trimmed)
	}
	if un, ok := upd["user_name"].(string); ok {
		upd["user_name"] = strings.TrimSpace(un)
	}

	if e, ok := upd["email"].(string); ok {
		var dup domain.User
		if err := s.DB.WithContext(ctx).Where("email = ? AND user_id != ?", e, userID).First(&dup).Error; err == nil {
			return nil, apperr.Conflictf("Email already registered")
		}
	}
	if un, ok := upd["user_name"].(string); ok {
		var dup domain.User
		if err := s.DB.WithContext(ctx).Where("user_name = ? AND user_id != ?", un, userID).First(&dup).Error; err == nil {
			return nil, apperr.Conflictf("Username already registered")
		}
	}

	result := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", userID).Updates(upd)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFoundf("User not found")
	}

	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// View returns a user by ID.
func (s *Service) View(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperr.Validationf("Missing user ID")
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("User not found")
		}
		return nil, err
	}
	return &u, nil
}

// List returns all users, optionally filtered by role. Admin dashboards only.
func (s *Service) List(ctx context.Context, role string) ([]domain.User, error) {
	q := s.DB.WithContext(ctx).Order("created_at ASC")
	if role != "" {
		if !constants.IsValidRole(role) {
			return nil, apperr.Validationf("unknown role %q", role)
		}
		q = q.Where("role = ?", role)
	}
	var out []domain.User
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func titleCaseAndNormalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	runes := []rune(s)
	var b strings.Builder
	capitalize := true
	for _, r := range runes {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
