// Package auth manages staff identities and the signed-cookie session that
// gates the admin API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/wheelsdeals/tireshop/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinPasswordLength is the shortest accepted staff password.
const MinPasswordLength = 6

const (
	sessionName = "wd_staff"
	keyStaffID  = "staff_id"
	sessionTTL  = 12 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrPasswordTooShort   = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	ErrInvalidRole        = errors.New("auth: role must be admin or staff")
)

// Session is the signed-in staff member, resolved once per protected request
// and handed to handlers by value.
type Session struct {
	StaffID string `json:"staff_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

// IsAdmin reports whether s carries the admin role.
func IsAdmin(s *Session) bool {
	return s != nil && s.Role == models.RoleAdmin
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// StaffOpts holds parameters for creating or updating a staff member.
type StaffOpts struct {
	Email    string
	Name     string
	Password string
	Role     string // admin or staff; empty means staff
}

// SaveStaff creates a staff member, or updates the name, password and role
// of an existing one with the same email. Saving reactivates the account.
func SaveStaff(ctx context.Context, db *gorm.DB, opts StaffOpts) (*models.Staff, error) {
	email := normalizeEmail(opts.Email)
	if email == "" {
		return nil, fmt.Errorf("auth: email is required")
	}
	role := opts.Role
	if role == "" {
		role = models.RoleStaff
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		return nil, ErrInvalidRole
	}
	hash, err := HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	staff := models.Staff{
		Email:        email,
		Name:         strings.TrimSpace(opts.Name),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "password_hash", "role", "active", "updated_at"}),
	}).Create(&staff).Error
	if err != nil {
		return nil, fmt.Errorf("auth: save staff %s: %w", email, err)
	}

	var saved models.Staff
	if err := db.WithContext(ctx).Where("email = ?", email).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("auth: reload staff %s: %w", email, err)
	}
	return &saved, nil
}

// ListStaff returns every staff member ordered by email.
func ListStaff(ctx context.Context, db *gorm.DB) ([]models.Staff, error) {
	var staff []models.Staff
	if err := db.WithContext(ctx).Order("email ASC").Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("auth: list staff: %w", err)
	}
	return staff, nil
}

// Authenticate checks an email and password against active staff records.
// Unknown emails, inactive accounts and wrong passwords all return
// ErrInvalidCredentials.
func Authenticate(ctx context.Context, db *gorm.DB, email, password string) (*models.Staff, error) {
	var staff models.Staff
	err := db.WithContext(ctx).Where("email = ? AND active = ?", normalizeEmail(email), true).First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup staff: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&staff).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("auth: record login: %w", err)
	}
	staff.LastLoginAt = &now
	return &staff, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewCookieStore returns a signed cookie store for staff sessions.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Manager issues and resolves staff sessions.
type Manager struct {
	store sessions.Store
	db    *gorm.DB
}

// NewManager creates a Manager over a session store and the staff table.
func NewManager(store sessions.Store, db *gorm.DB) *Manager {
	return &Manager{store: store, db: db}
}

// Login writes a session cookie for staff.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, staff *models.Staff) error {
	sess, _ := m.store.Get(r, sessionName)
	sess.Values[keyStaffID] = staff.ID
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	return nil
}

// Logout expires the session cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, sessionName)
	delete(sess.Values, keyStaffID)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	return nil
}

// Resolve reads the session cookie and loads the staff member it names.
// Role and activity come from the database, so revoking access takes effect
// on the next request.
func (m *Manager) Resolve(r *http.Request) (*Session, bool) {
	sess, err := m.store.Get(r, sessionName)
	if err != nil {
		return nil, false
	}
	id, ok := sess.Values[keyStaffID].(string)
	if !ok || id == "" {
		return nil, false
	}
	var staff models.Staff
	if err := m.db.WithContext(r.Context()).Where("id = ? AND active = ?", id, true).First(&staff).Error; err != nil {
		return nil, false
	}
	return &Session{StaffID: staff.ID, Email: staff.Email, Name: staff.Name, Role: staff.Role}, true
}
