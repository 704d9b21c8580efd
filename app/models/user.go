package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"

	TIER_FREE       = "free"
	TIER_PRO        = "pro"
	TIER_ENTERPRISE = "enterprise"
)

type User struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Name                  string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email                 string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password              string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role                  string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status                string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	SubscriptionTier      string         `gorm:"type:varchar(50);default:'free'" json:"subscription_tier" validate:"oneof=free pro enterprise"`
	SubscriptionExpiresAt *time.Time     `gorm:"type:timestamp;default:null" json:"subscription_expires_at"`
	AICredits             uint           `gorm:"default:0" json:"ai_credits"`
	LifetimeCredits       uint           `gorm:"default:0" json:"lifetime_credits"`
	CreditsRenewedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	LastLoginAt           *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:             username,
		Email:            email,
		Password:         pw,
		Role:             ROLE_USER,
		Status:           STATUS_ACTIVE,
		SubscriptionTier: TIER_FREE,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// HasActiveSubscription reports whether the stored paid tier is still in effect.
// A missing expiry on a paid tier means the subscription does not lapse.
func (u *User) HasActiveSubscription() bool {
	if u.SubscriptionTier == TIER_FREE {
		return false
	}
	if u.SubscriptionExpiresAt == nil {
		return true
	}
	return u.SubscriptionExpiresAt.After(time.Now())
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}
