package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Account represents a user account in the system
type Account struct {
	Username      string         `gorm:"primaryKey;size:30;not null" json:"username" binding:"required,alphanum"`
	Email         string         `gorm:"uniqueIndex;size:255;not null" json:"email" binding:"required,email"`
	HashedPass    string         `gorm:"size:255" json:"-"`
	GoogleID      string         `gorm:"size:128;index" json:"-"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
	AvatarURL     string         `gorm:"size:512" json:"avatar_url"`
	TokenVersion  int            `gorm:"not null;default:0" json:"-"`
	Products      []Product      `gorm:"foreignKey:Username" json:"products,omitempty"`
	DateJoined    time.Time      `gorm:"not null" json:"date_joined"`
	LastLogin     time.Time      `gorm:"not null" json:"last_login"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// SetPassword hashes and stores the given plaintext password
func (a *Account) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.HashedPass = string(hashed)
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (a *Account) VerifyPassword(password string) bool {
	if a.HashedPass == "" {
		// Google-only accounts have no password
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.HashedPass), []byte(password)) == nil
}

// BeforeCreate hook is called before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.DateJoined.IsZero() {
		a.DateJoined = now
	}
	if a.LastLogin.IsZero() {
		a.LastLogin = now
	}
	return nil
}

// BeforeSave hook is called before saving the account
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "account"
}

// CreateAccountRequest represents the data needed to create a new account
type CreateAccountRequest struct {
	Username string `json:"username" binding:"required,alphanum,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the data needed for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
