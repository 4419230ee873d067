package devserver

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/trashdash/trashdash-go/internal/models"
)

// Account is a registered user in the dev backend's sqlite store.
type Account struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role" gorm:"not null;default:customer"`
	Status       string    `json:"status" gorm:"not null;default:active"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = ulid.Make().String()
	}
	return nil
}

// toAPI maps the stored account to the wire-level user shape the apps expect.
func (a *Account) toAPI() *models.User {
	return &models.User{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Phone:     a.Phone,
		Role:      models.Role(a.Role),
		Status:    models.Status(a.Status),
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// AutoMigrate creates the dev backend schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{})
}
