package models

import (
	"time"

	"github.com/onboardkit/harness/internal/fixtures"
)

// Client is a company being onboarded
type Client struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	CompanyName string    `json:"company_name" gorm:"not null;size:200"`
	ContactName string    `json:"contact_name" gorm:"not null"`
	Email       string    `json:"email" gorm:"not null;index"`
	Phone       string    `json:"phone"`
	Status      string    `json:"status" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	Agreements []Agreement `json:"agreements,omitempty" gorm:"foreignKey:ClientID"`
}

// NewClient converts a client fixture to its database row
func NewClient(c fixtures.Client) Client {
	return Client{
		ID:          c.ID,
		CompanyName: c.CompanyName,
		ContactName: c.ContactName,
		Email:       c.Email,
		Phone:       c.Phone,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
	}
}
