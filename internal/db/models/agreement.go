package models

import (
	"time"

	"github.com/onboardkit/harness/internal/fixtures"
)

// Agreement is a terms agreement issued to a client
type Agreement struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	ClientID     string     `json:"client_id" gorm:"not null;index;size:36"`
	TermsVersion string     `json:"terms_version" gorm:"not null;size:32"`
	Status       string     `json:"status" gorm:"not null;index"`
	PDFPath      string     `json:"pdf_path"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewAgreement converts an agreement fixture to its database row
func NewAgreement(a fixtures.Agreement) Agreement {
	return Agreement{
		ID:           a.ID,
		ClientID:     a.ClientID,
		TermsVersion: a.TermsVersion,
		Status:       string(a.Status),
		PDFPath:      a.PDFPath,
		SignedAt:     a.SignedAt,
		CreatedAt:    a.CreatedAt,
	}
}
