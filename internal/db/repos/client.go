package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/onboardkit/harness/internal/db/models"
)

// ClientRepository reads seeded clients
type ClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// GetByID retrieves a client with its agreements
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Preload("Agreements").Where("id = ?", id).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

// List retrieves clients ordered by creation time
func (r *ClientRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Client, error) {
	limit := models.DefaultLimit
	offset := 0
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		offset = opts.Offset
	}

	var clients []models.Client
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// AuditTrail returns the audit events of an agreement oldest first
func (r *ClientRepository) AuditTrail(ctx context.Context, agreementID string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := r.db.WithContext(ctx).
		Where("agreement_id = ?", agreementID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	return events, nil
}
