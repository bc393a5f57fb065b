package companies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shuddy05/compliancehub-backendd/pkg/db/models"
)

// Repository defines the company persistence surface billing depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	UpdateBillingProjection(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountEmployees(ctx context.Context, companyID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a company repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// UpdateBillingProjection overwrites the denormalized subscription fields on
// the company row. Webhook reconciliation applies these last-writer-wins.
func (r *repository) UpdateBillingProjection(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CountEmployees(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
