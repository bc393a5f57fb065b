package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shuddy05/compliancehub-backendd/pkg/db/models"
	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
)

// Repository exposes company membership lookups. Billing never mutates
// memberships; it only gates operations on them.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetMembership retrieves a membership by user and company.
func (r *Repository) GetMembership(ctx context.Context, userID, companyID uuid.UUID) (*models.CompanyUser, error) {
	var membership models.CompanyUser
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// HasMembership reports whether the user belongs to the company in any role.
func (r *Repository) HasMembership(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	_, err := r.GetMembership(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UserHasRole reports whether the user holds one of the provided roles for the company.
func (r *Repository) UserHasRole(ctx context.Context, userID, companyID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CompanyUser{}).
		Where("user_id = ? AND company_id = ? AND role IN ?", userID, companyID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
