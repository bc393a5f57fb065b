package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
)

// CompanyUser links a user to a company with a role. Billing mutations
// require the super_admin role; reads require any membership.
type CompanyUser struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID uuid.UUID        `gorm:"column:company_id;type:uuid;not null;index:idx_company_users_company_user,unique"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index:idx_company_users_company_user,unique"`
	Role      enums.MemberRole `gorm:"column:role;not null;default:'member'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
