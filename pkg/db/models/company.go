package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
)

// Company is the tenant root. The subscription fields are a denormalized
// billing projection maintained by the payment reconciler; the subscription
// history itself lives in the subscriptions table.
type Company struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string                   `gorm:"column:name;not null"`
	RCNumber           *string                  `gorm:"column:rc_number"`
	SubscriptionTier   enums.SubscriptionTier   `gorm:"column:subscription_tier;not null;default:'free'"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;not null;default:'active'"`
	BillingPeriodStart *time.Time               `gorm:"column:billing_period_start"`
	BillingPeriodEnd   *time.Time               `gorm:"column:billing_period_end"`
	NextBillingDate    *time.Time               `gorm:"column:next_billing_date"`
	TrialEndAt         *time.Time               `gorm:"column:trial_end_at"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
