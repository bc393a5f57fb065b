package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
)

// Subscription is one purchased (or attempted) plan period for a company.
// It is created pending by the payment initiator and activated only by the
// webhook reconciler. PaymentReference mirrors the provider reference on the
// linked payment transaction and the two must never diverge.
type Subscription struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID         uuid.UUID                `gorm:"column:company_id;type:uuid;not null;index"`
	PlanName          string                   `gorm:"column:plan_name;not null"`
	BillingCycle      enums.BillingCycle       `gorm:"column:billing_cycle;not null"`
	Amount            decimal.Decimal          `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          string                   `gorm:"column:currency;not null;default:'NGN'"`
	PeriodStart       *time.Time               `gorm:"column:period_start"`
	PeriodEnd         *time.Time               `gorm:"column:period_end"`
	Status            enums.SubscriptionStatus `gorm:"column:status;not null;default:'pending'"`
	CancelAtPeriodEnd bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	PaymentProvider   string                   `gorm:"column:payment_provider"`
	PaymentReference  string                   `gorm:"column:payment_reference;index"`
	PaidAt            *time.Time               `gorm:"column:paid_at"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
