package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
)

// UniqueProviderReferenceConstraint names the unique index on
// payment_transactions.provider_reference. The constraint, not the
// application-level pre-check, is what guarantees reference uniqueness when
// two initiations race across instances.
const UniqueProviderReferenceConstraint = "uq_payment_transactions_provider_reference"

// PaymentTransaction records one payment attempt at the gateway. The
// provider reference is the durable correlation key shared with the gateway;
// webhook reconciliation resolves transactions by it, never by row id.
type PaymentTransaction struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID         uuid.UUID             `gorm:"column:company_id;type:uuid;not null;index"`
	SubscriptionID    *uuid.UUID            `gorm:"column:subscription_id;type:uuid;index"`
	TransactionType   enums.TransactionType `gorm:"column:transaction_type;not null;default:'subscription'"`
	Amount            decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          string                `gorm:"column:currency;not null;default:'NGN'"`
	Provider          string                `gorm:"column:provider;not null"`
	ProviderReference string                `gorm:"column:provider_reference;not null;uniqueIndex:uq_payment_transactions_provider_reference"`
	PaymentMethod     enums.PaymentMethod   `gorm:"column:payment_method;not null;default:'paystack_inline'"`
	Status            enums.PaymentStatus   `gorm:"column:status;not null;default:'pending'"`
	Metadata          json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	InitiatedAt       time.Time             `gorm:"column:initiated_at;not null"`
	CompletedAt       *time.Time            `gorm:"column:completed_at"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
