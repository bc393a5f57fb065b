package subscriptions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shuddy05/compliancehub-backendd/internal/limits"
	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
)

// InitiatePaymentInput carries everything needed to start a gateway payment.
// Customer fields are optional; without an email the pending records are still
// created but no checkout session is opened.
type InitiatePaymentInput struct {
	CompanyID         uuid.UUID
	UserID            uuid.UUID
	PlanName          string
	BillingCycle      enums.BillingCycle
	CustomerEmail     string
	CustomerFirstName string
	CustomerLastName  string
	CustomerPhone     string
}

// InitiatePaymentResult is returned to the client so it can hand off to the
// gateway checkout. Amount is VAT-inclusive. AuthorizationURL is nil when the
// gateway is not configured or initialization failed; the pending records
// remain and the client may retry or poll.
type InitiatePaymentResult struct {
	PaymentReference string          `json:"payment_reference"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	SubscriptionID   uuid.UUID       `json:"subscription_id"`
	AuthorizationURL *string         `json:"authorization_url"`
	AccessCode       *string         `json:"access_code,omitempty"`
}

// PaymentStatusResult is the polling response for a payment reference.
type PaymentStatusResult struct {
	Found        bool                     `json:"found"`
	Transaction  *TransactionStatus       `json:"transaction,omitempty"`
	Subscription *SubscriptionStatusBrief `json:"subscription,omitempty"`
}

// TransactionStatus is the transaction slice of a status poll.
type TransactionStatus struct {
	ID                uuid.UUID           `json:"id"`
	Status            enums.PaymentStatus `json:"status"`
	ProviderReference string              `json:"provider_reference"`
	Amount            decimal.Decimal     `json:"amount"`
	Currency          string              `json:"currency"`
}

// SubscriptionStatusBrief is the subscription slice of a status poll.
type SubscriptionStatusBrief struct {
	ID           uuid.UUID                `json:"id"`
	Status       enums.SubscriptionStatus `json:"status"`
	PlanName     string                   `json:"plan_name"`
	BillingCycle enums.BillingCycle       `json:"billing_cycle"`
}

// PlanPricing is the published price pair for a tier.
type PlanPricing struct {
	Monthly  decimal.Decimal  `json:"monthly"`
	Annually *decimal.Decimal `json:"annually"`
}

// CurrentSubscription is the company-level billing view any member may read.
type CurrentSubscription struct {
	ID                 *uuid.UUID               `json:"id"`
	CompanyID          uuid.UUID                `json:"company_id"`
	SubscriptionTier   enums.SubscriptionTier   `json:"subscription_tier"`
	SubscriptionStatus enums.SubscriptionStatus `json:"subscription_status"`
	BillingCycle       *enums.BillingCycle      `json:"billing_cycle"`
	BillingPeriodStart *time.Time               `json:"billing_period_start"`
	BillingPeriodEnd   *time.Time               `json:"billing_period_end"`
	NextBillingDate    *time.Time               `json:"next_billing_date"`
	TrialEndAt         *time.Time               `json:"trial_end_at"`
	Pricing            PlanPricing              `json:"pricing"`
}

// HistoryEntry is one row of subscription history.
type HistoryEntry struct {
	ID           uuid.UUID                `json:"id"`
	PlanName     string                   `json:"plan_name"`
	BillingCycle enums.BillingCycle       `json:"billing_cycle"`
	Amount       decimal.Decimal          `json:"amount"`
	Currency     string                   `json:"currency"`
	PeriodStart  *time.Time               `json:"period_start"`
	PeriodEnd    *time.Time               `json:"period_end"`
	Status       enums.SubscriptionStatus `json:"status"`
	PaidAt       *time.Time               `json:"paid_at"`
}

// History is a page of subscription history.
type History struct {
	CompanyID     uuid.UUID      `json:"company_id"`
	Subscriptions []HistoryEntry `json:"subscriptions"`
	NextCursor    *string        `json:"next_cursor,omitempty"`
}

// BillingTransaction is one row of recent payment activity.
type BillingTransaction struct {
	ID          uuid.UUID             `json:"id"`
	Type        enums.TransactionType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Currency    string                `json:"currency"`
	Status      enums.PaymentStatus   `json:"status"`
	InitiatedAt time.Time             `json:"initiated_at"`
	CompletedAt *time.Time            `json:"completed_at"`
	Reference   string                `json:"reference"`
}

// BillingInfo is the projection plus recent transactions.
type BillingInfo struct {
	CompanyID          uuid.UUID                `json:"company_id"`
	SubscriptionTier   enums.SubscriptionTier   `json:"subscription_tier"`
	SubscriptionStatus enums.SubscriptionStatus `json:"subscription_status"`
	BillingPeriodStart *time.Time               `json:"billing_period_start"`
	BillingPeriodEnd   *time.Time               `json:"billing_period_end"`
	NextBillingDate    *time.Time               `json:"next_billing_date"`
	Transactions       []BillingTransaction     `json:"transactions"`
}

// CreateSubscriptionInput starts a subscription without a gateway hand-off,
// used for the free-tier activation path.
type CreateSubscriptionInput struct {
	CompanyID    uuid.UUID
	UserID       uuid.UUID
	PlanID       string
	BillingCycle enums.BillingCycle
}

// CreateSubscriptionResult confirms a direct subscription create.
type CreateSubscriptionResult struct {
	ID           uuid.UUID                `json:"id"`
	CompanyID    uuid.UUID                `json:"company_id"`
	PlanID       string                   `json:"plan_id"`
	BillingCycle enums.BillingCycle       `json:"billing_cycle"`
	Status       enums.SubscriptionStatus `json:"status"`
	Message      string                   `json:"message"`
}

// CancelInput captures a cancellation request.
type CancelInput struct {
	CompanyID          uuid.UUID
	UserID             uuid.UUID
	CancellationReason string
	CancelAtPeriodEnd  bool
}

// CancelResult reports the post-cancel state.
type CancelResult struct {
	CompanyID        uuid.UUID                `json:"company_id"`
	Status           enums.SubscriptionStatus `json:"status"`
	CancellationDate *time.Time               `json:"cancellation_date"`
	Message          string                   `json:"message"`
}

// DowngradeResult reports the post-downgrade state.
type DowngradeResult struct {
	CompanyID uuid.UUID              `json:"company_id"`
	NewTier   enums.SubscriptionTier `json:"new_tier"`
	Message   string                 `json:"message"`
}

// UpgradeInput captures an upgrade request.
type UpgradeInput struct {
	CompanyID     uuid.UUID
	UserID        uuid.UUID
	NewPlan       string
	BillingCycle  enums.BillingCycle
	CustomerEmail string
}

// UpgradeResult is the amount preview plus the gateway hand-off.
type UpgradeResult struct {
	CompanyID        uuid.UUID          `json:"company_id"`
	NewPlan          string             `json:"new_plan"`
	Amount           decimal.Decimal    `json:"amount"`
	Currency         string             `json:"currency"`
	BillingCycle     enums.BillingCycle `json:"billing_cycle"`
	PaymentReference string             `json:"payment_reference"`
	AuthorizationURL *string            `json:"authorization_url"`
	Message          string             `json:"message"`
}

// ResourceUsage is one metered resource against its tier cap.
type ResourceUsage struct {
	Current    int64        `json:"current"`
	Limit      limits.Limit `json:"limit"`
	Percentage float64      `json:"percentage"`
}

// UsageMetrics reports company usage against the subscription tier limits.
type UsageMetrics struct {
	CompanyID uuid.UUID              `json:"company_id"`
	Tier      enums.SubscriptionTier `json:"tier"`
	Usage     struct {
		Employees ResourceUsage `json:"employees"`
		StorageMB ResourceUsage `json:"storage_mb"`
		APICalls  ResourceUsage `json:"api_calls"`
	} `json:"usage"`
}
