package subscriptions

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shuddy05/compliancehub-backendd/internal/billing"
	"github.com/shuddy05/compliancehub-backendd/internal/companies"
	"github.com/shuddy05/compliancehub-backendd/internal/memberships"
	"github.com/shuddy05/compliancehub-backendd/pkg/config"
	"github.com/shuddy05/compliancehub-backendd/pkg/db/models"
	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
	"github.com/shuddy05/compliancehub-backendd/pkg/logger"
	"github.com/shuddy05/compliancehub-backendd/pkg/pagination"
	"github.com/shuddy05/compliancehub-backendd/pkg/paystack"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  rc_number TEXT,
  subscription_tier TEXT NOT NULL DEFAULT 'free',
  subscription_status TEXT NOT NULL DEFAULT 'active',
  billing_period_start DATETIME,
  billing_period_end DATETIME,
  next_billing_date DATETIME,
  trial_end_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS company_users (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'member',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS employees (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  plan_name TEXT NOT NULL,
  billing_cycle TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'NGN',
  period_start DATETIME,
  period_end DATETIME,
  status TEXT NOT NULL DEFAULT 'pending',
  cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
  payment_provider TEXT,
  payment_reference TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS payment_transactions (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  subscription_id TEXT,
  transaction_type TEXT NOT NULL DEFAULT 'subscription',
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'NGN',
  provider TEXT NOT NULL,
  provider_reference TEXT NOT NULL,
  payment_method TEXT NOT NULL DEFAULT 'paystack_inline',
  status TEXT NOT NULL DEFAULT 'pending',
  metadata TEXT,
  initiated_at DATETIME NOT NULL,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT uq_payment_transactions_provider_reference UNIQUE (provider_reference)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type serviceRunner struct {
	db *gorm.DB
}

func (r serviceRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// fakeGateway fails the first duplicatesLeft initializations with a
// duplicate-reference API error, then succeeds.
type fakeGateway struct {
	requests       []paystack.InitializeRequest
	duplicatesLeft int
	failWith       error
}

func (g *fakeGateway) InitializeTransaction(_ context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error) {
	g.requests = append(g.requests, req)
	if g.failWith != nil {
		return nil, g.failWith
	}
	if g.duplicatesLeft > 0 {
		g.duplicatesLeft--
		return nil, &paystack.APIError{StatusCode: 400, Message: "Duplicate Transaction Reference"}
	}
	return &paystack.Authorization{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

type serviceFixture struct {
	db      *gorm.DB
	service Service
	gateway *fakeGateway

	companyID uuid.UUID
	adminID   uuid.UUID
	memberID  uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := setupServiceDB(t)
	gateway := &fakeGateway{}

	svc, err := NewService(ServiceParams{
		BillingRepo:       billing.NewRepository(db),
		CompanyRepo:       companies.NewRepository(db),
		Memberships:       memberships.NewRepository(db),
		TransactionRunner: serviceRunner{db: db},
		Gateway:           gateway,
		Billing: config.BillingConfig{
			VATRate:  decimal.RequireFromString("0.075"),
			Currency: "NGN",
		},
		FrontendBaseURL: "https://app.compliancehub.test",
		Logger:          logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)

	fixture := &serviceFixture{
		db:        db,
		service:   svc,
		gateway:   gateway,
		companyID: uuid.New(),
		adminID:   uuid.New(),
		memberID:  uuid.New(),
	}

	company := &models.Company{
		ID:                 fixture.companyID,
		Name:               "Acme Compliance Ltd",
		SubscriptionTier:   enums.SubscriptionTierFree,
		SubscriptionStatus: enums.SubscriptionStatusActive,
	}
	require.NoError(t, db.Create(company).Error)

	require.NoError(t, db.Create(&models.CompanyUser{
		ID:        uuid.New(),
		CompanyID: fixture.companyID,
		UserID:    fixture.adminID,
		Role:      enums.MemberRoleSuperAdmin,
	}).Error)
	require.NoError(t, db.Create(&models.CompanyUser{
		ID:        uuid.New(),
		CompanyID: fixture.companyID,
		UserID:    fixture.memberID,
		Role:      enums.MemberRoleMember,
	}).Error)

	return fixture
}

func (f *serviceFixture) initiateInput() InitiatePaymentInput {
	return InitiatePaymentInput{
		CompanyID:     f.companyID,
		UserID:        f.adminID,
		PlanName:      "pro",
		BillingCycle:  enums.BillingCycleMonthly,
		CustomerEmail: "billing@acme.test",
	}
}

func TestInitiatePayment(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	result, err := fixture.service.InitiatePayment(ctx, fixture.initiateInput())
	require.NoError(t, err)

	// 15000 base plus 7.5% VAT
	require.True(t, result.Amount.Equal(decimal.NewFromInt(16125)), "amount = %s", result.Amount)
	require.Equal(t, "NGN", result.Currency)
	require.True(t, strings.HasPrefix(result.PaymentReference, "CH-PAY-"))
	require.NotNil(t, result.AuthorizationURL)
	require.Contains(t, *result.AuthorizationURL, result.PaymentReference)

	require.Len(t, fixture.gateway.requests, 1)
	req := fixture.gateway.requests[0]
	require.Equal(t, int64(1612500), req.Amount, "gateway amount is in kobo")
	require.Equal(t, result.PaymentReference, req.Reference)
	require.Equal(t, "billing@acme.test", req.Email)
	require.Equal(t, "https://app.compliancehub.test/payment-success?reference="+result.PaymentReference, req.CallbackURL)

	var sub models.Subscription
	require.NoError(t, fixture.db.First(&sub, "id = ?", result.SubscriptionID).Error)
	require.Equal(t, enums.SubscriptionStatusPending, sub.Status)
	require.True(t, sub.Amount.Equal(result.Amount))
	require.Equal(t, result.PaymentReference, sub.PaymentReference)

	var payment models.PaymentTransaction
	require.NoError(t, fixture.db.First(&payment, "provider_reference = ?", result.PaymentReference).Error)
	require.Equal(t, enums.PaymentStatusPending, payment.Status)
	require.Equal(t, enums.PaymentMethodPaystackServer, payment.PaymentMethod)
	require.True(t, payment.Amount.Equal(result.Amount))
	require.NotNil(t, payment.SubscriptionID)
	require.Equal(t, result.SubscriptionID, *payment.SubscriptionID)
}

func TestInitiatePaymentRotatesDuplicateReference(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.gateway.duplicatesLeft = 2

	result, err := fixture.service.InitiatePayment(context.Background(), fixture.initiateInput())
	require.NoError(t, err)
	require.NotNil(t, result.AuthorizationURL)
	require.Len(t, fixture.gateway.requests, 3)

	seen := map[string]bool{}
	for _, req := range fixture.gateway.requests {
		require.False(t, seen[req.Reference], "rotation must not reuse a reference")
		seen[req.Reference] = true
	}

	// subscription and transaction stay in lockstep on the final reference
	final := fixture.gateway.requests[2].Reference
	require.Equal(t, final, result.PaymentReference)

	var sub models.Subscription
	require.NoError(t, fixture.db.First(&sub, "id = ?", result.SubscriptionID).Error)
	require.Equal(t, final, sub.PaymentReference)

	var payment models.PaymentTransaction
	require.NoError(t, fixture.db.First(&payment, "subscription_id = ?", result.SubscriptionID).Error)
	require.Equal(t, final, payment.ProviderReference)

	// rotation marks the retry without losing the tax breakdown
	var meta map[string]any
	require.NoError(t, json.Unmarshal(payment.Metadata, &meta))
	require.Equal(t, true, meta["duplicate_ref_retry"])
	require.Contains(t, meta, "vat_amount")
	require.Contains(t, meta, "vat_rate")
	require.Equal(t, "pro", meta["plan_name"])
}

func TestInitiatePaymentGatewayFailureKeepsPendingRecords(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.gateway.failWith = &paystack.APIError{StatusCode: 502, Message: "gateway timeout"}

	result, err := fixture.service.InitiatePayment(context.Background(), fixture.initiateInput())
	require.NoError(t, err)
	require.Nil(t, result.AuthorizationURL)

	// pending records survive so the client can retry or poll
	var sub models.Subscription
	require.NoError(t, fixture.db.First(&sub, "id = ?", result.SubscriptionID).Error)
	require.Equal(t, enums.SubscriptionStatusPending, sub.Status)

	var payment models.PaymentTransaction
	require.NoError(t, fixture.db.First(&payment, "provider_reference = ?", result.PaymentReference).Error)
	require.Equal(t, enums.PaymentStatusPending, payment.Status)
}

func TestInitiatePaymentWithoutEmailSkipsGateway(t *testing.T) {
	fixture := newServiceFixture(t)

	input := fixture.initiateInput()
	input.CustomerEmail = ""
	result, err := fixture.service.InitiatePayment(context.Background(), input)
	require.NoError(t, err)
	require.Nil(t, result.AuthorizationURL)
	require.Empty(t, fixture.gateway.requests)

	var sub models.Subscription
	require.NoError(t, fixture.db.First(&sub, "id = ?", result.SubscriptionID).Error)
	require.Equal(t, enums.SubscriptionStatusPending, sub.Status)
}

func TestInitiatePaymentRequiresAdmin(t *testing.T) {
	fixture := newServiceFixture(t)

	input := fixture.initiateInput()
	input.UserID = fixture.memberID
	_, err := fixture.service.InitiatePayment(context.Background(), input)
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestInitiatePaymentRejectsUnpayablePlans(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	for _, plan := range []string{"free", "nonsense", "enterprise"} {
		input := fixture.initiateInput()
		input.PlanName = plan
		if plan == "enterprise" {
			input.BillingCycle = enums.BillingCycleAnnual // custom pricing, not payable online
		}
		_, err := fixture.service.InitiatePayment(ctx, input)
		require.Error(t, err, "plan %q", plan)

		coded := pkgerrors.As(err)
		require.NotNil(t, coded)
		require.Equal(t, pkgerrors.CodeValidation, coded.Code())
	}
}

func TestPaymentStatusBeforeWebhook(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	initiated, err := fixture.service.InitiatePayment(ctx, fixture.initiateInput())
	require.NoError(t, err)

	status, err := fixture.service.PaymentStatus(ctx, initiated.PaymentReference)
	require.NoError(t, err)
	require.True(t, status.Found)
	require.Equal(t, enums.PaymentStatusPending, status.Transaction.Status)
	require.NotNil(t, status.Subscription)
	require.Equal(t, enums.SubscriptionStatusPending, status.Subscription.Status)
}

func TestPaymentStatusUnknownReference(t *testing.T) {
	fixture := newServiceFixture(t)

	status, err := fixture.service.PaymentStatus(context.Background(), "CH-PAY-never-issued")
	require.NoError(t, err)
	require.False(t, status.Found)
	require.Nil(t, status.Transaction)

	_, err = fixture.service.PaymentStatus(context.Background(), "   ")
	require.Error(t, err)
}

func TestCurrentSubscription(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	current, err := fixture.service.Current(ctx, fixture.companyID, fixture.memberID)
	require.NoError(t, err)
	require.Equal(t, enums.SubscriptionTierFree, current.SubscriptionTier)
	require.True(t, current.Pricing.Monthly.IsZero())

	_, err = fixture.service.InitiatePayment(ctx, fixture.initiateInput())
	require.NoError(t, err)

	current, err = fixture.service.Current(ctx, fixture.companyID, fixture.memberID)
	require.NoError(t, err)
	require.NotNil(t, current.ID)
	require.NotNil(t, current.BillingCycle)
	require.Equal(t, enums.BillingCycleMonthly, *current.BillingCycle)
}

func TestCurrentSubscriptionDeniedForStrangers(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.service.Current(context.Background(), fixture.companyID, uuid.New())
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestHistoryListsNewestFirst(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	for range 3 {
		_, err := fixture.service.InitiatePayment(ctx, fixture.initiateInput())
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	history, err := fixture.service.History(ctx, fixture.companyID, fixture.memberID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, history.Subscriptions, 2)
	require.NotNil(t, history.NextCursor)
	require.False(t, history.Subscriptions[0].PeriodStart.Before(*history.Subscriptions[1].PeriodStart))
}

func TestBillingInfoIncludesRecentTransactions(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	initiated, err := fixture.service.InitiatePayment(ctx, fixture.initiateInput())
	require.NoError(t, err)

	info, err := fixture.service.BillingInfo(ctx, fixture.companyID, fixture.memberID)
	require.NoError(t, err)
	require.Len(t, info.Transactions, 1)
	require.Equal(t, initiated.PaymentReference, info.Transactions[0].Reference)
}

func TestCreateSubscriptionActivatesAndProjects(t *testing.T) {
	fixture := newServiceFixture(t)

	result, err := fixture.service.CreateSubscription(context.Background(), CreateSubscriptionInput{
		CompanyID:    fixture.companyID,
		UserID:       fixture.memberID,
		PlanID:       "pro",
		BillingCycle: enums.BillingCycleMonthly,
	})
	require.NoError(t, err)
	require.Equal(t, enums.SubscriptionStatusActive, result.Status)

	var company models.Company
	require.NoError(t, fixture.db.First(&company, "id = ?", fixture.companyID).Error)
	require.Equal(t, enums.SubscriptionTierPro, company.SubscriptionTier)
	require.Equal(t, enums.SubscriptionStatusActive, company.SubscriptionStatus)
}

func TestCancelAtPeriodEnd(t *testing.T) {
	fixture := newServiceFixture(t)

	result, err := fixture.service.Cancel(context.Background(), CancelInput{
		CompanyID:         fixture.companyID,
		UserID:            fixture.adminID,
		CancelAtPeriodEnd: true,
	})
	require.NoError(t, err)
	require.Equal(t, enums.SubscriptionStatusPendingCancellation, result.Status)

	var company models.Company
	require.NoError(t, fixture.db.First(&company, "id = ?", fixture.companyID).Error)
	require.Equal(t, enums.SubscriptionStatusPendingCancellation, company.SubscriptionStatus)
	// tier is untouched until the period actually ends
	require.Equal(t, enums.SubscriptionTierFree, company.SubscriptionTier)
}

func TestCancelImmediately(t *testing.T) {
	fixture := newServiceFixture(t)
	require.NoError(t, fixture.db.Model(&models.Company{}).
		Where("id = ?", fixture.companyID).
		Update("subscription_tier", enums.SubscriptionTierPro).Error)

	result, err := fixture.service.Cancel(context.Background(), CancelInput{
		CompanyID: fixture.companyID,
		UserID:    fixture.adminID,
	})
	require.NoError(t, err)
	require.Equal(t, enums.SubscriptionStatusCancelled, result.Status)
	require.NotNil(t, result.CancellationDate)

	var company models.Company
	require.NoError(t, fixture.db.First(&company, "id = ?", fixture.companyID).Error)
	require.Equal(t, enums.SubscriptionStatusCancelled, company.SubscriptionStatus)
	require.Equal(t, enums.SubscriptionTierFree, company.SubscriptionTier)
}

func TestCancelRequiresAdmin(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.service.Cancel(context.Background(), CancelInput{
		CompanyID: fixture.companyID,
		UserID:    fixture.memberID,
	})
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeForbidden, coded.Code())
}

func TestDowngrade(t *testing.T) {
	fixture := newServiceFixture(t)
	require.NoError(t, fixture.db.Model(&models.Company{}).
		Where("id = ?", fixture.companyID).
		Update("subscription_tier", enums.SubscriptionTierPro).Error)

	result, err := fixture.service.Downgrade(context.Background(), fixture.companyID, fixture.adminID)
	require.NoError(t, err)
	require.Equal(t, enums.SubscriptionTierFree, result.NewTier)

	var company models.Company
	require.NoError(t, fixture.db.First(&company, "id = ?", fixture.companyID).Error)
	require.Equal(t, enums.SubscriptionTierFree, company.SubscriptionTier)
	require.Equal(t, enums.SubscriptionStatusActive, company.SubscriptionStatus)
}

func TestUpgradeDelegatesToPaymentInitiation(t *testing.T) {
	fixture := newServiceFixture(t)

	result, err := fixture.service.Upgrade(context.Background(), UpgradeInput{
		CompanyID:     fixture.companyID,
		UserID:        fixture.adminID,
		NewPlan:       "pro",
		BillingCycle:  enums.BillingCycleAnnual,
		CustomerEmail: "billing@acme.test",
	})
	require.NoError(t, err)
	// 150000 base plus 7.5% VAT
	require.True(t, result.Amount.Equal(decimal.NewFromInt(161250)), "amount = %s", result.Amount)
	require.NotNil(t, result.AuthorizationURL)
	require.True(t, strings.HasPrefix(result.PaymentReference, "CH-PAY-"))
}

func TestUsageCountsEmployeesAgainstTierLimits(t *testing.T) {
	fixture := newServiceFixture(t)
	for i := 0; i < 2; i++ {
		require.NoError(t, fixture.db.Create(&models.Employee{
			ID:        uuid.New(),
			CompanyID: fixture.companyID,
			FirstName: "Test",
			LastName:  "Employee",
		}).Error)
	}

	usage, err := fixture.service.Usage(context.Background(), fixture.companyID, fixture.memberID)
	require.NoError(t, err)
	require.Equal(t, enums.SubscriptionTierFree, usage.Tier)
	require.Equal(t, int64(2), usage.Usage.Employees.Current)
	limit, bounded := usage.Usage.Employees.Limit.Value()
	require.True(t, bounded)
	require.Equal(t, int64(5), limit)
	require.InDelta(t, 40.0, usage.Usage.Employees.Percentage, 0.01)
}

func TestPlansCatalogExposedByService(t *testing.T) {
	fixture := newServiceFixture(t)

	catalog := fixture.service.Plans()
	require.Len(t, catalog, 3)
}
