package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shuddy05/compliancehub-backendd/internal/billing"
	"github.com/shuddy05/compliancehub-backendd/internal/companies"
	"github.com/shuddy05/compliancehub-backendd/internal/limits"
	"github.com/shuddy05/compliancehub-backendd/internal/plans"
	"github.com/shuddy05/compliancehub-backendd/pkg/config"
	"github.com/shuddy05/compliancehub-backendd/pkg/db/models"
	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
	"github.com/shuddy05/compliancehub-backendd/pkg/logger"
	"github.com/shuddy05/compliancehub-backendd/pkg/metrics"
	"github.com/shuddy05/compliancehub-backendd/pkg/pagination"
	"github.com/shuddy05/compliancehub-backendd/pkg/paystack"
)

const providerPaystack = "paystack"

type membershipChecker interface {
	HasMembership(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
	UserHasRole(ctx context.Context, userID, companyID uuid.UUID, roles ...enums.MemberRole) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gatewayClient interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error)
}

// Service is the subscription billing surface.
type Service interface {
	Plans() []plans.Plan
	InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentResult, error)
	PaymentStatus(ctx context.Context, reference string) (*PaymentStatusResult, error)
	Current(ctx context.Context, companyID, userID uuid.UUID) (*CurrentSubscription, error)
	History(ctx context.Context, companyID, userID uuid.UUID, params pagination.Params) (*History, error)
	BillingInfo(ctx context.Context, companyID, userID uuid.UUID) (*BillingInfo, error)
	CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*CreateSubscriptionResult, error)
	Cancel(ctx context.Context, input CancelInput) (*CancelResult, error)
	Downgrade(ctx context.Context, companyID, userID uuid.UUID) (*DowngradeResult, error)
	Upgrade(ctx context.Context, input UpgradeInput) (*UpgradeResult, error)
	Usage(ctx context.Context, companyID, userID uuid.UUID) (*UsageMetrics, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	BillingRepo       billing.Repository
	CompanyRepo       companies.Repository
	Memberships       membershipChecker
	TransactionRunner txRunner
	Gateway           gatewayClient // nil when the gateway is not configured
	Billing           config.BillingConfig
	FrontendBaseURL   string
	Logger            *logger.Logger
	Metrics           *metrics.PaymentMetrics
}

type service struct {
	billingRepo billing.Repository
	companyRepo companies.Repository
	memberships membershipChecker
	txRunner    txRunner
	gateway     gatewayClient
	vatRate     decimal.Decimal
	currency    string
	frontendURL string
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.BillingRepo == nil {
		return nil, fmt.Errorf("billing repo required")
	}
	if params.CompanyRepo == nil {
		return nil, fmt.Errorf("company repo required")
	}
	if params.Memberships == nil {
		return nil, fmt.Errorf("memberships checker required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}

	currency := strings.TrimSpace(params.Billing.Currency)
	if currency == "" {
		currency = "NGN"
	}

	return &service{
		billingRepo: params.BillingRepo,
		companyRepo: params.CompanyRepo,
		memberships: params.Memberships,
		txRunner:    params.TransactionRunner,
		gateway:     params.Gateway,
		vatRate:     params.Billing.VATRate,
		currency:    currency,
		frontendURL: strings.TrimRight(params.FrontendBaseURL, "/"),
		logg:        params.Logger,
		metrics:     params.Metrics,
	}, nil
}

// Plans returns the plan catalog.
func (s *service) Plans() []plans.Plan {
	return plans.Plans()
}

// InitiatePayment creates a pending subscription plus a pending payment
// transaction under a fresh unique reference, then hands off to the gateway.
// Gateway failures other than duplicate references are non-fatal: the pending
// records survive and the authorization handle comes back nil.
func (s *service) InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentResult, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id is required")
	}
	if !input.BillingCycle.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing cycle")
	}

	isAdmin, err := s.memberships.UserHasRole(ctx, input.UserID, input.CompanyID, enums.MemberRoleSuperAdmin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership role")
	}
	if !isAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can initiate payments")
	}

	company, err := s.companyRepo.FindByID(ctx, input.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}

	base := plans.AmountFor(input.PlanName, input.BillingCycle)
	if !base.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan or billing cycle")
	}
	vatAmount := base.Mul(s.vatRate).Round(2)
	total := base.Add(vatAmount).Round(2)

	reference, err := UniqueReference(ctx, func(ctx context.Context, candidate string) (bool, error) {
		_, findErr := s.billingRepo.FindTransactionByReference(ctx, candidate)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, findErr
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	periodStart := now
	periodEnd := periodEndFor(periodStart, input.BillingCycle)

	metadataFields := map[string]any{
		"plan_name":     input.PlanName,
		"billing_cycle": input.BillingCycle,
		"vat_rate":      s.vatRate,
		"vat_amount":    vatAmount,
	}
	if input.CustomerEmail != "" {
		metadataFields["customer_email"] = input.CustomerEmail
	}
	if input.CustomerFirstName != "" || input.CustomerLastName != "" {
		metadataFields["customer_name"] = strings.TrimSpace(input.CustomerFirstName + " " + input.CustomerLastName)
	}
	if input.CustomerPhone != "" {
		metadataFields["customer_phone"] = input.CustomerPhone
	}
	metadata, err := json.Marshal(metadataFields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode transaction metadata")
	}

	sub := &models.Subscription{
		ID:               uuid.New(),
		CompanyID:        company.ID,
		PlanName:         input.PlanName,
		BillingCycle:     input.BillingCycle,
		Amount:           total,
		Currency:         s.currency,
		PeriodStart:      &periodStart,
		PeriodEnd:        &periodEnd,
		Status:           enums.SubscriptionStatusPending,
		PaymentProvider:  providerPaystack,
		PaymentReference: reference,
	}
	payment := &models.PaymentTransaction{
		ID:                uuid.New(),
		CompanyID:         company.ID,
		SubscriptionID:    &sub.ID,
		TransactionType:   enums.TransactionTypeSubscription,
		Amount:            total,
		Currency:          s.currency,
		Provider:          providerPaystack,
		ProviderReference: reference,
		PaymentMethod:     enums.PaymentMethodPaystackInline,
		Status:            enums.PaymentStatusPending,
		Metadata:          metadata,
		InitiatedAt:       now,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		if _, txErr := repo.CreateSubscription(ctx, sub); txErr != nil {
			return txErr
		}
		_, txErr := repo.CreatePaymentTransaction(ctx, payment)
		return txErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist pending payment records")
	}

	result := &InitiatePaymentResult{
		PaymentReference: reference,
		Amount:           total,
		Currency:         s.currency,
		SubscriptionID:   sub.ID,
	}

	switch {
	case s.gateway == nil:
	case input.CustomerEmail == "":
		// gateway checkout needs a customer email; leave the pending
		// records for a later initiation that carries one
		s.logg.Warn(s.logg.WithReference(ctx, reference), "skipping gateway initialize, no customer email")
	default:
		auth, finalRef := s.initializeWithGateway(ctx, sub, payment, reference, total, input)
		result.PaymentReference = finalRef
		if auth != nil {
			result.AuthorizationURL = &auth.AuthorizationURL
			if auth.AccessCode != "" {
				result.AccessCode = &auth.AccessCode
			}
		}
	}

	s.metrics.IncInitiation(input.PlanName, input.BillingCycle.String())
	return result, nil
}

// initializeWithGateway starts the checkout session, rotating the reference
// (and both stored rows, in lockstep) when the gateway reports a duplicate.
// Returns the authorization handle (nil on failure) and the final reference.
func (s *service) initializeWithGateway(ctx context.Context, sub *models.Subscription, payment *models.PaymentTransaction, reference string, total decimal.Decimal, input InitiatePaymentInput) (*paystack.Authorization, string) {
	ctx = s.logg.WithReference(s.logg.WithCompanyID(ctx, sub.CompanyID.String()), reference)

	// server-side initialize supersedes the inline default
	if err := s.billingRepo.UpdatePaymentTransaction(ctx, payment.ID, map[string]any{
		"payment_method": enums.PaymentMethodPaystackServer,
	}); err != nil {
		s.logg.Error(ctx, "mark payment method server-init", err)
	}

	gatewayMeta, _ := json.Marshal(map[string]any{
		"company_id":    sub.CompanyID,
		"plan_name":     input.PlanName,
		"billing_cycle": input.BillingCycle,
	})

	var auth *paystack.Authorization
	attempt := 0
	err := RetryOnCollision(ctx, maxReferenceAttempts, paystack.IsDuplicateReference, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			rotated := NewReference()
			if swapErr := s.swapReference(ctx, sub, payment, rotated); swapErr != nil {
				return swapErr
			}
			reference = rotated
		}

		initAuth, initErr := s.gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
			Email:       input.CustomerEmail,
			Amount:      total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
			Reference:   reference,
			Currency:    s.currency,
			CallbackURL: fmt.Sprintf("%s/payment-success?reference=%s", s.frontendURL, reference),
			Metadata:    gatewayMeta,
		})
		if initErr != nil {
			return initErr
		}
		auth = initAuth
		return nil
	})
	if err != nil {
		// non-fatal: pending records stay, client gets a nil handle
		s.logg.Error(ctx, "paystack initialize failed", err)
		return nil, reference
	}
	return auth, reference
}

// swapReference rewrites the reference on both the subscription and the
// payment transaction inside one transaction so they never diverge. The retry
// marker is merged into the transaction metadata, keeping the tax breakdown.
func (s *service) swapReference(ctx context.Context, sub *models.Subscription, payment *models.PaymentTransaction, newReference string) error {
	fields := map[string]any{}
	if len(payment.Metadata) > 0 {
		if err := json.Unmarshal(payment.Metadata, &fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode transaction metadata")
		}
	}
	fields["duplicate_ref_retry"] = true
	merged, err := json.Marshal(fields)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode transaction metadata")
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		if txErr := repo.UpdateSubscription(ctx, sub.ID, map[string]any{
			"payment_reference": newReference,
		}); txErr != nil {
			return txErr
		}
		return repo.UpdatePaymentTransaction(ctx, payment.ID, map[string]any{
			"provider_reference": newReference,
			"metadata":           json.RawMessage(merged),
		})
	})
	if err != nil {
		return err
	}

	sub.PaymentReference = newReference
	payment.ProviderReference = newReference
	payment.Metadata = merged
	return nil
}

// PaymentStatus is the public polling read for a payment reference.
func (s *service) PaymentStatus(ctx context.Context, reference string) (*PaymentStatusResult, error) {
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}

	tx, err := s.billingRepo.FindTransactionByReference(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PaymentStatusResult{Found: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment transaction")
	}

	result := &PaymentStatusResult{
		Found: true,
		Transaction: &TransactionStatus{
			ID:                tx.ID,
			Status:            tx.Status,
			ProviderReference: tx.ProviderReference,
			Amount:            tx.Amount,
			Currency:          tx.Currency,
		},
	}

	if tx.SubscriptionID != nil {
		sub, subErr := s.billingRepo.FindSubscriptionByID(ctx, *tx.SubscriptionID)
		if subErr != nil && !errors.Is(subErr, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, subErr, "load subscription")
		}
		if sub != nil {
			result.Subscription = &SubscriptionStatusBrief{
				ID:           sub.ID,
				Status:       sub.Status,
				PlanName:     sub.PlanName,
				BillingCycle: sub.BillingCycle,
			}
		}
	}

	return result, nil
}

// Current returns the company's billing projection plus its latest
// subscription row. Any member of the company may read it.
func (s *service) Current(ctx context.Context, companyID, userID uuid.UUID) (*CurrentSubscription, error) {
	company, err := s.memberGate(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}

	result := &CurrentSubscription{
		CompanyID:          company.ID,
		SubscriptionTier:   company.SubscriptionTier,
		SubscriptionStatus: company.SubscriptionStatus,
		BillingPeriodStart: company.BillingPeriodStart,
		BillingPeriodEnd:   company.BillingPeriodEnd,
		NextBillingDate:    company.NextBillingDate,
		TrialEndAt:         company.TrialEndAt,
	}
	monthly, annually := plans.PricingFor(company.SubscriptionTier)
	result.Pricing = PlanPricing{Monthly: monthly, Annually: annually}

	latest, err := s.billingRepo.FindLatestSubscription(ctx, companyID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest subscription")
	}
	if latest != nil {
		result.ID = &latest.ID
		result.BillingCycle = &latest.BillingCycle
	}

	return result, nil
}

// History lists the company's subscriptions, newest first.
func (s *service) History(ctx context.Context, companyID, userID uuid.UUID, params pagination.Params) (*History, error) {
	if _, err := s.memberGate(ctx, companyID, userID); err != nil {
		return nil, err
	}

	if params.Limit <= 0 {
		params.Limit = 10
	}
	page, err := s.billingRepo.ListSubscriptions(ctx, companyID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}

	history := &History{
		CompanyID:     companyID,
		Subscriptions: make([]HistoryEntry, 0, len(page.Items)),
		NextCursor:    page.NextCursor,
	}
	for _, sub := range page.Items {
		history.Subscriptions = append(history.Subscriptions, HistoryEntry{
			ID:           sub.ID,
			PlanName:     sub.PlanName,
			BillingCycle: sub.BillingCycle,
			Amount:       sub.Amount,
			Currency:     sub.Currency,
			PeriodStart:  sub.PeriodStart,
			PeriodEnd:    sub.PeriodEnd,
			Status:       sub.Status,
			PaidAt:       sub.PaidAt,
		})
	}
	return history, nil
}

// BillingInfo returns the projection plus the five most recent transactions.
func (s *service) BillingInfo(ctx context.Context, companyID, userID uuid.UUID) (*BillingInfo, error) {
	company, err := s.memberGate(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.billingRepo.ListRecentTransactions(ctx, companyID, 5)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment transactions")
	}

	info := &BillingInfo{
		CompanyID:          company.ID,
		SubscriptionTier:   company.SubscriptionTier,
		SubscriptionStatus: company.SubscriptionStatus,
		BillingPeriodStart: company.BillingPeriodStart,
		BillingPeriodEnd:   company.BillingPeriodEnd,
		NextBillingDate:    company.NextBillingDate,
		Transactions:       make([]BillingTransaction, 0, len(rows)),
	}
	for _, tx := range rows {
		info.Transactions = append(info.Transactions, BillingTransaction{
			ID:          tx.ID,
			Type:        tx.TransactionType,
			Amount:      tx.Amount,
			Currency:    tx.Currency,
			Status:      tx.Status,
			InitiatedAt: tx.InitiatedAt,
			CompletedAt: tx.CompletedAt,
			Reference:   tx.ProviderReference,
		})
	}
	return info, nil
}

// CreateSubscription activates a subscription directly, skipping the gateway.
// Only the free tier is payable-less; paid plans still go through
// InitiatePayment, so their direct create carries the catalog amount but no
// payment record.
func (s *service) CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*CreateSubscriptionResult, error) {
	if !input.BillingCycle.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing cycle")
	}
	tier, err := enums.ParseSubscriptionTier(input.PlanID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown plan")
	}

	company, err := s.memberGate(ctx, input.CompanyID, input.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	periodEnd := periodEndFor(now, input.BillingCycle)
	sub := &models.Subscription{
		ID:           uuid.New(),
		CompanyID:    company.ID,
		PlanName:     input.PlanID,
		BillingCycle: input.BillingCycle,
		Amount:       plans.AmountFor(input.PlanID, input.BillingCycle),
		Currency:     s.currency,
		PeriodStart:  &now,
		PeriodEnd:    &periodEnd,
		Status:       enums.SubscriptionStatusActive,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if _, txErr := s.billingRepo.WithTx(tx).CreateSubscription(ctx, sub); txErr != nil {
			return txErr
		}
		return s.companyRepo.WithTx(tx).UpdateBillingProjection(ctx, company.ID, map[string]any{
			"subscription_tier":   tier,
			"subscription_status": enums.SubscriptionStatusActive,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
	}

	return &CreateSubscriptionResult{
		ID:           sub.ID,
		CompanyID:    company.ID,
		PlanID:       input.PlanID,
		BillingCycle: input.BillingCycle,
		Status:       enums.SubscriptionStatusActive,
		Message:      "Subscription created successfully",
	}, nil
}

// Cancel schedules or executes a cancellation depending on CancelAtPeriodEnd.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*CancelResult, error) {
	company, err := s.adminGate(ctx, input.CompanyID, input.UserID, "only admins can cancel subscription")
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	result := &CancelResult{CompanyID: company.ID}
	if input.CancelAtPeriodEnd {
		updates["subscription_status"] = enums.SubscriptionStatusPendingCancellation
		result.Status = enums.SubscriptionStatusPendingCancellation
		result.CancellationDate = company.BillingPeriodEnd
		result.Message = "Subscription scheduled for cancellation at end of billing period"
	} else {
		now := time.Now().UTC()
		updates["subscription_status"] = enums.SubscriptionStatusCancelled
		updates["subscription_tier"] = enums.SubscriptionTierFree
		result.Status = enums.SubscriptionStatusCancelled
		result.CancellationDate = &now
		result.Message = "Subscription cancelled immediately"
	}

	if err := s.companyRepo.UpdateBillingProjection(ctx, company.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update company projection")
	}

	if input.CancellationReason != "" {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"company_id": company.ID.String(),
			"reason":     input.CancellationReason,
		}), "subscription cancellation requested")
	}
	return result, nil
}

// Downgrade moves the company to the free tier. Billing dates are kept for
// history.
func (s *service) Downgrade(ctx context.Context, companyID, userID uuid.UUID) (*DowngradeResult, error) {
	company, err := s.adminGate(ctx, companyID, userID, "only admins can downgrade subscription")
	if err != nil {
		return nil, err
	}

	if err := s.companyRepo.UpdateBillingProjection(ctx, company.ID, map[string]any{
		"subscription_tier":   enums.SubscriptionTierFree,
		"subscription_status": enums.SubscriptionStatusActive,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update company projection")
	}

	return &DowngradeResult{
		CompanyID: company.ID,
		NewTier:   enums.SubscriptionTierFree,
		Message:   "Downgraded to Free tier. Pro features disabled.",
	}, nil
}

// Upgrade previews the new amount and hands off to the payment initiator.
func (s *service) Upgrade(ctx context.Context, input UpgradeInput) (*UpgradeResult, error) {
	initiated, err := s.InitiatePayment(ctx, InitiatePaymentInput{
		CompanyID:     input.CompanyID,
		UserID:        input.UserID,
		PlanName:      input.NewPlan,
		BillingCycle:  input.BillingCycle,
		CustomerEmail: input.CustomerEmail,
	})
	if err != nil {
		return nil, err
	}

	return &UpgradeResult{
		CompanyID:        input.CompanyID,
		NewPlan:          input.NewPlan,
		Amount:           initiated.Amount,
		Currency:         initiated.Currency,
		BillingCycle:     input.BillingCycle,
		PaymentReference: initiated.PaymentReference,
		AuthorizationURL: initiated.AuthorizationURL,
		Message:          "Upgrade initiated. Complete payment to activate the new plan.",
	}, nil
}

// Usage reports resource consumption against the company's tier limits.
// Storage and API call meters are zero until their collectors land.
func (s *service) Usage(ctx context.Context, companyID, userID uuid.UUID) (*UsageMetrics, error) {
	company, err := s.memberGate(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}

	employeeCount, err := s.companyRepo.CountEmployees(ctx, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count employees")
	}

	tierLimits := limits.ForTier(company.SubscriptionTier)
	usage := &UsageMetrics{
		CompanyID: company.ID,
		Tier:      company.SubscriptionTier,
	}
	usage.Usage.Employees = ResourceUsage{
		Current:    employeeCount,
		Limit:      tierLimits.Employees,
		Percentage: tierLimits.Employees.Percentage(employeeCount),
	}
	usage.Usage.StorageMB = ResourceUsage{Limit: tierLimits.StorageMB}
	usage.Usage.APICalls = ResourceUsage{Limit: tierLimits.APICalls}
	return usage, nil
}

func (s *service) memberGate(ctx context.Context, companyID, userID uuid.UUID) (*models.Company, error) {
	hasAccess, err := s.memberships.HasMembership(ctx, userID, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	if !hasAccess {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return s.loadCompany(ctx, companyID)
}

func (s *service) adminGate(ctx context.Context, companyID, userID uuid.UUID, denial string) (*models.Company, error) {
	isAdmin, err := s.memberships.UserHasRole(ctx, userID, companyID, enums.MemberRoleSuperAdmin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership role")
	}
	if !isAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, denial)
	}
	return s.loadCompany(ctx, companyID)
}

func (s *service) loadCompany(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	return company, nil
}

func periodEndFor(start time.Time, cycle enums.BillingCycle) time.Time {
	if cycle == enums.BillingCycleAnnual {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
