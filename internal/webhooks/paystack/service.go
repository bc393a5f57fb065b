package paystackwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shuddy05/compliancehub-backendd/internal/billing"
	"github.com/shuddy05/compliancehub-backendd/internal/companies"
	"github.com/shuddy05/compliancehub-backendd/pkg/db/models"
	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
	"github.com/shuddy05/compliancehub-backendd/pkg/logger"
	"github.com/shuddy05/compliancehub-backendd/pkg/metrics"
)

const (
	providerPaystack = "paystack"

	outcomeReconciled = "reconciled"
	outcomeFailed     = "failed"
	outcomeReplay     = "replay"
	outcomeUnknownRef = "unknown_reference"
	outcomeIgnored    = "ignored"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type replayGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(provider, event, reference string) string
}

// ServiceParams groups dependencies for the webhook reconciler.
type ServiceParams struct {
	BillingRepo       billing.Repository
	CompanyRepo       companies.Repository
	TransactionRunner txRunner
	Guard             replayGuard // nil disables the redis replay shortcut
	GuardTTL          time.Duration
	Logger            *logger.Logger
	Metrics           *metrics.PaymentMetrics
}

// Service reconciles verified gateway events against the billing tables.
type Service struct {
	billingRepo billing.Repository
	companyRepo companies.Repository
	txRunner    txRunner
	guard       replayGuard
	guardTTL    time.Duration
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics
}

// NewService builds the reconciler with the required dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.CompanyRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "company repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	guardTTL := params.GuardTTL
	if guardTTL <= 0 {
		guardTTL = 72 * time.Hour
	}
	return &Service{
		billingRepo: params.BillingRepo,
		companyRepo: params.CompanyRepo,
		txRunner:    params.TransactionRunner,
		guard:       params.Guard,
		guardTTL:    guardTTL,
		logg:        params.Logger,
		metrics:     params.Metrics,
	}, nil
}

// HandleEvent applies one verified gateway event. A nil return means the
// event is fully settled and may be acked; an error means the caller should
// nack so the gateway redelivers. Redelivery is safe: the terminal-status
// check makes reconciliation idempotent regardless of the redis guard.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event required")
	}

	success := event.IsSuccess()
	failure := !success && event.IsFailure()
	if !success && !failure {
		s.metrics.IncWebhookEvent(event.Event, outcomeIgnored)
		return nil
	}

	reference := event.Reference()
	if reference == "" {
		s.logg.Warn(ctx, "webhook event missing transaction reference")
		s.metrics.IncWebhookEvent(event.Event, outcomeIgnored)
		return nil
	}
	ctx = s.logg.WithReference(ctx, reference)

	guardKey := ""
	if s.guard != nil {
		guardKey = s.guard.WebhookEventKey(providerPaystack, event.Event, reference)
		claimed, err := s.guard.SetNX(ctx, guardKey, "1", s.guardTTL)
		if err != nil {
			// guard is an optimization; fall through to the DB check
			s.logg.Warn(ctx, "webhook replay guard unavailable")
			guardKey = ""
		} else if !claimed {
			s.metrics.IncWebhookEvent(event.Event, outcomeReplay)
			s.logg.Info(ctx, "webhook replay suppressed")
			return nil
		}
	}

	started := time.Now()
	outcome, err := s.reconcile(ctx, event, reference, success)
	s.metrics.ObserveReconcile(event.Event, time.Since(started))
	if err != nil {
		if guardKey != "" {
			if delErr := s.guard.Del(ctx, guardKey); delErr != nil {
				s.logg.Warn(ctx, "release webhook replay guard")
			}
		}
		s.metrics.IncWebhookEvent(event.Event, outcomeFailed)
		return err
	}

	s.metrics.IncWebhookEvent(event.Event, outcome)
	return nil
}

// reconcile runs the whole settlement in a single DB transaction so a crash
// mid-way leaves no partially applied event.
func (s *Service) reconcile(ctx context.Context, event *Event, reference string, success bool) (string, error) {
	outcome := outcomeReconciled
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)

		payment, findErr := repo.FindTransactionByReference(ctx, reference)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				s.logg.Warn(ctx, "webhook references unknown transaction")
				outcome = outcomeUnknownRef
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load payment transaction")
		}

		if payment.Status.IsTerminal() {
			outcome = outcomeReplay
			return nil
		}

		if !success {
			return s.markFailed(ctx, repo, payment)
		}
		return s.markSettled(ctx, tx, repo, payment, event)
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func (s *Service) markFailed(ctx context.Context, repo billing.Repository, payment *models.PaymentTransaction) error {
	now := time.Now().UTC()
	if err := repo.UpdatePaymentTransaction(ctx, payment.ID, map[string]any{
		"status":       enums.PaymentStatusFailed,
		"completed_at": now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transaction failed")
	}
	// subscription stays pending; a later successful charge can still settle it
	s.logg.Info(ctx, "payment transaction marked failed")
	return nil
}

func (s *Service) markSettled(ctx context.Context, tx *gorm.DB, repo billing.Repository, payment *models.PaymentTransaction, event *Event) error {
	now := time.Now().UTC()

	if err := repo.UpdatePaymentTransaction(ctx, payment.ID, map[string]any{
		"status":       enums.PaymentStatusSuccessful,
		"completed_at": now,
		"metadata":     mergeMetadata(payment.Metadata, event.DataRaw),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transaction successful")
	}

	if payment.SubscriptionID == nil {
		return nil
	}

	sub, err := repo.FindSubscriptionByID(ctx, *payment.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, "settled transaction has no subscription row")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	periodStart := sub.PeriodStart
	if periodStart == nil {
		periodStart = &now
	}
	periodEnd := sub.PeriodEnd
	if periodEnd == nil {
		end := periodStart.AddDate(0, 1, 0)
		if sub.BillingCycle == enums.BillingCycleAnnual {
			end = periodStart.AddDate(1, 0, 0)
		}
		periodEnd = &end
	}

	if err := repo.UpdateSubscription(ctx, sub.ID, map[string]any{
		"status":            enums.SubscriptionStatusActive,
		"paid_at":           now,
		"period_start":      *periodStart,
		"period_end":        *periodEnd,
		"payment_reference": payment.ProviderReference,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
	}

	return s.projectCompany(ctx, tx, sub, *periodStart, *periodEnd)
}

// projectCompany overwrites the company's denormalized billing fields.
// Last writer wins; the subscription rows remain the source of truth.
func (s *Service) projectCompany(ctx context.Context, tx *gorm.DB, sub *models.Subscription, periodStart, periodEnd time.Time) error {
	updates := map[string]any{
		"subscription_status":  enums.SubscriptionStatusActive,
		"billing_period_start": periodStart,
		"billing_period_end":   periodEnd,
		"next_billing_date":    periodEnd,
	}
	if tier, err := enums.ParseSubscriptionTier(sub.PlanName); err == nil {
		updates["subscription_tier"] = tier
	} else {
		s.logg.Warn(s.logg.WithField(ctx, "plan_name", sub.PlanName), "subscription plan is not a known tier")
	}

	if err := s.companyRepo.WithTx(tx).UpdateBillingProjection(ctx, sub.CompanyID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update company projection")
	}
	return nil
}

func mergeMetadata(existing json.RawMessage, providerData json.RawMessage) json.RawMessage {
	merged := map[string]json.RawMessage{}
	if len(existing) > 0 {
		// best effort: unparseable existing metadata is replaced wholesale
		_ = json.Unmarshal(existing, &merged)
	}
	if len(providerData) > 0 {
		merged["provider_data"] = providerData
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return existing
	}
	return out
}
