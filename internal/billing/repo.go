package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shuddy05/compliancehub-backendd/pkg/db/models"
	"github.com/shuddy05/compliancehub-backendd/pkg/pagination"
)

// Repository defines persistence operations for the billing tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSubscription(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	FindLatestSubscription(ctx context.Context, companyID uuid.UUID) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context, companyID uuid.UUID, params pagination.Params) (*SubscriptionList, error)

	CreatePaymentTransaction(ctx context.Context, tx *models.PaymentTransaction) (*models.PaymentTransaction, error)
	UpdatePaymentTransaction(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindTransactionByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error)
	ListRecentTransactions(ctx context.Context, companyID uuid.UUID, limit int) ([]models.PaymentTransaction, error)
}

// SubscriptionList is one page of subscription history.
type SubscriptionList struct {
	Items      []models.Subscription
	NextCursor *string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a billing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSubscription(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *repository) UpdateSubscription(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindLatestSubscription(ctx context.Context, companyID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC, id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) ListSubscriptions(ctx context.Context, companyID uuid.UUID, params pagination.Params) (*SubscriptionList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Subscription
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &SubscriptionList{Items: rows}
	if len(rows) > limit {
		list.Items = rows[:limit]
		last := list.Items[len(list.Items)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}

func (r *repository) CreatePaymentTransaction(ctx context.Context, tx *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *repository) UpdatePaymentTransaction(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindTransactionByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("provider_reference = ?", reference).
		First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *repository) ListRecentTransactions(ctx context.Context, companyID uuid.UUID, limit int) ([]models.PaymentTransaction, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("initiated_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
