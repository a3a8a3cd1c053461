package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/go_outdoor/internal/models"
)

// CreateOrder inserts the order together with its items.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) AttachPayment(ctx context.Context, id uint, token, redirectURL string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"snap_token":   token,
			"redirect_url": redirectURL,
		}).Error
}

func (r *GormRepo) OrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionOrder moves an order from one status to another; zero rows means the
// order was no longer in the expected status.
func (r *GormRepo) TransitionOrder(ctx context.Context, orderID, from, to, transactionID string) (int64, error) {
	updates := map[string]any{"status": to}
	if transactionID != "" {
		updates["midtrans_transaction_id"] = transactionID
	}
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("order_id = ? AND status = ?", orderID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) RecordNotification(ctx context.Context, n *models.PaymentNotification) error {
	return r.DB.WithContext(ctx).Create(n).Error
}
