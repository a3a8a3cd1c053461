package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/models"
)

// CartLine is a cart row joined with its product.
type CartLine struct {
	CartID    uint
	ProductID uint
	Quantity  int
	Name      string
	Price     decimal.Decimal
	Image     string
	Stock     int
}

func (r *GormRepo) CartLines(ctx context.Context, userID uuid.UUID) ([]CartLine, error) {
	var lines []CartLine
	err := r.DB.WithContext(ctx).
		Table("cart_items AS ci").
		Select("ci.id AS cart_id, ci.product_id, ci.quantity, p.name, p.price, p.image, p.stock").
		Joins("JOIN products AS p ON p.id = ci.product_id").
		Where("ci.user_id = ?", userID).
		Order("ci.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// AddToCart increments an existing row or inserts a new one; created reports the insert.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) (bool, error) {
	created := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(item).Error
		}

		if err := tx.Create(item).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, userID uuid.UUID, cartID uint, qty int) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", cartID, userID).
		Update("quantity", qty)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID uuid.UUID, cartID uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", cartID, userID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) DeleteCartItems(ctx context.Context, userID uuid.UUID, cartIDs []uint) (int64, error) {
	if len(cartIDs) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, cartIDs).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
