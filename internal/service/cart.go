package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
)

// MaxQuantity bounds a cart line; the gateway carries quantities as int32.
const MaxQuantity = math.MaxInt32

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]repo.CartLine, error) {
	return s.Repo.CartLines(ctx, userID)
}

// AddToCart adds qty of a product; created is false when an existing line grew.
func (s *CartService) AddToCart(ctx context.Context, userID uuid.UUID, productID uint, qty int) (bool, *models.CartItem, error) {
	if qty <= 0 {
		return false, nil, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}
	if qty > MaxQuantity {
		return false, nil, fmt.Errorf("quantity must not exceed %d: %w", MaxQuantity, ErrValidation)
	}
	if productID == 0 {
		return false, nil, fmt.Errorf("product id must be positive: %w", ErrValidation)
	}
	if _, err := s.Repo.ProductByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return false, nil, err
	}

	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	created, err := s.Repo.AddToCart(ctx, item)
	if err != nil {
		return false, nil, err
	}
	return created, item, nil
}

// UpdateQuantity sets a line's quantity; a quantity of zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, cartID uint, qty int) (removed bool, err error) {
	if cartID == 0 {
		return false, fmt.Errorf("cart id must be positive: %w", ErrValidation)
	}
	if qty <= 0 {
		return true, s.RemoveItem(ctx, userID, cartID)
	}
	if qty > MaxQuantity {
		return false, fmt.Errorf("quantity must not exceed %d: %w", MaxQuantity, ErrValidation)
	}

	n, err := s.Repo.SetCartQuantity(ctx, userID, cartID, qty)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, fmt.Errorf("cart item %d: %w", cartID, ErrNotFound)
	}
	return false, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID uuid.UUID, cartID uint) error {
	if cartID == 0 {
		return fmt.Errorf("cart id must be positive: %w", ErrValidation)
	}
	n, err := s.Repo.DeleteCartItem(ctx, userID, cartID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cart item %d: %w", cartID, ErrNotFound)
	}
	return nil
}
