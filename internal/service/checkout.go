package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/events"
	"github.com/Skotchmaster/go_outdoor/internal/gateway"
	"github.com/Skotchmaster/go_outdoor/internal/lock"
	"github.com/Skotchmaster/go_outdoor/internal/logging"
	"github.com/Skotchmaster/go_outdoor/internal/metrics"
	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
)

const defaultLockTTL = 30 * time.Second

type CheckoutService struct {
	Repo    *repo.GormRepo
	Gateway PaymentGateway
	Locker  lock.Locker
	Events  events.Publisher
	Metrics *metrics.Metrics

	EnforceStock bool
	LockTTL      time.Duration
}

type CheckoutInput struct {
	UserID        uuid.UUID
	CustomerName  string
	CustomerEmail string
	RentDays      int
}

type CheckoutResult struct {
	OrderID     string
	Token       string
	RedirectURL string
	TotalAmount decimal.Decimal
	GrossAmount decimal.Decimal
}

func NewOrderID() string {
	return "GO-" + uuid.NewString()
}

// rentalPrice is one unit's price for the whole rental, rounded to rupiah.
func rentalPrice(price decimal.Decimal, rentDays int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(rentDays))).Round(0)
}

// Totals returns the per-day cart total and the amount charged for rentDays.
// gross is summed from rounded rental prices so it matches the gateway items.
func Totals(lines []repo.CartLine, rentDays int) (total, gross decimal.Decimal) {
	total, gross = decimal.Zero, decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		total = total.Add(line.Price.Mul(qty))
		gross = gross.Add(rentalPrice(line.Price, rentDays).Mul(qty))
	}
	return total, gross
}

func chargeRequest(orderID string, in CheckoutInput, lines []repo.CartLine) gateway.ChargeRequest {
	req := gateway.ChargeRequest{
		OrderID:  orderID,
		Customer: gateway.Customer{Name: in.CustomerName, Email: in.CustomerEmail},
		Items:    make([]gateway.Item, 0, len(lines)),
	}
	for _, line := range lines {
		price := rentalPrice(line.Price, in.RentDays).IntPart()
		req.Items = append(req.Items, gateway.Item{
			ID:    fmt.Sprintf("%d", line.ProductID),
			Name:  line.Name,
			Price: price,
			Qty:   int32(line.Quantity),
		})
		req.GrossAmount += price * int64(line.Quantity)
	}
	return req
}

func (s *CheckoutService) locker() lock.Locker {
	if s.Locker == nil {
		return lock.Noop{}
	}
	return s.Locker
}

func (s *CheckoutService) lockTTL() time.Duration {
	if s.LockTTL <= 0 {
		return defaultLockTTL
	}
	return s.LockTTL
}

// ProcessOrder turns the caller's cart into a pending order and opens a
// payment for it. Order, items, stock and cart removal commit together, and
// only when the gateway has issued a token.
func (s *CheckoutService) ProcessOrder(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.process", "user_id", in.UserID.String())

	res, err := s.processOrder(ctx, in)
	switch {
	case err == nil:
		s.Metrics.CheckoutResult("success")
		l.Info("order_created", "order_id", res.OrderID, "gross_amount", res.GrossAmount.String())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInsufficientStock):
		s.Metrics.CheckoutResult("rejected")
		l.Warn("checkout_rejected", "error", err)
	case errors.Is(err, ErrCheckoutInProgress), errors.Is(err, ErrCartChanged):
		s.Metrics.CheckoutResult("conflict")
		l.Warn("checkout_conflict", "error", err)
	default:
		s.Metrics.CheckoutResult("error")
		l.Error("checkout_failed", "error", err)
	}
	return res, err
}

func (s *CheckoutService) processOrder(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.RentDays < 1 {
		return nil, fmt.Errorf("rent days must be at least 1: %w", ErrValidation)
	}
	if err := s.fillCustomer(ctx, &in); err != nil {
		return nil, err
	}

	release, err := s.locker().Acquire(ctx, "checkout:"+in.UserID.String(), s.lockTTL())
	if errors.Is(err, lock.ErrLocked) {
		return nil, ErrCheckoutInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logging.FromContext(ctx).Warn("checkout_lock_release_failed", "error", err)
		}
	}()

	var result *CheckoutResult
	var order models.Order
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		lines, err := tx.CartLines(ctx, in.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		for _, line := range lines {
			if line.Quantity > MaxQuantity {
				return fmt.Errorf("quantity of %q exceeds %d: %w", line.Name, MaxQuantity, ErrValidation)
			}
		}

		if s.EnforceStock {
			for _, line := range lines {
				ok, err := tx.TakeStock(ctx, line.ProductID, line.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return &StockError{Product: line.Name}
				}
			}
		}

		total, gross := Totals(lines, in.RentDays)
		order = models.Order{
			OrderID:       NewOrderID(),
			UserID:        in.UserID,
			TotalAmount:   total,
			GrossAmount:   gross,
			Status:        models.OrderStatusPending,
			CustomerName:  in.CustomerName,
			CustomerEmail: in.CustomerEmail,
			RentDays:      in.RentDays,
			Items:         make([]models.OrderItem, 0, len(lines)),
		}
		cartIDs := make([]uint, 0, len(lines))
		for _, line := range lines {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:    line.ProductID,
				ProductName:  line.Name,
				Quantity:     line.Quantity,
				PricePerItem: line.Price,
			})
			cartIDs = append(cartIDs, line.CartID)
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}

		n, err := tx.DeleteCartItems(ctx, in.UserID, cartIDs)
		if err != nil {
			return err
		}
		if n != int64(len(cartIDs)) {
			return ErrCartChanged
		}

		charge, err := s.Gateway.CreateTransaction(ctx, chargeRequest(order.OrderID, in, lines))
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := tx.AttachPayment(ctx, order.ID, charge.Token, charge.RedirectURL); err != nil {
			return err
		}

		result = &CheckoutResult{
			OrderID:     order.OrderID,
			Token:       charge.Token,
			RedirectURL: charge.RedirectURL,
			TotalAmount: total,
			GrossAmount: gross,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, &order)
	return result, nil
}

// fillCustomer defaults the payer details to the account holder.
func (s *CheckoutService) fillCustomer(ctx context.Context, in *CheckoutInput) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	if in.CustomerName != "" && in.CustomerEmail != "" {
		return nil
	}

	user, err := s.Repo.UserByID(ctx, in.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if in.CustomerName == "" {
		in.CustomerName = user.Fullname
	}
	if in.CustomerEmail == "" {
		in.CustomerEmail = user.Email
	}
	return nil
}

func (s *CheckoutService) publishCreated(ctx context.Context, order *models.Order) {
	if s.Events == nil {
		return
	}
	items := make([]map[string]any, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, map[string]any{
			"product_id": it.ProductID,
			"quantity":   it.Quantity,
		})
	}
	ev := events.New(events.TypeOrderCreated, map[string]any{
		"order_id":     order.OrderID,
		"user_id":      order.UserID.String(),
		"gross_amount": order.GrossAmount.String(),
		"rent_days":    order.RentDays,
		"items":        items,
	})
	if err := s.Events.Publish(ctx, events.TopicOrders, order.OrderID, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", ev.Type, "error", err)
	}
}

func (s *CheckoutService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, userID)
}
