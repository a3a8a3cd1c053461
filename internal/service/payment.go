package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"gorm.io/gorm"

	"github.com/Skotchmaster/go_outdoor/internal/events"
	"github.com/Skotchmaster/go_outdoor/internal/gateway"
	"github.com/Skotchmaster/go_outdoor/internal/logging"
	"github.com/Skotchmaster/go_outdoor/internal/metrics"
	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
)

// Outcomes of a payment notification.
const (
	OutcomeApplied   = "applied"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeStale     = "stale"
	OutcomeUnknown   = "unknown_order"
)

type PaymentService struct {
	Repo    *repo.GormRepo
	Gateway PaymentGateway
	Events  events.Publisher
	Metrics *metrics.Metrics
	Clock   clock.Clock
}

// MapStatus translates a gateway transaction status into an order status.
// An empty result means the notification does not move the order.
func MapStatus(transactionStatus, fraudStatus string) string {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" {
			return models.OrderStatusPaid
		}
	case "settlement":
		if fraudStatus == "" || fraudStatus == "accept" {
			return models.OrderStatusPaid
		}
	case "deny", "expire", "cancel":
		return models.OrderStatusFailed
	}
	return ""
}

// CanTransition reports whether an order may move from one status to another.
// Paid is terminal.
func CanTransition(from, to string) bool {
	switch from {
	case models.OrderStatusPending:
		return to == models.OrderStatusPaid || to == models.OrderStatusFailed
	case models.OrderStatusFailed:
		return to == models.OrderStatusPaid
	}
	return false
}

func (s *PaymentService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

// HandleNotification applies a gateway notification to its order. The
// notification is authenticated, then re-read from the gateway so the stored
// status never depends on the posted body alone.
func (s *PaymentService) HandleNotification(ctx context.Context, n gateway.Notification) (string, error) {
	l := logging.FromContext(ctx).With("svc", "payment.notification", "order_id", n.OrderID)

	if n.OrderID == "" {
		return "", fmt.Errorf("order_id is required: %w", ErrValidation)
	}

	st, err := s.Gateway.VerifyNotification(ctx, n)
	if errors.Is(err, gateway.ErrInvalidSignature) {
		s.Metrics.NotificationOutcome("invalid_signature")
		l.Warn("notification_rejected", "reason", "invalid signature")
		return "", ErrInvalidSignature
	}
	if err != nil {
		s.Metrics.NotificationOutcome("error")
		l.Error("notification_status_check_failed", "error", err)
		return "", err
	}

	outcome, err := s.apply(ctx, st)
	if err != nil {
		s.Metrics.NotificationOutcome("error")
		l.Error("notification_apply_failed", "error", err)
		return "", err
	}
	s.Metrics.NotificationOutcome(outcome)
	l.Info("notification_processed",
		"transaction_status", st.TransactionStatus,
		"fraud_status", st.FraudStatus,
		"outcome", outcome,
	)
	return outcome, nil
}

func (s *PaymentService) apply(ctx context.Context, st *gateway.Status) (string, error) {
	audit := &models.PaymentNotification{
		OrderID:           st.OrderID,
		TransactionID:     st.TransactionID,
		TransactionStatus: st.TransactionStatus,
		FraudStatus:       st.FraudStatus,
		StatusCode:        st.StatusCode,
		GrossAmount:       st.GrossAmount,
		ReceivedAt:        s.now(),
	}

	var outcome, from, to string
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.OrderByOrderID(ctx, st.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = OutcomeUnknown
			return tx.RecordNotification(ctx, audit)
		}
		if err != nil {
			return err
		}

		from, to = order.Status, MapStatus(st.TransactionStatus, st.FraudStatus)
		switch {
		case to == "":
			outcome = OutcomeIgnored
		case to == from:
			outcome = OutcomeDuplicate
		case !CanTransition(from, to):
			outcome = OutcomeStale
		default:
			n, err := tx.TransitionOrder(ctx, order.OrderID, from, to, st.TransactionID)
			if err != nil {
				return err
			}
			if n == 0 {
				outcome = OutcomeStale
			} else {
				outcome = OutcomeApplied
				audit.Applied = true
			}
		}
		return tx.RecordNotification(ctx, audit)
	})
	if err != nil {
		return "", err
	}

	if outcome == OutcomeApplied && s.Events != nil {
		ev := events.New(events.TypeOrderStatusChanged, map[string]any{
			"order_id": st.OrderID,
			"from":     from,
			"to":       to,
		})
		if err := s.Events.Publish(ctx, events.TopicOrders, st.OrderID, ev); err != nil {
			logging.FromContext(ctx).Warn("event_publish_failed", "type", ev.Type, "error", err)
		}
	}
	return outcome, nil
}
