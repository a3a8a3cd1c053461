package service

import (
	"context"

	"github.com/Skotchmaster/go_outdoor/internal/gateway"
	"github.com/Skotchmaster/go_outdoor/internal/models"
)

type Mailer interface {
	SendVerification(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error)
	VerifyNotification(ctx context.Context, n gateway.Notification) (*gateway.Status, error)
}

type ProductSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
	IndexProducts(ctx context.Context, products []models.Product) error
}
