package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/go_outdoor/internal/db/dbtest"
	"github.com/Skotchmaster/go_outdoor/internal/gateway"
	"github.com/Skotchmaster/go_outdoor/internal/hash"
	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
)

type fakeMailer struct {
	mu     sync.Mutex
	codes  map[string]string
	resets map[string]string
	err    error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: map[string]string{}, resets: map[string]string{}}
}

func (m *fakeMailer) SendVerification(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.codes[email] = code
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.resets[email] = token
	return nil
}

type fakeGateway struct {
	mu        sync.Mutex
	requests  []gateway.ChargeRequest
	chargeErr error

	status    *gateway.Status
	verifyErr error
}

func (g *fakeGateway) CreateTransaction(_ context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	g.requests = append(g.requests, req)
	return &gateway.Charge{Token: "snap-" + req.OrderID, RedirectURL: "https://pay.test/" + req.OrderID}, nil
}

func (g *fakeGateway) VerifyNotification(_ context.Context, n gateway.Notification) (*gateway.Status, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if g.status != nil {
		return g.status, nil
	}
	return &gateway.Status{
		OrderID:           n.OrderID,
		TransactionID:     n.TransactionID,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		StatusCode:        n.StatusCode,
		GrossAmount:       n.GrossAmount,
	}, nil
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: dbtest.New(t)}
}

func seedUser(t *testing.T, r *repo.GormRepo, email, password string, verified bool) *models.User {
	t.Helper()

	pw, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Fullname: "Test User", Email: email, PasswordHash: &pw, IsVerified: verified}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedOrder(t *testing.T, r *repo.GormRepo, u *models.User, orderID, status string) {
	t.Helper()

	o := &models.Order{
		OrderID:     orderID,
		UserID:      u.ID,
		TotalAmount: decimal.NewFromInt(100000),
		GrossAmount: decimal.NewFromInt(100000),
		Status:      status,
		RentDays:    1,
	}
	require.NoError(t, r.CreateOrder(context.Background(), o))
}
