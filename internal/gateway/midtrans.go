package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/sony/gobreaker/v2"
)

type Config struct {
	ServerKey    string
	IsProduction bool
	Timeout      time.Duration
}

type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type coreAPI interface {
	CheckTransaction(param string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
}

type Midtrans struct {
	serverKey string
	timeout   time.Duration
	snap      snapAPI
	core      coreAPI

	chargeCB *gobreaker.CircuitBreaker[*Charge]
	statusCB *gobreaker.CircuitBreaker[*Status]
}

func NewMidtrans(cfg Config, log *slog.Logger) *Midtrans {
	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(cfg.ServerKey, env)
	var c coreapi.Client
	c.New(cfg.ServerKey, env)

	return newMidtrans(cfg, &s, &c, log)
}

func newMidtrans(cfg Config, s snapAPI, c coreAPI, log *slog.Logger) *Midtrans {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Midtrans{
		serverKey: cfg.ServerKey,
		timeout:   cfg.Timeout,
		snap:      s,
		core:      c,
		chargeCB:  gobreaker.NewCircuitBreaker[*Charge](breakerSettings("midtrans.snap", log)),
		statusCB:  gobreaker.NewCircuitBreaker[*Status](breakerSettings("midtrans.status", log)),
	}
}

func breakerSettings(name string, log *slog.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit_breaker_state", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
}

// CreateTransaction requests a Snap token for the order.
func (m *Midtrans) CreateTransaction(ctx context.Context, req ChargeRequest) (*Charge, error) {
	items := make([]midtrans.ItemDetails, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    it.ID,
			Name:  it.Name,
			Price: it.Price,
			Qty:   it.Qty,
		})
	}
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Email: req.Customer.Email,
		},
		Items: &items,
	}

	return m.chargeCB.Execute(func() (*Charge, error) {
		return callWithTimeout(ctx, m.timeout, func() (*Charge, error) {
			resp, mErr := m.snap.CreateTransaction(snapReq)
			if mErr != nil {
				return nil, fmt.Errorf("midtrans create transaction: %w", mErr)
			}
			return &Charge{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
		})
	})
}

// VerifyNotification checks the signature and asks the gateway for the current
// transaction state instead of trusting the posted body.
func (m *Midtrans) VerifyNotification(ctx context.Context, n Notification) (*Status, error) {
	if !VerifySignature(n, m.serverKey) {
		return nil, ErrInvalidSignature
	}

	return m.statusCB.Execute(func() (*Status, error) {
		return callWithTimeout(ctx, m.timeout, func() (*Status, error) {
			resp, mErr := m.core.CheckTransaction(n.OrderID)
			if mErr != nil {
				return nil, fmt.Errorf("midtrans check transaction: %w", mErr)
			}
			return &Status{
				OrderID:           resp.OrderID,
				TransactionID:     resp.TransactionID,
				TransactionStatus: resp.TransactionStatus,
				FraudStatus:       resp.FraudStatus,
				StatusCode:        resp.StatusCode,
				GrossAmount:       resp.GrossAmount,
			}, nil
		})
	})
}

// callWithTimeout bounds SDK calls that do not accept a context.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}
