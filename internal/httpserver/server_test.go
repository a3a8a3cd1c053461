package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/go_outdoor/internal/db/dbtest"
	"github.com/Skotchmaster/go_outdoor/internal/events"
	"github.com/Skotchmaster/go_outdoor/internal/gateway"
	"github.com/Skotchmaster/go_outdoor/internal/hash"
	authmw "github.com/Skotchmaster/go_outdoor/internal/middleware/auth"
	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/oauth"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
	"github.com/Skotchmaster/go_outdoor/internal/service"
	"github.com/Skotchmaster/go_outdoor/internal/tokens"
)

const testServerKey = "SB-Mid-server-test"

type fakeMailer struct {
	mu     sync.Mutex
	codes  map[string]string
	resets map[string]string
}

func (m *fakeMailer) SendVerification(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[email] = token
	return nil
}

// fakeGateway checks signatures like the real gateway and echoes the posted
// status back as authoritative.
type fakeGateway struct {
	mu       sync.Mutex
	requests []gateway.ChargeRequest
}

func (g *fakeGateway) CreateTransaction(_ context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return &gateway.Charge{Token: "snap-token", RedirectURL: "https://pay.test/" + req.OrderID}, nil
}

func (g *fakeGateway) VerifyNotification(_ context.Context, n gateway.Notification) (*gateway.Status, error) {
	if !gateway.VerifySignature(n, testServerKey) {
		return nil, gateway.ErrInvalidSignature
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

type fakeGoogle struct {
	profile *oauth.Profile
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.test/auth?state=" + state
}

func (g *fakeGoogle) Exchange(context.Context, string) (*oauth.Profile, error) {
	return g.profile, nil
}

type testServer struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	auth    *service.AuthService
	mailer  *fakeMailer
	gateway *fakeGateway
	google  *fakeGoogle
	events  *events.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	r := &repo.GormRepo{DB: dbtest.New(t)}
	s := &testServer{
		e:       echo.New(),
		repo:    r,
		mailer:  &fakeMailer{codes: map[string]string{}, resets: map[string]string{}},
		gateway: &fakeGateway{},
		google:  &fakeGoogle{},
		events:  &events.Recorder{},
	}
	issuer := &tokens.Issuer{AccessSecret: []byte("access"), RefreshSecret: []byte("refresh")}
	s.auth = &service.AuthService{Repo: r, Tokens: issuer, Mailer: s.mailer, Events: s.events}

	Register(s.e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: s.auth, Google: s.google, BaseURL: "http://shop.test"},
		ProductHandler: &ProductHTTP{Svc: &service.CatalogService{Repo: r}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		OrderHandler:   &OrderHTTP{Svc: &service.CheckoutService{Repo: r, Gateway: s.gateway, Events: s.events}},
		PaymentHandler: &PaymentHTTP{
			Svc:       &service.PaymentService{Repo: r, Gateway: s.gateway, Events: s.events},
			ClientKey: "SB-Mid-client-test",
		},
		AuthMW:         authmw.NewAutoRefresh(issuer, s.auth),
		DB:             r.DB,
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// signIn creates a verified account and returns its session cookies.
func (s *testServer) signIn(t *testing.T, email string) (*models.User, []*http.Cookie) {
	t.Helper()

	pw, err := hash.HashPassword("pw123456")
	require.NoError(t, err)
	u := &models.User{Fullname: "Ana", Email: email, PasswordHash: &pw, IsVerified: true}
	require.NoError(t, s.repo.CreateUser(context.Background(), u))

	res, err := s.auth.Login(context.Background(), email, "pw123456")
	require.NoError(t, err)
	return u, tokens.SessionCookies(res.Pair)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["message"]
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func countRows(t *testing.T, r *repo.GormRepo, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(model).Count(&n).Error)
	return n
}
