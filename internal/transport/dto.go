package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/go_outdoor/internal/models"
	"github.com/Skotchmaster/go_outdoor/internal/repo"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RegisterRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// LoginRequest takes the email as identifier; email is accepted as an alias.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r LoginRequest) Login() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Email
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type Profile struct {
	ID         uuid.UUID `json:"id"`
	Fullname   string    `json:"fullname"`
	Email      string    `json:"email"`
	GoogleID   *string   `json:"google_id"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewProfile(u *models.User) Profile {
	return Profile{
		ID:         u.ID,
		Fullname:   u.Fullname,
		Email:      u.Email,
		GoogleID:   u.GoogleID,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type UpdateCartRequest struct {
	CartID      uint `json:"cartId"`
	NewQuantity int  `json:"newQuantity"`
}

type CartLine struct {
	CartID    uint            `json:"cartId"`
	ProductID uint            `json:"productId"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Stock     int             `json:"stock"`
}

func NewCartLines(lines []repo.CartLine) []CartLine {
	out := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartLine{
			CartID:    l.CartID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Name:      l.Name,
			Price:     l.Price,
			Image:     l.Image,
			Stock:     l.Stock,
		})
	}
	return out
}

type ProcessOrderRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	RentDays      int    `json:"rentDays"`
}

type ProcessOrderResponse struct {
	Token       string `json:"token"`
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

type OrderItem struct {
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type Order struct {
	OrderID     string          `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	RentDays    int             `json:"rent_days"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItem     `json:"items"`
}

func NewOrders(orders []models.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		items := make([]OrderItem, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, OrderItem{Quantity: it.Quantity, Name: it.ProductName})
		}
		out = append(out, Order{
			OrderID:     o.OrderID,
			TotalAmount: o.TotalAmount,
			GrossAmount: o.GrossAmount,
			RentDays:    o.RentDays,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
			Items:       items,
		})
	}
	return out
}

type SearchResponse struct {
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
	Items []models.Product `json:"items"`
}

// MidtransConfig is what the storefront needs to open the Snap popup.
type MidtransConfig struct {
	ClientKey    string `json:"clientKey"`
	IsProduction bool   `json:"isProduction"`
}
