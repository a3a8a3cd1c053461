package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name        string          `gorm:"not null"                   json:"name"`
	Description string          `                                  json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null;default:0"         json:"stock"`
	Image       string          `                                  json:"image"`
}

type User struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"  json:"id"`
	Fullname             string     `gorm:"not null"              json:"fullname"`
	Email                string     `gorm:"uniqueIndex;not null"  json:"email"`
	PasswordHash         *string    `gorm:"column:password"       json:"-"`
	GoogleID             *string    `gorm:"uniqueIndex"           json:"google_id,omitempty"`
	IsVerified           bool       `gorm:"not null;default:false" json:"is_verified"`
	VerificationCode     *string    `                             json:"-"`
	CodeExpiresAt        *time.Time `                             json:"-"`
	ResetPasswordToken   *string    `gorm:"index"                 json:"-"`
	ResetPasswordExpires *time.Time `                             json:"-"`
	CreatedAt            time.Time  `                             json:"created_at"`
	UpdatedAt            time.Time  `                             json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Session is a refresh session; the token itself is stored as a sha256 digest.
type Session struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt int64     `gorm:"not null"             json:"expires_at"`
	Revoked   bool      `gorm:"default:false"        json:"revoked"`
	CreatedAt time.Time `                            json:"created_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_user_product;not null" json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity>0"                  json:"quantity"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type Order struct {
	ID                    uint            `gorm:"primaryKey"                  json:"id"`
	OrderID               string          `gorm:"uniqueIndex;size:64;not null" json:"order_id"`
	UserID                uuid.UUID       `gorm:"type:uuid;index;not null"    json:"user_id"`
	TotalAmount           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	GrossAmount           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"gross_amount"`
	Status                string          `gorm:"size:16;not null;index"      json:"status"`
	CustomerName          string          `                                   json:"customer_name"`
	CustomerEmail         string          `                                   json:"customer_email"`
	RentDays              int             `gorm:"not null"                    json:"rent_days"`
	MidtransTransactionID string          `                                   json:"midtrans_transaction_id,omitempty"`
	SnapToken             string          `                                   json:"-"`
	RedirectURL           string          `                                   json:"-"`
	CreatedAt             time.Time       `                                   json:"created_at"`
	UpdatedAt             time.Time       `                                   json:"updated_at"`
	Items                 []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
}

type OrderItem struct {
	ID           uint            `gorm:"primaryKey"                  json:"id"`
	OrderID      uint            `gorm:"index;not null"              json:"-"`
	ProductID    uint            `gorm:"not null"                    json:"product_id"`
	ProductName  string          `gorm:"not null"                    json:"name"`
	Quantity     int             `gorm:"not null;check:quantity>0"   json:"quantity"`
	PricePerItem decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_per_item"`
}

// PaymentNotification is an audit row for every gateway callback that passed verification.
type PaymentNotification struct {
	ID                uint      `gorm:"primaryKey"      json:"id"`
	OrderID           string    `gorm:"index;not null"  json:"order_id"`
	TransactionID     string    `                       json:"transaction_id"`
	TransactionStatus string    `gorm:"not null"        json:"transaction_status"`
	FraudStatus       string    `                       json:"fraud_status"`
	StatusCode        string    `                       json:"status_code"`
	GrossAmount       string    `                       json:"gross_amount"`
	Applied           bool      `                       json:"applied"`
	ReceivedAt        time.Time `gorm:"not null"        json:"received_at"`
}

// All lists every model for migrations.
func All() []any {
	return []any{
		&Product{},
		&User{},
		&Session{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&PaymentNotification{},
	}
}
