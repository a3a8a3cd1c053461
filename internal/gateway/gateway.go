// Package gateway talks to the Midtrans payment gateway.
package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

var (
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrTimeout          = errors.New("payment gateway timeout")
)

type Item struct {
	ID    string
	Name  string
	Price int64
	Qty   int32
}

type Customer struct {
	Name  string
	Email string
}

type ChargeRequest struct {
	OrderID     string
	GrossAmount int64
	Customer    Customer
	Items       []Item
}

// Charge is what the client needs to open the hosted payment page.
type Charge struct {
	Token       string
	RedirectURL string
}

// Notification is the HTTP notification body posted by Midtrans.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

// Status is the authoritative transaction state reported by the gateway.
type Status struct {
	OrderID           string
	TransactionID     string
	TransactionStatus string
	FraudStatus       string
	StatusCode        string
	GrossAmount       string
}

// Signature is SHA512(order_id + status_code + gross_amount + server_key), hex encoded.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(n Notification, serverKey string) bool {
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(n.SignatureKey)) == 1
}
