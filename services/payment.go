package services

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/vnkhanh/prince-music-backend/config"
	"github.com/vnkhanh/prince-music-backend/models"
)

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type PaymentRequest struct {
	OrderID  string
	Amount   float64
	ItemID   string
	ItemName string
	Category string
	Customer Customer
}

// PaymentSession is what the client needs to finish checkout.
type PaymentSession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirectUrl"`
}

type PaymentGateway interface {
	CreateTransaction(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
	// VerifyNotification checks the signature of a gateway status callback.
	VerifyNotification(orderID, statusCode, grossAmount, signature string) bool
}

// MidtransGateway opens Snap checkout sessions.
type MidtransGateway struct {
	client    snap.Client
	serverKey string
}

// NewPaymentGateway returns nil when no server key is configured, in which
// case paid enrollments record the payment details sent by the client.
func NewPaymentGateway(cfg config.PaymentConfig) PaymentGateway {
	if cfg.MidtransServerKey == "" {
		return nil
	}
	g := &MidtransGateway{serverKey: cfg.MidtransServerKey}
	if cfg.MidtransProduction {
		g.client.New(cfg.MidtransServerKey, midtrans.Production)
	} else {
		g.client.New(cfg.MidtransServerKey, midtrans.Sandbox)
	}
	return g
}

func (g *MidtransGateway) CreateTransaction(ctx context.Context, p PaymentRequest) (*PaymentSession, error) {
	if p.Amount <= 0 {
		return nil, errors.New("payment amount must be positive")
	}
	if p.OrderID == "" {
		return nil, errors.New("order id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	amount := int64(p.Amount)
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  p.OrderID,
			GrossAmt: amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: p.Customer.FirstName,
			LName: p.Customer.LastName,
			Email: p.Customer.Email,
			Phone: p.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:       p.ItemID,
			Price:    amount,
			Qty:      1,
			Name:     truncate(p.ItemName, 50),
			Category: p.Category,
		}},
	}

	resp, merr := g.client.CreateTransaction(req)
	if merr != nil {
		return nil, merr
	}
	return &PaymentSession{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (g *MidtransGateway) VerifyNotification(orderID, statusCode, grossAmount, signature string) bool {
	return SignatureMatches(orderID, statusCode, grossAmount, g.serverKey, signature)
}

// NotificationSignature is SHA512(order_id + status_code + gross_amount + server key), hex encoded.
func NotificationSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func SignatureMatches(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	if signature == "" {
		return false
	}
	want := NotificationSignature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(signature))) == 1
}

// MidtransStatus maps a callback's transaction and fraud status onto an
// enrollment payment status.
func MidtransStatus(transactionStatus, fraudStatus string) string {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		switch strings.ToLower(fraudStatus) {
		case "", "accept":
			return models.PaymentCompleted
		case "challenge":
			return models.PaymentPending
		}
		return models.PaymentFailed
	case "settlement":
		return models.PaymentCompleted
	case "deny", "failure":
		return models.PaymentFailed
	case "cancel":
		return models.PaymentCancelled
	case "expire":
		return models.PaymentExpired
	case "refund", "partial_refund":
		return models.PaymentRefunded
	}
	return models.PaymentPending
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
