package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSignature = errors.New("midtrans: invalid notification signature")

// Notification is both the HTTP notification body and the status API record.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
	TransactionTime   string `json:"transaction_time"`
	PaymentType       string `json:"payment_type"`
	CustomField1      string `json:"custom_field1"`
}

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	// OutcomeOther covers pending, challenge, refunds and unknown statuses.
	OutcomeOther Outcome = "other"
)

func ParseNotification(body []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return Notification{}, fmt.Errorf("midtrans: decode notification: %w", err)
	}
	n.OrderID = strings.TrimSpace(n.OrderID)
	if n.OrderID == "" {
		return Notification{}, fmt.Errorf("midtrans: notification missing order_id")
	}
	return n, nil
}

// Outcome maps transaction_status/fraud_status onto a settlement decision.
func (n Notification) Outcome() Outcome {
	fraud := strings.ToLower(strings.TrimSpace(n.FraudStatus))
	switch strings.ToLower(strings.TrimSpace(n.TransactionStatus)) {
	case "settlement":
		return OutcomeSucceeded
	case "capture":
		switch fraud {
		case "", "accept":
			return OutcomeSucceeded
		case "deny":
			return OutcomeFailed
		}
		return OutcomeOther
	case "deny", "cancel", "expire", "failure":
		return OutcomeFailed
	default:
		return OutcomeOther
	}
}

// Signature computes SHA512(order_id + status_code + gross_amount + server_key).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(n Notification, serverKey string) bool {
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if got == "" || serverKey == "" {
		return false
	}
	want := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
