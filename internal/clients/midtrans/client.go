package midtrans

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	midtransgo "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/envutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/httpx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

const (
	sandboxAPIBaseURL    = "https://api.sandbox.midtrans.com"
	productionAPIBaseURL = "https://api.midtrans.com"
)

// MinorUnits is the number of decimal places Snap charges carry. Amounts
// are sent as whole units, so anything finer cannot be collected exactly.
const MinorUnits int32 = 0

// ErrSessionNotFound is returned when the processor has no record of an order id.
var ErrSessionNotFound = errors.New("midtrans: session not found")

type Client interface {
	// CreateSession opens a Snap checkout for one purchase.
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// LookupStatus reads the processor's own record of a session.
	LookupStatus(ctx context.Context, orderID string) (*Notification, error)
	// VerifyNotification checks the notification signature against the server key.
	VerifyNotification(n Notification) error
}

type Config struct {
	ServerKey  string
	Production bool
	APIBaseURL string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		ServerKey:  strings.TrimSpace(os.Getenv("MIDTRANS_SERVER_KEY")),
		Production: envutil.Bool("MIDTRANS_PRODUCTION", false),
		APIBaseURL: strings.TrimSpace(os.Getenv("MIDTRANS_API_BASE_URL")),
		Timeout:    envutil.Seconds("MIDTRANS_TIMEOUT_SECONDS", 15*time.Second),
		MaxRetries: envutil.Int("MIDTRANS_MAX_RETRIES", 3),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.ServerKey = strings.TrimSpace(cfg.ServerKey)
	if cfg.ServerKey == "" {
		return nil, fmt.Errorf("missing MIDTRANS_SERVER_KEY")
	}
	env := midtransgo.Sandbox
	if cfg.Production {
		env = midtransgo.Production
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = sandboxAPIBaseURL
		if cfg.Production {
			cfg.APIBaseURL = productionAPIBaseURL
		}
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	var sc snap.Client
	sc.New(cfg.ServerKey, env)

	rc := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.ServerKey, "").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(300 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(httpx.RetryCondition)

	return &client{
		log:  log.With("client", "MidtransClient"),
		cfg:  cfg,
		snap: &sc,
		rest: rc,
	}, nil
}

type client struct {
	log  *logger.Logger
	cfg  Config
	snap *snap.Client
	rest *resty.Client
}

type Customer struct {
	FirstName string
	LastName  string
	Email     string
}

type Item struct {
	ID       string
	Name     string
	Category string
}

type SessionRequest struct {
	// OrderID is the session id; it is unique per checkout attempt.
	OrderID    string
	PurchaseID string
	Amount     int64
	Customer   Customer
	Item       Item
}

type Session struct {
	OrderID     string
	Token       string
	RedirectURL string
}

func (c *client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" || strings.TrimSpace(req.PurchaseID) == "" {
		return nil, fmt.Errorf("midtrans: order id and purchase id are required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("midtrans: amount must be positive")
	}

	item := midtransgo.ItemDetails{
		ID:       defaultString(req.Item.ID, req.OrderID),
		Price:    req.Amount,
		Qty:      1,
		Name:     truncate(defaultString(req.Item.Name, "Course enrollment"), 50),
		Category: defaultString(req.Item.Category, "course"),
	}
	snapReq := &snap.Request{
		TransactionDetails: midtransgo.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		CustomerDetail: &midtransgo.CustomerDetails{
			FName: req.Customer.FirstName,
			LName: req.Customer.LastName,
			Email: req.Customer.Email,
		},
		Items:        &[]midtransgo.ItemDetails{item},
		CustomField1: req.PurchaseID,
	}

	start := time.Now()
	resp, merr := c.snap.CreateTransaction(snapReq)
	if merr != nil {
		observability.Current().ObserveClient("midtrans.snap", fmt.Sprintf("%d", merr.StatusCode), time.Since(start))
		c.log.Warn("snap session creation failed",
			"order_id", req.OrderID,
			"status_code", merr.StatusCode,
			"error", merr.Message,
		)
		return nil, &UpstreamError{Op: "create_session", StatusCode: merr.StatusCode, Message: merr.Message}
	}
	observability.Current().ObserveClient("midtrans.snap", "201", time.Since(start))
	if resp == nil || strings.TrimSpace(resp.RedirectURL) == "" {
		return nil, &UpstreamError{Op: "create_session", StatusCode: http.StatusBadGateway, Message: "empty snap response"}
	}
	return &Session{OrderID: req.OrderID, Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (c *client) LookupStatus(ctx context.Context, orderID string) (*Notification, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("midtrans: order id required")
	}
	var out Notification
	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("order_id", orderID).
		SetResult(&out).
		Get("/v2/{order_id}/status")
	if err != nil {
		observability.Current().ObserveClient("midtrans.status", "error", time.Since(start))
		return nil, fmt.Errorf("midtrans status lookup: %w", err)
	}
	observability.Current().ObserveClient("midtrans.status", fmt.Sprintf("%d", resp.StatusCode()), time.Since(start))
	if resp.StatusCode() == http.StatusNotFound || strings.TrimSpace(out.StatusCode) == "404" {
		return nil, ErrSessionNotFound
	}
	if resp.IsError() {
		return nil, &UpstreamError{Op: "lookup_status", StatusCode: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}
	if out.OrderID == "" {
		out.OrderID = orderID
	}
	return &out, nil
}

func (c *client) VerifyNotification(n Notification) error {
	if !VerifySignature(n, c.cfg.ServerKey) {
		return ErrInvalidSignature
	}
	return nil
}

// UpstreamError carries the processor's HTTP status so callers can decide
// whether to retry.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("midtrans %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == 0 || httpx.IsRetryableHTTPStatus(e.StatusCode)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
