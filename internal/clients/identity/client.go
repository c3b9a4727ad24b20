package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/envutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/httpx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

var ErrUserNotFound = errors.New("identity: user not found")

type Client interface {
	GetUser(ctx context.Context, subjectID string) (*UserPayload, error)
	// UpdateRole merges role into the account's public metadata and
	// returns the updated account.
	UpdateRole(ctx context.Context, subjectID, role string) (*UserPayload, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:    strings.TrimSpace(os.Getenv("IDENTITY_API_URL")),
		APIKey:     strings.TrimSpace(os.Getenv("IDENTITY_API_KEY")),
		Timeout:    envutil.Seconds("IDENTITY_TIMEOUT_SECONDS", 10*time.Second),
		MaxRetries: envutil.Int("IDENTITY_MAX_RETRIES", 2),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.clerk.com"
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing IDENTITY_API_KEY")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(strings.TrimSpace(cfg.APIKey)).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(httpx.RetryCondition)
	return &client{log: log.With("client", "IdentityClient"), rest: rc}, nil
}

type client struct {
	log  *logger.Logger
	rest *resty.Client
}

func (c *client) GetUser(ctx context.Context, subjectID string) (*UserPayload, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, fmt.Errorf("identity: subject id required")
	}
	var out UserPayload
	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("id", subjectID).
		SetResult(&out).
		Get("/v1/users/{id}")
	if err != nil {
		observability.Current().ObserveClient("identity.users", "error", time.Since(start))
		return nil, fmt.Errorf("identity get user: %w", err)
	}
	observability.Current().ObserveClient("identity.users", fmt.Sprintf("%d", resp.StatusCode()), time.Since(start))
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.IsError():
		c.log.Warn("identity provider returned error", "status", resp.StatusCode(), "user_id", subjectID)
		return nil, fmt.Errorf("identity get user: status %d", resp.StatusCode())
	}
	if strings.TrimSpace(out.ID) == "" {
		out.ID = subjectID
	}
	return &out, nil
}

func (c *client) UpdateRole(ctx context.Context, subjectID, role string) (*UserPayload, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, fmt.Errorf("identity: subject id required")
	}
	body := map[string]any{"public_metadata": map[string]any{"role": role}}
	var out UserPayload
	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("id", subjectID).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Patch("/v1/users/{id}/metadata")
	if err != nil {
		observability.Current().ObserveClient("identity.metadata", "error", time.Since(start))
		return nil, fmt.Errorf("identity update role: %w", err)
	}
	observability.Current().ObserveClient("identity.metadata", fmt.Sprintf("%d", resp.StatusCode()), time.Since(start))
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.IsError():
		c.log.Warn("identity provider rejected metadata update", "status", resp.StatusCode(), "user_id", subjectID)
		return nil, fmt.Errorf("identity update role: status %d", resp.StatusCode())
	}
	if strings.TrimSpace(out.ID) == "" {
		out.ID = subjectID
	}
	return &out, nil
}
