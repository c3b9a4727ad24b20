package sendgrid

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:           strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		BaseURL:          strings.TrimSpace(os.Getenv("SENDGRID_BASE_URL")),
		DefaultFromEmail: strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL")),
		DefaultFromName:  strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME")),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	sc := sg.NewSendClient(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		sc.BaseURL = base + "/v3/mail/send"
	}
	return &client{
		log: log.With("client", "SendGridClient"),
		cfg: cfg,
		sc:  sc,
	}, nil
}

type client struct {
	log *logger.Logger
	cfg Config
	sc  *sg.Client
}

type EmailAddress struct {
	Email string
	Name  string
}

type SendEmailRequest struct {
	From       EmailAddress
	To         []EmailAddress
	Subject    string
	Text       string
	HTML       string
	Categories []string
	CustomArgs map[string]string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	if c == nil || c.sc == nil {
		return nil, fmt.Errorf("sendgrid client unavailable")
	}
	if strings.TrimSpace(req.From.Email) == "" {
		req.From.Email = c.cfg.DefaultFromEmail
		if strings.TrimSpace(req.From.Name) == "" {
			req.From.Name = c.cfg.DefaultFromName
		}
	}
	if strings.TrimSpace(req.From.Email) == "" {
		return nil, fmt.Errorf("sendgrid: From.Email required (or set SENDGRID_FROM_EMAIL)")
	}
	if len(req.To) == 0 {
		return nil, fmt.Errorf("sendgrid: at least one recipient required")
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.HTML) == "" {
		return nil, fmt.Errorf("sendgrid: Text or HTML body required")
	}

	msg := buildMessage(req)
	start := time.Now()
	resp, err := c.sc.SendWithContext(ctx, msg)
	if err != nil {
		observability.Current().ObserveClient("sendgrid.send", "error", time.Since(start))
		return nil, fmt.Errorf("sendgrid send: %w", err)
	}
	observability.Current().ObserveClient("sendgrid.send", fmt.Sprintf("%d", resp.StatusCode), time.Since(start))
	if resp.StatusCode >= 300 {
		c.log.Warn("sendgrid rejected message", "status", resp.StatusCode, "trace_id", ctxutil.TraceID(ctx))
		return nil, fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	out := &SendEmailResult{StatusCode: resp.StatusCode}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		out.MessageID = ids[0]
	}
	return out, nil
}

func buildMessage(req SendEmailRequest) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(strings.TrimSpace(req.From.Name), strings.TrimSpace(req.From.Email)))
	m.Subject = strings.TrimSpace(req.Subject)

	p := mail.NewPersonalization()
	for _, to := range req.To {
		if strings.TrimSpace(to.Email) == "" {
			continue
		}
		p.AddTos(mail.NewEmail(strings.TrimSpace(to.Name), strings.TrimSpace(to.Email)))
	}
	for k, v := range req.CustomArgs {
		p.SetCustomArg(k, v)
	}
	m.AddPersonalizations(p)

	if text := strings.TrimSpace(req.Text); text != "" {
		m.AddContent(mail.NewContent("text/plain", text))
	}
	if html := strings.TrimSpace(req.HTML); html != "" {
		m.AddContent(mail.NewContent("text/html", html))
	}
	if len(req.Categories) > 0 {
		m.AddCategories(req.Categories...)
	}
	return m
}
