package app

import (
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursemarket-backend/internal/clients/identity"
	"github.com/yungbote/coursemarket-backend/internal/clients/midtrans"
	"github.com/yungbote/coursemarket-backend/internal/clients/redis"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/platform/sendgrid"
	"github.com/yungbote/coursemarket-backend/internal/platform/webhooksig"
)

type Clients struct {
	Gateway  midtrans.Client
	Identity identity.Client
	Mail     sendgrid.Client
	Replay   redis.ReplayGuard
	Verifier *webhooksig.Verifier
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Payment processor
	gateway, err := midtrans.New(log, cfg.Midtrans)
	if err != nil {
		return Clients{}, fmt.Errorf("init midtrans client: %w", err)
	}

	// Identity webhooks
	if strings.TrimSpace(cfg.IdentityWebhookSecret) == "" {
		return Clients{}, fmt.Errorf("missing IDENTITY_WEBHOOK_SECRET")
	}
	verifier, err := webhooksig.NewVerifier(cfg.IdentityWebhookSecret)
	if err != nil {
		return Clients{}, fmt.Errorf("init identity webhook verifier: %w", err)
	}

	// Identity API is optional; without it /api/me/sync answers 503.
	var provider identity.Client
	if strings.TrimSpace(cfg.Identity.APIKey) != "" {
		provider, err = identity.New(log, cfg.Identity)
		if err != nil {
			return Clients{}, fmt.Errorf("init identity client: %w", err)
		}
	} else {
		log.Warn("IDENTITY_API_KEY not set; provider sync disabled")
	}

	// Mail
	var mail sendgrid.Client
	if strings.TrimSpace(cfg.SendGrid.APIKey) != "" {
		mail, err = sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
	}

	// Redis
	replay, err := redis.NewReplayGuard(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init replay guard: %w", err)
	}

	return Clients{
		Gateway:  gateway,
		Identity: provider,
		Mail:     mail,
		Replay:   replay,
		Verifier: verifier,
	}, nil
}

// Redis returns the shared connection when the replay guard is Redis-backed.
func (c *Clients) Redis() goredis.UniversalClient {
	if c == nil || c.Replay == nil {
		return nil
	}
	if rc, ok := c.Replay.(interface{ Client() goredis.UniversalClient }); ok {
		return rc.Client()
	}
	return nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Replay != nil {
		_ = c.Replay.Close()
	}
}
