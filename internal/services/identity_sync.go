package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/clients/identity"
	"github.com/yungbote/coursemarket-backend/internal/clients/redis"
	"github.com/yungbote/coursemarket-backend/internal/data/repos"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/dbctx"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/platform/webhooksig"
)

const (
	IdentityUserCreated = "user.created"
	IdentityUserUpdated = "user.updated"
	IdentityUserDeleted = "user.deleted"
)

type IdentitySyncService interface {
	// HandleDelivery verifies and applies one signed identity webhook.
	HandleDelivery(ctx context.Context, headers webhooksig.Headers, body []byte) (*WebhookResult, error)
	// ApplyProfile upserts the local user keyed on the external subject id.
	ApplyProfile(ctx context.Context, p identity.Profile) (*types.User, error)
}

type identitySyncService struct {
	db       *gorm.DB
	log      *logger.Logger
	verifier *webhooksig.Verifier
	users    repos.UserRepo
	events   repos.WebhookEventRepo
	replay   redis.ReplayGuard
	now      func() time.Time
}

func NewIdentitySyncService(
	db *gorm.DB,
	log *logger.Logger,
	verifier *webhooksig.Verifier,
	users repos.UserRepo,
	events repos.WebhookEventRepo,
	replay redis.ReplayGuard,
) IdentitySyncService {
	if replay == nil {
		replay = redis.NewMemoryReplayGuard(0)
	}
	return &identitySyncService{
		db:       db,
		log:      log.With("service", "IdentitySyncService"),
		verifier: verifier,
		users:    users,
		events:   events,
		replay:   replay,
		now:      time.Now,
	}
}

type identityEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (s *identitySyncService) HandleDelivery(ctx context.Context, headers webhooksig.Headers, body []byte) (*WebhookResult, error) {
	const op = "IdentitySync.HandleDelivery"
	start := s.now()
	res, err := s.handle(ctx, op, headers, body)
	outcome := "failed"
	switch {
	case err == nil:
		outcome = res.Outcome
	case errors.Is(err, webhooksig.ErrMissingHeaders), errors.Is(err, webhooksig.ErrNoMatch), errors.Is(err, webhooksig.ErrInvalidTimestamp):
		outcome = "rejected"
	}
	observability.Current().ObserveWebhook(types.WebhookProviderIdentity, outcome, time.Since(start))
	return res, err
}

func (s *identitySyncService) handle(ctx context.Context, op string, headers webhooksig.Headers, body []byte) (*WebhookResult, error) {
	if s.verifier == nil {
		return nil, errAuthentication(op, errors.New("identity webhook secret not configured"))
	}
	if err := s.verifier.Verify(headers, body); err != nil {
		s.log.Warn("identity webhook rejected", "delivery_id", headers.ID, "error", err)
		return nil, errAuthentication(op, err)
	}

	var env identityEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errValidation(op, "malformed identity payload")
	}
	env.Type = strings.TrimSpace(env.Type)
	res := &WebhookResult{EventType: env.Type, DeliveryID: headers.ID}

	replayKey := types.WebhookProviderIdentity + ":" + headers.ID
	if seen, err := s.replay.Seen(ctx, replayKey); err != nil {
		s.log.Warn("replay guard lookup failed; processing anyway", "error", err)
	} else if seen {
		res.Outcome = WebhookDuplicate
		return res, nil
	}

	var payload identity.UserPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, errValidation(op, "malformed identity payload")
		}
	}
	profile := payload.Profile()

	dbc := dbctx.Context{Ctx: ctx}
	key := repos.WebhookEventKey{Provider: types.WebhookProviderIdentity, DeliveryID: headers.ID, EventType: env.Type}
	event, err := s.events.Record(dbc, key, profile.SubjectID, s.now())
	if err != nil {
		return nil, errStore(op, err)
	}
	// The ledger catches redeliveries the replay cache has lost; replaying
	// an old user.created after a user.deleted would resurrect the user.
	if event != nil && event.Status == types.WebhookStatusProcessed {
		if err := s.replay.Mark(ctx, replayKey); err != nil {
			s.log.Warn("replay guard mark failed", "error", err)
		}
		res.Outcome = WebhookDuplicate
		return res, nil
	}

	switch env.Type {
	case IdentityUserCreated, IdentityUserUpdated:
		if profile.SubjectID == "" {
			_ = s.events.MarkStatus(dbc, key, types.WebhookStatusFailed, "missing subject id", s.now())
			return nil, errValidation(op, "identity payload missing subject id")
		}
		if _, err := s.ApplyProfile(ctx, profile); err != nil {
			_ = s.events.MarkStatus(dbc, key, types.WebhookStatusFailed, err.Error(), s.now())
			return nil, err
		}
		res.Outcome = WebhookProcessed
	case IdentityUserDeleted:
		if profile.SubjectID == "" {
			_ = s.events.MarkStatus(dbc, key, types.WebhookStatusFailed, "missing subject id", s.now())
			return nil, errValidation(op, "identity payload missing subject id")
		}
		// Purchases, progress and enrollment rows stay for audit.
		deleted, err := s.users.Delete(dbc, profile.SubjectID)
		if err != nil {
			_ = s.events.MarkStatus(dbc, key, types.WebhookStatusFailed, err.Error(), s.now())
			return nil, errStore(op, err)
		}
		if !deleted {
			s.log.Info("identity delete for unknown user", "subject_id", profile.SubjectID)
		}
		res.Outcome = WebhookProcessed
	default:
		res.Outcome = WebhookIgnored
		res.Reason = "unhandled event type"
		if err := s.events.MarkStatus(dbc, key, types.WebhookStatusIgnored, "", s.now()); err != nil {
			return nil, errStore(op, err)
		}
		return res, nil
	}

	if err := s.events.MarkStatus(dbc, key, types.WebhookStatusProcessed, "", s.now()); err != nil {
		return nil, errStore(op, err)
	}
	if err := s.replay.Mark(ctx, replayKey); err != nil {
		s.log.Warn("replay guard mark failed", "error", err)
	}
	return res, nil
}

func (s *identitySyncService) ApplyProfile(ctx context.Context, p identity.Profile) (*types.User, error) {
	const op = "IdentitySync.ApplyProfile"
	p.SubjectID = strings.TrimSpace(p.SubjectID)
	if p.SubjectID == "" {
		return nil, errValidation(op, "subject id is required")
	}
	u := &types.User{
		ID:       p.SubjectID,
		Name:     strings.TrimSpace(p.DisplayName),
		Email:    strings.ToLower(strings.TrimSpace(p.Email)),
		ImageURL: strings.TrimSpace(p.AvatarURL),
		Role:     types.NormalizeRole(strings.ToLower(strings.TrimSpace(p.Role))),
	}
	if err := s.users.Upsert(dbctx.Context{Ctx: ctx}, u); err != nil {
		return nil, errStore(op, err)
	}
	return u, nil
}
