package app

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/coursemarket-backend/internal/clients/midtrans"
	"github.com/yungbote/coursemarket-backend/internal/clients/redis"
	dataagg "github.com/yungbote/coursemarket-backend/internal/data/aggregates"
	"github.com/yungbote/coursemarket-backend/internal/data/db"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/envutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/platform/sendgrid"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

// Tooling is the subset of the app the operator CLI needs: the store,
// the repos and the reconciliation entry point. It never serves HTTP.
type Tooling struct {
	Log            *logger.Logger
	DB             *gorm.DB
	Cfg            Config
	Repos          Repos
	Reconciliation services.PaymentReconciliationService

	pg     *db.PostgresService
	replay redis.ReplayGuard
}

// NewTooling opens the store. withGateway additionally wires the payment
// processor, which reconcile commands need and seeding does not.
func NewTooling(withGateway bool) (*Tooling, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		log.Sync()
		return nil, err
	}

	pg, err := openPostgres(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	t := &Tooling{
		Log:   log,
		DB:    pg.DB(),
		Cfg:   cfg,
		Repos: wireRepos(pg.DB(), log),
		pg:    pg,
	}
	if !withGateway {
		return t, nil
	}

	gateway, err := midtrans.New(log, cfg.Midtrans)
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("init midtrans client: %w", err)
	}
	var mail sendgrid.Client
	if strings.TrimSpace(cfg.SendGrid.APIKey) != "" {
		if mail, err = sendgrid.New(log, cfg.SendGrid); err != nil {
			t.Close()
			return nil, fmt.Errorf("init sendgrid client: %w", err)
		}
	}
	if t.replay, err = redis.NewReplayGuard(log); err != nil {
		t.Close()
		return nil, fmt.Errorf("init replay guard: %w", err)
	}

	settlement := dataagg.NewPurchaseSettlementAggregate(dataagg.PurchaseSettlementAggregateDeps{
		Base:        dataagg.BaseDeps{DB: t.DB, Log: log, Hooks: dataagg.NewObservabilityHooks(observability.Current())},
		Purchases:   t.Repos.Purchase,
		Enrollments: t.Repos.Enrollment,
	})
	t.Reconciliation = services.NewPaymentReconciliationService(
		t.DB, log,
		gateway,
		t.Repos.Purchase,
		t.Repos.WebhookEvents,
		settlement,
		services.NewMailNotifier(log, mail, t.Repos.User, t.Repos.Course),
		t.replay,
	)
	return t, nil
}

func (t *Tooling) Close() {
	if t == nil {
		return
	}
	if t.replay != nil {
		_ = t.replay.Close()
	}
	if t.pg != nil {
		_ = t.pg.Close()
	}
	if t.Log != nil {
		t.Log.Sync()
	}
}
