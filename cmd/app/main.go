// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegram-reward-bot/internal/application"
	"telegram-reward-bot/internal/config"
	"telegram-reward-bot/internal/domain/ports/adapter"
	"telegram-reward-bot/internal/domain/ports/repository"
	tele "telegram-reward-bot/internal/infra/adapters/telegram"
	"telegram-reward-bot/internal/infra/adapters/webapp"
	pg "telegram-reward-bot/internal/infra/db/postgres"
	apphttp "telegram-reward-bot/internal/infra/http"
	"telegram-reward-bot/internal/infra/i18n"
	"telegram-reward-bot/internal/infra/logging"
	"telegram-reward-bot/internal/infra/memory"
	"telegram-reward-bot/internal/infra/metrics"
	red "telegram-reward-bot/internal/infra/redis"
	"telegram-reward-bot/internal/infra/sched"
	"telegram-reward-bot/internal/infra/store"
	"telegram-reward-bot/internal/infra/web"
	"telegram-reward-bot/internal/infra/worker"
	"telegram-reward-bot/internal/usecase"
)

// set via -ldflags
var (
	version = "dev"
	commit  = "none"
)

const shutdownGrace = 10 * time.Second

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	offline := flag.Bool("offline", false, "run without Telegram; replies are logged instead of sent")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *offline, logger); err != nil {
		logger.Error().Err(err).Msg("exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, offline bool, logger *zerolog.Logger) error {
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, cfg.Storage.Driver)

	// ---- Storage ----
	backend, err := store.Open(ctx, cfg.Storage, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = backend.Close() }()
	accounts := backend.Accounts

	// ---- Redis (optional) ----
	var (
		locker  adapter.Locker = usecase.NewLocalLocker()
		states  repository.StateRepository
		limiter *red.RateLimiter
	)
	states = memory.NewStateRepo(cfg.Ledger.StateTTL)
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = rc.Close() }()
		locker = red.NewLocker(rc, logger)
		states = red.NewStateRepo(rc, cfg.Ledger.StateTTL)
		limiter = red.NewRateLimiter(rc)
		if backend.Pool != nil {
			accounts = pg.NewAccountRepoCacheDecorator(accounts, rc, cfg.Redis.TTL, logger)
		}
		logger.Info().Msg("redis enabled: distributed locks, shared state, rate limiting")
	}

	// ---- Web app sync (optional) ----
	syncPool := worker.NewPool("webapp_sync", cfg.WebApp.Workers, 0, logger)
	var (
		notifier    adapter.AccountSyncNotifier
		webNotifier *webapp.Notifier
	)
	if cfg.WebApp.URL != "" {
		webNotifier, err = webapp.NewNotifier(cfg.WebApp, syncPool, logger)
		if err != nil {
			return fmt.Errorf("webapp: %w", err)
		}
		notifier = webNotifier
	}

	// ---- Telegram API ----
	var (
		api    tele.BotAPI
		oracle *tele.MembershipOracle
	)
	if offline {
		off := tele.NewOfflineAPI(logger)
		api, oracle = off, tele.NewMembershipOracle(off)
		logger.Warn().Msg("offline mode: nothing is sent to Telegram")
	} else {
		botAPI, err := tele.NewBotAPI(cfg.Bot.Token)
		if err != nil {
			return err
		}
		if cfg.Bot.Username == "" {
			cfg.Bot.Username = botAPI.Self.UserName
		}
		api, oracle = botAPI, tele.NewMembershipOracle(botAPI)
	}

	// ---- Use cases ----
	loc := cfg.Ledger.Location()
	policy := usecase.LedgerPolicy{
		WelcomeBonus:   cfg.Rewards.WelcomeBonus,
		ReferralBonus:  cfg.Rewards.ReferralBonus,
		DailyBonus:     cfg.Rewards.DailyBonus,
		OneTimeBonus:   cfg.Rewards.OneTimeBonus,
		OneTimeChannel: cfg.Rewards.OneTimeChannel,
		Location:       loc,
		OracleTimeout:  cfg.Ledger.OracleTimeout,
		LockTTL:        cfg.Ledger.LockTTL,
		Now:            time.Now,
	}
	ledgerUC := usecase.NewLedgerUseCase(accounts, backend.Channels, oracle, notifier, locker, policy, logger)
	adminUC := usecase.NewAdminUseCase(backend.Admins, backend.Channels, accounts, locker, logger)
	convUC := usecase.NewConversationUseCase(states, ledgerUC, logger)
	statsUC := usecase.NewStatsUseCase(accounts, backend.Channels, backend.Admins, logger)

	if err := adminUC.SeedAdmins(ctx, cfg.Bot.AdminIDs); err != nil {
		return fmt.Errorf("seed admins: %w", err)
	}

	// ---- Facade ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}
	facade := application.NewBotFacade(ledgerUC, adminUC, convUC, tr,
		application.Rewards{
			Welcome:  cfg.Rewards.WelcomeBonus,
			Referral: cfg.Rewards.ReferralBonus,
			Daily:    cfg.Rewards.DailyBonus,
			OneTime:  cfg.Rewards.OneTimeBonus,
			Currency: cfg.Rewards.Currency,
		},
		application.Links{BotUsername: cfg.Bot.Username, WebAppURL: cfg.WebApp.URL},
		loc, logger)

	// ---- Telegram adapter ----
	updatePool := worker.NewPool("telegram_updates", cfg.Bot.Workers, 0, logger)
	bot, err := tele.NewRealTelegramBotAdapter(api, &cfg.Bot, facade, tr, limiter, updatePool,
		tele.Options{OneTimeChannel: cfg.Rewards.OneTimeChannel, FollowLinks: cfg.Rewards.FollowLinks}, logger)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	if err := bot.Setup(ctx); err != nil {
		// a failed setup can be retried through /api/setup
		logger.Error().Err(err).Msg("bot setup failed")
	}

	// ---- HTTP ----
	adminAPI := web.NewServer(statsUC, ledgerUC, backend.Channels, cfg.HTTP.AdminAPIKey,
		web.NewAuthManager(cfg.HTTP.JWTSecret, !cfg.Runtime.Dev, 30*time.Minute), logger)
	srv := apphttp.NewServer(cfg.HTTP, cfg.Bot, bot, logger, adminAPI)

	// ---- Run ----
	g, gctx := errgroup.WithContext(ctx)

	updatePool.Start(gctx)
	syncPool.Start(gctx)
	defer syncPool.Stop()
	defer updatePool.Stop()

	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if cfg.Bot.Mode != "webhook" && !offline {
		g.Go(func() error { return bot.StartPolling(gctx) })
	}

	if backend.Pool != nil {
		g.Go(func() error {
			pg.ReportPoolStats(gctx, backend.Pool, 15*time.Second)
			return nil
		})
	}

	if cfg.Scheduler.ResyncCron != "" {
		if webNotifier == nil {
			logger.Warn().Msg("scheduler.resync_cron set without webapp.url; resync disabled")
		} else {
			s := sched.NewScheduler(logger)
			if err := s.Register("webapp_resync", cfg.Scheduler.ResyncCron, sched.NewResyncJob(ledgerUC, webNotifier, logger).Run); err != nil {
				return err
			}
			g.Go(func() error { return s.Run(gctx) })
		}
	}

	logger.Info().
		Str("version", version).
		Str("storage", backend.Driver).
		Str("mode", cfg.Bot.Mode).
		Int("port", cfg.HTTP.Port).
		Msg("bot started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
