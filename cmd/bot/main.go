package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"dota-tracker/internal/config"
	"dota-tracker/internal/constants"
	fxmodules "dota-tracker/internal/fx"
	"dota-tracker/internal/notifier"
	"dota-tracker/internal/report"
	"dota-tracker/internal/repository"
	"dota-tracker/internal/scheduler"
	"dota-tracker/internal/server"
	"dota-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runBot),
	).Run()
}

func runBot(
	lc fx.Lifecycle,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
	reconciler *service.Reconciler,
	stats *service.StatsService,
	playerSvc *service.PlayerService,
	channels *repository.ChannelRepository,
	registry *scheduler.Registry,
	status *server.StatusServer,
	notify notifier.Notifier,
) {
	registerJobs(cfg, logger, reconciler, stats, playerSvc, channels, registry, status, notify)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.StatusPort),
		Handler: status.Handler(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("status server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("status server failed")
				}
			}()
			registry.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := registry.Stop(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("scheduler did not stop cleanly")
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("status server shutdown failed")
				return err
			}
			logger.Info().Msg("stopped gracefully")
			return nil
		},
	})
}

func registerJobs(
	cfg *config.Config,
	logger zerolog.Logger,
	reconciler *service.Reconciler,
	stats *service.StatsService,
	playerSvc *service.PlayerService,
	channels *repository.ChannelRepository,
	registry *scheduler.Registry,
	status *server.StatusServer,
	notify notifier.Notifier,
) {
	registry.Add(scheduler.Job{
		Name:       "ingest",
		Interval:   cfg.IngestInterval,
		RunAtStart: true,
		Timeout:    constants.ReconcileTimeout,
		Run: func(ctx context.Context) error {
			result, err := reconciler.Reconcile(ctx, service.ScopeAll, cfg.LookbackDays)
			if errors.Is(err, service.ErrReconcileInFlight) {
				logger.Debug().Msg("ingest skipped, pass already running")
				return nil
			}
			status.RecordPass(result, err)
			return err
		},
	})

	registry.Add(scheduler.Job{
		Name:     "solo-loss-alert",
		Interval: cfg.AlertInterval,
		Timeout:  constants.ReconcileTimeout,
		Run: func(ctx context.Context) error {
			chans, err := channels.All(ctx)
			if err != nil {
				return err
			}
			for _, channel := range chans {
				losers, err := stats.RecentSoloLosers(ctx, channel.ID)
				if err != nil {
					return err
				}
				text := report.SoloLossNotice(losers, cfg.Platform)
				if text == "" {
					continue
				}
				if err := sendWithTimeout(ctx, notify, channel.ID, text); err != nil {
					logger.Warn().Err(err).Str("channel_id", channel.ID).Msg("solo loss notice delivery failed")
				}
			}
			return nil
		},
	})

	registry.Add(scheduler.Job{
		Name:     "daily-report",
		Interval: cfg.ReportInterval,
		Timeout:  constants.ReconcileTimeout,
		Run: func(ctx context.Context) error {
			chans, err := channels.All(ctx)
			if err != nil {
				return err
			}
			for _, channel := range chans {
				changes, err := playerSvc.RefreshRanks(ctx, channel.ID)
				if err != nil {
					logger.Warn().Err(err).Str("channel_id", channel.ID).Msg("rank refresh failed")
				}

				summary, roster, err := stats.Summary(ctx, channel.ID, service.WindowDay)
				if err != nil {
					return err
				}
				text := report.Daily(summary, roster, cfg.Platform)
				if extra := report.RankChanges(changes, cfg.Platform); extra != "" {
					text += "\n" + extra
				}
				if err := sendWithTimeout(ctx, notify, channel.ID, text); err != nil {
					logger.Warn().Err(err).Str("channel_id", channel.ID).Msg("daily report delivery failed")
				}
			}
			return nil
		},
	})

	registry.Add(scheduler.Job{
		Name:     "weekly-report",
		Interval: 7 * cfg.ReportInterval,
		Timeout:  constants.ReconcileTimeout,
		Run: func(ctx context.Context) error {
			chans, err := channels.All(ctx)
			if err != nil {
				return err
			}
			for _, channel := range chans {
				summary, roster, err := stats.Summary(ctx, channel.ID, service.WindowWeek)
				if err != nil {
					return err
				}
				text := report.Weekly(summary, roster, cfg.Platform)
				if err := sendWithTimeout(ctx, notify, channel.ID, text); err != nil {
					logger.Warn().Err(err).Str("channel_id", channel.ID).Msg("weekly report delivery failed")
				}
			}
			return nil
		},
	})
}

func sendWithTimeout(ctx context.Context, notify notifier.Notifier, destination, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, constants.NotifyTimeout)
	defer cancel()
	return notify.Send(sendCtx, destination, text)
}
