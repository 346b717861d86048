package fx

import (
	"dota-tracker/internal/api"
	"dota-tracker/internal/config"
	"dota-tracker/internal/database"
	"dota-tracker/internal/logger"
	"dota-tracker/internal/notifier"
	"dota-tracker/internal/repository"
	"dota-tracker/internal/scheduler"
	"dota-tracker/internal/server"
	"dota-tracker/internal/service"

	"go.uber.org/fx"
)

// interface bindings: the services consume narrow interfaces, the
// concrete repositories and API clients satisfy them
func provideMatchStore(r *repository.MatchRepository) service.MatchStore { return r }

func provideRoster(r *repository.PlayerRepository) service.Roster { return r }

func provideMatchSource(c *api.OpenDotaClient) service.MatchSource { return c }

func provideSoloResolver(c *api.StratzClient) service.SoloResolver { return c }

func provideProfileSource(c *api.OpenDotaClient) service.ProfileSource { return c }

func provideNotifier(n *notifier.TelegramNotifier) notifier.Notifier { return n }

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewChannelRepository),
	// api clients
	fx.Provide(api.NewOpenDotaClient),
	fx.Provide(api.NewStratzClient),
	// interface bindings
	fx.Provide(provideMatchStore),
	fx.Provide(provideRoster),
	fx.Provide(provideMatchSource),
	fx.Provide(provideSoloResolver),
	fx.Provide(provideProfileSource),
	// svc
	fx.Provide(service.NewReconciler),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewPlayerService),
	// delivery
	fx.Provide(notifier.NewTelegramNotifier),
	fx.Provide(provideNotifier),
	// supervision
	fx.Provide(scheduler.NewRegistry),
	fx.Provide(server.NewStatusServer),
)
