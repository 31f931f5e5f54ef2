package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/taskbot/core/bootstrap"
	coreconfig "github.com/m3rciful/taskbot/core/config"
	"github.com/m3rciful/taskbot/core/logger"
	tg "github.com/m3rciful/taskbot/core/telegram"
	corerouter "github.com/m3rciful/taskbot/core/telegram/router"
	"github.com/m3rciful/taskbot/core/telegram/sender"
	"github.com/m3rciful/taskbot/flows"
	"github.com/m3rciful/taskbot/notify"
	"github.com/m3rciful/taskbot/storage/postgres"
	"github.com/m3rciful/taskbot/tasks"
	"github.com/m3rciful/taskbot/users"
)

// App holds the wired components of the bot.
type App struct {
	cfg *Config
	db  *sqlx.DB

	dispatcher *sender.Dispatcher
	handler    *flows.Handler
	sink       *notify.Sink
	reminder   *notify.Reminder

	background *errgroup.Group
	stopBg     context.CancelFunc
}

// Bootstrap initializes logging, storage and services and wires the flows.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	dispatcher := sender.NewDispatcher(sender.Options{})

	taskStore := postgres.NewTaskStore(res.DB)
	userStore := postgres.NewUserStore(res.DB)

	sink := notify.NewSink(dispatcher)
	taskSvc := tasks.NewService(taskStore, sink)
	directory := users.NewDirectory(userStore)

	router := flows.NewRouter(flows.NewPending(), taskSvc, directory)

	return &App{
		cfg:        cfg,
		db:         res.DB,
		dispatcher: dispatcher,
		handler:    flows.NewHandler(router),
		sink:       sink,
		reminder:   notify.NewReminder(taskStore, userStore, sink, cfg.Reminder),
	}, nil
}

// TelegramRunOptions assembles the runtime wiring: registry, routes,
// middleware chain and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	a.handler.Register(reg)

	routes := corerouter.CommandRoutes(reg, corerouter.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes,
		corerouter.CallbackRoute(reg, corerouter.CallbackOptions{}),
		corerouter.TextRoute(a.handler, reg, corerouter.TextOptions{}),
	)

	return tg.RunOptions{
		Config:     a.cfg.CoreConfig(),
		Registry:   reg,
		Dispatcher: a.dispatcher,

		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,

		OnStart: a.onStart,
		OnStop:  a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	bot := rt.Bot
	a.sink.Bind(func(chatID int64, text string) error {
		_, err := bot.Send(&tele.User{ID: chatID}, text)
		return err
	})

	bgCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(bgCtx)
	a.background = g
	a.stopBg = cancel

	if a.cfg.Reminder.Enabled {
		g.Go(func() error {
			return a.reminder.Run(gctx)
		})
	}

	if path := a.cfg.Path(); path != "" {
		if err := coreconfig.Watch(gctx, path, func(section coreconfig.LoggingConfig) {
			level := logger.ParseLevel(section.Level)
			logger.SetLevel(level)
			logger.L.Info("log level reloaded",
				slog.String("event", "config.reload"),
				slog.String("level", section.Level),
			)
		}); err != nil {
			logger.L.Warn("config watch unavailable",
				slog.String("event", "config.watch"),
				slog.String("err", err.Error()),
			)
		}
	}

	return nil
}

func (a *App) onStop(_ context.Context, _ tg.Runtime) error {
	if a.stopBg != nil {
		a.stopBg()
	}
	if a.background != nil {
		if err := a.background.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			logger.L.Warn("background worker exited with error",
				slog.String("event", "shutdown"),
				slog.String("err", err.Error()),
			)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return err
		}
	}
	return nil
}
