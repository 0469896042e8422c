package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	"servodash/internal/api"
	"servodash/internal/config"
	"servodash/internal/dashboard"
	"servodash/internal/db"
	"servodash/internal/loop"
	"servodash/internal/metrics"
	"servodash/internal/notifier"
	"servodash/internal/realtime"
	"servodash/internal/tui"
	"servodash/internal/web"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db      *db.Repository
	loop    *loop.Loop
	dash    *dashboard.Dashboard
	socket  *realtime.Client
	notify  *notifier.Telegram
	metrics *metrics.Metrics
	web     *web.Server

	httpSrv *http.Server
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	sqldb, err := db.OpenMemory()
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	repo := db.NewRepository(sqldb)

	socket, err := realtime.NewClient(cfg.ServerURL, cfg.SocketPath, cfg.ReconnectDelay, logger.With("module", "realtime"))
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	l := loop.New(logger.With("module", "loop"))
	m := metrics.New()
	n := notifier.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
	dash, err := dashboard.New(dashboard.Deps{
		Clock:    l,
		Dispatch: l,
		API:      api.NewClient(cfg.ServerURL, cfg.HTTPTimeout),
		Repo:     repo,
		Metrics:  m,
		Forward:  n,
		Logger:   logger,
	}, dashboard.Settings{
		AutoRefresh:     cfg.AutoRefresh,
		RefreshInterval: cfg.RefreshInterval,
		TableLimit:      cfg.TableLimit,
		ExportDir:       cfg.ExportDir,
		DarkTheme:       cfg.DarkTheme,
		HTTPTimeout:     cfg.HTTPTimeout,
	})
	if err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	l.OnPanic = dash.HandlePanic

	app := &App{
		cfg:     cfg,
		log:     logger,
		db:      repo,
		loop:    l,
		dash:    dash,
		socket:  socket,
		notify:  n,
		metrics: m,
	}
	if cfg.DebugAddr != "" {
		app.web = web.NewServer(l, dash, repo, m, n, logger.With("module", "web"))
		app.httpSrv = &http.Server{Addr: cfg.DebugAddr, Handler: app.web.Routes()}
	}
	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.httpSrv != nil {
		go func() {
			a.log.Info("debug server listening", "addr", a.cfg.DebugAddr)
			if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.log.Error("debug server failed", "err", err)
			}
		}()
	}

	tuiDone := make(chan error, 1)
	if !a.cfg.Headless {
		p := tea.NewProgram(
			tui.NewModel(a.dash, a.loop.Post, a.log.With("module", "tui")),
			tea.WithAltScreen(),
			tea.WithContext(ctx),
		)
		a.loop.AfterEach = func() {
			p.Send(tui.SnapshotMsg{Snapshot: a.dash.Snapshot()})
		}
		go func() {
			_, err := p.Run()
			tuiDone <- err
			cancel()
		}()
	}

	a.loop.Post(a.dash.Start)
	go func() {
		_ = a.socket.Run(ctx, func(e realtime.Event) {
			a.loop.Post(func() { a.dash.HandleEvent(e) })
		})
	}()

	a.log.Info("dashboard running", "server", a.cfg.ServerURL, "headless", a.cfg.Headless)
	_ = a.loop.Run(ctx)

	// the loop has stopped, so its state can be touched from here
	a.dash.Close()
	if a.httpSrv != nil {
		_ = a.httpSrv.Shutdown(context.Background())
	}
	var err error
	if !a.cfg.Headless {
		if tuiErr := <-tuiDone; tuiErr != nil && !errors.Is(tuiErr, tea.ErrProgramKilled) {
			err = tuiErr
		}
	}
	if cerr := a.db.DB().Close(); err == nil {
		err = cerr
	}
	return err
}
