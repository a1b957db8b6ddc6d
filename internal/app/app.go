package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-qlearning/internal/config"
	"github.com/vancomm/minesweeper-qlearning/internal/handlers"
	"github.com/vancomm/minesweeper-qlearning/internal/middleware"
)

type App struct {
	log         *logrus.Logger
	router      *http.ServeMux
	server      config.Server
	development bool
	game        *handlers.GameHandler
	leaderboard *handlers.LeaderboardHandler
}

// New builds the live-play server. runs may be nil, in which case the
// leaderboard route is not registered.
func New(
	log *logrus.Logger,
	cfg *config.Config,
	params handlers.GameHandlerParams,
	runs handlers.RunLister,
) *App {
	a := &App{
		log:         log,
		router:      http.NewServeMux(),
		server:      cfg.Server,
		development: cfg.Development,
	}

	a.game = handlers.NewGameHandler(
		log.WithField("component", "game"),
		params,
		config.NewWebSocket(cfg.Development),
		createRand(),
	)
	if runs != nil {
		a.leaderboard = handlers.NewLeaderboardHandler(log.WithField("component", "leaderboard"), runs)
	}

	a.loadRoutes()
	return a
}

func (a *App) Handler() http.Handler {
	return middleware.Wrap(
		a.router,
		middleware.Recover(a.log),
		middleware.Cors(a.development),
		middleware.Logging(a.log),
	)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    a.server.Addr,
		Handler: a.Handler(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.WithField("addr", a.server.Addr).Info("server listening")
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
