package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/vancomm/minesweeper-qlearning/internal/app"
	"github.com/vancomm/minesweeper-qlearning/internal/config"
	"github.com/vancomm/minesweeper-qlearning/internal/database"
	"github.com/vancomm/minesweeper-qlearning/internal/handlers"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
	"github.com/vancomm/minesweeper-qlearning/internal/repository"
	"github.com/vancomm/minesweeper-qlearning/internal/store"
)

var log = logrus.New()

func loadSnapshot(cfg *config.Config) *store.Snapshot {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	snapshots, err := store.New(db, "snapshots")
	if err != nil {
		log.Fatal("unable to open snapshot store: ", err)
	}
	snap, err := snapshots.LoadSnapshot(cfg.Store.Name)
	if errors.Is(err, store.ErrNotFound) {
		log.Fatalf("no snapshot %q in %s, train one first", cfg.Store.Name, cfg.Store.Path)
	} else if err != nil {
		log.Fatal("unable to load snapshot: ", err)
	}
	return snap
}

func main() {
	cfg, err := config.Load(config.NewFlagSet("server"), os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	} else if err != nil {
		log.Fatal("unable to load config: ", err)
	}

	log, err = config.NewLogger(cfg.Log, cfg.Development)
	if err != nil {
		logrus.Fatal(err)
	}
	mines.Log = log
	qlearn.Log = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap := loadSnapshot(cfg)
	table, err := snap.Table()
	if err != nil {
		log.Fatal("corrupt snapshot: ", err)
	}
	log.WithFields(logrus.Fields{
		"name":     cfg.Store.Name,
		"board":    snap.Board.Seed(),
		"variant":  snap.Variant,
		"states":   table.Len(),
		"saved_at": snap.SavedAt,
	}).Info("snapshot loaded")

	var runs handlers.RunLister
	if cfg.Postgres.Enabled {
		pool, err := database.Connect(ctx, os.LookupEnv)
		if err != nil {
			log.Fatal("unable to connect to db: ", err)
		}
		defer pool.Close()
		runs = repository.New(pool)
	}

	a := app.New(log, cfg, handlers.GameHandlerParams{
		Table:    table,
		Env:      snap.EnvConfig(),
		Summary:  snap.Summary,
		MaxSteps: cfg.Eval.MaxSteps,
		MaxGames: 1024,
	}, runs)

	if err := a.Start(ctx); err != nil {
		log.Error("exit reason: ", err)
	}
}
