package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-qlearning/internal/config"
	"github.com/vancomm/minesweeper-qlearning/internal/database"
	"github.com/vancomm/minesweeper-qlearning/internal/env"
	"github.com/vancomm/minesweeper-qlearning/internal/mines"
	"github.com/vancomm/minesweeper-qlearning/internal/qlearn"
	"github.com/vancomm/minesweeper-qlearning/internal/render"
	"github.com/vancomm/minesweeper-qlearning/internal/report"
	"github.com/vancomm/minesweeper-qlearning/internal/repository"
	"github.com/vancomm/minesweeper-qlearning/internal/store"
)

var log = logrus.New()

func main() {
	cfg, err := config.Load(config.NewFlagSet("train"), os.Args[1:])
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

	envCfg := cfg.EnvConfig()
	params := cfg.QLearnParams()
	log.WithFields(logrus.Fields{
		"board":    envCfg.Params.Seed(),
		"variant":  envCfg.Variant,
		"episodes": params.Episodes,
		"alpha":    params.Alpha,
		"gamma":    params.Gamma,
	}).Info("starting up")

	var snapshots *store.Store
	if cfg.Store.Path != "" {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if snapshots, err = store.New(db, "snapshots"); err != nil {
			log.Fatal("unable to create snapshot store: ", err)
		}
	}

	table := resumeTable(snapshots, cfg.Store.Name, envCfg)

	environment, err := env.New(envCfg, rand.New(rand.NewPCG(cfg.Train.Seed, 1)))
	if err != nil {
		log.Fatal(err)
	}
	trainer, err := qlearn.NewTrainer(environment, table, params, rand.New(rand.NewPCG(cfg.Train.Seed, 2)))
	if err != nil {
		log.Fatal(err)
	}

	curve := report.NewCurve(max(1, params.Episodes/200))
	started := time.Now()
	summary, err := trainer.Train(ctx, curve.Add)
	if err != nil {
		log.Fatal("training failed: ", err)
	}
	log.WithFields(logrus.Fields{
		"episodes": summary.Episodes,
		"win_rate": summary.WinRate(),
		"states":   summary.TableSize,
		"elapsed":  time.Since(started).Round(time.Millisecond),
	}).Info("training done")

	var evaluation *qlearn.Result
	if !summary.Interrupted {
		evaluator, err := qlearn.NewEvaluator(table, envCfg, cfg.Eval.MaxSteps)
		if err != nil {
			log.Fatal(err)
		}
		res, err := evaluator.Evaluate(cfg.Eval.Episodes, cfg.Eval.Seed)
		if err != nil {
			log.Fatal("evaluation failed: ", err)
		}
		evaluation = &res
	}

	logTopActions(table, envCfg)

	// persist even when interrupted
	saveCtx := context.WithoutCancel(ctx)
	g, gCtx := errgroup.WithContext(saveCtx)
	if snapshots != nil {
		g.Go(func() error {
			snap := store.NewSnapshot(envCfg, params, summary, table)
			if err := snapshots.SaveSnapshot(cfg.Store.Name, snap); err != nil {
				return err
			}
			log.WithField("name", cfg.Store.Name).Info("snapshot saved")
			return nil
		})
	}
	if cfg.Postgres.Enabled {
		g.Go(func() error {
			return saveRun(gCtx, cfg, summary, evaluation, table)
		})
	}
	if cfg.Chart.Path != "" {
		g.Go(func() error {
			title := fmt.Sprintf("%s %s", envCfg.Params.Seed(), envCfg.Variant)
			if err := curve.WriteFile(cfg.Chart.Path, title); err != nil {
				return fmt.Errorf("unable to write chart: %w", err)
			}
			log.WithField("path", cfg.Chart.Path).Info("chart written")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	if cfg.Watch {
		if err := watch(table, envCfg, cfg.Eval); err != nil {
			log.Fatal(err)
		}
	}
}

// resumeTable continues from a saved snapshot when its board and variant
// match the current configuration.
func resumeTable(snapshots *store.Store, name string, cfg env.Config) *qlearn.Table {
	if snapshots == nil {
		return qlearn.NewTable()
	}
	snap, err := snapshots.LoadSnapshot(name)
	if errors.Is(err, store.ErrNotFound) {
		return qlearn.NewTable()
	} else if err != nil {
		log.Fatal("unable to load snapshot: ", err)
	}
	if snap.Board != cfg.Params || snap.Variant != cfg.Variant {
		log.WithFields(logrus.Fields{
			"name":    name,
			"board":   snap.Board.Seed(),
			"variant": snap.Variant,
		}).Warn("snapshot was trained for another game, starting from scratch")
		return qlearn.NewTable()
	}
	table, err := snap.Table()
	if err != nil {
		log.Fatal("corrupt snapshot: ", err)
	}
	log.WithFields(logrus.Fields{
		"name":   name,
		"states": table.Len(),
	}).Info("resuming from snapshot")
	return table
}

func logTopActions(table *qlearn.Table, cfg env.Config) {
	initial := env.State(strings.Repeat(".", cfg.Params.Cells()))
	actions := env.LegalActions(initial, cfg.Params.Height, cfg.Variant)
	for i, av := range table.TopActions(initial, actions, 5) {
		log.WithFields(logrus.Fields{
			"rank":   i + 1,
			"action": av.Action,
			"value":  av.Value,
		}).Info("best opening")
	}
}

func saveRun(
	ctx context.Context,
	cfg *config.Config,
	summary qlearn.Summary,
	evaluation *qlearn.Result,
	table *qlearn.Table,
) error {
	pool, _, err := database.ConnectAndMigrate(ctx, os.LookupEnv)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	defer pool.Close()

	repo := repository.New(pool)
	name := cfg.Postgres.Run
	if name == "" {
		name = fmt.Sprintf("%s-%s", cfg.GameParams().Seed(), time.Now().UTC().Format("20060102T150405"))
	}

	run, err := repo.CreateRun(ctx, repository.CreateRunParams{
		Name:   name,
		Env:    cfg.EnvConfig(),
		Params: cfg.QLearnParams(),
	})
	if err != nil {
		return fmt.Errorf("unable to create run %s: %w", name, err)
	}

	n, err := repo.SaveTable(ctx, run.RunId, table.Entries())
	if err != nil {
		return fmt.Errorf("unable to save table: %w", err)
	}

	if _, err := repo.FinishRun(ctx, run.RunId, repository.FinishRunParams{
		Summary:    summary,
		Evaluation: evaluation,
		FinishedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("unable to finish run: %w", err)
	}

	log.WithFields(logrus.Fields{
		"run":  name,
		"rows": n,
	}).Info("run saved to postgres")
	return nil
}

// watch plays one greedy game and prints every step.
func watch(table *qlearn.Table, cfg env.Config, eval config.Eval) error {
	environment, err := env.New(cfg, rand.New(rand.NewPCG(eval.Seed, eval.Seed)))
	if err != nil {
		return err
	}
	evaluator, err := qlearn.NewEvaluator(table, cfg, eval.MaxSteps)
	if err != nil {
		return err
	}

	r := render.New(true)
	w, h := cfg.Params.Width, cfg.Params.Height
	if err := r.State(os.Stdout, environment.State(), w, h); err != nil {
		return err
	}

	var renderErr error
	records, err := evaluator.Play(environment, func(rec qlearn.StepRecord) {
		fmt.Println()
		if err := r.Step(os.Stdout, rec, w, h); err != nil && renderErr == nil {
			renderErr = err
		}
	})
	if err != nil {
		return err
	}
	if renderErr != nil {
		return renderErr
	}

	fmt.Println()
	if err := r.Board(os.Stdout, environment.Board()); err != nil {
		return err
	}
	return r.Result(os.Stdout, environment.Won(), len(records))
}
