package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-qlearning/internal/config"
	"github.com/vancomm/minesweeper-qlearning/internal/database"
)

func main() {
	log, err := config.NewLogger(config.Log{}, os.Getenv("DEVELOPMENT") == "1")
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, migrator, err := database.ConnectAndMigrate(ctx, os.LookupEnv)
	if err != nil {
		log.Fatal("failed to migrate db: ", err)
	}
	defer pool.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		log.WithError(err).Error("failed to check migration version")
		return
	}
	log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("migration successful")
}
