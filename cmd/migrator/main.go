package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/maze-server/internal/config"
	"github.com/vancomm/maze-server/internal/database"
)

var log = logrus.New()

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "config file path")
	flag.StringVar(&configPath, "c", "", "config file path (shorthand)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Development() {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	url := cfg.DatabaseURL()
	if url == "" {
		log.Fatal("no database configured: set DATABASE_URL or postgres in the config file")
	}

	migrator, err := database.Migrate(url, database.Migrations)
	if err != nil {
		log.WithError(err).Error("failed to migrate database")
		os.Exit(1)
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil {
		log.WithError(err).Error("failed to check migration version")
	} else {
		log.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("migration successful")
	}
}
