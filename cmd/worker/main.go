// The worker is the trading process the controller spawns: it reads
// its run settings from the environment once, trades until a stop
// condition fires and exits.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"qbot-core/internal/assets"
	"qbot-core/internal/broker"
	"qbot-core/internal/engine"
	"qbot-core/internal/stopfile"
	"qbot-core/internal/strategy"
	"qbot-core/internal/tradelog"
	"qbot-core/pkg/config"
	"qbot-core/pkg/db"
	"qbot-core/pkg/i18n"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	server, err := config.LoadServer()
	if err != nil {
		log.Fatalf(i18n.Get("ConfigLoadFailed"), err)
	}
	i18n.SetLanguage(i18n.Language(server.Language))

	run, err := config.LoadRun()
	if err != nil {
		log.Fatalf(i18n.Get("ConfigLoadFailed"), err)
	}
	if len(run.Assets) == 0 {
		run.Assets = assets.Default()
	}

	detectors := loadDetectors(server.DetectorsPath)

	journal, err := tradelog.NewWriter(server.TradeLogPath)
	if err != nil {
		log.Fatalf(i18n.Get("TradeLogOpenFailed"), err)
	}
	defer journal.Close()

	database, err := db.New(server.DBPath)
	if err != nil {
		// The journal is the durable record; trade without the DB.
		log.Printf(i18n.Get("DBInitFailed"), err)
		database = nil
	} else {
		defer database.Close()
	}

	client := broker.NewSim(broker.SimConfig{})

	eng := engine.New(engine.Config{
		Settings:  *run,
		Broker:    client,
		Detectors: detectors,
		Journal:   journal,
		DB:        database,
		Stop:      stopfile.New(server.StopFilePath),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cause, err := eng.Run(ctx)
	if err != nil {
		log.Fatalf(i18n.Get("BrokerConnectFailed"), err)
	}
	log.Printf("worker: finished (%s)", cause)
}

func loadDetectors(path string) []strategy.Detector {
	cfg, err := strategy.LoadConfig(path)
	if err != nil {
		log.Printf("worker: detector config %s: %v, using defaults", path, err)
		cfg = strategy.DefaultConfig()
	}
	return strategy.Build(cfg)
}
