package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qbot-core/internal/api"
	"qbot-core/internal/assets"
	"qbot-core/internal/broker"
	"qbot-core/internal/events"
	"qbot-core/internal/stopfile"
	"qbot-core/internal/supervisor"
	"qbot-core/pkg/config"
	"qbot-core/pkg/db"
	"qbot-core/pkg/i18n"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf(i18n.Get("ConfigLoadFailed"), err)
	}

	i18n.SetLanguage(i18n.Language(cfg.Language))
	log.Println(i18n.Get("Starting"))
	log.Printf(i18n.Get("ConfigLoaded"), cfg.Port)
	log.Printf(i18n.Get("UsingDBPath"), cfg.DBPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf(i18n.Get("DBInitFailed"), err)
	}
	defer database.Close()

	stop := stopfile.New(cfg.StopFilePath)
	sup := supervisor.New(cfg.WorkerBinary, nil, stop, bus, func() (string, string) {
		// Re-read so .env edits apply to the next start.
		fresh, err := config.LoadServer()
		if err != nil {
			return "", ""
		}
		return fresh.BrokerEmail, fresh.BrokerPassword
	})

	follower := events.NewFollower(bus, cfg.TradeLogPath, time.Second)
	go follower.Run(ctx)

	refresh := func(ctx context.Context, payout float64) ([]string, error) {
		client := broker.NewSim(broker.SimConfig{})
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		defer client.Close()
		return assets.Filter(ctx, client, assets.Default(), payout), nil
	}

	server := api.NewServer(sup, bus, database, refresh, cfg.TradeLogPath, cfg.JWTSecret, cfg.OperatorPassword)

	go func() {
		log.Printf(i18n.Get("ServerListening"), cfg.Port)
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf(i18n.Get("APIServerError"), err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println(i18n.Get("ShuttingDown"))

	if err := sup.Stop(); err != nil && err != supervisor.ErrNotRunning {
		log.Printf("shutdown: stop worker: %v", err)
	}
	cancel()
}
