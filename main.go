package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"baby-timeline-relay/internal/api"
	"baby-timeline-relay/internal/bridge"
	"baby-timeline-relay/internal/config"
	"baby-timeline-relay/internal/eventlog"
	"baby-timeline-relay/internal/history"
	"baby-timeline-relay/internal/relay"
	"baby-timeline-relay/internal/settings"
	"baby-timeline-relay/internal/store"
	"baby-timeline-relay/internal/timeline"

	"github.com/segmentio/kafka-go"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	slog.InfoContext(ctx, "Starting service...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	kv := store.NewRedis(store.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := kv.Ping(ctx); err != nil {
		panic(err)
	}
	defer kv.Close()

	db, err := history.Init(ctx, history.Config{
		ConnString:     cfg.Postgres.ConnString,
		MigrationsPath: cfg.Postgres.MigrationsPath,
	})
	if err != nil {
		panic(err)
	}
	defer db.Close()

	mqttBridge, err := bridge.New(bridge.Config{
		Broker:          cfg.MQTT.Broker,
		ClientID:        cfg.MQTT.ClientID,
		Username:        cfg.MQTT.Username,
		Password:        cfg.MQTT.Password,
		QoS:             byte(cfg.MQTT.QoS),
		AppMessageTopic: cfg.MQTT.AppMessageTopic,
		CommandTopic:    cfg.MQTT.CommandTopic,
	})
	if err != nil {
		panic(err)
	}
	defer mqttBridge.Close()

	// Explicit load boundary at process start.
	settingsStore := settings.NewStore(kv)
	settingsStore.Load(ctx)

	mirror := eventlog.New(kv, mqttBridge)
	mirror.Load(ctx)

	var tokens timeline.TokenSource = timeline.StaticTokenSource{Value: cfg.Timeline.Token}
	if cfg.Timeline.TokenURL != "" {
		tokens = timeline.NewHTTPTokenSource(cfg.Timeline.TokenURL)
	}
	timelineClient := timeline.New(timeline.Config{
		BaseURL: cfg.Timeline.BaseURL,
		Tokens:  tokens,
		Shared:  cfg.Timeline.Shared,
		Topics:  cfg.Timeline.Topics,
		APIKey:  cfg.Timeline.APIKey,
	})

	auditWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{cfg.Kafka.Brokers},
		Topic:   cfg.Kafka.AuditTopic,
	})

	wRelay := relay.New(relay.Config{
		Messages:  mqttBridge.Messages(),
		Formatter: timeline.NewFormatter(time.Local, cfg.Timeline.Reminders),
		Settings:  settingsStore,
		Sender:    timelineClient,
		Mirror:    mirror,
		History:   db,
		Audit:     auditWriter,
	})

	if err := mqttBridge.Subscribe(); err != nil {
		panic(err)
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		wRelay.Run(ctx)
	}()

	go func() {
		<-sigs
		cancel()
	}()

	handlers := api.New(api.Config{
		Settings: settingsStore,
		Mirror:   mirror,
		History:  db,
	})
	server := &http.Server{Addr: cfg.API.Addr, Handler: handlers.Routes()}
	go func() {
		slog.InfoContext(ctx, "HTTP server listening", "addr", cfg.API.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "HTTP server error", "error", err)
			cancel()
		}
	}()

	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	wRelay.Close(shutdownCtx)
}
