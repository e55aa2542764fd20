package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"fieldops/internal/auth"
	"fieldops/internal/config"
	"fieldops/internal/database"
	"fieldops/internal/handlers"
	"fieldops/internal/pin"
	"fieldops/internal/realtime"
	"fieldops/internal/server"
	"fieldops/internal/signaling"
	"fieldops/internal/storage"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	database.Init(cfg.DBDriver, cfg.DBDSN)
	auth.Init(cfg.JWTSecret)

	// шина: NATS, при недоступном брокере — внутрипроцессная
	var bus realtime.Bus
	var natsBus *realtime.NatsBus
	if nb, err := realtime.Connect(cfg.NatsURL); err == nil {
		natsBus = nb
		bus = nb
		log.Printf("connected to NATS at %s", cfg.NatsURL)
	} else {
		log.Printf("NATS unavailable (%v), falling back to in-process bus", err)
		bus = realtime.NewMemoryBus()
	}

	// объектное хранилище для подтверждений и вложений
	var objects storage.ObjectStore
	if natsBus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := storage.NewJetStreamObjectStore(ctx, natsBus.Conn(), cfg.ProofBucket)
		cancel()
		if err != nil {
			log.Printf("object store unavailable (%v), using in-memory store", err)
			objects = storage.NewMemoryStore()
		} else {
			objects = store
		}
	} else {
		objects = storage.NewMemoryStore()
	}

	// PIN-коды: redis с TTL, без него — память процесса
	var pins pin.Store
	var redisPins *pin.RedisStore
	if cfg.RedisAddr != "" {
		redisPins = pin.NewRedisStore(cfg.RedisAddr)
		pins = redisPins
	} else {
		pins = pin.NewMemoryStore()
	}

	handlers.Setup(
		bus,
		realtime.NewFeed(bus),
		signaling.NewService(bus),
		objects,
		pins,
		cfg.PublicBaseURL,
	)

	r := server.NewRouter(cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: r,
	}

	go func() {
		log.Printf("starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	ops := map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	}
	if natsBus != nil {
		ops["nats"] = func(ctx context.Context) error {
			return natsBus.Close()
		}
	}
	if redisPins != nil {
		ops["redis"] = func(ctx context.Context) error {
			return redisPins.Close()
		}
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, ops)
	exitCode := <-wait
	log.Printf("server exited with code: %d", exitCode)
	os.Exit(exitCode)
}
