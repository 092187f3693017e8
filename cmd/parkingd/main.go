package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/admission"
	"parking-gate-backend/internal/api"
	"parking-gate-backend/internal/db"
	"parking-gate-backend/internal/dispatch"
	"parking-gate-backend/internal/gate"
	"parking-gate-backend/internal/ledger"
	"parking-gate-backend/internal/notify"
	"parking-gate-backend/internal/obs"
)

func main() {
	logger := log.New(os.Stdout, "parking-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	loc, err := time.LoadLocation(cfg.Parking.Timezone)
	if err != nil {
		logger.Fatalf("invalid parking.timezone %q: %v", cfg.Parking.Timezone, err)
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database. Single initialize-once handle, injected everywhere.
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := obs.NewMetrics()

	vehicleLedger := ledger.NewGormLedger(gormDB)
	logger.Println("vehicle ledger initialized")

	// Slot-availability push notifications.
	workerPool := notify.NewWorkerPool(cfg.Dispatcher.Workers, gormDB, &webpushOptions)
	workerPool.Start(ctx)

	pool := admission.NewCapacityPool(cfg.Parking)
	controller := admission.NewController(vehicleLedger, pool, loc, metrics, workerPool)

	// Gate actuator. Absence of the device is not fatal: the link degrades to
	// a disabled state and commands report DeviceUnavailable.
	var link *gate.Link
	if cfg.Gate.Enabled {
		link, err = gate.Discover(cfg.Gate)
		if err != nil {
			logger.Fatalf("gate discovery failed: %v", err)
		}
		if link == nil {
			logger.Println("no gate actuator detected, gate commands disabled")
		}
	} else {
		logger.Println("gate is disabled by configuration")
	}
	gateController := gate.NewController(link, cfg.Gate.AckTimeout, metrics)
	go link.Run(ctx, gateController.HandleFrame)

	dispatcher := dispatch.New(cfg.Dispatcher.Workers)
	dispatcher.Start(ctx)

	handler := api.NewHandler(controller, gateController, dispatcher, gormDB, &webpushOptions)
	router := api.NewRouter(&cfg.Server, loc, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	if err := link.Close(); err != nil {
		logger.Printf("gate link close: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
