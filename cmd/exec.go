package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"checkin-kiosk/capture"
	"checkin-kiosk/config"
	"checkin-kiosk/handlers"
	"checkin-kiosk/monitoring"
	"checkin-kiosk/security"
	"checkin-kiosk/services"
	"checkin-kiosk/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	_ "checkin-kiosk/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub for the feedback fan-out
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}

	monitor := monitoring.NewMonitor(cfg.TerminalID)

	// Initialize services
	store := services.NewPBBookingStore(app)
	engine := services.NewTransitionEngine(cfg.EarlyCheckInWindow)
	retry := utils.NewRetryPolicy(cfg.RetryMaxAttempts, cfg.RetryBaseDelay)
	breaker := utils.NewStoreBreaker("booking-store")
	syncService := services.NewSyncService(store, retry, breaker, monitor)
	feedback := services.NewFeedbackService(pn, cfg.TerminalID, cfg.FeedbackDuration())
	noise := security.NewNoiseLimiter(redisClient, cfg.NoiseScanLimit, cfg.NoiseScanWindow)

	// The wedge reader presents as a character stream on stdin; a
	// camera-class terminal swaps in its decode adapter here and
	// FeedbackDuration picks the longer display window for it.
	adapter := capture.NewWedge("USB barcode reader", os.Stdin)

	session := services.NewScanSession(services.ScanSessionConfig{
		TerminalID:       cfg.TerminalID,
		DataErrorDelay:   cfg.DataErrorDelay,
		DeviceRetryDelay: cfg.DeviceRetryDelay,
	}, adapter, store, engine, syncService, feedback, noise, monitor)

	health := services.NewHealthService(services.HealthConfig{
		TerminalID:      cfg.TerminalID,
		Interval:        cfg.HeartbeatInterval,
		RestartAfter:    cfg.RestartAfterUptime,
		RestartCooldown: cfg.RestartCooldown,
		MemoryThreshold: cfg.MemoryThresholdByte,
		HistoryKeep:     cfg.ScanHistoryKeep,
	}, session, redisClient, monitor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connectivity gating for the sync coordinator
	watcher := utils.NewNetWatcher(store.Ping, cfg.NetProbeInterval)
	watcher.Subscribe(func(online bool) {
		syncService.HandleConnectivity(ctx, online)
	})

	// Initialize handlers
	scanHandler := handlers.NewScanHandler(app, session)
	kioskHandler := handlers.NewKioskHandler(app, ctx, session, health, syncService, cfg.OperatorPINHash)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Setup graceful shutdown
	go handleShutdown(cancel, session)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Background loops
		go watcher.Run(ctx)
		go health.Run(ctx)

		if err := session.Start(ctx); err != nil {
			// Device errors leave the session in the error state; the
			// manual start control is the recovery path.
			slog.Error("initial capture start failed", "error", err)
		}

		// Scan endpoints
		e.Router.POST("/api/v1/scan", scanHandler.Scan)
		e.Router.GET("/api/v1/scan/history", scanHandler.History)

		// Kiosk control endpoints
		e.Router.GET("/api/v1/kiosk/health", kioskHandler.GetHealth)
		e.Router.GET("/api/v1/kiosk/pending", kioskHandler.GetPending)
		e.Router.POST("/api/v1/kiosk/start", kioskHandler.Start)
		e.Router.POST("/api/v1/kiosk/stop", kioskHandler.Stop)
		e.Router.POST("/api/v1/kiosk/force-restart", kioskHandler.ForceRestart)
		e.Router.POST("/api/v1/kiosk/force-cleanup", kioskHandler.ForceCleanup)

		if cfg.EnableMetrics {
			e.Router.GET("/metrics", func(e *core.RequestEvent) error {
				promhttp.Handler().ServeHTTP(e.Response, e.Request)
				return nil
			})
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Kiosk routes registered")

		return e.Next()
	})

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		// Unconditional device release; a crashed-looking exit must not
		// leave the camera locked for the next session.
		if err := session.Stop(); err != nil {
			slog.Warn("session stop on terminate", "error", err)
		}
		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc, session *services.ScanSession) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	if err := session.Stop(); err != nil {
		log.Printf("Error stopping scan session: %v", err)
	}
	cancel()
}
