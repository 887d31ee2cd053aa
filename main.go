package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smarthome-go-api/config"
	"smarthome-go-api/database"
	"smarthome-go-api/energy"
	"smarthome-go-api/gateway"
	"smarthome-go-api/handlers"
	"smarthome-go-api/middleware"
	"smarthome-go-api/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg := config.Load()

	// Connect to databases
	db, err := database.Connect(ctx, cfg.PostgresURL(), cfg.RedisAddr(), cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db.Postgres); err != nil {
		log.Fatalf("Schema initialization failed: %v", err)
	}

	log.Println("✅ Database connections established")

	// Cloud gateway core
	registry := gateway.NewRegistry(cfg.CloudBaseURL, cfg.CloudTimeout(), cfg.ClientTTL())
	registry.Start(ctx, 10*time.Minute)

	store := gateway.NewStore(db.Postgres)
	reconciler := gateway.NewReconciler(store, int(cfg.SyncFanOut))
	gatewaySvc := gateway.NewService(registry, reconciler, store, store)

	// Energy aggregation
	tariff, err := energy.NewFixedTariff(cfg.EnergyRatePerKWh)
	if err != nil {
		log.Fatalf("Invalid tariff: %v", err)
	}
	energyStore := energy.NewPgStore(db.Postgres)
	notifier := utils.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	sampler := energy.NewRandomSampler(0.01, 0.5, time.Now().UnixNano())
	aggregator := energy.NewAggregator(energyStore, sampler, cfg.EnergyInterval(), notifier)
	aggregator.Start(ctx)

	// Initialize middlewares
	jwtMiddleware := middleware.NewJWTMiddleware(cfg.JWTSecret, db.Redis)
	loginLimiter := middleware.NewRateLimitAuth(db.Redis, cfg.RateLimitLoginMax, cfg.RateLimitLoginWindow)
	cors := middleware.NewCORSConfig(cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db.Postgres, db.Redis, gatewaySvc, cfg)
	deviceHandler := handlers.NewDeviceHandler(gatewaySvc, db.Redis, cfg)
	energyHandler := handlers.NewEnergyHandler(energyStore, tariff)

	// Setup routes
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Auth endpoints (no session required; login is rate-limited per IP)
	mux.Handle("/api/auth/signup",
		middleware.RequireMethods(http.MethodPost)(
			http.HandlerFunc(authHandler.Signup),
		),
	)
	mux.Handle("/api/auth/login",
		loginLimiter.Limit(
			middleware.RequireMethods(http.MethodPost)(
				http.HandlerFunc(authHandler.Login),
			),
		),
	)
	mux.Handle("/api/auth/logout",
		jwtMiddleware.Authenticate(
			middleware.RequireMethods(http.MethodPost)(
				http.HandlerFunc(authHandler.Logout),
			),
		),
	)

	// Device listing + sync (requires JWT)
	mux.Handle("/api/devices",
		jwtMiddleware.Authenticate(
			middleware.RequireMethods(http.MethodGet)(
				http.HandlerFunc(deviceHandler.ListDevices),
			),
		),
	)

	// Device control
	mux.Handle("/api/devices/{id}/control",
		jwtMiddleware.Authenticate(
			middleware.RequireMethods(http.MethodPost)(
				http.HandlerFunc(deviceHandler.Control),
			),
		),
	)

	// Energy summary
	mux.Handle("/api/energy/summary",
		jwtMiddleware.Authenticate(
			middleware.RequireMethods(http.MethodGet)(
				http.HandlerFunc(energyHandler.Summary),
			),
		),
	)

	// Middleware chain: request id -> logging -> recover -> CORS -> routes
	handler := middleware.RequestID(
		middleware.Logging(
			middleware.Recover(
				cors.Handle(mux),
			),
		),
	)

	// Start server
	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 API running on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSecs)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
