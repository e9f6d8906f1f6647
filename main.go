package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"tripplanner/cache"
	"tripplanner/config"
	"tripplanner/database"
	"tripplanner/handlers"
	"tripplanner/planner"
	"tripplanner/pricing"
	"tripplanner/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	api := &handlers.API{
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Limiter:       handlers.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
	}

	// Database (optional: trips endpoints answer 503 without it)
	var db *sql.DB
	if cfg.Storage.DatabaseURL != "" {
		db, err = database.Open(startCtx, cfg.Storage.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		if err := database.Migrate(startCtx, db); err != nil {
			log.Fatalf("❌ %v", err)
		}
		api.Store = database.NewStore(db)
		log.Println("✅ Database connected and migrated")
	} else {
		log.Println("⚠️  DATABASE_URL not set — saved trips are disabled")
	}

	// Enrichment providers
	var attractions planner.AttractionProvider
	if cfg.Providers.OpenTripMapAPIKey != "" {
		attractions = services.NewOpenTripMapClient(cfg.Providers.OpenTripMapAPIKey)
	} else {
		log.Println("⚠️  OPENTRIPMAP_API_KEY not set — itineraries will use fallback attractions")
	}

	var photos planner.PhotoProvider
	if cfg.Providers.PexelsAPIKey != "" {
		photos = services.NewPexelsClient(cfg.Providers.PexelsAPIKey, cfg.Providers.PexelsRatePerSec, 5)
	} else {
		log.Println("⚠️  PEXELS_API_KEY not set — itineraries will use stock images")
	}

	var rdb *redis.Client
	if cfg.Storage.RedisURL != "" {
		rdb, err = cache.Connect(startCtx, cfg.Storage.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, enrichment is not cached: %v", err)
		} else {
			if attractions != nil {
				attractions = &cache.Attractions{Next: attractions, Redis: rdb, TTL: cfg.Storage.CacheTTL}
			}
			if photos != nil {
				photos = &cache.Photos{Next: photos, Redis: rdb, TTL: cfg.Storage.CacheTTL}
			}
			api.RedisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			log.Println("✅ Redis cache enabled")
		}
	}

	if cfg.Providers.ResendAPIKey != "" {
		api.Mailer = services.NewResendClient(cfg.Providers.ResendAPIKey, cfg.Providers.EmailFrom)
	} else {
		log.Println("⚠️  RESEND_API_KEY not set — e-mailing itineraries is disabled")
	}

	flights, err := pricing.NewFlightPricer(cfg.Planner.FlightStrategy, nil)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	api.Planner = planner.New(attractions, photos,
		planner.WithFlightPricer(flights),
		planner.WithCallTimeout(cfg.Planner.EnrichTimeout),
		planner.WithPhotoConcurrency(cfg.Planner.PhotoConcurrency),
	)
	log.Printf("✅ Planner ready (%d cities, %s flight pricing)", pricing.Default().Len(), cfg.Planner.FlightStrategy)

	if cfg.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	for _, u := range strings.Split(cfg.Server.FrontendURL, ",") {
		if u = strings.TrimSpace(u); u != "" {
			allowedOrigins = append(allowedOrigins, u)
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api.Register(r.Group("/api"))

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("🚀 Trip planner backend starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}
	if db != nil {
		db.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	log.Println("✅ Server stopped cleanly")
}
