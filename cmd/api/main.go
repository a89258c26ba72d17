package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"salon/internal/attendance"
	"salon/internal/auth"
	"salon/internal/cloudinary"
	"salon/internal/config"
	"salon/internal/customer"
	"salon/internal/httpapi"
	"salon/internal/httpmiddleware"
	"salon/internal/insights"
	"salon/internal/model"
	"salon/internal/queue"
	"salon/internal/store"
	"salon/internal/worker"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, db, err := store.Open(ctx, cfg.StoreBackend, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	services, err := config.LoadServices(cfg.ServicesFile)
	if err != nil {
		return err
	}
	loc := cfg.Location()

	redisClient := store.NewRedis(store.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer redisClient.Close()

	var (
		q     queue.Queue
		cache insights.Cache
	)
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
		cache = insights.NewMemoryCache()
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
		cache = insights.NewRedisCache(redisClient.Client, cfg.SummaryCacheTTL)
	}

	var accounts auth.AccountStore = auth.NewMemoryAccounts()
	if db != nil {
		accounts = auth.NewSQLAccounts(db)
	}
	provider := auth.NewProvider(accounts, auth.Options{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	provider.OnSessionChange(auth.PublishTo(q))

	customers := customer.NewService(customer.NewRepository(docs), customer.NewCollator(cfg.CollationLocale), loc)
	visits := attendance.NewService(attendance.NewRepository(docs), customers, model.NewCatalog(services), q, cache, loc)

	// the memory queue is only visible in this process
	if cfg.QueueBackend == "memory" {
		go func() {
			if err := worker.Run(ctx, q, worker.New(visits, cache, loc)); err != nil {
				log.Printf("in-process worker: %v", err)
			}
		}()
	}

	var photos httpapi.PhotoUploader
	cdn := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	if cdn.Configured() {
		photos = cdn
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	var limiter httpmiddleware.Limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	if cfg.RateLimitBackend == "redis" {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
	}

	health := map[string]httpapi.HealthCheck{}
	if db != nil {
		health["db"] = func(ctx context.Context) bool { return db.Client.PingContext(ctx) == nil }
	}
	if cfg.QueueBackend != "memory" || cfg.RateLimitBackend == "redis" {
		health["redis"] = redisClient.Healthy
	}

	r := httpapi.NewRouter(httpapi.Deps{
		Customers:  customers,
		Attendance: visits,
		Auth:       provider,
		Cache:      cache,
		Photos:     photos,
		Limiter:    limiter,
		Health:     health,
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		Location:   loc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (store=%s queue=%s)", cfg.HTTPPort, cfg.StoreBackend, cfg.QueueBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func init() {
	if _, ok := os.LookupEnv("JWT_SIGNING_KEY"); !ok {
		log.Println("JWT_SIGNING_KEY not set, using development key")
	}
}
