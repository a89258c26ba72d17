package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"salon/internal/attendance"
	"salon/internal/config"
	"salon/internal/insights"
	"salon/internal/model"
	"salon/internal/queue"
	"salon/internal/store"
	"salon/internal/worker"
)

// Worker consumes change events and keeps cached month-to-date totals fresh.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend == "memory" {
		log.Fatal("QUEUE_BACKEND=memory runs the worker inside the API; nothing to do")
	}
	if cfg.StoreBackend == "memory" {
		log.Fatal("STORE_BACKEND=memory is not shared with the API; use postgres or sqlite")
	}

	docs, db, err := store.Open(ctx, cfg.StoreBackend, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	services, err := config.LoadServices(cfg.ServicesFile)
	if err != nil {
		log.Fatalf("load services: %v", err)
	}

	redisClient := store.NewRedis(store.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis at %s not reachable, will keep retrying", cfg.RedisAddr)
	}

	loc := cfg.Location()
	visits := attendance.NewService(attendance.NewRepository(docs), nil, model.NewCatalog(services), nil, nil, loc)
	h := worker.New(visits, insights.NewRedisCache(redisClient.Client, cfg.SummaryCacheTTL), loc)

	if _, err := h.Refresh(ctx); err != nil {
		log.Printf("initial summary refresh failed: %v", err)
	}

	if err := worker.Run(ctx, queue.NewRedisQueue(redisClient.Client, ""), h); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
