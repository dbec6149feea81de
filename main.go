package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"silent-auction/internal/config"
	"silent-auction/internal/ledger"
	model "silent-auction/internal/models"
	"silent-auction/internal/notify"
	"silent-auction/internal/ratelimit"
	"silent-auction/internal/repository"
	"silent-auction/internal/server"
	handler "silent-auction/services/auction/handler"
	"silent-auction/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()
	cfg := config.Load()

	store, err := buildStore(cfg)
	if err != nil {
		utils.Fatal("failed to open store", map[string]any{"error": err.Error()})
	}

	ledgerSvc := ledger.NewLedgerService(store, buildNotifier(cfg), cfg.IncrementStep)
	authHandler := handler.NewAuthHandler(store, cfg.JWTSecret)

	router := server.SetupRouter(ledgerSvc, authHandler, buildLimiter(cfg), cfg.JWTSecret)

	addr := ":" + cfg.Port
	fmt.Printf("Starting auction server on %s (env=%s)...\n", addr, cfg.Env)
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// buildStore selects MySQL when configured, otherwise a seeded in-memory
// store for single-instance event deployments.
func buildStore(cfg config.Config) (repository.AuctionStore, error) {
	if cfg.DBHost != "" {
		db, err := repository.OpenDB(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		utils.Info("using mysql store", map[string]any{"host": cfg.DBHost, "db": cfg.DBName})
		return repository.NewMySQLStore(db), nil
	}

	store := repository.NewMemoryStore()
	seedStore(store, cfg)
	utils.Info("using in-memory store", nil)
	return store, nil
}

// buildLimiter returns the shared-store limiter when Redis is configured;
// the in-memory sliding window is correct only for a single serving instance.
func buildLimiter(cfg config.Config) ratelimit.Limiter {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		utils.Info("using redis rate limiter", map[string]any{"addr": cfg.RedisAddr})
		return ratelimit.NewRedisLimiter(client, "rl")
	}
	return ratelimit.NewSlidingWindow()
}

func buildNotifier(cfg config.Config) notify.Notifier {
	if cfg.RabbitURL != "" {
		utils.Info("using amqp outbid notifier", nil)
		return notify.NewAMQPNotifier(cfg.RabbitURL)
	}
	return notify.LogNotifier{}
}

// seedStore adds sample prizes and bidders to the in-memory store
func seedStore(store *repository.MemoryStore, cfg config.Config) {
	store.UpdateSettings(model.AuctionSettings{
		IsOpen:  cfg.AuctionOpen,
		EndTime: time.Now().UTC().Add(cfg.AuctionTTL),
	})

	prizes := []model.Prize{
		{PrizeID: "prize1", Name: "Weekend Staycation", Description: "Two nights for two", Active: true, MinimumBid: 1000},
		{PrizeID: "prize2", Name: "Dinner for Four", Description: "Tasting menu", Active: true, MinimumBid: 800},
		{PrizeID: "prize3", Name: "Signed Jersey", Description: "Framed and signed", Active: true, MinimumBid: 500},
	}
	for _, p := range prizes {
		store.AddPrize(p)
	}

	bidders := []model.Bidder{
		{BidderID: "bidder1", Name: "Alex Chan", Email: "alex@example.com"},
		{BidderID: "bidder2", Name: "Sam Lee", Email: "sam@example.com"},
	}
	for _, b := range bidders {
		store.AddBidder(b)
	}
}
