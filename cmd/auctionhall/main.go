package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"auctionhall/internal/bank"
	"auctionhall/internal/bus"
	"auctionhall/internal/config"
	"auctionhall/internal/domain"
	"auctionhall/internal/gateway"
	"auctionhall/internal/ledger"
	"auctionhall/internal/lifecycle"
	"auctionhall/internal/payment"
	"auctionhall/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting auctionhall")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Event bus
	var eventBus domain.EventBus
	switch cfg.Bus.Driver {
	case "redis":
		rdb := redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Connected to Redis", "address", cfg.Redis.Address)
		eventBus = bus.NewRedisBus(rdb, log)
	default:
		eventBus = bus.NewMemoryBus(log)
	}

	// Settlement party
	var bankClient domain.BankClient
	var embeddedStub *bank.Stub
	switch cfg.Bank.Mode {
	case "http":
		bankClient = bank.NewHTTPClient(cfg.Bank.URL, log)
	default:
		embeddedStub = bank.NewStub(cfg.BankStub.SettlementDelay, cfg.BankStub.SettlementStatus, log)
		bankClient = embeddedStub
	}

	// Core components
	manager := lifecycle.NewManager(eventBus, cfg.Lifecycle.Tick, log)
	bidLedger := ledger.New(eventBus, log)
	coordinator := payment.NewCoordinator(bankClient, eventBus, log)
	if embeddedStub != nil {
		embeddedStub.SetCallback(coordinator)
	}

	router := gateway.NewRouter(manager, bidLedger, coordinator, eventBus, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(ctx); err != nil {
		log.Error("Failed to start lifecycle manager", "error", err)
		os.Exit(1)
	}
	if err := bidLedger.Start(ctx); err != nil {
		log.Error("Failed to start bid ledger", "error", err)
		os.Exit(1)
	}
	if err := coordinator.Start(ctx); err != nil {
		log.Error("Failed to start payment coordinator", "error", err)
		os.Exit(1)
	}
	if err := router.Start(ctx); err != nil {
		log.Error("Failed to start gateway router", "error", err)
		os.Exit(1)
	}

	// HTTP API
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	handler := gateway.NewHandler(router, log)
	handler.RegisterRoutes(e)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Gateway listening", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := manager.Stop(); err != nil {
			log.Error("Failed to stop lifecycle manager", "error", err)
		}
		if err := bidLedger.Stop(); err != nil {
			log.Error("Failed to stop bid ledger", "error", err)
		}
		if err := coordinator.Stop(); err != nil {
			log.Error("Failed to stop payment coordinator", "error", err)
		}
		if err := router.Stop(); err != nil {
			log.Error("Failed to stop gateway router", "error", err)
		}
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Stopped")
}
