package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"auctionhall/internal/bank"
	"auctionhall/internal/config"
	"auctionhall/pkg/logger"
)

// Standalone settlement party. Accepts payment requests over HTTP and posts
// the asynchronous settlement callback to the core after the configured
// delay.
func main() {
	log := logger.New()
	log.Info("Starting bank stub")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	poster := bank.NewCallbackPoster(cfg.BankStub.CallbackURL, log)
	stub := bank.NewStub(cfg.BankStub.SettlementDelay, cfg.BankStub.SettlementStatus, log)
	stub.SetCallback(poster)

	r := mux.NewRouter()
	r.HandleFunc("/payments", func(w http.ResponseWriter, req *http.Request) {
		var body bank.PaymentRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		link, err := stub.RequestPayment(req.Context(), body.Amount, body.PayerID, body.AuctionID)
		if err != nil {
			log.Error("Failed to issue payment link", "error", err)
			http.Error(w, "payment request failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(link)
	}).Methods(http.MethodPost)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "bankstub"})
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.BankStub.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Bank stub listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Stopped")
}
