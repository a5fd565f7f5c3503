package payment

import (
	"context"
	"sync"
	"time"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

// Coordinator runs the payment saga: auction-won → bank request → link issued
// → asynchronous settlement callback → terminal status. Cases only move
// forward: Pending → LinkIssued → {Settled, Failed}.
type Coordinator struct {
	mu        sync.Mutex
	byTx      map[string]*domain.PaymentCase
	byAuction map[int64]*domain.PaymentCase

	bank domain.BankClient
	bus  domain.EventBus
	sub  domain.Subscription
	log  logger.Logger
	now  func() time.Time
}

func NewCoordinator(bank domain.BankClient, bus domain.EventBus, log logger.Logger) *Coordinator {
	return &Coordinator{
		byTx:      make(map[string]*domain.PaymentCase),
		byAuction: make(map[int64]*domain.PaymentCase),
		bank:      bank,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// Start launches the auction-won consumer. Faults on one winner are logged
// and skipped; the loop never stops on a bad message.
func (c *Coordinator) Start(ctx context.Context) error {
	sub, err := c.bus.Subscribe(domain.TopicAuctionWon)
	if err != nil {
		return err
	}
	c.sub = sub

	go func() {
		for event := range sub.Events() {
			if err := c.handleAuctionWon(ctx, event); err != nil {
				c.log.Error("Failed to process winner",
					"auction_id", event.AuctionID, "error", err)
			}
		}
	}()
	return nil
}

func (c *Coordinator) Stop() error {
	if c.sub != nil {
		return c.sub.Close()
	}
	return nil
}

func (c *Coordinator) handleAuctionWon(ctx context.Context, event domain.Event) error {
	winnerID := event.Str("winner_id")
	amount := event.Float("amount")

	c.log.Info("Processing winner", "auction_id", event.AuctionID,
		"winner_id", winnerID, "amount", amount)

	pc := &domain.PaymentCase{
		AuctionID: event.AuctionID,
		PayerID:   winnerID,
		Amount:    amount,
		Status:    domain.PaymentPending,
		UpdatedAt: c.now(),
	}
	c.mu.Lock()
	c.byAuction[event.AuctionID] = pc
	c.mu.Unlock()

	// No timeout and no retry here: an unreachable bank leaves the case
	// Pending, and a slow bank stalls this consumer. Documented gap.
	link, err := c.bank.RequestPayment(ctx, amount, winnerID, event.AuctionID)
	if err != nil {
		return domain.Wrap(domain.CodeUnavailable, "bank request failed", err)
	}

	c.mu.Lock()
	pc.TransactionID = link.TransactionID
	pc.Link = link.Link
	pc.Status = domain.PaymentLinkIssued
	pc.UpdatedAt = c.now()
	c.byTx[link.TransactionID] = pc
	c.mu.Unlock()

	c.log.Info("Payment link issued", "auction_id", event.AuctionID,
		"transaction_id", link.TransactionID)
	return c.bus.Publish(ctx, domain.PaymentLinkIssuedEvent(event.AuctionID, winnerID, link.Link))
}

// ReceiveCallback is the bank's asynchronous settlement result. Every
// invocation republishes a payment-status event — callbacks are not
// deduplicated by transaction id — and then advances the matching case.
func (c *Coordinator) ReceiveCallback(ctx context.Context, transactionID, status string, auctionID int64, payerID string) error {
	c.log.Info("Settlement callback received", "transaction_id", transactionID,
		"auction_id", auctionID, "status", status)

	if err := c.bus.Publish(ctx, domain.PaymentStatusEvent(auctionID, payerID, transactionID, status)); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pc, ok := c.byTx[transactionID]
	if !ok {
		c.log.Warn("Callback for unknown transaction", "transaction_id", transactionID)
		return nil
	}
	if pc.Status == domain.PaymentSettled || pc.Status == domain.PaymentFailed {
		// Already terminal; the republish above still happened.
		return nil
	}

	if status == domain.SettlementApproved {
		pc.Status = domain.PaymentSettled
	} else {
		pc.Status = domain.PaymentFailed
	}
	pc.UpdatedAt = c.now()
	return nil
}

// Case returns a copy of the case for a transaction id.
func (c *Coordinator) Case(transactionID string) (domain.PaymentCase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pc, ok := c.byTx[transactionID]
	if !ok {
		return domain.PaymentCase{}, false
	}
	return *pc, true
}

// CaseForAuction returns a copy of the case created for an auction.
func (c *Coordinator) CaseForAuction(auctionID int64) (domain.PaymentCase, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pc, ok := c.byAuction[auctionID]
	if !ok {
		return domain.PaymentCase{}, false
	}
	return *pc, true
}
