package ledger

import (
	"context"
	"fmt"
	"sync"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

// Ledger owns the per-auction highest-bid table. The set of active auctions
// is mirrored from lifecycle events; bids on anything else are rejected.
//
// One mutex guards both the active set and the records, and the bid-accepted
// publish happens under it, so bus order always matches record order for a
// given auction.
type Ledger struct {
	mu      sync.Mutex
	active  map[int64]struct{}
	records map[int64]*domain.BidRecord

	bus domain.EventBus
	sub domain.Subscription
	log logger.Logger
}

func New(bus domain.EventBus, log logger.Logger) *Ledger {
	return &Ledger{
		active:  make(map[int64]struct{}),
		records: make(map[int64]*domain.BidRecord),
		bus:     bus,
		log:     log,
	}
}

// PlaceBid validates and records a bid. Rejections are outcomes, not errors:
// the caller can always tell a too-low bid from a bus fault.
//
// The first bid on an auction is compared against 0, not the starting price.
// That allows a first bid below the starting price to win; kept deliberately,
// see DESIGN.md.
func (l *Ledger) PlaceBid(ctx context.Context, auctionID int64, bidderID string, amount float64) (domain.BidOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.active[auctionID]; !ok {
		return domain.Rejected(domain.RejectNotActive, "auction is not active"), nil
	}

	record := l.records[auctionID]
	if amount <= record.HighestValue {
		return domain.Rejected(domain.RejectTooLow,
			fmt.Sprintf("bid must exceed current highest of %.2f", record.HighestValue)), nil
	}

	record.HighestBidder = bidderID
	record.HighestValue = amount

	if err := l.bus.Publish(ctx, domain.BidAcceptedEvent(auctionID, bidderID, amount)); err != nil {
		// The record already moved; the event is best-effort.
		l.log.Error("Failed to publish bid-accepted", "auction_id", auctionID, "error", err)
	}

	l.log.Info("Bid accepted", "auction_id", auctionID, "bidder_id", bidderID, "amount", amount)
	return domain.Accepted("bid registered"), nil
}

// Start launches the lifecycle-event consumer.
func (l *Ledger) Start(ctx context.Context) error {
	sub, err := l.bus.Subscribe(domain.TopicAuctionStarted, domain.TopicAuctionClosed)
	if err != nil {
		return err
	}
	l.sub = sub

	go func() {
		for event := range sub.Events() {
			if err := l.handleEvent(ctx, event); err != nil {
				l.log.Error("Failed to handle event",
					"topic", event.Topic, "auction_id", event.AuctionID, "error", err)
			}
		}
	}()
	return nil
}

func (l *Ledger) Stop() error {
	if l.sub != nil {
		return l.sub.Close()
	}
	return nil
}

func (l *Ledger) handleEvent(ctx context.Context, event domain.Event) error {
	switch event.Topic {
	case domain.TopicAuctionStarted:
		l.handleStarted(event.AuctionID)
		return nil
	case domain.TopicAuctionClosed:
		return l.handleClosed(ctx, event.AuctionID)
	default:
		return nil
	}
}

func (l *Ledger) handleStarted(auctionID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active[auctionID] = struct{}{}
	if _, ok := l.records[auctionID]; !ok {
		l.records[auctionID] = &domain.BidRecord{AuctionID: auctionID}
	}
	l.log.Info("Auction activated in ledger", "auction_id", auctionID)
}

// handleClosed deactivates the auction and, when a bidder is recorded,
// publishes exactly one auction-won. No bids, no event.
func (l *Ledger) handleClosed(ctx context.Context, auctionID int64) error {
	l.mu.Lock()
	_, wasActive := l.active[auctionID]
	delete(l.active, auctionID)
	record := l.records[auctionID]
	l.mu.Unlock()

	if !wasActive || record == nil || record.HighestBidder == "" {
		return nil
	}

	l.log.Info("Publishing winner", "auction_id", auctionID,
		"winner_id", record.HighestBidder, "amount", record.HighestValue)
	return l.bus.Publish(ctx, domain.AuctionWonEvent(auctionID, record.HighestBidder, record.HighestValue))
}

// Record returns a copy of the current highest-bid record, if any.
func (l *Ledger) Record(auctionID int64) (domain.BidRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[auctionID]
	if !ok {
		return domain.BidRecord{}, false
	}
	return *record, true
}
