package domain

import (
	"context"
	"time"
)

// Bus interfaces. Delivery is best-effort: only subscribers present at publish
// time see an event, and nothing is replayed to late joiners.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(topics ...Topic) (Subscription, error)
}

type Subscription interface {
	Events() <-chan Event
	Close() error
}

// LifecycleService owns the auction catalog.
type LifecycleService interface {
	CreateAuction(ctx context.Context, description string, startingPrice float64, start, end time.Time) (int64, error)
	ListAuctions(ctx context.Context) ([]AuctionListing, error)
}

// BidService owns the per-auction highest-bid ledger.
type BidService interface {
	PlaceBid(ctx context.Context, auctionID int64, bidderID string, amount float64) (BidOutcome, error)
}

// BankClient is the outbound half of the settlement boundary. The bank
// answers synchronously with a transaction id and payment link, then calls
// back asynchronously through PaymentCallbackReceiver.
type BankClient interface {
	RequestPayment(ctx context.Context, amount float64, payerID string, auctionID int64) (PaymentLink, error)
}

// PaymentCallbackReceiver is the inbound half of the settlement boundary.
type PaymentCallbackReceiver interface {
	ReceiveCallback(ctx context.Context, transactionID, status string, auctionID int64, payerID string) error
}
