package gateway

import (
	"context"
	"time"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

// Router is the client-facing edge: it forwards calls verbatim to the owning
// component and multiplexes bus events onto subscriber sessions.
type Router struct {
	lifecycle domain.LifecycleService
	ledger    domain.BidService
	payments  domain.PaymentCallbackReceiver
	registry  *Registry

	bus domain.EventBus
	sub domain.Subscription
	log logger.Logger
}

func NewRouter(
	lifecycle domain.LifecycleService,
	ledger domain.BidService,
	payments domain.PaymentCallbackReceiver,
	bus domain.EventBus,
	log logger.Logger,
) *Router {
	return &Router{
		lifecycle: lifecycle,
		ledger:    ledger,
		payments:  payments,
		registry:  NewRegistry(log),
		bus:       bus,
		log:       log,
	}
}

// Start launches the fan-out consumer. Only the client-facing topics are
// subscribed; auction-closed and auction-won stay internal to the
// choreography.
func (g *Router) Start(ctx context.Context) error {
	sub, err := g.bus.Subscribe(
		domain.TopicBidAccepted,
		domain.TopicAuctionStarted,
		domain.TopicPaymentLinkIssued,
		domain.TopicPaymentStatus,
	)
	if err != nil {
		return err
	}
	g.sub = sub

	go func() {
		for event := range sub.Events() {
			g.registry.Deliver(event)
		}
	}()
	return nil
}

func (g *Router) Stop() error {
	if g.sub != nil {
		return g.sub.Close()
	}
	return nil
}

// Pass-through calls. Results and rejection reasons are relayed unchanged.

func (g *Router) CreateAuction(ctx context.Context, description string, startingPrice float64, start, end time.Time) (int64, error) {
	return g.lifecycle.CreateAuction(ctx, description, startingPrice, start, end)
}

func (g *Router) ListAuctions(ctx context.Context) ([]domain.AuctionListing, error) {
	return g.lifecycle.ListAuctions(ctx)
}

func (g *Router) PlaceBid(ctx context.Context, auctionID int64, bidderID string, amount float64) (domain.BidOutcome, error) {
	return g.ledger.PlaceBid(ctx, auctionID, bidderID, amount)
}

func (g *Router) ReceiveCallback(ctx context.Context, transactionID, status string, auctionID int64, payerID string) error {
	return g.payments.ReceiveCallback(ctx, transactionID, status, auctionID, payerID)
}

// OpenSession registers a subscriber stream; CloseSession removes it and
// unblocks its pending read. CloseSession is idempotent.

func (g *Router) OpenSession(subscriberID string) *Session {
	return g.registry.Register(subscriberID)
}

func (g *Router) CloseSession(session *Session) {
	g.registry.Unregister(session)
}

// Sessions reports the number of live sessions.
func (g *Router) Sessions() int {
	return g.registry.Count()
}
