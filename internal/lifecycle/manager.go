package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

// Manager owns the auction catalog and drives scheduled→active→closed
// transitions on a wall-clock tick. It is the only writer of auction status;
// bid-accepted events only refresh the displayed price.
type Manager struct {
	mu       sync.Mutex
	auctions map[int64]*domain.Auction
	nextID   int64

	bus  domain.EventBus
	tick time.Duration
	cron *cron.Cron
	sub  domain.Subscription
	log  logger.Logger
	now  func() time.Time
}

func NewManager(bus domain.EventBus, tick time.Duration, log logger.Logger) *Manager {
	return &Manager{
		auctions: make(map[int64]*domain.Auction),
		bus:      bus,
		tick:     tick,
		log:      log,
		now:      time.Now,
	}
}

func (m *Manager) CreateAuction(ctx context.Context, description string, startingPrice float64, start, end time.Time) (int64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, domain.E(domain.CodeInvalidArgument, "start and end times are required")
	}
	if !end.After(start) {
		return 0, domain.E(domain.CodeInvalidArgument, "end time must be after start time")
	}
	if startingPrice < 0 {
		return 0, domain.E(domain.CodeInvalidArgument, "starting price must not be negative")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	auction := &domain.Auction{
		ID:            m.nextID,
		Description:   description,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		StartTime:     start,
		EndTime:       end,
		Status:        domain.AuctionScheduled,
		CreatedAt:     m.now(),
		UpdatedAt:     m.now(),
	}
	m.auctions[auction.ID] = auction

	m.log.Info("Auction created", "auction_id", auction.ID, "description", description)
	return auction.ID, nil
}

// ListAuctions returns scheduled and active auctions ordered by id, each
// carrying the live current price.
func (m *Manager) ListAuctions(ctx context.Context) ([]domain.AuctionListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listings := make([]domain.AuctionListing, 0, len(m.auctions))
	for _, a := range m.auctions {
		if a.Status != domain.AuctionScheduled && a.Status != domain.AuctionActive {
			continue
		}
		listings = append(listings, domain.AuctionListing{
			ID:           a.ID,
			Description:  a.Description,
			CurrentPrice: a.CurrentPrice,
			Status:       a.Status.String(),
		})
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].ID < listings[j].ID })
	return listings, nil
}

// Start launches the periodic scan and the bid-accepted consumer. Both run
// until Stop.
func (m *Manager) Start(ctx context.Context) error {
	sub, err := m.bus.Subscribe(domain.TopicBidAccepted)
	if err != nil {
		return err
	}
	m.sub = sub
	go m.consume(sub)

	m.cron = cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cronLogger{m.log})),
	)
	if _, err := m.cron.AddFunc(fmt.Sprintf("@every %s", m.tick), func() {
		m.scanOnce(ctx)
	}); err != nil {
		return err
	}
	m.cron.Start()

	m.log.Info("Lifecycle manager started", "tick", m.tick.String())
	return nil
}

func (m *Manager) Stop() error {
	if m.cron != nil {
		m.cron.Stop()
	}
	if m.sub != nil {
		return m.sub.Close()
	}
	return nil
}

// scanOnce walks the whole catalog and flips due auctions. Transitions are
// applied under the lock; publishes happen after, per auction, so one failing
// publish cannot skip the remaining auctions on this tick.
func (m *Manager) scanOnce(ctx context.Context) {
	now := m.now()
	var due []domain.Event

	m.mu.Lock()
	for _, a := range m.auctions {
		if a.Status == domain.AuctionScheduled && !now.Before(a.StartTime) {
			a.Status = domain.AuctionActive
			a.UpdatedAt = now
			due = append(due, domain.AuctionStartedEvent(a.ID, a.Description))
			m.log.Info("Auction started", "auction_id", a.ID)
		}
		if a.Status == domain.AuctionActive && !now.Before(a.EndTime) {
			a.Status = domain.AuctionClosed
			a.UpdatedAt = now
			due = append(due, domain.AuctionClosedEvent(a.ID))
			m.log.Info("Auction closed", "auction_id", a.ID)
		}
	}
	m.mu.Unlock()

	for _, event := range due {
		if err := m.bus.Publish(ctx, event); err != nil {
			m.log.Error("Failed to publish lifecycle event",
				"topic", event.Topic, "auction_id", event.AuctionID, "error", err)
		}
	}
}

func (m *Manager) consume(sub domain.Subscription) {
	for event := range sub.Events() {
		if err := m.handleEvent(event); err != nil {
			m.log.Error("Failed to handle event",
				"topic", event.Topic, "auction_id", event.AuctionID, "error", err)
		}
	}
}

// handleEvent refreshes the displayed price from accepted bids. Winner
// determination is the ledger's job, not ours.
func (m *Manager) handleEvent(event domain.Event) error {
	if event.Topic != domain.TopicBidAccepted {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.auctions[event.AuctionID]
	if !ok {
		return domain.Ef(domain.CodeNotFound, "auction %d not in catalog", event.AuctionID)
	}
	a.CurrentPrice = event.Float("amount")
	a.UpdatedAt = m.now()
	return nil
}

// cronLogger adapts our logger to the cron library's interface so panics in
// a scan are recovered and logged instead of killing the ticker.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
