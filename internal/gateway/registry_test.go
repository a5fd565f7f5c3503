package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auctionhall/internal/bus"
	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

func TestDeliverBroadcastsToAllSessions(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	a := r.Register("alice")
	b := r.Register("bob")

	r.Deliver(domain.AuctionStartedEvent(1, "Atari"))

	assert.Equal(t, domain.TopicAuctionStarted, (<-a.Events()).Topic)
	assert.Equal(t, domain.TopicAuctionStarted, (<-b.Events()).Topic)
}

func TestPaymentLinkIsUnicastToMatchingSubscriber(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	winner := r.Register("alice")
	other := r.Register("bob")
	secondDevice := r.Register("alice") // same subscriber, second stream

	r.Deliver(domain.PaymentLinkIssuedEvent(1, "alice", "https://pay.example.dev/tx"))

	assert.Equal(t, domain.TopicPaymentLinkIssued, (<-winner.Events()).Topic)
	assert.Equal(t, domain.TopicPaymentLinkIssued, (<-secondDevice.Events()).Topic)
	assert.Empty(t, other.Events())
}

func TestSessionsObserveDeliveryOrder(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	s := r.Register("alice")

	r.Deliver(domain.AuctionStartedEvent(1, "Atari"))
	r.Deliver(domain.BidAcceptedEvent(1, "x", 150))
	r.Deliver(domain.PaymentStatusEvent(1, "x", "tx", "approved"))

	assert.Equal(t, domain.TopicAuctionStarted, (<-s.Events()).Topic)
	assert.Equal(t, domain.TopicBidAccepted, (<-s.Events()).Topic)
	assert.Equal(t, domain.TopicPaymentStatus, (<-s.Events()).Topic)
}

func TestUnregisterRemovesSessionAndUnblocksReaders(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	s := r.Register("alice")
	require.Equal(t, 1, r.Count())

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Blocks until the session queue is closed.
		for range s.Events() {
		}
	}()

	r.Unregister(s)
	r.Unregister(s) // idempotent

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pending read was not unblocked by unregister")
	}
	assert.Equal(t, 0, r.Count())

	// Delivery after removal neither blocks nor panics.
	r.Deliver(domain.AuctionStartedEvent(1, "Atari"))
}

func TestRouterFansOutClientFacingTopicsOnly(t *testing.T) {
	b := bus.NewMemoryBus(logger.NewNop())
	router := NewRouter(nil, nil, nil, b, logger.NewNop())
	require.NoError(t, router.Start(context.Background()))
	t.Cleanup(func() { router.Stop() })

	s := router.OpenSession("alice")
	t.Cleanup(func() { router.CloseSession(s) })

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, domain.AuctionClosedEvent(1)))
	require.NoError(t, b.Publish(ctx, domain.AuctionWonEvent(1, "alice", 150)))
	require.NoError(t, b.Publish(ctx, domain.PaymentStatusEvent(1, "alice", "tx", "approved")))

	// auction-closed and auction-won stay internal; the first thing a
	// session sees is the payment status.
	select {
	case event := <-s.Events():
		assert.Equal(t, domain.TopicPaymentStatus, event.Topic)
	case <-time.After(2 * time.Second):
		t.Fatal("payment-status never reached the session")
	}
	assert.Empty(t, s.Events())
}
