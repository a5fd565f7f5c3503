package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auctionhall/internal/bus"
	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

func newWSTestServer(t *testing.T) (*httptest.Server, *Router, *bus.MemoryBus) {
	t.Helper()
	b := bus.NewMemoryBus(logger.NewNop())
	router := NewRouter(&fakeLifecycle{}, &fakeLedger{}, &fakePayments{}, b, logger.NewNop())
	require.NoError(t, router.Start(context.Background()))
	t.Cleanup(func() { router.Stop() })

	e := echo.New()
	NewHandler(router, logger.NewNop()).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, router, b
}

func dialWS(t *testing.T, srv *httptest.Server, subscriberID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/auctions?subscriber_id=" + subscriberID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSubscribeStreamsBusEvents(t *testing.T) {
	srv, router, b := newWSTestServer(t)

	conn := dialWS(t, srv, "alice")
	require.Eventually(t, func() bool { return router.Sessions() == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), domain.AuctionStartedEvent(1, "Atari")))
	require.NoError(t, b.Publish(context.Background(), domain.BidAcceptedEvent(1, "x", 150)))

	var event domain.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, domain.TopicAuctionStarted, event.Topic)

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, domain.TopicBidAccepted, event.Topic)
	assert.Equal(t, 150.0, event.Float("amount"))
}

func TestSubscribeRequiresSubscriberID(t *testing.T) {
	srv, _, _ := newWSTestServer(t)

	resp, err := http.Get(srv.URL + "/ws/auctions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDisconnectRemovesSession(t *testing.T) {
	srv, router, b := newWSTestServer(t)

	conn := dialWS(t, srv, "alice")
	require.Eventually(t, func() bool { return router.Sessions() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return router.Sessions() == 0 },
		2*time.Second, 10*time.Millisecond)

	// Publishing after the disconnect must not block or fail.
	require.NoError(t, b.Publish(context.Background(), domain.AuctionStartedEvent(1, "Atari")))
}

func TestPaymentLinkUnicastOverWebsocket(t *testing.T) {
	srv, router, b := newWSTestServer(t)

	alice := dialWS(t, srv, "alice")
	bob := dialWS(t, srv, "bob")
	require.Eventually(t, func() bool { return router.Sessions() == 2 },
		2*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, b.Publish(ctx, domain.PaymentLinkIssuedEvent(1, "alice", "https://pay.example.dev/tx")))
	require.NoError(t, b.Publish(ctx, domain.PaymentStatusEvent(1, "alice", "tx", "approved")))

	var event domain.Event
	require.NoError(t, alice.ReadJSON(&event))
	assert.Equal(t, domain.TopicPaymentLinkIssued, event.Topic)

	// Bob never sees the link; his first event is the broadcast status.
	require.NoError(t, bob.ReadJSON(&event))
	assert.Equal(t, domain.TopicPaymentStatus, event.Topic)
}
