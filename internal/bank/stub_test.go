package bank

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

type callbackRecorder struct {
	mu    sync.Mutex
	calls []CallbackRequest
}

func (r *callbackRecorder) ReceiveCallback(_ context.Context, transactionID, status string, auctionID int64, payerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, CallbackRequest{
		TransactionID: transactionID,
		Status:        status,
		AuctionID:     auctionID,
		PayerID:       payerID,
	})
	return nil
}

func (r *callbackRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestStubAnswersSynchronously(t *testing.T) {
	recorder := &callbackRecorder{}
	stub := NewStub(10*time.Millisecond, domain.SettlementApproved, logger.NewNop())
	stub.SetCallback(recorder)

	link, err := stub.RequestPayment(context.Background(), 150, "alice", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, link.TransactionID)
	assert.True(t, strings.HasSuffix(link.Link, link.TransactionID))
}

func TestStubCallsBackExactlyOnce(t *testing.T) {
	recorder := &callbackRecorder{}
	stub := NewStub(10*time.Millisecond, domain.SettlementApproved, logger.NewNop())
	stub.SetCallback(recorder)

	link, err := stub.RequestPayment(context.Background(), 150, "alice", 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return recorder.count() == 1 },
		2*time.Second, 5*time.Millisecond)

	// Grace period: still exactly one.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, recorder.count())

	recorder.mu.Lock()
	call := recorder.calls[0]
	recorder.mu.Unlock()
	assert.Equal(t, link.TransactionID, call.TransactionID)
	assert.Equal(t, domain.SettlementApproved, call.Status)
	assert.Equal(t, int64(1), call.AuctionID)
	assert.Equal(t, "alice", call.PayerID)
}

func TestStubDistinctTransactionsPerRequest(t *testing.T) {
	stub := NewStub(time.Hour, domain.SettlementApproved, logger.NewNop())
	stub.SetCallback(&callbackRecorder{})

	first, err := stub.RequestPayment(context.Background(), 100, "a", 1)
	require.NoError(t, err)
	second, err := stub.RequestPayment(context.Background(), 100, "a", 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.TransactionID, second.TransactionID)
}

func TestStubDefaultsToApprovedStatus(t *testing.T) {
	recorder := &callbackRecorder{}
	stub := NewStub(time.Millisecond, "", logger.NewNop())
	stub.SetCallback(recorder)

	_, err := stub.RequestPayment(context.Background(), 100, "a", 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return recorder.count() == 1 },
		2*time.Second, 5*time.Millisecond)
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, domain.SettlementApproved, recorder.calls[0].Status)
}
