package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

// Stub simulates the external settlement party. RequestPayment answers
// synchronously with a transaction id and a payment link; a timer then fires
// the callback exactly once with the configured settlement status.
type Stub struct {
	delay    time.Duration
	status   string
	callback domain.PaymentCallbackReceiver
	log      logger.Logger
}

func NewStub(delay time.Duration, status string, log logger.Logger) *Stub {
	if status == "" {
		status = domain.SettlementApproved
	}
	return &Stub{
		delay:  delay,
		status: status,
		log:    log,
	}
}

// SetCallback breaks the construction cycle: the coordinator needs the bank,
// and the bank calls back into the coordinator.
func (s *Stub) SetCallback(callback domain.PaymentCallbackReceiver) {
	s.callback = callback
}

func (s *Stub) RequestPayment(ctx context.Context, amount float64, payerID string, auctionID int64) (domain.PaymentLink, error) {
	transactionID := uuid.NewString()
	link := fmt.Sprintf("https://pay.example.dev/%s", transactionID)

	s.log.Info("Payment requested", "amount", amount, "payer_id", payerID,
		"auction_id", auctionID, "transaction_id", transactionID)

	time.AfterFunc(s.delay, func() {
		if s.callback == nil {
			s.log.Error("No settlement callback configured", "transaction_id", transactionID)
			return
		}
		if err := s.callback.ReceiveCallback(context.Background(), transactionID, s.status, auctionID, payerID); err != nil {
			s.log.Error("Failed to deliver settlement callback",
				"transaction_id", transactionID, "error", err)
		}
	})

	return domain.PaymentLink{TransactionID: transactionID, Link: link}, nil
}
