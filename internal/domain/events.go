package domain

type Topic string

const (
	TopicBidAccepted       Topic = "bid-accepted"
	TopicAuctionStarted    Topic = "auction-started"
	TopicAuctionClosed     Topic = "auction-closed"
	TopicAuctionWon        Topic = "auction-won"
	TopicPaymentLinkIssued Topic = "payment-link-issued"
	TopicPaymentStatus     Topic = "payment-status"
)

// Event is the immutable envelope carried on the bus. SubjectID is set only
// for unicast topics (payment-link-issued targets the winning bidder).
type Event struct {
	Topic     Topic                  `json:"topic"`
	AuctionID int64                  `json:"auction_id"`
	SubjectID string                 `json:"subject_id,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

func BidAcceptedEvent(auctionID int64, bidderID string, amount float64) Event {
	return Event{
		Topic:     TopicBidAccepted,
		AuctionID: auctionID,
		SubjectID: bidderID,
		Payload: map[string]interface{}{
			"bidder_id": bidderID,
			"amount":    amount,
		},
	}
}

func AuctionStartedEvent(auctionID int64, description string) Event {
	return Event{
		Topic:     TopicAuctionStarted,
		AuctionID: auctionID,
		Payload: map[string]interface{}{
			"description": description,
			"status":      AuctionActive.String(),
		},
	}
}

// AuctionClosedEvent carries the auction id only; the ledger owns the winner.
func AuctionClosedEvent(auctionID int64) Event {
	return Event{Topic: TopicAuctionClosed, AuctionID: auctionID}
}

func AuctionWonEvent(auctionID int64, winnerID string, amount float64) Event {
	return Event{
		Topic:     TopicAuctionWon,
		AuctionID: auctionID,
		SubjectID: winnerID,
		Payload: map[string]interface{}{
			"winner_id": winnerID,
			"amount":    amount,
		},
	}
}

func PaymentLinkIssuedEvent(auctionID int64, payerID, link string) Event {
	return Event{
		Topic:     TopicPaymentLinkIssued,
		AuctionID: auctionID,
		SubjectID: payerID,
		Payload: map[string]interface{}{
			"link":    link,
			"message": "payment pending",
		},
	}
}

func PaymentStatusEvent(auctionID int64, payerID, transactionID, status string) Event {
	return Event{
		Topic:     TopicPaymentStatus,
		AuctionID: auctionID,
		Payload: map[string]interface{}{
			"payer_id":       payerID,
			"transaction_id": transactionID,
			"status":         status,
		},
	}
}

// Float reads a numeric payload field. JSON decoding turns numbers into
// float64, so both in-memory and redis-delivered events land here.
func (e Event) Float(key string) float64 {
	switch v := e.Payload[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (e Event) Str(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}
