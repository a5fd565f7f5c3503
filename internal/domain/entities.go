package domain

import (
	"time"
)

type Auction struct {
	ID            int64
	Description   string
	StartingPrice float64
	CurrentPrice  float64
	StartTime     time.Time
	EndTime       time.Time
	Status        AuctionStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type AuctionStatus int

const (
	AuctionScheduled AuctionStatus = iota
	AuctionActive
	AuctionClosed
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionScheduled:
		return "scheduled"
	case AuctionActive:
		return "active"
	case AuctionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AuctionListing is the read model returned to clients: live price, no timers.
type AuctionListing struct {
	ID           int64   `json:"id"`
	Description  string  `json:"description"`
	CurrentPrice float64 `json:"current_price"`
	Status       string  `json:"status"`
}

// BidRecord is the per-auction highest bid. An empty HighestBidder means no
// bid was accepted yet; the first bid is validated against a zero value.
type BidRecord struct {
	AuctionID     int64
	HighestBidder string
	HighestValue  float64
}

type BidOutcome struct {
	Accepted bool
	Reason   RejectReason
	Message  string
}

// RejectReason distinguishes business-rule rejections. They are relayed to the
// caller as outcomes, never as transport errors.
type RejectReason string

const (
	RejectNotActive RejectReason = "not-active"
	RejectTooLow    RejectReason = "too-low"
)

func Accepted(msg string) BidOutcome {
	return BidOutcome{Accepted: true, Message: msg}
}

func Rejected(reason RejectReason, msg string) BidOutcome {
	return BidOutcome{Reason: reason, Message: msg}
}

type PaymentCase struct {
	TransactionID string
	AuctionID     int64
	PayerID       string
	Amount        float64
	Link          string
	Status        PaymentStatus
	UpdatedAt     time.Time
}

type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentLinkIssued
	PaymentSettled
	PaymentFailed
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "pending"
	case PaymentLinkIssued:
		return "link_issued"
	case PaymentSettled:
		return "settled"
	case PaymentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PaymentLink is the bank's synchronous answer to a payment request.
type PaymentLink struct {
	TransactionID string `json:"transaction_id"`
	Link          string `json:"payment_link"`
}

// SettlementApproved is the callback status the bank sends on success;
// anything else fails the case.
const SettlementApproved = "approved"
