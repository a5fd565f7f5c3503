package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

// Wire types for the bank HTTP boundary, shared by the client here and the
// standalone bankstub server.
type PaymentRequest struct {
	Amount    float64 `json:"amount"`
	PayerID   string  `json:"payer_id"`
	AuctionID int64   `json:"auction_id"`
}

type CallbackRequest struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	AuctionID     int64  `json:"auction_id"`
	PayerID       string `json:"payer_id"`
}

// HTTPClient talks to a remotely running bank stub. Deliberately no request
// timeout: an unreachable bank surfaces as Unavailable, a slow one stalls the
// saga consumer.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{},
		log:     log,
	}
}

func (c *HTTPClient) RequestPayment(ctx context.Context, amount float64, payerID string, auctionID int64) (domain.PaymentLink, error) {
	body, err := json.Marshal(PaymentRequest{Amount: amount, PayerID: payerID, AuctionID: auctionID})
	if err != nil {
		return domain.PaymentLink{}, domain.Wrap(domain.CodeInternal, "marshal payment request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return domain.PaymentLink{}, domain.Wrap(domain.CodeInternal, "build payment request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PaymentLink{}, domain.Wrap(domain.CodeUnavailable, "bank unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.PaymentLink{}, domain.Ef(domain.CodeUnavailable, "bank returned %d", resp.StatusCode)
	}

	var link domain.PaymentLink
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return domain.PaymentLink{}, domain.Wrap(domain.CodeInternal, "decode payment link", err)
	}
	return link, nil
}

// CallbackPoster delivers settlement callbacks over HTTP. Used by the
// standalone bankstub to reach the core's callback endpoint.
type CallbackPoster struct {
	url    string
	client *http.Client
	log    logger.Logger
}

func NewCallbackPoster(url string, log logger.Logger) *CallbackPoster {
	return &CallbackPoster{
		url:    url,
		client: &http.Client{},
		log:    log,
	}
}

func (p *CallbackPoster) ReceiveCallback(ctx context.Context, transactionID, status string, auctionID int64, payerID string) error {
	body, err := json.Marshal(CallbackRequest{
		TransactionID: transactionID,
		Status:        status,
		AuctionID:     auctionID,
		PayerID:       payerID,
	})
	if err != nil {
		return domain.Wrap(domain.CodeInternal, "marshal callback", err)
	}

	resp, err := p.client.Post(p.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return domain.Wrap(domain.CodeUnavailable, "callback target unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Ef(domain.CodeUnavailable, "callback target returned %d", resp.StatusCode)
	}
	return nil
}
