package gateway

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"auctionhall/internal/bank"
	"auctionhall/internal/domain"
	"auctionhall/pkg/logger"
)

type Handler struct {
	router *Router
	log    logger.Logger
}

func NewHandler(router *Router, log logger.Logger) *Handler {
	return &Handler{router: router, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/auctions", h.CreateAuction)
	api.GET("/auctions", h.ListAuctions)
	api.POST("/auctions/:id/bids", h.PlaceBid)
	api.POST("/payments/callback", h.PaymentCallback)

	e.GET("/ws/auctions", h.Subscribe)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "auctionhall",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
}

type CreateAuctionRequest struct {
	Description   string  `json:"description"`
	StartingPrice float64 `json:"starting_price"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
}

type CreateAuctionResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func (h *Handler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed start_time"})
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed end_time"})
	}

	id, err := h.router.CreateAuction(c.Request().Context(), req.Description, req.StartingPrice, start, end)
	if err != nil {
		if domain.IsCode(err, domain.CodeInvalidArgument) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.log.Error("Failed to create auction", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create auction"})
	}

	return c.JSON(http.StatusCreated, CreateAuctionResponse{ID: id, Message: "auction created"})
}

func (h *Handler) ListAuctions(c echo.Context) error {
	listings, err := h.router.ListAuctions(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to list auctions", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list auctions"})
	}
	return c.JSON(http.StatusOK, listings)
}

type PlaceBidRequest struct {
	BidderID string  `json:"bidder_id"`
	Amount   float64 `json:"amount"`
}

// PlaceBidResponse relays the ledger outcome. A rejected bid is a normal 200
// with status "error" and the reason in the message, never an HTTP fault.
type PlaceBidResponse struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

func (h *Handler) PlaceBid(c echo.Context) error {
	var auctionID int64
	if err := echo.PathParamsBinder(c).Int64("id", &auctionID).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid auction id"})
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.BidderID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bidder_id required"})
	}

	outcome, err := h.router.PlaceBid(c.Request().Context(), auctionID, req.BidderID, req.Amount)
	if err != nil {
		h.log.Error("Failed to place bid", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to place bid"})
	}

	if !outcome.Accepted {
		return c.JSON(http.StatusOK, PlaceBidResponse{
			Status:  "error",
			Reason:  string(outcome.Reason),
			Message: outcome.Message,
		})
	}
	return c.JSON(http.StatusOK, PlaceBidResponse{Status: "success", Message: outcome.Message})
}

func (h *Handler) PaymentCallback(c echo.Context) error {
	var req bank.CallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.router.ReceiveCallback(c.Request().Context(), req.TransactionID, req.Status, req.AuctionID, req.PayerID); err != nil {
		h.log.Error("Failed to process settlement callback",
			"transaction_id", req.TransactionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to process callback"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}
