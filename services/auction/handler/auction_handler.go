package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	model "silent-auction/internal/models"
	"silent-auction/services/auction/helpers"
	"silent-auction/utils"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_service.go -package=handler

type LedgerServiceInterface interface {
	Submit(ctx context.Context, prizeID, bidderID string, amount int64) (model.Bid, error)
	ListBids(ctx context.Context, prizeID, bidderID string) ([]model.Bid, error)
	ListPrizes(ctx context.Context) ([]model.Prize, error)
	Status(ctx context.Context) (model.AuctionStatusReport, error)
	Close(ctx context.Context) ([]model.Bid, error)
}

type AuctionHandler struct {
	service LedgerServiceInterface
}

func NewAuctionHandler(service LedgerServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// SubmitBidHandler handles POST /bids
func (h *AuctionHandler) SubmitBidHandler(c *gin.Context) {
	bidderID := c.GetString("bidder_id")
	if bidderID == "" {
		utils.JSONError(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req helpers.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SubmitBidHandler", err)
		return
	}

	bid, err := h.service.Submit(c.Request.Context(), req.PrizeID, bidderID, req.Amount)
	if err != nil {
		status, message, extra := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message, extra)
		utils.Warn("SubmitBidHandler: bid rejected", map[string]any{
			"prize_id":  req.PrizeID,
			"bidder_id": bidderID,
			"amount":    req.Amount,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{"bid": helpers.NewBidResponse(bid)})
	helpers.LogSuccess("SubmitBidHandler", "bid accepted", map[string]any{
		"bid_id":    bid.BidID,
		"prize_id":  bid.PrizeID,
		"bidder_id": bid.BidderID,
		"amount":    bid.Amount,
	})
}

// ListBidsHandler handles GET /bids?prizeId=&bidderId=
func (h *AuctionHandler) ListBidsHandler(c *gin.Context) {
	prizeID := c.Query("prizeId")
	bidderID := c.Query("bidderId")

	bids, err := h.service.ListBids(c.Request.Context(), prizeID, bidderID)
	if err != nil {
		status, message, extra := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message, extra)
		utils.Warn("ListBidsHandler: error retrieving bids", map[string]any{
			"prize_id":  prizeID,
			"bidder_id": bidderID,
			"error":     err.Error(),
		})
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{"bids": helpers.NewBidResponses(bids)})
}

// AuctionStatusHandler handles GET /auction-status. When the status cannot be
// determined the endpoint still reports the auction closed, with 503.
func (h *AuctionHandler) AuctionStatusHandler(c *gin.Context) {
	report, err := h.service.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"is_auction_open": false,
			"error":           "auction status unavailable",
		})
		utils.Error("AuctionStatusHandler: status unavailable", map[string]any{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListPrizesHandler handles GET /prizes
func (h *AuctionHandler) ListPrizesHandler(c *gin.Context) {
	prizes, err := h.service.ListPrizes(c.Request.Context())
	if err != nil {
		status, message, extra := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message, extra)
		utils.Warn("ListPrizesHandler: error retrieving prizes", map[string]any{"error": err.Error()})
		return
	}
	if prizes == nil {
		prizes = []model.Prize{}
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"prizes": prizes})
}

// CloseAuctionHandler handles POST /auction/close
func (h *AuctionHandler) CloseAuctionHandler(c *gin.Context) {
	winners, err := h.service.Close(c.Request.Context())
	if err != nil {
		status, message, extra := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message, extra)
		utils.Error("CloseAuctionHandler: close failed", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{"winners": helpers.NewBidResponses(winners)})
	helpers.LogSuccess("CloseAuctionHandler", "auction closed", map[string]any{"winners": len(winners)})
}
