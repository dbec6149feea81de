package helpers

import (
	"time"

	model "silent-auction/internal/models"
)

// Request/Response DTOs
type SubmitBidRequest struct {
	PrizeID string `json:"prize_id" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
}

type CreateSessionRequest struct {
	BidderID string `json:"bidder_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	PrizeID   string `json:"prize_id"`
	BidderID  string `json:"bidder_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// NewBidResponse converts a bid model into its wire shape
func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		PrizeID:   b.PrizeID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewBidResponses converts a slice of bids, returning an empty (non-nil)
// slice for empty input so listings marshal as [].
func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}
