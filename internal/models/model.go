package models

import "time"

// BidStatus tracks a bid through its lifecycle. A bid is created WINNING,
// becomes OUTBID when a strictly higher accepted bid supersedes it, and is
// settled to WON or LOST when the auction closes.
type BidStatus string

const (
	BidWinning BidStatus = "WINNING"
	BidOutbid  BidStatus = "OUTBID"
	BidWon     BidStatus = "WON"
	BidLost    BidStatus = "LOST"
)

// Bidder represents a registered auction participant
type Bidder struct {
	BidderID string `json:"bidder_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Prize represents an auction prize. CurrentHighestBid caches the amount of
// the prize's WINNING bid, or MinimumBid while no bid exists; it is mutated
// only by the store's commit step.
type Prize struct {
	PrizeID           string `json:"prize_id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Active            bool   `json:"active"`
	MinimumBid        int64  `json:"minimum_bid"`
	CurrentHighestBid int64  `json:"current_highest_bid"`
}

// Bid represents a bidder's bid on a prize. Amounts are whole currency units.
type Bid struct {
	BidID     string    `json:"bid_id"`
	PrizeID   string    `json:"prize_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	Status    BidStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AuctionSettings is the single global record controlling whether bids are
// accepted. It is read-only input to the bidding path.
type AuctionSettings struct {
	IsOpen  bool      `json:"is_open"`
	EndTime time.Time `json:"end_time"`
}

// AuctionState is the tri-state outcome of an auction-open check. Unknown is
// collapsed to closed at every decision point: absence of confirmation of
// "open" is equivalent to "closed".
type AuctionState int

const (
	AuctionUnknown AuctionState = iota
	AuctionOpen
	AuctionClosed
)

// Open reports whether bidding is allowed. Only an explicit Open counts.
func (s AuctionState) Open() bool { return s == AuctionOpen }

// AuctionStats summarizes store contents for the status endpoint
type AuctionStats struct {
	Prizes  int `json:"prizes"`
	Bidders int `json:"bidders"`
	Bids    int `json:"bids"`
}

// AuctionStatusReport is the payload returned by GET /auction-status
type AuctionStatusReport struct {
	IsAuctionOpen  bool         `json:"is_auction_open"`
	AuctionEndTime time.Time    `json:"auction_end_time"`
	Stats          AuctionStats `json:"stats"`
}
