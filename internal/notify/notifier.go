// Package notify delivers outbid notifications. Delivery is best-effort:
// the bidding path never blocks on it and never fails because of it.
package notify

import (
	"context"
	"time"

	"silent-auction/utils"
)

// OutbidEvent describes a bid that was just superseded
type OutbidEvent struct {
	BidID      string    `json:"bid_id"`
	PrizeID    string    `json:"prize_id"`
	PrizeName  string    `json:"prize_name"`
	BidderID   string    `json:"bidder_id"`
	OldAmount  int64     `json:"old_amount"`
	NewAmount  int64     `json:"new_amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier sends an outbid notification to the superseded bidder
type Notifier interface {
	NotifyOutbid(ctx context.Context, event OutbidEvent) error
}

// LogNotifier records outbid events in the log only. It is the default when
// no broker is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyOutbid(_ context.Context, event OutbidEvent) error {
	utils.Info("outbid notification", map[string]any{
		"prize_id":   event.PrizeID,
		"bidder_id":  event.BidderID,
		"old_amount": event.OldAmount,
		"new_amount": event.NewAmount,
	})
	return nil
}
