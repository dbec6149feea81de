// Package ledger implements bid acceptance: the validation sequence, the
// atomic commit that keeps exactly one WINNING bid per prize, and the
// best-effort outbid notification after a successful commit.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"silent-auction/internal/auctionerrors"
	"silent-auction/internal/models"
	"silent-auction/internal/notify"
	"silent-auction/internal/repository"
	"silent-auction/utils"
)

// DefaultIncrement is the minimum raise over the current highest bid when no
// increment is configured.
const DefaultIncrement = 100

// LedgerService decides whether a submitted bid is accepted and commits it
type LedgerService struct {
	store     repository.AuctionStore
	notifier  notify.Notifier
	increment int64
}

// NewLedgerService creates a LedgerService. A non-positive increment falls
// back to DefaultIncrement.
func NewLedgerService(store repository.AuctionStore, notifier notify.Notifier, increment int64) *LedgerService {
	if increment <= 0 {
		increment = DefaultIncrement
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &LedgerService{store: store, notifier: notifier, increment: increment}
}

// Increment returns the configured minimum raise
func (s *LedgerService) Increment() int64 { return s.increment }

// Submit validates a bid in order (prize, auction open, amount, bidder) and
// commits it. Every validation failure is terminal and mutates nothing. The
// commit itself re-checks the minimum under per-prize serialization, so a
// submission that loses a race on the same prize comes back as ErrBidTooLow
// with a fresh minimum rather than being accepted.
func (s *LedgerService) Submit(ctx context.Context, prizeID, bidderID string, amount int64) (models.Bid, error) {
	if prizeID == "" || bidderID == "" {
		return models.Bid{}, fmt.Errorf("ledger: %w - missing prizeID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return models.Bid{}, fmt.Errorf("ledger: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	prize, err := s.store.GetPrize(ctx, prizeID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("ledger: %w", err)
	}
	if !prize.Active {
		return models.Bid{}, fmt.Errorf("ledger: prize %s: %w", prizeID, auctionerrors.ErrPrizeInactive)
	}

	if !s.auctionState(ctx).Open() {
		return models.Bid{}, fmt.Errorf("ledger: %w", auctionerrors.ErrAuctionClosed)
	}

	hasWinning := true
	if _, err := s.store.GetWinningBid(ctx, prizeID); err != nil {
		if !errors.Is(err, auctionerrors.ErrNoBids) {
			return models.Bid{}, fmt.Errorf("ledger: failed to check winning bid: %w", err)
		}
		hasWinning = false
	}
	min := models.MinimumNextBid(prize, hasWinning, s.increment)
	if amount < min || !models.OnIncrementGrid(prize, amount, s.increment) {
		return models.Bid{}, &auctionerrors.BidTooLowError{Minimum: min}
	}

	if _, err := s.store.GetBidder(ctx, bidderID); err != nil {
		return models.Bid{}, fmt.Errorf("ledger: %w", err)
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		PrizeID:   prizeID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    models.BidWinning,
		CreatedAt: time.Now().UTC(),
	}

	prev, err := s.store.CommitBid(ctx, bid, s.increment)
	if err != nil {
		var tooLow *auctionerrors.BidTooLowError
		if errors.As(err, &tooLow) {
			return models.Bid{}, err
		}
		return models.Bid{}, fmt.Errorf("ledger: failed to commit bid for prize %s by bidder %s: %w", prizeID, bidderID, err)
	}

	if prev != nil {
		s.notifyOutbid(*prev, prize, amount)
	}

	return bid, nil
}

// auctionState collapses the settings lookup to a tri-state. Any failure to
// confirm the auction is open counts as closed: the system must never accept
// a bid it cannot verify is allowed.
func (s *LedgerService) auctionState(ctx context.Context) models.AuctionState {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		utils.Warn("ledger: settings unreachable, treating auction as closed", map[string]any{
			"error": err.Error(),
		})
		return models.AuctionUnknown
	}
	if !settings.IsOpen {
		return models.AuctionClosed
	}
	if !settings.EndTime.IsZero() && !time.Now().UTC().Before(settings.EndTime) {
		return models.AuctionClosed
	}
	return models.AuctionOpen
}

// notifyOutbid hands the superseded bid to the notifier on a separate
// goroutine. A winning bid is never rolled back because a notification
// failed, so errors are logged and dropped.
func (s *LedgerService) notifyOutbid(prev models.Bid, prize models.Prize, newAmount int64) {
	event := notify.OutbidEvent{
		BidID:      prev.BidID,
		PrizeID:    prize.PrizeID,
		PrizeName:  prize.Name,
		BidderID:   prev.BidderID,
		OldAmount:  prev.Amount,
		NewAmount:  newAmount,
		OccurredAt: time.Now().UTC(),
	}
	go func() {
		// Detached from the request context: the HTTP response does not wait
		// for delivery.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyOutbid(ctx, event); err != nil {
			utils.Error("ledger: outbid notification failed", map[string]any{
				"prize_id":  event.PrizeID,
				"bidder_id": event.BidderID,
				"error":     err.Error(),
			})
		}
	}()
}

// ListBids returns bids filtered by prize and/or bidder, most recent first,
// capped at repository.MaxListLimit.
func (s *LedgerService) ListBids(ctx context.Context, prizeID, bidderID string) ([]models.Bid, error) {
	bids, err := s.store.ListBids(ctx, repository.BidFilter{PrizeID: prizeID, BidderID: bidderID})
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to list bids: %w", err)
	}
	return bids, nil
}

// ListPrizes returns all prizes
func (s *LedgerService) ListPrizes(ctx context.Context) ([]models.Prize, error) {
	prizes, err := s.store.ListPrizes(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to list prizes: %w", err)
	}
	return prizes, nil
}

// Status reports whether the auction is open along with store statistics.
// When the answer cannot be determined it reports closed and returns
// ErrStoreUnavailable so the transport can answer 503.
func (s *LedgerService) Status(ctx context.Context) (models.AuctionStatusReport, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return models.AuctionStatusReport{IsAuctionOpen: false},
			fmt.Errorf("ledger: status unavailable: %v: %w", err, auctionerrors.ErrStoreUnavailable)
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return models.AuctionStatusReport{IsAuctionOpen: false},
			fmt.Errorf("ledger: status unavailable: %v: %w", err, auctionerrors.ErrStoreUnavailable)
	}

	open := settings.IsOpen
	if open && !settings.EndTime.IsZero() && !time.Now().UTC().Before(settings.EndTime) {
		open = false
	}
	return models.AuctionStatusReport{
		IsAuctionOpen:  open,
		AuctionEndTime: settings.EndTime,
		Stats:          stats,
	}, nil
}

// Close settles the auction: WINNING bids become WON, OUTBID become LOST.
// Returns the winners.
func (s *LedgerService) Close(ctx context.Context) ([]models.Bid, error) {
	winners, err := s.store.CloseAuction(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to close auction: %w", err)
	}
	utils.Info("auction closed", map[string]any{"winners": len(winners)})
	return winners, nil
}
