package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"silent-auction/internal/auctionerrors"
	model "silent-auction/internal/models"
)

func newTestStore() *MemoryStore {
	store := NewMemoryStore()
	store.AddPrize(model.Prize{PrizeID: "prize1", Name: "Staycation", Active: true, MinimumBid: 1000})
	store.AddPrize(model.Prize{PrizeID: "prize2", Name: "Dinner", Active: true, MinimumBid: 800})
	store.AddBidder(model.Bidder{BidderID: "bidder1", Name: "Alex", Email: "alex@example.com"})
	store.AddBidder(model.Bidder{BidderID: "bidder2", Name: "Sam", Email: "sam@example.com"})
	store.UpdateSettings(model.AuctionSettings{IsOpen: true, EndTime: time.Now().UTC().Add(time.Hour)})
	return store
}

func testBid(prizeID, bidderID string, amount int64) model.Bid {
	return model.Bid{
		BidID:     fmt.Sprintf("bid-%s-%d", bidderID, amount),
		PrizeID:   prizeID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// countWinning returns how many bids for the prize are WINNING and the
// WINNING amount (0 when none).
func countWinning(t *testing.T, store *MemoryStore, prizeID string) (int, int64) {
	t.Helper()
	bids, err := store.ListBids(context.Background(), BidFilter{PrizeID: prizeID})
	require.NoError(t, err)
	count := 0
	var amount int64
	for _, b := range bids {
		if b.Status == model.BidWinning {
			count++
			amount = b.Amount
		}
	}
	return count, amount
}

// The HK$1,000 floor / HK$100 step walk-through
func TestMemoryStore_CommitBid_FloorAndIncrement(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	// Off-grid amount over the floor is rejected with the floor as minimum
	_, err := store.CommitBid(ctx, testBid("prize1", "bidder1", 1050), 100)
	var tooLow *auctionerrors.BidTooLowError
	require.ErrorAs(t, err, &tooLow)
	require.Equal(t, int64(1000), tooLow.Minimum)

	// The floor itself is acceptable as the first bid
	prev, err := store.CommitBid(ctx, testBid("prize1", "bidder1", 1000), 100)
	require.NoError(t, err)
	require.Nil(t, prev, "first bid supersedes nothing")

	prize, err := store.GetPrize(ctx, "prize1")
	require.NoError(t, err)
	require.Equal(t, int64(1000), prize.CurrentHighestBid)

	// Anything under floor+increment is now too low
	_, err = store.CommitBid(ctx, testBid("prize1", "bidder2", 1050), 100)
	require.ErrorAs(t, err, &tooLow)
	require.Equal(t, int64(1100), tooLow.Minimum)

	// A clean raise supersedes the previous winner
	prev, err = store.CommitBid(ctx, testBid("prize1", "bidder2", 1100), 100)
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.Equal(t, "bidder1", prev.BidderID)
	require.Equal(t, model.BidOutbid, prev.Status)

	winning, err := store.GetWinningBid(ctx, "prize1")
	require.NoError(t, err)
	require.Equal(t, int64(1100), winning.Amount)
	require.Equal(t, "bidder2", winning.BidderID)

	count, amount := countWinning(t, store, "prize1")
	require.Equal(t, 1, count)
	require.Equal(t, int64(1100), amount)
}

func TestMemoryStore_CommitBid_RejectionMutatesNothing(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.CommitBid(ctx, testBid("prize1", "bidder1", 1000), 100)
	require.NoError(t, err)

	before, err := store.GetPrize(ctx, "prize1")
	require.NoError(t, err)
	bidsBefore, err := store.ListBids(ctx, BidFilter{PrizeID: "prize1"})
	require.NoError(t, err)

	_, err = store.CommitBid(ctx, testBid("prize1", "bidder2", 1050), 100)
	require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)

	after, err := store.GetPrize(ctx, "prize1")
	require.NoError(t, err)
	bidsAfter, err := store.ListBids(ctx, BidFilter{PrizeID: "prize1"})
	require.NoError(t, err)

	require.Equal(t, before, after)
	require.Equal(t, bidsBefore, bidsAfter)
}

func TestMemoryStore_CommitBid_UnknownPrize(t *testing.T) {
	store := newTestStore()
	_, err := store.CommitBid(context.Background(), testBid("nope", "bidder1", 1000), 100)
	require.ErrorIs(t, err, auctionerrors.ErrPrizeNotFound)
}

func TestMemoryStore_GetWinningBid_NoBids(t *testing.T) {
	store := newTestStore()
	_, err := store.GetWinningBid(context.Background(), "prize1")
	require.ErrorIs(t, err, auctionerrors.ErrNoBids)
}

func TestMemoryStore_PrizesAreIndependent(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.CommitBid(ctx, testBid("prize1", "bidder1", 1500), 100)
	require.NoError(t, err)

	// prize2 still accepts its own floor, unaffected by prize1's state
	_, err = store.CommitBid(ctx, testBid("prize2", "bidder2", 800), 100)
	require.NoError(t, err)

	p1, _ := store.GetPrize(ctx, "prize1")
	p2, _ := store.GetPrize(ctx, "prize2")
	require.Equal(t, int64(1500), p1.CurrentHighestBid)
	require.Equal(t, int64(800), p2.CurrentHighestBid)
}

func TestMemoryStore_ListBids(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	// Alternate bidders raising on prize1, a single bid on prize2
	amounts := []int64{1000, 1100, 1200, 1300}
	for i, amount := range amounts {
		bidder := "bidder1"
		if i%2 == 1 {
			bidder = "bidder2"
		}
		_, err := store.CommitBid(ctx, testBid("prize1", bidder, amount), 100)
		require.NoError(t, err)
	}
	_, err := store.CommitBid(ctx, testBid("prize2", "bidder1", 800), 100)
	require.NoError(t, err)

	all, err := store.ListBids(ctx, BidFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	// Most recent first
	require.Equal(t, int64(800), all[0].Amount)
	require.Equal(t, int64(1300), all[1].Amount)

	byPrize, err := store.ListBids(ctx, BidFilter{PrizeID: "prize1"})
	require.NoError(t, err)
	require.Len(t, byPrize, 4)

	byBidder, err := store.ListBids(ctx, BidFilter{PrizeID: "prize1", BidderID: "bidder2"})
	require.NoError(t, err)
	require.Len(t, byBidder, 2)
	for _, b := range byBidder {
		require.Equal(t, "bidder2", b.BidderID)
	}
}

func TestMemoryStore_ListBids_Cap(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	for i := 0; i < MaxListLimit+10; i++ {
		amount := 1000 + int64(i)*100
		_, err := store.CommitBid(ctx, testBid("prize1", "bidder1", amount), 100)
		require.NoError(t, err)
	}

	bids, err := store.ListBids(ctx, BidFilter{PrizeID: "prize1", Limit: 1000})
	require.NoError(t, err)
	require.Len(t, bids, MaxListLimit)
}

func TestMemoryStore_CloseAuction(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	_, err := store.CommitBid(ctx, testBid("prize1", "bidder1", 1000), 100)
	require.NoError(t, err)
	_, err = store.CommitBid(ctx, testBid("prize1", "bidder2", 1100), 100)
	require.NoError(t, err)
	_, err = store.CommitBid(ctx, testBid("prize2", "bidder1", 800), 100)
	require.NoError(t, err)

	winners, err := store.CloseAuction(ctx)
	require.NoError(t, err)
	require.Len(t, winners, 2)
	for _, w := range winners {
		require.Equal(t, model.BidWon, w.Status)
	}

	bids, err := store.ListBids(ctx, BidFilter{})
	require.NoError(t, err)
	for _, b := range bids {
		require.Contains(t, []model.BidStatus{model.BidWon, model.BidLost}, b.Status)
	}

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	require.False(t, settings.IsOpen)
}

// Concurrent commits on one prize must leave exactly one WINNING bid whose
// amount is the maximum accepted amount.
func TestMemoryStore_CommitBid_ConcurrentSingleWinner(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var maxAccepted int64

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bidder := fmt.Sprintf("bidder%d", i%5+1)
			amount := 1000 + int64(i)*100
			_, err := store.CommitBid(ctx, testBid("prize1", bidder, amount), 100)
			if err != nil {
				if !errors.Is(err, auctionerrors.ErrBidTooLow) {
					t.Errorf("unexpected commit error: %v", err)
				}
				return
			}
			mu.Lock()
			if amount > maxAccepted {
				maxAccepted = amount
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Greater(t, maxAccepted, int64(0), "at least one bid must be accepted")

	count, amount := countWinning(t, store, "prize1")
	require.Equal(t, 1, count, "exactly one WINNING bid")
	require.Equal(t, maxAccepted, amount)

	prize, err := store.GetPrize(ctx, "prize1")
	require.NoError(t, err)
	require.Equal(t, maxAccepted, prize.CurrentHighestBid)
}
