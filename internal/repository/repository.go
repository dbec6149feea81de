package repository

import (
	"context"
	"fmt"
	"sync"

	"silent-auction/internal/auctionerrors"
	model "silent-auction/internal/models"
)

// BidFilter narrows ListBids results. Zero-value fields match everything.
// Limit is capped at MaxListLimit; zero means the cap.
type BidFilter struct {
	PrizeID  string
	BidderID string
	Limit    int
}

// MaxListLimit bounds bid listings regardless of the requested limit
const MaxListLimit = 50

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionStore defines the persistent state surface for the auction system.
// CommitBid is the only mutating operation on the bidding path and must be
// atomic and serialized per prize.
type AuctionStore interface {
	GetPrize(ctx context.Context, prizeID string) (model.Prize, error)
	GetBidder(ctx context.Context, bidderID string) (model.Bidder, error)
	GetSettings(ctx context.Context) (model.AuctionSettings, error)
	ListPrizes(ctx context.Context) ([]model.Prize, error)
	ListBids(ctx context.Context, filter BidFilter) ([]model.Bid, error)

	// GetWinningBid returns the prize's current WINNING bid, or ErrNoBids
	// when the prize has none.
	GetWinningBid(ctx context.Context, prizeID string) (model.Bid, error)

	// CommitBid applies the accepted bid as a single atomic unit: the prize's
	// current WINNING bid (if any) transitions to OUTBID, the new bid is
	// inserted WINNING, and the prize's CurrentHighestBid is set to the bid
	// amount. The minimum-bid rule is re-checked under per-prize serialization
	// so a racer that lost sees a fresh highest bid and gets ErrBidTooLow.
	// Returns the superseded bid, or nil when this is the first bid.
	CommitBid(ctx context.Context, bid model.Bid, increment int64) (*model.Bid, error)

	// CloseAuction settles every bid (WINNING -> WON, OUTBID -> LOST), marks
	// the auction closed and returns the winning bids.
	CloseAuction(ctx context.Context) ([]model.Bid, error)

	Stats(ctx context.Context) (model.AuctionStats, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore.
// Commits are serialized with one mutex per prize so bids on different prizes
// never wait on each other.
type MemoryStore struct {
	mu       sync.RWMutex
	prizes   map[string]*model.Prize
	bidders  map[string]model.Bidder
	bids     []model.Bid // append order; listings walk backwards
	winning  map[string]int // prizeID -> index into bids of the WINNING bid
	settings model.AuctionSettings

	lockMu     sync.Mutex
	prizeLocks map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prizes:     make(map[string]*model.Prize),
		bidders:    make(map[string]model.Bidder),
		winning:    make(map[string]int),
		prizeLocks: make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) prizeLock(prizeID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.prizeLocks[prizeID]
	if !ok {
		l = &sync.Mutex{}
		s.prizeLocks[prizeID] = l
	}
	return l
}

// AddPrize registers a prize. The highest-bid cache starts at the floor.
func (s *MemoryStore) AddPrize(p model.Prize) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CurrentHighestBid < p.MinimumBid {
		p.CurrentHighestBid = p.MinimumBid
	}
	s.prizes[p.PrizeID] = &p
}

// AddBidder registers a bidder
func (s *MemoryStore) AddBidder(b model.Bidder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bidders[b.BidderID] = b
}

// UpdateSettings replaces the global auction settings record
func (s *MemoryStore) UpdateSettings(settings model.AuctionSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *MemoryStore) GetPrize(_ context.Context, prizeID string) (model.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prizes[prizeID]
	if !ok {
		return model.Prize{}, fmt.Errorf("get prize %s: %w", prizeID, auctionerrors.ErrPrizeNotFound)
	}
	return *p, nil
}

func (s *MemoryStore) GetBidder(_ context.Context, bidderID string) (model.Bidder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bidders[bidderID]
	if !ok {
		return model.Bidder{}, fmt.Errorf("get bidder %s: %w", bidderID, auctionerrors.ErrBidderNotFound)
	}
	return b, nil
}

func (s *MemoryStore) GetSettings(_ context.Context) (model.AuctionSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *MemoryStore) ListPrizes(_ context.Context) ([]model.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prizes := make([]model.Prize, 0, len(s.prizes))
	for _, p := range s.prizes {
		prizes = append(prizes, *p)
	}
	return prizes, nil
}

// ListBids returns bids matching the filter, most recent first, capped at
// MaxListLimit.
func (s *MemoryStore) ListBids(_ context.Context, filter BidFilter) ([]model.Bid, error) {
	limit := filter.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Bid, 0, limit)
	for i := len(s.bids) - 1; i >= 0 && len(out) < limit; i-- {
		b := s.bids[i]
		if filter.PrizeID != "" && b.PrizeID != filter.PrizeID {
			continue
		}
		if filter.BidderID != "" && b.BidderID != filter.BidderID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *MemoryStore) GetWinningBid(_ context.Context, prizeID string) (model.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.winning[prizeID]
	if !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for prize %s: %w", prizeID, auctionerrors.ErrNoBids)
	}
	return s.bids[idx], nil
}

func (s *MemoryStore) CommitBid(_ context.Context, bid model.Bid, increment int64) (*model.Bid, error) {
	pl := s.prizeLock(bid.PrizeID)
	pl.Lock()
	defer pl.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	prize, ok := s.prizes[bid.PrizeID]
	if !ok {
		return nil, fmt.Errorf("commit bid for prize %s: %w", bid.PrizeID, auctionerrors.ErrPrizeNotFound)
	}

	prevIdx, hasWinning := s.winning[bid.PrizeID]
	min := model.MinimumNextBid(*prize, hasWinning, increment)
	if bid.Amount < min || !model.OnIncrementGrid(*prize, bid.Amount, increment) {
		return nil, &auctionerrors.BidTooLowError{Minimum: min}
	}

	var prev *model.Bid
	if hasWinning {
		s.bids[prevIdx].Status = model.BidOutbid
		outbid := s.bids[prevIdx]
		prev = &outbid
	}

	bid.Status = model.BidWinning
	s.bids = append(s.bids, bid)
	s.winning[bid.PrizeID] = len(s.bids) - 1
	prize.CurrentHighestBid = bid.Amount

	return prev, nil
}

func (s *MemoryStore) CloseAuction(_ context.Context) ([]model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	winners := make([]model.Bid, 0, len(s.winning))
	for i := range s.bids {
		switch s.bids[i].Status {
		case model.BidWinning:
			s.bids[i].Status = model.BidWon
			winners = append(winners, s.bids[i])
		case model.BidOutbid:
			s.bids[i].Status = model.BidLost
		}
	}
	s.winning = make(map[string]int)
	s.settings.IsOpen = false
	return winners, nil
}

func (s *MemoryStore) Stats(_ context.Context) (model.AuctionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.AuctionStats{
		Prizes:  len(s.prizes),
		Bidders: len(s.bidders),
		Bids:    len(s.bids),
	}, nil
}
