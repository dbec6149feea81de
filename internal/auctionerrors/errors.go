package auctionerrors

import (
	"errors"
	"fmt"
)

// Repository-level errors
var (
	ErrPrizeNotFound    = errors.New("prize not found")
	ErrBidderNotFound   = errors.New("bidder not found")
	ErrNoBids           = errors.New("no bids found for prize")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// business logic errors
var (
	ErrInvalidBid    = errors.New("invalid bid")
	ErrPrizeInactive = errors.New("prize is not active")
	ErrAuctionClosed = errors.New("auction is closed")
	ErrBidTooLow     = errors.New("bid amount too low")
	ErrRateLimited   = errors.New("rate limit exceeded")
)

// BidTooLowError carries the computed minimum acceptable bid so the caller
// can prompt for a corrected amount. It matches ErrBidTooLow under errors.Is.
type BidTooLowError struct {
	Minimum int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount too low: minimum acceptable bid is %d", e.Minimum)
}

func (e *BidTooLowError) Is(target error) bool { return target == ErrBidTooLow }

// RateLimitedError carries the retry hint for a throttled request. It matches
// ErrRateLimited under errors.Is.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded: retry after %ds", e.RetryAfterSeconds)
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }
