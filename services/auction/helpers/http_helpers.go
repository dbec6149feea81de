package helpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"silent-auction/internal/auctionerrors"
	"silent-auction/utils"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	utils.JSONError(c, http.StatusBadRequest, "invalid request payload", nil)
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to an HTTP status, message and
// extra response fields (the computed minimum for BidTooLow, the retry hint
// for RateLimited).
func MapErrorToHTTP(err error) (int, string, gin.H) {
	var tooLow *auctionerrors.BidTooLowError
	if errors.As(err, &tooLow) {
		return http.StatusBadRequest, "bid amount too low", gin.H{"minimum_bid": tooLow.Minimum}
	}
	var limited *auctionerrors.RateLimitedError
	if errors.As(err, &limited) {
		return http.StatusTooManyRequests, "rate limit exceeded", gin.H{"retry_after": limited.RetryAfterSeconds}
	}

	switch {
	case errors.Is(err, auctionerrors.ErrPrizeNotFound):
		return http.StatusNotFound, "prize not found", nil
	case errors.Is(err, auctionerrors.ErrBidderNotFound):
		return http.StatusNotFound, "bidder not found", nil
	case errors.Is(err, auctionerrors.ErrPrizeInactive):
		return http.StatusBadRequest, "prize is not active", nil
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusBadRequest, "auction is closed", nil
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusBadRequest, "bid amount too low", nil
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details", nil
	case errors.Is(err, auctionerrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service unavailable", nil
	default:
		return http.StatusInternalServerError, "internal server error", nil
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
