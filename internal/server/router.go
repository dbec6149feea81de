package server

import (
	"github.com/gin-gonic/gin"

	"silent-auction/internal/ledger"
	"silent-auction/internal/ratelimit"
	handler "silent-auction/services/auction/handler"
)

// SetupRouter configures all Gin routes for the application. The bid
// submission path is ordered rate limiter first, then session auth, then the
// ledger, so abusive traffic is shed before any store access.
func SetupRouter(ledgerSvc *ledger.LedgerService, authHandler *handler.AuthHandler, limiter ratelimit.Limiter, jwtSecret string) *gin.Engine {
	router := gin.New() // no default middleware, full control over logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(ledgerSvc)

	bids := router.Group("/bids")
	{
		bids.POST("",
			RateLimit(limiter, "bid", ratelimit.BidSubmission),
			BidderSession(jwtSecret),
			auctionHandler.SubmitBidHandler,
		)
		bids.GET("", auctionHandler.ListBidsHandler)
	}

	router.GET("/auction-status",
		RateLimit(limiter, "status", ratelimit.StatusPoll),
		auctionHandler.AuctionStatusHandler,
	)
	router.GET("/prizes", auctionHandler.ListPrizesHandler)

	router.POST("/sessions",
		RateLimit(limiter, "auth", ratelimit.Authentication),
		authHandler.CreateSessionHandler,
	)

	router.POST("/auction/close",
		BidderSession(jwtSecret),
		auctionHandler.CloseAuctionHandler,
	)

	return router
}
