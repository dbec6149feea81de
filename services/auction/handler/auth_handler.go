package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"silent-auction/internal/repository"
	"silent-auction/services/auction/helpers"
	"silent-auction/utils"
)

// SessionTTL is how long an issued bidder session stays valid
const SessionTTL = 12 * time.Hour

// AuthHandler issues bidder session tokens. It checks the claimed identity
// against the bidder record; delivery of credentials to bidders (magic links
// and the like) happens outside this service.
type AuthHandler struct {
	store  repository.AuctionStore
	secret string
}

func NewAuthHandler(store repository.AuctionStore, secret string) *AuthHandler {
	return &AuthHandler{store: store, secret: secret}
}

// CreateSessionHandler handles POST /sessions
func (h *AuthHandler) CreateSessionHandler(c *gin.Context) {
	var req helpers.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateSessionHandler", err)
		return
	}

	bidder, err := h.store.GetBidder(c.Request.Context(), req.BidderID)
	if err != nil || !strings.EqualFold(bidder.Email, req.Email) {
		// One message for both failure modes so the endpoint does not confirm
		// which bidder IDs exist.
		utils.JSONError(c, http.StatusUnauthorized, "unknown bidder or email mismatch", nil)
		return
	}

	token, err := utils.NewSessionToken(h.secret, bidder.BidderID, SessionTTL)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "internal server error", nil)
		utils.Error("CreateSessionHandler: token signing failed", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(SessionTTL.Seconds()),
	})
	helpers.LogSuccess("CreateSessionHandler", "session issued", map[string]any{
		"bidder_id": bidder.BidderID,
	})
}
