package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"silent-auction/internal/ledger"
	model "silent-auction/internal/models"
	"silent-auction/internal/notify"
	"silent-auction/internal/ratelimit"
	"silent-auction/internal/repository"
	"silent-auction/internal/server"
	handler "silent-auction/services/auction/handler"
	"silent-auction/utils"
)

const testSecret = "integration-test-secret"

// SeededStore builds an in-memory store with the prizes and bidders the API
// tests work against.
func SeededStore() *repository.MemoryStore {
	store := repository.NewMemoryStore()
	store.UpdateSettings(model.AuctionSettings{
		IsOpen:  true,
		EndTime: time.Now().UTC().Add(time.Hour),
	})
	store.AddPrize(model.Prize{PrizeID: "prize1", Name: "Harbour View Staycation", Active: true, MinimumBid: 1000})
	store.AddPrize(model.Prize{PrizeID: "prize2", Name: "Tasting Menu for Two", Active: true, MinimumBid: 800})
	store.AddPrize(model.Prize{PrizeID: "prize3", Name: "Signed Jersey", Active: false, MinimumBid: 500})
	store.AddBidder(model.Bidder{BidderID: "bidder1", Name: "Alex", Email: "alex@example.com"})
	store.AddBidder(model.Bidder{BidderID: "bidder2", Name: "Sam", Email: "sam@example.com"})
	return store
}

// SetupTestRouter wires the full HTTP surface over the given store with an
// in-process sliding-window limiter.
func SetupTestRouter(store repository.AuctionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := ledger.NewLedgerService(store, notify.LogNotifier{}, 100)
	authHandler := handler.NewAuthHandler(store, testSecret)
	return server.SetupRouter(service, authHandler, ratelimit.NewSlidingWindow(), testSecret)
}

// BearerToken mints a valid session token for the given bidder.
func BearerToken(t *testing.T, bidderID string) string {
	t.Helper()
	token, err := utils.NewSessionToken(testSecret, bidderID, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign session token: %v", err)
	}
	return "Bearer " + token
}

// ExecuteRequest runs a request through the router and parses the JSON body.
// An empty token leaves the request unauthenticated.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body any, token string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}
