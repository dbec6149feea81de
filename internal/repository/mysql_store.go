package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"silent-auction/internal/auctionerrors"
	model "silent-auction/internal/models"
)

// MySQLStore is a database-backed AuctionStore. Per-prize serialization is
// enforced by the database: the commit runs in a transaction that locks the
// prize row with SELECT ... FOR UPDATE, so two commits on the same prize are
// serialized by the row lock while other prizes proceed independently.
type MySQLStore struct {
	db *sql.DB
}

// OpenDB connects to MySQL and verifies the connection.
func OpenDB(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// NewMySQLStore returns a MySQLStore bound to the given database
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, auctionerrors.ErrStoreUnavailable)
}

func (s *MySQLStore) GetPrize(ctx context.Context, prizeID string) (model.Prize, error) {
	const q = `SELECT prize_id, name, description, active, minimum_bid, current_highest_bid
	           FROM prizes WHERE prize_id = ?`
	var p model.Prize
	err := s.db.QueryRowContext(ctx, q, prizeID).Scan(
		&p.PrizeID, &p.Name, &p.Description, &p.Active, &p.MinimumBid, &p.CurrentHighestBid,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Prize{}, fmt.Errorf("get prize %s: %w", prizeID, auctionerrors.ErrPrizeNotFound)
	}
	if err != nil {
		return model.Prize{}, storeErr("get prize", err)
	}
	return p, nil
}

func (s *MySQLStore) GetBidder(ctx context.Context, bidderID string) (model.Bidder, error) {
	const q = `SELECT bidder_id, name, email FROM bidders WHERE bidder_id = ?`
	var b model.Bidder
	err := s.db.QueryRowContext(ctx, q, bidderID).Scan(&b.BidderID, &b.Name, &b.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bidder{}, fmt.Errorf("get bidder %s: %w", bidderID, auctionerrors.ErrBidderNotFound)
	}
	if err != nil {
		return model.Bidder{}, storeErr("get bidder", err)
	}
	return b, nil
}

// GetSettings reads the single global settings row. Any failure (including a
// missing row) surfaces as an error so callers apply their fail-closed rule.
func (s *MySQLStore) GetSettings(ctx context.Context) (model.AuctionSettings, error) {
	const q = `SELECT is_open, end_time FROM auction_settings WHERE id = 1`
	var settings model.AuctionSettings
	err := s.db.QueryRowContext(ctx, q).Scan(&settings.IsOpen, &settings.EndTime)
	if err != nil {
		return model.AuctionSettings{}, storeErr("get settings", err)
	}
	return settings, nil
}

func (s *MySQLStore) ListPrizes(ctx context.Context) ([]model.Prize, error) {
	const q = `SELECT prize_id, name, description, active, minimum_bid, current_highest_bid
	           FROM prizes ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storeErr("list prizes", err)
	}
	defer rows.Close()

	prizes := make([]model.Prize, 0)
	for rows.Next() {
		var p model.Prize
		if err := rows.Scan(&p.PrizeID, &p.Name, &p.Description, &p.Active, &p.MinimumBid, &p.CurrentHighestBid); err != nil {
			return nil, storeErr("list prizes", err)
		}
		prizes = append(prizes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list prizes", err)
	}
	return prizes, nil
}

func (s *MySQLStore) ListBids(ctx context.Context, filter BidFilter) ([]model.Bid, error) {
	limit := filter.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	q := `SELECT bid_id, prize_id, bidder_id, amount, status, created_at FROM bids WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if filter.PrizeID != "" {
		q += ` AND prize_id = ?`
		args = append(args, filter.PrizeID)
	}
	if filter.BidderID != "" {
		q += ` AND bidder_id = ?`
		args = append(args, filter.BidderID)
	}
	q += ` ORDER BY created_at DESC, bid_id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("list bids", err)
	}
	defer rows.Close()

	bids := make([]model.Bid, 0, limit)
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.PrizeID, &b.BidderID, &b.Amount, &b.Status, &b.CreatedAt); err != nil {
			return nil, storeErr("list bids", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list bids", err)
	}
	return bids, nil
}

func (s *MySQLStore) GetWinningBid(ctx context.Context, prizeID string) (model.Bid, error) {
	const q = `SELECT bid_id, prize_id, bidder_id, amount, status, created_at
	           FROM bids WHERE prize_id = ? AND status = ?`
	var b model.Bid
	err := s.db.QueryRowContext(ctx, q, prizeID, model.BidWinning).Scan(
		&b.BidID, &b.PrizeID, &b.BidderID, &b.Amount, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get winning bid for prize %s: %w", prizeID, auctionerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, storeErr("get winning bid", err)
	}
	return b, nil
}

func (s *MySQLStore) CommitBid(ctx context.Context, bid model.Bid, increment int64) (prev *model.Bid, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("commit bid", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			if cerr := tx.Commit(); cerr != nil {
				err = storeErr("commit bid", cerr)
				prev = nil
			}
		}
	}()

	// Lock the prize row. Concurrent commits on the same prize queue here and
	// re-evaluate the minimum against the winner's fresh state.
	var prize model.Prize
	err = tx.QueryRowContext(ctx,
		`SELECT prize_id, minimum_bid, current_highest_bid FROM prizes WHERE prize_id = ? FOR UPDATE`,
		bid.PrizeID,
	).Scan(&prize.PrizeID, &prize.MinimumBid, &prize.CurrentHighestBid)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("commit bid for prize %s: %w", bid.PrizeID, auctionerrors.ErrPrizeNotFound)
		return nil, err
	}
	if err != nil {
		return nil, storeErr("commit bid", err)
	}

	var prevBid model.Bid
	hasWinning := true
	serr := tx.QueryRowContext(ctx,
		`SELECT bid_id, prize_id, bidder_id, amount, status, created_at
		 FROM bids WHERE prize_id = ? AND status = ?`,
		bid.PrizeID, model.BidWinning,
	).Scan(&prevBid.BidID, &prevBid.PrizeID, &prevBid.BidderID, &prevBid.Amount, &prevBid.Status, &prevBid.CreatedAt)
	if errors.Is(serr, sql.ErrNoRows) {
		hasWinning = false
	} else if serr != nil {
		err = storeErr("commit bid", serr)
		return nil, err
	}

	min := model.MinimumNextBid(prize, hasWinning, increment)
	if bid.Amount < min || !model.OnIncrementGrid(prize, bid.Amount, increment) {
		err = &auctionerrors.BidTooLowError{Minimum: min}
		return nil, err
	}

	if hasWinning {
		if _, err = tx.ExecContext(ctx,
			`UPDATE bids SET status = ? WHERE bid_id = ?`, model.BidOutbid, prevBid.BidID,
		); err != nil {
			return nil, storeErr("commit bid", err)
		}
		prevBid.Status = model.BidOutbid
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bids (bid_id, prize_id, bidder_id, amount, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		bid.BidID, bid.PrizeID, bid.BidderID, bid.Amount, model.BidWinning, bid.CreatedAt,
	); err != nil {
		return nil, storeErr("commit bid", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE prizes SET current_highest_bid = ? WHERE prize_id = ?`, bid.Amount, bid.PrizeID,
	); err != nil {
		return nil, storeErr("commit bid", err)
	}

	if hasWinning {
		return &prevBid, nil
	}
	return nil, nil
}

func (s *MySQLStore) CloseAuction(ctx context.Context) (winners []model.Bid, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("close auction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			if cerr := tx.Commit(); cerr != nil {
				err = storeErr("close auction", cerr)
				winners = nil
			}
		}
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT bid_id, prize_id, bidder_id, amount, status, created_at FROM bids WHERE status = ? FOR UPDATE`,
		model.BidWinning,
	)
	if err != nil {
		return nil, storeErr("close auction", err)
	}
	winners = make([]model.Bid, 0)
	for rows.Next() {
		var b model.Bid
		if err = rows.Scan(&b.BidID, &b.PrizeID, &b.BidderID, &b.Amount, &b.Status, &b.CreatedAt); err != nil {
			rows.Close()
			return nil, storeErr("close auction", err)
		}
		b.Status = model.BidWon
		winners = append(winners, b)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, storeErr("close auction", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE bids SET status = ? WHERE status = ?`, model.BidWon, model.BidWinning); err != nil {
		return nil, storeErr("close auction", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE bids SET status = ? WHERE status = ?`, model.BidLost, model.BidOutbid); err != nil {
		return nil, storeErr("close auction", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE auction_settings SET is_open = FALSE WHERE id = 1`); err != nil {
		return nil, storeErr("close auction", err)
	}
	return winners, nil
}

func (s *MySQLStore) Stats(ctx context.Context) (model.AuctionStats, error) {
	const q = `SELECT
	    (SELECT COUNT(*) FROM prizes),
	    (SELECT COUNT(*) FROM bidders),
	    (SELECT COUNT(*) FROM bids)`
	var stats model.AuctionStats
	if err := s.db.QueryRowContext(ctx, q).Scan(&stats.Prizes, &stats.Bidders, &stats.Bids); err != nil {
		return model.AuctionStats{}, storeErr("stats", err)
	}
	return stats, nil
}
