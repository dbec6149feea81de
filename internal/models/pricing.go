package models

// MinimumNextBid returns the smallest acceptable bid for a prize. While no
// WINNING bid exists the floor itself is acceptable; afterwards a bid must
// raise the cached highest amount by at least the increment step.
func MinimumNextBid(p Prize, hasWinning bool, increment int64) int64 {
	if !hasWinning {
		return p.MinimumBid
	}
	min := p.CurrentHighestBid + increment
	if min < p.MinimumBid {
		min = p.MinimumBid
	}
	return min
}

// OnIncrementGrid reports whether amount sits on the prize's bid grid, i.e.
// is the floor plus a whole number of increment steps. Off-grid amounts such
// as 1050 over a 1000 floor with a 100 step are rejected even when they clear
// the minimum.
func OnIncrementGrid(p Prize, amount, increment int64) bool {
	if increment <= 0 {
		return amount >= p.MinimumBid
	}
	return amount >= p.MinimumBid && (amount-p.MinimumBid)%increment == 0
}
