package split

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		total   int64
		fee     int64
		share   int64
		payout1 int64
		payout2 int64
	}{
		{total: 0, fee: 0, share: 0, payout1: 0, payout2: 0},
		{total: 1, fee: 0, share: 1, payout1: 0, payout2: 1},
		{total: 99, fee: 5, share: 94, payout1: 28, payout2: 66},
		{total: 100, fee: 5, share: 95, payout1: 29, payout2: 66},
		{total: 1000, fee: 50, share: 950, payout1: 285, payout2: 665},
		{total: 10001, fee: 500, share: 9501, payout1: 2850, payout2: 6651},
	}

	for _, tt := range tests {
		r := Split(tt.total, DefaultPlatformFeePercent)
		assert.Equal(t, tt.fee, r.PlatformFeeAmount, "fee of %d", tt.total)
		assert.Equal(t, tt.share, r.OrganizerShare, "share of %d", tt.total)
		assert.Equal(t, tt.payout1, r.Payout1, "payout1 of %d", tt.total)
		assert.Equal(t, tt.payout2, r.Payout2, "payout2 of %d", tt.total)
	}
}

func TestSplit_SumsAreExact(t *testing.T) {
	for _, pct := range []string{"0", "2.5", "5", "12.75", "100"} {
		p := decimal.RequireFromString(pct)
		for total := int64(0); total <= 5000; total += 7 {
			r := Split(total, p)
			assert.Equal(t, total, r.PlatformFeeAmount+r.OrganizerShare)
			assert.Equal(t, r.OrganizerShare, r.Payout1+r.Payout2)
			assert.GreaterOrEqual(t, r.Payout1, int64(0))
			assert.GreaterOrEqual(t, r.Payout2, int64(0))
		}
	}
}

func TestSplit_NegativeTotal(t *testing.T) {
	// Aggregates can be restaged below zero after refunds of paid-out tournaments.
	r := Split(-1000, DefaultPlatformFeePercent)
	assert.Equal(t, int64(-50), r.PlatformFeeAmount)
	assert.Equal(t, int64(-950), r.OrganizerShare)
	assert.Equal(t, r.OrganizerShare, r.Payout1+r.Payout2)
}

func TestParsePercent(t *testing.T) {
	assert.True(t, decimal.RequireFromString("7.5").Equal(ParsePercent("7.5")))
	assert.True(t, DefaultPlatformFeePercent.Equal(ParsePercent("")))
	assert.True(t, DefaultPlatformFeePercent.Equal(ParsePercent("abc")))
}
