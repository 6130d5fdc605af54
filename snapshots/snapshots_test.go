package snapshots

import (
	"testing"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }

// snapshot values a one-asset portfolio at a BTC price.
func snapshot(t *testing.T, asOf time.Time, btc float64) cryptofolio.PortfolioSnapshot {
	t.Helper()
	l := cryptofolio.NewLedger()
	require.NoError(t, l.Declare(cryptofolio.NewAsset("BTC", "Bitcoin", cryptofolio.Coin)))
	_, err := l.Record(cryptofolio.NewBuy(day(1), "", "BTC", cryptofolio.Q(0.5), cryptofolio.M(40000, "USD")))
	require.NoError(t, err)

	q := cryptofolio.NewQuotes()
	q.SetPrice("BTC", cryptofolio.M(btc, "USD"))
	q.SetRate("USD", "EUR", decimal.RequireFromString("0.9"))
	s, err := cryptofolio.NewAccountingSystem(l, q, q, cryptofolio.Transfer).Summarize(asOf, "USD", "EUR")
	require.NoError(t, err)
	return cryptofolio.NewPortfolioSnapshot(s, asOf)
}

func TestWALStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewWALStore(dir)
	require.NoError(t, err)

	_, ok, err := store.Latest()
	require.NoError(t, err)
	assert.False(t, ok, "an empty store has no latest snapshot")

	first, err := store.Append(snapshot(t, day(2), 50000))
	require.NoError(t, err)
	second, err := store.Append(snapshot(t, day(3), 60000))
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	_, err = store.Append(cryptofolio.PortfolioSnapshot{})
	assert.Error(t, err, "a snapshot without id is rejected")
	require.NoError(t, store.Close())

	// reopen: snapshots are durable.
	store, err = NewWALStore(dir)
	require.NoError(t, err)
	defer func() { assert.NoError(t, store.Close()) }()

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, day(2), all[0].Snapshot.AsOf.UTC())
	require.Len(t, all[0].Snapshot.Holdings, 1)
	assert.True(t, all[0].Snapshot.Holdings[0].Quantity.Equal(cryptofolio.Q(0.5)))

	after, err := store.After(first)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, second, after[0].Index)

	latest, ok, err := store.Latest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, latest.Index)
	assert.Equal(t, cryptofolio.Transfer, latest.Snapshot.Policy)
}

func TestSeries(t *testing.T) {
	records := []Record{
		{Index: 1, Snapshot: snapshot(t, day(3), 60000)},
		{Index: 2, Snapshot: snapshot(t, day(2), 50000)},
	}

	points := Series(records, "USD")
	require.Len(t, points, 2)
	assert.Equal(t, day(2), points[0].At, "points are sorted by date")
	assert.True(t, points[0].Value.Equal(cryptofolio.M(25000, "USD")), "got %v", points[0].Value)
	assert.True(t, points[1].Unrealized.Equal(cryptofolio.M(10000, "USD")), "got %v", points[1].Unrealized)
	assert.True(t, points[1].NetInvested.Equal(cryptofolio.M(20000, "USD")), "got %v", points[1].NetInvested)

	eur := Series(records, "EUR")
	require.Len(t, eur, 2)
	assert.True(t, eur[0].Value.Equal(cryptofolio.M(22500, "EUR")), "got %v", eur[0].Value)

	assert.Empty(t, Series(records, "VND"))
}
