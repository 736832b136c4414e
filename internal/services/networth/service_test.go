package networth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/bobmcallan/purse/internal/storage/sqlstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.OpenSQLite(common.NewSilentLogger(), filepath.Join(t.TempDir(), "purse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Update(ctx, func(tx interfaces.LedgerTx) error {
		require.NoError(t, tx.SaveSecurity(ctx, &models.Security{ID: "acme", Symbol: "ACME", Currency: "USD", CreatedAt: time.Now()}))
		require.NoError(t, tx.AddBalance(ctx, "checking", "EUR", dec("1000")))
		require.NoError(t, tx.AddBalance(ctx, "wallet", "USD", dec("200")))
		require.NoError(t, tx.AddBalance(ctx, "wallet", "GBP", dec("-50")))
		return tx.AddPosition(ctx, "broker", "acme", dec("10"), dec("300"))
	}))
	return store
}

func TestNetWorth_ConvertsToHome(t *testing.T) {
	store := newStore(t)
	svc := NewService(store, "eur", models.Rates{"USD": dec("0.9"), "GBP": dec("1.2")}, common.NewSilentLogger())

	nw, err := svc.NetWorth(context.Background(), nil)
	require.NoError(t, err)

	// 1000 + (200 + 300) × 0.9 − 50 × 1.2
	assert.Equal(t, "EUR", nw.Currency)
	assert.True(t, dec("1390").Equal(nw.Total), nw.Total.String())
	assert.True(t, dec("500").Equal(nw.Breakdown["USD"]))
	assert.True(t, dec("-50").Equal(nw.Breakdown["GBP"]))
	assert.False(t, nw.AsOf.IsZero())
}

func TestNetWorth_RequestRatesOverrideAndDefault(t *testing.T) {
	store := newStore(t)
	svc := NewService(store, "EUR", models.Rates{"USD": dec("0.9")}, common.NewSilentLogger())

	// GBP has no rate anywhere and converts at 1.
	nw, err := svc.NetWorth(context.Background(), models.Rates{"USD": dec("1")})
	require.NoError(t, err)
	assert.True(t, dec("1450").Equal(nw.Total), nw.Total.String())
}

func TestNetWorth_HomeRateIgnored(t *testing.T) {
	store := newStore(t)
	svc := NewService(store, "EUR", models.Rates{"USD": dec("0.9"), "EUR": dec("3")}, common.NewSilentLogger())

	rates := svc.Rates(models.Rates{"EUR": dec("2")})
	assert.NotContains(t, rates, "EUR")
	assert.True(t, dec("0.9").Equal(rates.Rate("USD")))

	// 1000 + 500 × 0.9 − 50, GBP unrated.
	nw, err := svc.NetWorth(context.Background(), models.Rates{"EUR": dec("2")})
	require.NoError(t, err)
	assert.True(t, dec("1400").Equal(nw.Total), nw.Total.String())
}

func TestCompute_Empty(t *testing.T) {
	store, err := sqlstore.OpenSQLite(common.NewSilentLogger(), filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.View(ctx, func(tx interfaces.LedgerView) error {
		nw, err := Compute(ctx, tx, "EUR", nil)
		require.NoError(t, err)
		assert.True(t, nw.Total.IsZero())
		assert.Empty(t, nw.Breakdown)
		return nil
	}))
}
