package surrealdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/ledger"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seed(t *testing.T, m *Manager) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.Update(ctx, func(tx interfaces.LedgerTx) error {
		for _, id := range []string{"checking", "savings", "broker"} {
			if err := tx.SaveAccount(ctx, &models.Account{ID: id, Name: id, Kind: models.AccountBank, CreatedAt: time.Now()}); err != nil {
				return err
			}
		}
		return tx.SaveSecurity(ctx, &models.Security{ID: "acme", Symbol: "ACME", Currency: "USD", CreatedAt: time.Now()})
	}))
}

func TestNewManager(t *testing.T) {
	m := testManager(t)
	assert.Equal(t, "surrealdb", m.Backend())
}

func TestUpdate_ReadsOwnWrites(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, func(tx interfaces.LedgerTx) error {
		require.NoError(t, tx.AddBalance(ctx, "checking", "EUR", dec("100")))
		require.NoError(t, tx.AddBalance(ctx, "checking", "EUR", dec("-0.25")))

		b, err := tx.GetBalance(ctx, "checking", "EUR")
		require.NoError(t, err)
		assert.True(t, dec("99.75").Equal(b.Amount))
		return nil
	}))

	require.NoError(t, m.View(ctx, func(tx interfaces.LedgerView) error {
		b, err := tx.GetBalance(ctx, "checking", "EUR")
		require.NoError(t, err)
		assert.True(t, dec("99.75").Equal(b.Amount), b.Amount.String())

		missing, err := tx.GetBalance(ctx, "savings", "EUR")
		require.NoError(t, err)
		assert.True(t, missing.Amount.IsZero())
		return nil
	}))
}

func TestUpdate_ErrorDiscardsWrites(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.Update(ctx, func(tx interfaces.LedgerTx) error {
		require.NoError(t, tx.AddBalance(ctx, "checking", "EUR", dec("50")))
		require.NoError(t, tx.AddPosition(ctx, "broker", "acme", dec("1"), dec("10")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, m.View(ctx, func(tx interfaces.LedgerView) error {
		balances, err := tx.ListBalances(ctx)
		require.NoError(t, err)
		assert.Empty(t, balances)
		positions, err := tx.ListPositions(ctx)
		require.NoError(t, err)
		assert.Empty(t, positions)
		return nil
	}))
}

func TestEngineRoundTrip(t *testing.T) {
	m := testManager(t)
	seed(t, m)
	ctx := context.Background()
	eng := ledger.NewEngine("EUR")
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	buy := &models.SecurityTrade{
		EventMeta: models.EventMeta{ID: "b1", Timestamp: ts},
		Type:      models.TradeBuy, Account: "broker", Security: "acme",
		Quantity: dec("10"), Price: dec("100"), Fee: dec("1"), Tax: dec("0"),
	}
	sell := &models.SecurityTrade{
		EventMeta: models.EventMeta{ID: "s1", Timestamp: ts.Add(time.Hour)},
		Type:      models.TradeSell, Account: "broker", Security: "acme",
		Quantity: dec("4"), Price: dec("130"), Fee: dec("1"), Tax: dec("2"),
	}

	for _, ev := range []models.Event{buy, sell} {
		ev := ev
		require.NoError(t, m.Update(ctx, func(tx interfaces.LedgerTx) error {
			if _, err := eng.Apply(ctx, tx, ev); err != nil {
				return err
			}
			return tx.InsertEvent(ctx, ev)
		}))
	}

	require.NoError(t, m.View(ctx, func(tx interfaces.LedgerView) error {
		stored, err := tx.GetEvent(ctx, sell.Ref())
		require.NoError(t, err)
		assert.True(t, dec("120").Equal(stored.(*models.SecurityTrade).RealizedGain))

		p, err := tx.GetPosition(ctx, "broker", "acme")
		require.NoError(t, err)
		assert.True(t, dec("6").Equal(p.Quantity))
		assert.True(t, dec("600").Equal(p.Cost))

		trades, err := tx.ListEvents(ctx, models.KindTrade, time.Time{})
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, "b1", trades[0].Ref().ID)
		return nil
	}))

	// Retract the sell and hard-delete it in one transaction.
	require.NoError(t, m.Update(ctx, func(tx interfaces.LedgerTx) error {
		stored, err := tx.GetEvent(ctx, sell.Ref())
		if err != nil {
			return err
		}
		if err := eng.Retract(ctx, tx, stored); err != nil {
			return err
		}
		return tx.DeleteEvent(ctx, sell.Ref(), time.Now())
	}))

	require.NoError(t, m.View(ctx, func(tx interfaces.LedgerView) error {
		p, err := tx.GetPosition(ctx, "broker", "acme")
		require.NoError(t, err)
		assert.True(t, dec("10").Equal(p.Quantity))
		assert.True(t, dec("1000").Equal(p.Cost))

		b, err := tx.GetBalance(ctx, "broker", "USD")
		require.NoError(t, err)
		assert.True(t, dec("-1001").Equal(b.Amount), b.Amount.String())

		_, err = tx.GetEvent(ctx, sell.Ref())
		assert.ErrorIs(t, err, models.ErrReferenceNotFound)
		return nil
	}))
}

func TestSoftDeleteKeepsRecord(t *testing.T) {
	m := testManager(t)
	seed(t, m)
	ctx := context.Background()

	cash := &models.CashTransaction{
		EventMeta:  models.EventMeta{ID: "c1", Timestamp: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)},
		Type:       models.CashTxSpending,
		Amount:     dec("12"),
		Fee:        dec("0"),
		Currency:   "EUR",
		PayAccount: "checking",
	}
	require.NoError(t, m.Update(ctx, func(tx interfaces.LedgerTx) error {
		return tx.InsertEvent(ctx, cash)
	}))
	require.NoError(t, m.Update(ctx, func(tx interfaces.LedgerTx) error {
		return tx.DeleteEvent(ctx, cash.Ref(), time.Now())
	}))

	require.NoError(t, m.View(ctx, func(tx interfaces.LedgerView) error {
		ev, err := tx.GetEvent(ctx, cash.Ref())
		require.NoError(t, err)
		assert.True(t, ev.IsDeleted())

		live, err := tx.ListEvents(ctx, models.KindCash, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, live)
		return nil
	}))

	err := m.Update(ctx, func(tx interfaces.LedgerTx) error {
		return tx.InsertEvent(ctx, cash)
	})
	assert.Error(t, err, "duplicate ids are rejected")
}

func TestConcurrentUpdatesSerialise(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Update(ctx, func(tx interfaces.LedgerTx) error {
				return tx.AddBalance(ctx, "checking", "EUR", dec("1.5"))
			}))
		}()
	}
	wg.Wait()

	require.NoError(t, m.View(ctx, func(tx interfaces.LedgerView) error {
		b, err := tx.GetBalance(ctx, "checking", "EUR")
		require.NoError(t, err)
		assert.True(t, dec("15").Equal(b.Amount), b.Amount.String())
		return nil
	}))
}
