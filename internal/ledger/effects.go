// Package ledger applies and reverses the balance and position effects of
// ledger events.
package ledger

import (
	"context"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
)

// BalanceDelta is a signed change to one (account, currency) balance.
type BalanceDelta struct {
	Account  string
	Currency string
	Amount   decimal.Decimal
}

// PositionDelta is a paired signed change to one (account, security) position.
type PositionDelta struct {
	Account  string
	Security string
	Quantity decimal.Decimal
	Cost     decimal.Decimal
}

// Effect is the full set of deltas one event contributes to the ledger.
// Deltas are keyed; adding to an existing key accumulates.
type Effect struct {
	Balances  []BalanceDelta
	Positions []PositionDelta
}

func (e *Effect) balance(account, currency string, amount decimal.Decimal) {
	for i := range e.Balances {
		if e.Balances[i].Account == account && e.Balances[i].Currency == currency {
			e.Balances[i].Amount = e.Balances[i].Amount.Add(amount)
			return
		}
	}
	e.Balances = append(e.Balances, BalanceDelta{Account: account, Currency: currency, Amount: amount})
}

func (e *Effect) position(account, security string, quantity, cost decimal.Decimal) {
	for i := range e.Positions {
		if e.Positions[i].Account == account && e.Positions[i].Security == security {
			e.Positions[i].Quantity = e.Positions[i].Quantity.Add(quantity)
			e.Positions[i].Cost = e.Positions[i].Cost.Add(cost)
			return
		}
	}
	e.Positions = append(e.Positions, PositionDelta{Account: account, Security: security, Quantity: quantity, Cost: cost})
}

// Inverse negates every term on the same keys.
func (e Effect) Inverse() Effect {
	out := Effect{
		Balances:  make([]BalanceDelta, len(e.Balances)),
		Positions: make([]PositionDelta, len(e.Positions)),
	}
	for i, b := range e.Balances {
		out.Balances[i] = BalanceDelta{Account: b.Account, Currency: b.Currency, Amount: b.Amount.Neg()}
	}
	for i, p := range e.Positions {
		out.Positions[i] = PositionDelta{Account: p.Account, Security: p.Security, Quantity: p.Quantity.Neg(), Cost: p.Cost.Neg()}
	}
	return out
}

// EffectOf computes the forward effect of a stored event from its own fields.
// Trades must already carry their trading currency and, for sells, the
// realized gain recorded when they were applied.
func EffectOf(ev models.Event) (Effect, error) {
	switch e := ev.(type) {
	case *models.CashTransaction:
		return cashEffect(e), nil
	case *models.SecurityTrade:
		return tradeEffect(e)
	case *models.CurrencyExchange:
		return exchangeEffect(e)
	}
	return Effect{}, &models.InvariantError{Op: "effect", Reason: "unsupported event type"}
}

// commit checks every position delta against the stored position and only
// then writes. Nothing is written when a check fails.
func commit(ctx context.Context, tx interfaces.LedgerTx, eff Effect) error {
	for _, d := range eff.Positions {
		pos, err := tx.GetPosition(ctx, d.Account, d.Security)
		if err != nil {
			return err
		}
		if pos.Quantity.Add(d.Quantity).IsNegative() {
			return &models.OversoldError{
				Account:   d.Account,
				Security:  d.Security,
				Requested: d.Quantity.Neg(),
				Available: pos.Quantity,
			}
		}
	}

	for _, d := range eff.Balances {
		if d.Amount.IsZero() {
			continue
		}
		if err := tx.AddBalance(ctx, d.Account, d.Currency, d.Amount); err != nil {
			return err
		}
	}
	for _, d := range eff.Positions {
		if err := tx.AddPosition(ctx, d.Account, d.Security, d.Quantity, d.Cost); err != nil {
			return err
		}
	}
	return nil
}
