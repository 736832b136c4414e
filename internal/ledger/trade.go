package ledger

import (
	"context"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
)

// tradeEffect derives the trade's deltas from its stored fields. A sell
// releases price×qty − realizedGain of cost, which is avgCost×qty at the
// time it was applied; replaying the stored gain keeps the inverse exact
// even after later trades moved the average.
func tradeEffect(t *models.SecurityTrade) (Effect, error) {
	if t.Currency == "" {
		return Effect{}, &models.InvariantError{Op: "trade effect", Reason: "trade " + t.ID + " has no trading currency"}
	}

	var eff Effect
	gross := t.Gross()
	switch t.Type {
	case models.TradeBuy:
		eff.balance(t.Account, t.Currency, gross.Add(t.Fee).Add(t.Tax).Neg())
		eff.position(t.Account, t.Security, t.Quantity, gross)
	case models.TradeSell:
		eff.balance(t.Account, t.Currency, gross.Sub(t.Fee).Sub(t.Tax))
		eff.position(t.Account, t.Security, t.Quantity.Neg(), gross.Sub(t.RealizedGain).Neg())
	default:
		return Effect{}, &models.InvariantError{Op: "trade effect", Reason: "unknown trade type " + string(t.Type)}
	}
	return eff, nil
}

// resolveTrade checks the references, stamps the trading currency and, for
// sells, computes the realized gain against the current average cost.
func resolveTrade(ctx context.Context, tx interfaces.LedgerView, t *models.SecurityTrade) error {
	if _, err := tx.GetAccount(ctx, t.Account); err != nil {
		return err
	}
	sec, err := tx.GetSecurity(ctx, t.Security)
	if err != nil {
		return err
	}
	t.Currency = sec.Currency

	if t.Type == models.TradeBuy {
		t.RealizedGain = decimal.Zero
		return nil
	}

	pos, err := tx.GetPosition(ctx, t.Account, t.Security)
	if err != nil {
		return err
	}
	if pos.Quantity.LessThan(t.Quantity) {
		return &models.OversoldError{
			Account:   t.Account,
			Security:  t.Security,
			Requested: t.Quantity,
			Available: pos.Quantity,
		}
	}

	released := pos.AverageCost().Mul(t.Quantity)
	if pos.Quantity.Equal(t.Quantity) {
		released = pos.Cost
	}
	t.RealizedGain = t.Gross().Sub(released)
	return nil
}
