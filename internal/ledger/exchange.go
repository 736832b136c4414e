package ledger

import (
	"context"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
)

// exchangeEffect debits the sold currency, credits the bought one and
// charges the fee in FeeCurrency, whichever side that happens to be.
func exchangeEffect(x *models.CurrencyExchange) (Effect, error) {
	if x.FeeCurrency == "" {
		return Effect{}, &models.InvariantError{Op: "exchange effect", Reason: "exchange " + x.ID + " has no fee currency"}
	}
	var eff Effect
	eff.balance(x.Account, x.SellCurrency, x.SellAmount.Neg())
	eff.balance(x.Account, x.BuyCurrency, x.BuyAmount)
	eff.balance(x.Account, x.FeeCurrency, x.Fee.Neg())
	return eff, nil
}

func resolveExchange(ctx context.Context, tx interfaces.LedgerView, x *models.CurrencyExchange, home string) error {
	if _, err := tx.GetAccount(ctx, x.Account); err != nil {
		return err
	}
	x.FeeCurrency = home
	return nil
}
