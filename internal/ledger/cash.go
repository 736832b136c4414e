package ledger

import (
	"context"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
)

// cashEffect:
//
//	spending  pay     -= amount + fee
//	income    receive += amount - fee
//	transfer  pay     -= amount + fee, receive += amount
func cashEffect(t *models.CashTransaction) Effect {
	var eff Effect
	switch t.Type {
	case models.CashTxSpending:
		eff.balance(t.PayAccount, t.Currency, t.Amount.Add(t.Fee).Neg())
	case models.CashTxIncome:
		eff.balance(t.ReceiveAccount, t.Currency, t.Amount.Sub(t.Fee))
	case models.CashTxTransfer:
		eff.balance(t.PayAccount, t.Currency, t.Amount.Add(t.Fee).Neg())
		eff.balance(t.ReceiveAccount, t.Currency, t.Amount)
	}
	return eff
}

func resolveCash(ctx context.Context, tx interfaces.LedgerView, t *models.CashTransaction) error {
	for _, id := range t.Accounts() {
		if _, err := tx.GetAccount(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
