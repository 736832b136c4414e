package ledger

import (
	"context"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
)

// Engine applies, reapplies and retracts events against a transaction
// handle supplied per call. It holds no storage of its own; atomicity is
// the caller's transaction.
type Engine struct {
	homeCurrency string
}

// NewEngine returns an engine that charges exchange fees in homeCurrency.
func NewEngine(homeCurrency string) *Engine {
	return &Engine{homeCurrency: models.NormalizeCurrency(homeCurrency)}
}

// HomeCurrency returns the currency exchange fees are charged in.
func (e *Engine) HomeCurrency() string {
	return e.homeCurrency
}

// Apply validates ev, resolves its references and applies its forward
// effect. ev is updated in place with its write-time fields.
func (e *Engine) Apply(ctx context.Context, tx interfaces.LedgerTx, ev models.Event) (models.Event, error) {
	if ev == nil {
		return nil, &models.InvariantError{Op: "apply", Reason: "nil event"}
	}
	if ev.IsDeleted() {
		return nil, &models.InvariantError{Op: "apply", Reason: "event " + ev.Ref().String() + " is deleted"}
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := e.resolve(ctx, tx, ev); err != nil {
		return nil, err
	}

	eff, err := EffectOf(ev)
	if err != nil {
		return nil, err
	}
	if err := commit(ctx, tx, eff); err != nil {
		return nil, err
	}
	return ev, nil
}

// Retract undoes the stored effect of old. The stored realized gain of a
// sell is replayed, never recomputed.
func (e *Engine) Retract(ctx context.Context, tx interfaces.LedgerTx, old models.Event) error {
	if old == nil {
		return &models.InvariantError{Op: "retract", Reason: "nil event"}
	}
	if old.IsDeleted() {
		return &models.InvariantError{Op: "retract", Reason: "event " + old.Ref().String() + " already retracted"}
	}
	eff, err := EffectOf(old)
	if err != nil {
		return err
	}
	return commit(ctx, tx, eff.Inverse())
}

// Reapply retracts old and applies next in the caller's transaction. The
// two events must address the same record.
func (e *Engine) Reapply(ctx context.Context, tx interfaces.LedgerTx, old, next models.Event) (models.Event, error) {
	if old == nil || next == nil {
		return nil, &models.InvariantError{Op: "reapply", Reason: "nil event"}
	}
	if old.Ref() != next.Ref() {
		return nil, &models.InvariantError{
			Op:     "reapply",
			Reason: "cannot replace " + old.Ref().String() + " with " + next.Ref().String(),
		}
	}
	if err := e.Retract(ctx, tx, old); err != nil {
		return nil, err
	}
	return e.Apply(ctx, tx, next)
}

func (e *Engine) resolve(ctx context.Context, tx interfaces.LedgerView, ev models.Event) error {
	switch t := ev.(type) {
	case *models.CashTransaction:
		return resolveCash(ctx, tx, t)
	case *models.SecurityTrade:
		return resolveTrade(ctx, tx, t)
	case *models.CurrencyExchange:
		return resolveExchange(ctx, tx, t, e.homeCurrency)
	}
	return &models.InvariantError{Op: "apply", Reason: "unsupported event type"}
}
