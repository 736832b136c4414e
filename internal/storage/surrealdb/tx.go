package surrealdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type pairKey [2]string

// pendingEvent is a staged event write; removed marks a hard delete.
type pendingEvent struct {
	ev      models.Event
	removed bool
}

// ledgerTx reads through to the database and stages writes. Staged values
// overlay the database so reads inside the transaction see its own writes.
type ledgerTx struct {
	db    *surrealdb.DB
	stmts []string
	vars  map[string]any

	accounts   map[string]*models.Account
	securities map[string]*models.Security
	balances   map[pairKey]models.Balance
	positions  map[pairKey]models.Position
	events     map[models.EventRef]*pendingEvent
}

func newLedgerTx(db *surrealdb.DB) *ledgerTx {
	return &ledgerTx{
		db:         db,
		vars:       make(map[string]any),
		accounts:   make(map[string]*models.Account),
		securities: make(map[string]*models.Security),
		balances:   make(map[pairKey]models.Balance),
		positions:  make(map[pairKey]models.Position),
		events:     make(map[models.EventRef]*pendingEvent),
	}
}

// stage appends "<verb> $ridN [CONTENT $recN]" to the buffer.
func (t *ledgerTx) stage(verb string, rid surrealmodels.RecordID, rec any) {
	n := len(t.stmts)
	ridVar := fmt.Sprintf("rid%d", n)
	t.vars[ridVar] = rid
	stmt := verb + " $" + ridVar
	if rec != nil {
		recVar := fmt.Sprintf("rec%d", n)
		t.vars[recVar] = rec
		stmt += " CONTENT $" + recVar
	}
	t.stmts = append(t.stmts, stmt)
}

func (t *ledgerTx) commit(ctx context.Context) error {
	if len(t.stmts) == 0 {
		return nil
	}
	sql := "BEGIN TRANSACTION;\n" + strings.Join(t.stmts, ";\n") + ";\nCOMMIT TRANSACTION;"
	results, err := surrealdb.Query[any](ctx, t.db, sql, t.vars)
	if err != nil {
		return err
	}
	if results != nil {
		for i, r := range *results {
			if r.Status != "OK" {
				return fmt.Errorf("statement %d failed: %v", i, r.Result)
			}
		}
	}
	return nil
}

func selectOne[T any](ctx context.Context, db *surrealdb.DB, rid surrealmodels.RecordID) (*T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, "SELECT * FROM $rid", map[string]any{"rid": rid})
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

func selectAll[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

// --- reference data ---

func (t *ledgerTx) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if a, ok := t.accounts[id]; ok {
		return a, nil
	}
	rec, err := selectOne[accountRecord](ctx, t.db, accountRID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if rec == nil {
		return nil, models.NotFound("account", id)
	}
	return rec.toModel(), nil
}

func (t *ledgerTx) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	recs, err := selectAll[accountRecord](ctx, t.db, "SELECT * FROM account", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	byID := make(map[string]*models.Account, len(recs)+len(t.accounts))
	for _, r := range recs {
		byID[r.AccountID] = r.toModel()
	}
	for id, a := range t.accounts {
		byID[id] = a
	}
	out := make([]*models.Account, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *ledgerTx) SaveAccount(_ context.Context, a *models.Account) error {
	t.accounts[a.ID] = a
	t.stage("UPSERT", accountRID(a.ID), accountRecord{
		AccountID: a.ID,
		Name:      a.Name,
		Kind:      string(a.Kind),
		CreatedAt: formatTime(a.CreatedAt),
	})
	return nil
}

func (t *ledgerTx) GetSecurity(ctx context.Context, id string) (*models.Security, error) {
	if s, ok := t.securities[id]; ok {
		return s, nil
	}
	rec, err := selectOne[securityRecord](ctx, t.db, securityRID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get security: %w", err)
	}
	if rec == nil {
		return nil, models.NotFound("security", id)
	}
	return rec.toModel(), nil
}

func (t *ledgerTx) ListSecurities(ctx context.Context) ([]*models.Security, error) {
	recs, err := selectAll[securityRecord](ctx, t.db, "SELECT * FROM security", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list securities: %w", err)
	}
	byID := make(map[string]*models.Security, len(recs)+len(t.securities))
	for _, r := range recs {
		byID[r.SecurityID] = r.toModel()
	}
	for id, s := range t.securities {
		byID[id] = s
	}
	out := make([]*models.Security, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *ledgerTx) SaveSecurity(_ context.Context, s *models.Security) error {
	t.securities[s.ID] = s
	t.stage("UPSERT", securityRID(s.ID), securityRecord{
		SecurityID: s.ID,
		Symbol:     s.Symbol,
		Name:       s.Name,
		Currency:   s.Currency,
		CreatedAt:  formatTime(s.CreatedAt),
	})
	return nil
}

// --- aggregates ---

func (t *ledgerTx) GetBalance(ctx context.Context, account, currency string) (models.Balance, error) {
	if b, ok := t.balances[pairKey{account, currency}]; ok {
		return b, nil
	}
	rec, err := selectOne[balanceRecord](ctx, t.db, balanceRID(account, currency))
	if err != nil {
		return models.Balance{}, fmt.Errorf("failed to get balance: %w", err)
	}
	if rec == nil {
		return models.Balance{Account: account, Currency: currency}, nil
	}
	return rec.toModel()
}

func (t *ledgerTx) ListBalances(ctx context.Context) ([]models.Balance, error) {
	recs, err := selectAll[balanceRecord](ctx, t.db, "SELECT * FROM balance", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	byKey := make(map[pairKey]models.Balance, len(recs)+len(t.balances))
	for _, r := range recs {
		b, err := r.toModel()
		if err != nil {
			return nil, err
		}
		byKey[pairKey{b.Account, b.Currency}] = b
	}
	for k, b := range t.balances {
		byKey[k] = b
	}
	out := make([]models.Balance, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}

func (t *ledgerTx) AddBalance(ctx context.Context, account, currency string, delta decimal.Decimal) error {
	b, err := t.GetBalance(ctx, account, currency)
	if err != nil {
		return err
	}
	b.Amount = b.Amount.Add(delta)
	b.UpdatedAt = time.Now()
	t.balances[pairKey{account, currency}] = b
	t.stage("UPSERT", balanceRID(account, currency), balanceRecord{
		Account:   account,
		Currency:  currency,
		Amount:    b.Amount.String(),
		UpdatedAt: formatTime(b.UpdatedAt),
	})
	return nil
}

func (t *ledgerTx) GetPosition(ctx context.Context, account, security string) (models.Position, error) {
	if p, ok := t.positions[pairKey{account, security}]; ok {
		return p, nil
	}
	rec, err := selectOne[positionRecord](ctx, t.db, positionRID(account, security))
	if err != nil {
		return models.Position{}, fmt.Errorf("failed to get position: %w", err)
	}
	if rec == nil {
		return models.Position{Account: account, Security: security}, nil
	}
	return rec.toModel()
}

func (t *ledgerTx) ListPositions(ctx context.Context) ([]models.Position, error) {
	recs, err := selectAll[positionRecord](ctx, t.db, "SELECT * FROM position", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	byKey := make(map[pairKey]models.Position, len(recs)+len(t.positions))
	for _, r := range recs {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		byKey[pairKey{p.Account, p.Security}] = p
	}
	for k, p := range t.positions {
		byKey[k] = p
	}
	out := make([]models.Position, 0, len(byKey))
	for _, p := range byKey {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].Security < out[j].Security
	})
	return out, nil
}

func (t *ledgerTx) AddPosition(ctx context.Context, account, security string, quantity, cost decimal.Decimal) error {
	p, err := t.GetPosition(ctx, account, security)
	if err != nil {
		return err
	}
	newQty := p.Quantity.Add(quantity)
	if newQty.IsNegative() {
		return &models.OversoldError{Account: account, Security: security, Requested: quantity.Neg(), Available: p.Quantity}
	}
	p.Quantity = newQty
	p.Cost = p.Cost.Add(cost)
	p.UpdatedAt = time.Now()
	t.positions[pairKey{account, security}] = p
	t.stage("UPSERT", positionRID(account, security), positionRecord{
		Account:   account,
		Security:  security,
		Quantity:  p.Quantity.String(),
		Cost:      p.Cost.String(),
		UpdatedAt: formatTime(p.UpdatedAt),
	})
	return nil
}

// --- events ---

func newEventRecord(ev models.Event) (eventRecord, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return eventRecord{}, fmt.Errorf("failed to encode event: %w", err)
	}
	ref := ev.Ref()
	return eventRecord{
		Kind:       string(ref.Kind),
		EventID:    ref.ID,
		OccurredAt: models.UnixNanos(ev.OccurredAt()),
		Deleted:    ev.IsDeleted(),
		Payload:    string(data),
	}, nil
}

func (t *ledgerTx) GetEvent(ctx context.Context, ref models.EventRef) (models.Event, error) {
	if p, ok := t.events[ref]; ok {
		if p.removed {
			return nil, models.NotFound(string(ref.Kind)+" event", ref.ID)
		}
		return p.ev, nil
	}
	rec, err := selectOne[eventRecord](ctx, t.db, eventRID(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if rec == nil {
		return nil, models.NotFound(string(ref.Kind)+" event", ref.ID)
	}
	return rec.toModel()
}

func (t *ledgerTx) ListEvents(ctx context.Context, kind models.EventKind, from time.Time) ([]models.Event, error) {
	recs, err := selectAll[eventRecord](ctx, t.db,
		"SELECT * FROM event WHERE kind = $kind AND deleted = false AND occurred_at >= $from",
		map[string]any{"kind": string(kind), "from": models.UnixNanos(from)})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	byID := make(map[string]models.Event, len(recs))
	for _, r := range recs {
		ev, err := r.toModel()
		if err != nil {
			return nil, err
		}
		byID[r.EventID] = ev
	}
	for ref, p := range t.events {
		if ref.Kind != kind {
			continue
		}
		delete(byID, ref.ID)
		if !p.removed && !p.ev.IsDeleted() && !p.ev.OccurredAt().Before(from) {
			byID[ref.ID] = p.ev
		}
	}

	out := make([]models.Event, 0, len(byID))
	for _, ev := range byID {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].OccurredAt(), out[j].OccurredAt()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].Ref().ID < out[j].Ref().ID
	})
	return out, nil
}

func (t *ledgerTx) InsertEvent(ctx context.Context, ev models.Event) error {
	ref := ev.Ref()
	if _, err := t.GetEvent(ctx, ref); err == nil {
		return fmt.Errorf("event %s already exists", ref)
	} else if !isNotFound(err) {
		return err
	}
	rec, err := newEventRecord(ev)
	if err != nil {
		return err
	}
	t.events[ref] = &pendingEvent{ev: ev}
	t.stage("CREATE", eventRID(ref), rec)
	return nil
}

func (t *ledgerTx) ReplaceEvent(ctx context.Context, ev models.Event) error {
	ref := ev.Ref()
	if _, err := t.GetEvent(ctx, ref); err != nil {
		return err
	}
	rec, err := newEventRecord(ev)
	if err != nil {
		return err
	}
	t.events[ref] = &pendingEvent{ev: ev}
	t.stage("UPSERT", eventRID(ref), rec)
	return nil
}

func (t *ledgerTx) DeleteEvent(ctx context.Context, ref models.EventRef, at time.Time) error {
	ev, err := t.GetEvent(ctx, ref)
	if err != nil {
		return err
	}
	if ref.Kind.SoftDeleted() {
		at = at.UTC()
		ev.Meta().DeletedAt = &at
		return t.ReplaceEvent(ctx, ev)
	}
	t.events[ref] = &pendingEvent{removed: true}
	t.stage("DELETE", eventRID(ref), nil)
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrReferenceNotFound)
}

var _ interfaces.LedgerTx = (*ledgerTx)(nil)
