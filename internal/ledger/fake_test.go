package ledger

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// memTx is an in-memory LedgerTx for engine tests.
type memTx struct {
	accounts   map[string]*models.Account
	securities map[string]*models.Security
	balances   map[[2]string]decimal.Decimal
	positions  map[[2]string]models.Position
	events     map[models.EventRef]models.Event
	writes     int
}

func newMemTx() *memTx {
	tx := &memTx{
		accounts:   make(map[string]*models.Account),
		securities: make(map[string]*models.Security),
		balances:   make(map[[2]string]decimal.Decimal),
		positions:  make(map[[2]string]models.Position),
		events:     make(map[models.EventRef]models.Event),
	}
	for _, id := range []string{"checking", "savings", "broker", "wallet"} {
		tx.accounts[id] = &models.Account{ID: id, Name: id, Kind: models.AccountBank}
	}
	tx.securities["acme"] = &models.Security{ID: "acme", Symbol: "ACME", Currency: "USD"}
	tx.securities["bhp"] = &models.Security{ID: "bhp", Symbol: "BHP", Currency: "AUD"}
	return tx
}

func (m *memTx) GetAccount(_ context.Context, id string) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return nil, models.NotFound("account", id)
}

func (m *memTx) ListAccounts(_ context.Context) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memTx) GetSecurity(_ context.Context, id string) (*models.Security, error) {
	if s, ok := m.securities[id]; ok {
		return s, nil
	}
	return nil, models.NotFound("security", id)
}

func (m *memTx) ListSecurities(_ context.Context) ([]*models.Security, error) {
	var out []*models.Security
	for _, s := range m.securities {
		out = append(out, s)
	}
	return out, nil
}

func (m *memTx) GetBalance(_ context.Context, account, currency string) (models.Balance, error) {
	return models.Balance{Account: account, Currency: currency, Amount: m.balances[[2]string{account, currency}]}, nil
}

func (m *memTx) ListBalances(_ context.Context) ([]models.Balance, error) {
	var out []models.Balance
	for k, v := range m.balances {
		out = append(out, models.Balance{Account: k[0], Currency: k[1], Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}

func (m *memTx) GetPosition(_ context.Context, account, security string) (models.Position, error) {
	if p, ok := m.positions[[2]string{account, security}]; ok {
		return p, nil
	}
	return models.Position{Account: account, Security: security}, nil
}

func (m *memTx) ListPositions(_ context.Context) ([]models.Position, error) {
	var out []models.Position
	for _, p := range m.positions {
		out = append(out, p)
	}
	return out, nil
}

func (m *memTx) GetEvent(_ context.Context, ref models.EventRef) (models.Event, error) {
	if ev, ok := m.events[ref]; ok {
		return ev, nil
	}
	return nil, models.NotFound(string(ref.Kind), ref.ID)
}

func (m *memTx) ListEvents(_ context.Context, kind models.EventKind, from time.Time) ([]models.Event, error) {
	var out []models.Event
	for ref, ev := range m.events {
		if ref.Kind == kind && !ev.IsDeleted() && !ev.OccurredAt().Before(from) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memTx) AddBalance(_ context.Context, account, currency string, delta decimal.Decimal) error {
	m.writes++
	k := [2]string{account, currency}
	m.balances[k] = m.balances[k].Add(delta)
	return nil
}

func (m *memTx) AddPosition(_ context.Context, account, security string, quantity, cost decimal.Decimal) error {
	m.writes++
	k := [2]string{account, security}
	p := m.positions[k]
	p.Account, p.Security = account, security
	p.Quantity = p.Quantity.Add(quantity)
	p.Cost = p.Cost.Add(cost)
	m.positions[k] = p
	return nil
}

func (m *memTx) SaveAccount(_ context.Context, a *models.Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *memTx) SaveSecurity(_ context.Context, s *models.Security) error {
	m.securities[s.ID] = s
	return nil
}

func (m *memTx) InsertEvent(_ context.Context, ev models.Event) error {
	m.events[ev.Ref()] = ev
	return nil
}

func (m *memTx) ReplaceEvent(_ context.Context, ev models.Event) error {
	m.events[ev.Ref()] = ev
	return nil
}

func (m *memTx) DeleteEvent(_ context.Context, ref models.EventRef, at time.Time) error {
	ev, ok := m.events[ref]
	if !ok {
		return models.NotFound(string(ref.Kind), ref.ID)
	}
	if ref.Kind.SoftDeleted() {
		ev.Meta().DeletedAt = &at
		return nil
	}
	delete(m.events, ref)
	return nil
}

func (m *memTx) balance(account, currency string) decimal.Decimal {
	return m.balances[[2]string{account, currency}]
}

func (m *memTx) position(account, security string) models.Position {
	return m.positions[[2]string{account, security}]
}

// snapshot captures every aggregate so round trips can be compared exactly.
func (m *memTx) snapshot() map[string]string {
	out := make(map[string]string)
	for k, v := range m.balances {
		if v.IsZero() {
			continue
		}
		out["bal:"+k[0]+":"+k[1]] = v.String()
	}
	for k, p := range m.positions {
		if p.Quantity.IsZero() && p.Cost.IsZero() {
			continue
		}
		out["pos:"+k[0]+":"+k[1]] = p.Quantity.String() + "@" + p.Cost.String()
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}
