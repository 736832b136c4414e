package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
)

// ledgerTx implements interfaces.LedgerTx over one *sql.Tx. Result sets are
// always drained and closed before the next statement; pgx does not allow
// two open queries on one connection.
type ledgerTx struct {
	tx    *sql.Tx
	store *Store
}

func (t *ledgerTx) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.store.rebind(q), args...)
}

func (t *ledgerTx) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.store.rebind(q), args...)
}

func (t *ledgerTx) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.store.rebind(q), args...)
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return ts, nil
}

// --- reference data ---

func (t *ledgerTx) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	var kind, created string
	err := t.queryRow(ctx, `SELECT id, name, kind, created_at FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &kind, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	a.Kind = models.AccountKind(kind)
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("corrupt account %s: %w", id, err)
	}
	return &a, nil
}

func (t *ledgerTx) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := t.query(ctx, `SELECT id, name, kind, created_at FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		var a models.Account
		var kind, created string
		if err := rows.Scan(&a.ID, &a.Name, &kind, &created); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Kind = models.AccountKind(kind)
		if a.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("corrupt account %s: %w", a.ID, err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (t *ledgerTx) SaveAccount(ctx context.Context, a *models.Account) error {
	_, err := t.exec(ctx, `INSERT INTO accounts (id, name, kind, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, kind = excluded.kind`,
		a.ID, a.Name, string(a.Kind), formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (t *ledgerTx) GetSecurity(ctx context.Context, id string) (*models.Security, error) {
	var s models.Security
	var created string
	err := t.queryRow(ctx, `SELECT id, symbol, name, currency, created_at FROM securities WHERE id = ?`, id).
		Scan(&s.ID, &s.Symbol, &s.Name, &s.Currency, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("security", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security: %w", err)
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("corrupt security %s: %w", id, err)
	}
	return &s, nil
}

func (t *ledgerTx) ListSecurities(ctx context.Context) ([]*models.Security, error) {
	rows, err := t.query(ctx, `SELECT id, symbol, name, currency, created_at FROM securities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list securities: %w", err)
	}
	defer rows.Close()

	var out []*models.Security
	for rows.Next() {
		var s models.Security
		var created string
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Name, &s.Currency, &created); err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("corrupt security %s: %w", s.ID, err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (t *ledgerTx) SaveSecurity(ctx context.Context, s *models.Security) error {
	_, err := t.exec(ctx, `INSERT INTO securities (id, symbol, name, currency, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET symbol = excluded.symbol, name = excluded.name`,
		s.ID, s.Symbol, s.Name, s.Currency, formatTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save security: %w", err)
	}
	return nil
}

// --- aggregates ---

func (t *ledgerTx) GetBalance(ctx context.Context, account, currency string) (models.Balance, error) {
	b := models.Balance{Account: account, Currency: currency}
	var amount, updated string
	err := t.queryRow(ctx, `SELECT amount, updated_at FROM balances WHERE account = ? AND currency = ?`, account, currency).
		Scan(&amount, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return b, nil
	}
	if err != nil {
		return b, fmt.Errorf("failed to get balance: %w", err)
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return b, fmt.Errorf("corrupt balance %s/%s: %w", account, currency, err)
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return b, fmt.Errorf("corrupt balance %s/%s: %w", account, currency, err)
	}
	return b, nil
}

func (t *ledgerTx) ListBalances(ctx context.Context) ([]models.Balance, error) {
	rows, err := t.query(ctx, `SELECT account, currency, amount, updated_at FROM balances ORDER BY account, currency`)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var out []models.Balance
	for rows.Next() {
		var b models.Balance
		var amount, updated string
		if err := rows.Scan(&b.Account, &b.Currency, &amount, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("corrupt balance %s/%s: %w", b.Account, b.Currency, err)
		}
		if b.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("corrupt balance %s/%s: %w", b.Account, b.Currency, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddBalance creates the row on first use, locks it, then writes the sum.
func (t *ledgerTx) AddBalance(ctx context.Context, account, currency string, delta decimal.Decimal) error {
	now := formatTime(time.Now())
	if _, err := t.exec(ctx, `INSERT INTO balances (account, currency, amount, updated_at) VALUES (?, ?, '0', ?)
		ON CONFLICT (account, currency) DO NOTHING`, account, currency, now); err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}

	var amount string
	if err := t.queryRow(ctx, `SELECT amount FROM balances WHERE account = ? AND currency = ?`+t.store.forUpdate(),
		account, currency).Scan(&amount); err != nil {
		return fmt.Errorf("failed to lock balance: %w", err)
	}
	current, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("corrupt balance %s/%s: %w", account, currency, err)
	}

	if _, err := t.exec(ctx, `UPDATE balances SET amount = ?, updated_at = ? WHERE account = ? AND currency = ?`,
		current.Add(delta).String(), now, account, currency); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func (t *ledgerTx) GetPosition(ctx context.Context, account, security string) (models.Position, error) {
	p := models.Position{Account: account, Security: security}
	var qty, cost, updated string
	err := t.queryRow(ctx, `SELECT quantity, cost, updated_at FROM positions WHERE account = ? AND security = ?`, account, security).
		Scan(&qty, &cost, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("failed to get position: %w", err)
	}
	if p.Quantity, p.Cost, err = parsePosition(qty, cost); err != nil {
		return p, fmt.Errorf("corrupt position %s/%s: %w", account, security, err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return p, fmt.Errorf("corrupt position %s/%s: %w", account, security, err)
	}
	return p, nil
}

func (t *ledgerTx) ListPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := t.query(ctx, `SELECT account, security, quantity, cost, updated_at FROM positions ORDER BY account, security`)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		var p models.Position
		var qty, cost, updated string
		if err := rows.Scan(&p.Account, &p.Security, &qty, &cost, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if p.Quantity, p.Cost, err = parsePosition(qty, cost); err != nil {
			return nil, fmt.Errorf("corrupt position %s/%s: %w", p.Account, p.Security, err)
		}
		if p.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("corrupt position %s/%s: %w", p.Account, p.Security, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddPosition applies a paired quantity/cost delta with the same
// create-lock-write sequence as AddBalance.
func (t *ledgerTx) AddPosition(ctx context.Context, account, security string, quantity, cost decimal.Decimal) error {
	now := formatTime(time.Now())
	if _, err := t.exec(ctx, `INSERT INTO positions (account, security, quantity, cost, updated_at) VALUES (?, ?, '0', '0', ?)
		ON CONFLICT (account, security) DO NOTHING`, account, security, now); err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}

	var qtyStr, costStr string
	if err := t.queryRow(ctx, `SELECT quantity, cost FROM positions WHERE account = ? AND security = ?`+t.store.forUpdate(),
		account, security).Scan(&qtyStr, &costStr); err != nil {
		return fmt.Errorf("failed to lock position: %w", err)
	}
	curQty, curCost, err := parsePosition(qtyStr, costStr)
	if err != nil {
		return fmt.Errorf("corrupt position %s/%s: %w", account, security, err)
	}

	newQty := curQty.Add(quantity)
	if newQty.IsNegative() {
		return &models.OversoldError{Account: account, Security: security, Requested: quantity.Neg(), Available: curQty}
	}
	if _, err := t.exec(ctx, `UPDATE positions SET quantity = ?, cost = ?, updated_at = ? WHERE account = ? AND security = ?`,
		newQty.String(), curCost.Add(cost).String(), now, account, security); err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

func parsePosition(qty, cost string) (decimal.Decimal, decimal.Decimal, error) {
	q, err := decimal.NewFromString(qty)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	c, err := decimal.NewFromString(cost)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return q, c, nil
}

// --- events ---

func (t *ledgerTx) GetEvent(ctx context.Context, ref models.EventRef) (models.Event, error) {
	var payload string
	err := t.queryRow(ctx, `SELECT payload FROM events WHERE kind = ? AND id = ?`, string(ref.Kind), ref.ID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound(string(ref.Kind)+" event", ref.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return models.DecodeEvent(ref.Kind, []byte(payload))
}

func (t *ledgerTx) ListEvents(ctx context.Context, kind models.EventKind, from time.Time) ([]models.Event, error) {
	rows, err := t.query(ctx, `SELECT payload FROM events
		WHERE kind = ? AND deleted_at IS NULL AND occurred_at >= ?
		ORDER BY occurred_at, id`, string(kind), models.UnixNanos(from))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	var payloads []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		payloads = append(payloads, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]models.Event, 0, len(payloads))
	for _, p := range payloads {
		ev, err := models.DecodeEvent(kind, []byte(p))
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func eventColumns(ev models.Event) (string, int64, sql.NullInt64, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", 0, sql.NullInt64{}, fmt.Errorf("failed to encode event: %w", err)
	}
	var deleted sql.NullInt64
	if at := ev.Meta().DeletedAt; at != nil {
		deleted = sql.NullInt64{Int64: models.UnixNanos(*at), Valid: true}
	}
	return string(data), models.UnixNanos(ev.OccurredAt()), deleted, nil
}

func (t *ledgerTx) InsertEvent(ctx context.Context, ev models.Event) error {
	payload, occurred, deleted, err := eventColumns(ev)
	if err != nil {
		return err
	}
	ref := ev.Ref()
	if _, err := t.exec(ctx, `INSERT INTO events (kind, id, occurred_at, deleted_at, payload) VALUES (?, ?, ?, ?, ?)`,
		string(ref.Kind), ref.ID, occurred, deleted, payload); err != nil {
		return fmt.Errorf("failed to insert event %s: %w", ref, err)
	}
	return nil
}

func (t *ledgerTx) ReplaceEvent(ctx context.Context, ev models.Event) error {
	payload, occurred, deleted, err := eventColumns(ev)
	if err != nil {
		return err
	}
	ref := ev.Ref()
	res, err := t.exec(ctx, `UPDATE events SET occurred_at = ?, deleted_at = ?, payload = ? WHERE kind = ? AND id = ?`,
		occurred, deleted, payload, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("failed to replace event %s: %w", ref, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.NotFound(string(ref.Kind)+" event", ref.ID)
	}
	return nil
}

func (t *ledgerTx) DeleteEvent(ctx context.Context, ref models.EventRef, at time.Time) error {
	if !ref.Kind.SoftDeleted() {
		res, err := t.exec(ctx, `DELETE FROM events WHERE kind = ? AND id = ?`, string(ref.Kind), ref.ID)
		if err != nil {
			return fmt.Errorf("failed to delete event %s: %w", ref, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return models.NotFound(string(ref.Kind)+" event", ref.ID)
		}
		return nil
	}

	ev, err := t.GetEvent(ctx, ref)
	if err != nil {
		return err
	}
	at = at.UTC()
	ev.Meta().DeletedAt = &at
	return t.ReplaceEvent(ctx, ev)
}

var _ interfaces.LedgerTx = (*ledgerTx)(nil)
