package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/bobmcallan/purse/internal/models"
)

type importFile struct {
	Accounts   []importAccount  `yaml:"accounts"`
	Securities []importSecurity `yaml:"securities"`
	Events     []importEvent    `yaml:"events"`
}

type importAccount struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

type importSecurity struct {
	ID       string `yaml:"id"`
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
}

// importEvent is the flat YAML form of all three event kinds. Amounts are
// strings so they reach decimal.Decimal without a float round trip.
type importEvent struct {
	Kind      string `yaml:"kind"`
	ID        string `yaml:"id"`
	Timestamp string `yaml:"timestamp"`
	Note      string `yaml:"note"`
	Type      string `yaml:"type"`

	// cash
	Amount         string `yaml:"amount"`
	Currency       string `yaml:"currency"`
	PayAccount     string `yaml:"pay_account"`
	ReceiveAccount string `yaml:"receive_account"`

	// trade
	Account  string `yaml:"account"`
	Security string `yaml:"security"`
	Quantity string `yaml:"quantity"`
	Price    string `yaml:"price"`
	Tax      string `yaml:"tax"`

	// exchange
	SellCurrency string `yaml:"sell_currency"`
	SellAmount   string `yaml:"sell_amount"`
	BuyCurrency  string `yaml:"buy_currency"`
	BuyAmount    string `yaml:"buy_amount"`

	Fee string `yaml:"fee"`
}

// ImportResult counts what an import did.
type ImportResult struct {
	Accounts   int
	Securities int
	Events     int
	Skipped    int
}

// ImportLedgerFromFile reads a YAML ledger document and records its accounts,
// securities and events in that order through the bookkeeping service.
// Accounts, securities and events whose id already exists are skipped.
// The first failing event aborts the import; earlier events stay recorded.
func (a *App) ImportLedgerFromFile(ctx context.Context, filePath string) (*ImportResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file %s: %w", filePath, err)
	}

	var file importFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ledger file %s: %w", filePath, err)
	}

	svc := a.BookkeepingService
	res := &ImportResult{}

	for _, ia := range file.Accounts {
		acct := &models.Account{ID: ia.ID, Name: ia.Name, Kind: models.AccountKind(strings.ToLower(ia.Kind))}
		if _, err := svc.CreateAccount(ctx, acct); err != nil {
			if isAlreadyExists(err) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("account %s: %w", ia.ID, err)
		}
		res.Accounts++
	}

	for _, is := range file.Securities {
		sec := &models.Security{ID: is.ID, Symbol: is.Symbol, Name: is.Name, Currency: is.Currency}
		if _, err := svc.CreateSecurity(ctx, sec); err != nil {
			if isAlreadyExists(err) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("security %s: %w", is.ID, err)
		}
		res.Securities++
	}

	for i, ie := range file.Events {
		ev, err := ie.toEvent()
		if err != nil {
			return res, fmt.Errorf("event %d: %w", i+1, err)
		}
		if ie.ID != "" {
			if _, err := svc.GetEvent(ctx, ev.Ref()); err == nil {
				res.Skipped++
				continue
			} else if !errors.Is(err, models.ErrReferenceNotFound) {
				return res, fmt.Errorf("event %d: %w", i+1, err)
			}
		}
		if _, err := svc.Record(ctx, ev); err != nil {
			return res, fmt.Errorf("event %d (%s): %w", i+1, ie.Kind, err)
		}
		res.Events++
	}

	a.Logger.Info().
		Str("file", filePath).
		Int("accounts", res.Accounts).
		Int("securities", res.Securities).
		Int("events", res.Events).
		Int("skipped", res.Skipped).
		Msg("Ledger import complete")

	return res, nil
}

func isAlreadyExists(err error) bool {
	var verr *models.ValidationError
	return errors.As(err, &verr) && verr.Field == "id" && strings.HasSuffix(verr.Reason, "already exists")
}

func (ie importEvent) toEvent() (models.Event, error) {
	kind, err := models.ParseEventKind(ie.Kind)
	if err != nil {
		return nil, err
	}
	ts, err := parseImportTime(ie.Timestamp)
	if err != nil {
		return nil, err
	}
	meta := models.EventMeta{ID: strings.TrimSpace(ie.ID), Timestamp: ts, Note: ie.Note}

	var p amountParser
	switch kind {
	case models.KindCash:
		ev := &models.CashTransaction{
			EventMeta:      meta,
			Type:           models.CashTransactionType(strings.ToLower(ie.Type)),
			Amount:         p.parse("amount", ie.Amount),
			Fee:            p.parse("fee", ie.Fee),
			Currency:       ie.Currency,
			PayAccount:     ie.PayAccount,
			ReceiveAccount: ie.ReceiveAccount,
		}
		return ev, p.err
	case models.KindTrade:
		ev := &models.SecurityTrade{
			EventMeta: meta,
			Type:      models.TradeType(strings.ToLower(ie.Type)),
			Account:   ie.Account,
			Security:  ie.Security,
			Quantity:  p.parse("quantity", ie.Quantity),
			Price:     p.parse("price", ie.Price),
			Tax:       p.parse("tax", ie.Tax),
			Fee:       p.parse("fee", ie.Fee),
		}
		return ev, p.err
	default:
		ev := &models.CurrencyExchange{
			EventMeta:    meta,
			Account:      ie.Account,
			SellCurrency: ie.SellCurrency,
			SellAmount:   p.parse("sell_amount", ie.SellAmount),
			BuyCurrency:  ie.BuyCurrency,
			BuyAmount:    p.parse("buy_amount", ie.BuyAmount),
			Fee:          p.parse("fee", ie.Fee),
		}
		return ev, p.err
	}
}

// amountParser keeps the first parse failure so a record can be built in
// one expression.
type amountParser struct {
	err error
}

func (p *amountParser) parse(field, s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil && p.err == nil {
		p.err = &models.ValidationError{Field: field, Reason: fmt.Sprintf("is not a number: %q", s)}
	}
	return d
}

func parseImportTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, &models.ValidationError{Field: "timestamp", Reason: fmt.Sprintf("must be RFC3339 or YYYY-MM-DD, got %q", s)}
}
