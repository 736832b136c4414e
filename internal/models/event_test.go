package models

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseEventKind(t *testing.T) {
	for in, want := range map[string]EventKind{
		"cash": KindCash, "Transactions": KindCash, " trade ": KindTrade,
		"trades": KindTrade, "exchange": KindExchange, "EXCHANGES": KindExchange,
	} {
		got, err := ParseEventKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEventKind("bonds")
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestSoftDeleted(t *testing.T) {
	assert.True(t, KindCash.SoftDeleted())
	assert.True(t, KindExchange.SoftDeleted())
	assert.False(t, KindTrade.SoftDeleted())
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent(KindTrade, []byte(`{
		"id": "t1", "timestamp": "2025-04-02T09:30:00Z", "type": "sell",
		"account": "broker", "security": "acme", "quantity": "3", "price": 12.5
	}`))
	require.NoError(t, err)

	trade, ok := ev.(*SecurityTrade)
	require.True(t, ok)
	assert.Equal(t, EventRef{Kind: KindTrade, ID: "t1"}, trade.Ref())
	assert.True(t, trade.Price.Equal(d("12.5")))
	assert.True(t, trade.Gross().Equal(d("37.5")))
	assert.True(t, trade.OccurredAt().Equal(ts))

	_, err = DecodeEvent(KindCash, []byte(`{"amount": "abc"}`))
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = DecodeEvent("bonds", []byte(`{}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestCashTransaction_Validate(t *testing.T) {
	valid := func() *CashTransaction {
		return &CashTransaction{
			EventMeta:  EventMeta{Timestamp: ts},
			Type:       CashTxSpending,
			Amount:     d("10"),
			Currency:   " eur ",
			PayAccount: " checking ",
		}
	}

	tx := valid()
	require.NoError(t, tx.Validate())
	assert.Equal(t, "EUR", tx.Currency)
	assert.Equal(t, "checking", tx.PayAccount)

	tests := []struct {
		name   string
		mutate func(*CashTransaction)
		field  string
	}{
		{"missing timestamp", func(c *CashTransaction) { c.Timestamp = time.Time{} }, "timestamp"},
		{"bad type", func(c *CashTransaction) { c.Type = "gift" }, "type"},
		{"zero amount", func(c *CashTransaction) { c.Amount = decimal.Zero }, "amount"},
		{"negative fee", func(c *CashTransaction) { c.Fee = d("-1") }, "fee"},
		{"unknown currency", func(c *CashTransaction) { c.Currency = "ZZZ" }, "currency"},
		{"spending with receive", func(c *CashTransaction) { c.ReceiveAccount = "savings" }, "receive_account"},
		{"income without receive", func(c *CashTransaction) { c.Type = CashTxIncome }, "receive_account"},
		{"transfer to self", func(c *CashTransaction) { c.Type = CashTxTransfer; c.ReceiveAccount = "checking" }, "receive_account"},
		{"transfer missing side", func(c *CashTransaction) { c.Type = CashTxTransfer }, "pay_account"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid()
			tt.mutate(tx)
			err := tx.Validate()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCashTransaction_NetFlow(t *testing.T) {
	base := CashTransaction{Amount: d("100"), Fee: d("2")}

	income := base
	income.Type = CashTxIncome
	assert.True(t, income.NetFlow().Equal(d("98")))

	spending := base
	spending.Type = CashTxSpending
	assert.True(t, spending.NetFlow().Equal(d("-102")))

	transfer := base
	transfer.Type = CashTxTransfer
	assert.True(t, transfer.NetFlow().Equal(d("-2")))
}

func TestSecurityTrade_NetFlow(t *testing.T) {
	buy := SecurityTrade{Type: TradeBuy, Quantity: d("1"), Price: d("10"), Fee: d("1")}
	assert.True(t, buy.NetFlow().IsZero())

	sell := SecurityTrade{Type: TradeSell, RealizedGain: d("50"), Tax: d("10"), Fee: d("1")}
	assert.True(t, sell.NetFlow().Equal(d("39")))
}

func TestSecurityTrade_Validate(t *testing.T) {
	tr := &SecurityTrade{
		EventMeta: EventMeta{Timestamp: ts},
		Type:      TradeBuy,
		Account:   "broker",
		Security:  "acme",
		Quantity:  d("1"),
		Price:     d("0"),
	}
	require.NoError(t, tr.Validate())

	tr.Quantity = d("-1")
	assert.ErrorIs(t, tr.Validate(), ErrInvalidEvent)
}

func TestCurrencyExchange_Validate(t *testing.T) {
	x := &CurrencyExchange{
		EventMeta:    EventMeta{Timestamp: ts},
		Account:      "checking",
		SellCurrency: "eur",
		SellAmount:   d("100"),
		BuyCurrency:  "usd",
		BuyAmount:    d("108"),
	}
	require.NoError(t, x.Validate())
	assert.Equal(t, "EUR", x.SellCurrency)
	assert.Equal(t, "USD", x.BuyCurrency)

	x.BuyCurrency = "EUR"
	var verr *ValidationError
	require.ErrorAs(t, x.Validate(), &verr)
	assert.Equal(t, "buy_currency", verr.Field)

	x.BuyCurrency = "QQQ"
	require.ErrorAs(t, x.Validate(), &verr)
	assert.Equal(t, "buy_currency", verr.Field)
}

func TestAccountAndSecurity_Validate(t *testing.T) {
	a := &Account{ID: " checking "}
	require.NoError(t, a.Validate())
	assert.Equal(t, "checking", a.Name)
	assert.Equal(t, AccountOther, a.Kind)

	a.Kind = "piggybank"
	assert.ErrorIs(t, a.Validate(), ErrInvalidEvent)

	s := &Security{ID: "vwce", Currency: "eur"}
	require.NoError(t, s.Validate())
	assert.Equal(t, "VWCE", s.Symbol)
	assert.Equal(t, "EUR", s.Currency)
}

func TestRates(t *testing.T) {
	r := RatesFromFloats(map[string]float64{"usd": 0.5})
	assert.True(t, r.Rate("USD").Equal(d("0.5")))
	assert.True(t, r.Rate("GBP").Equal(d("1")))
	assert.True(t, r.Convert(d("10"), "USD").Equal(d("5")))

	merged := r.Merge(Rates{"USD": d("0.9"), "GBP": d("1.2")})
	assert.True(t, merged.Rate("USD").Equal(d("0.9")))
	assert.True(t, r.Rate("USD").Equal(d("0.5")), "merge must not modify the receiver")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1,234.57", FormatAmount(d("1234.567"), "USD"))
	assert.Equal(t, "12.5 XQQ", FormatAmount(d("12.5"), "XQQ"))
}

func TestUnixNanos(t *testing.T) {
	assert.Equal(t, int64(math.MinInt64), UnixNanos(time.Time{}))
	assert.Equal(t, ts.UnixNano(), UnixNanos(ts))
	assert.Less(t, UnixNanos(time.Time{}), UnixNanos(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPosition_AverageCost(t *testing.T) {
	p := Position{Quantity: d("4"), Cost: d("10")}
	assert.True(t, p.AverageCost().Equal(d("2.5")))
	assert.True(t, Position{}.AverageCost().IsZero())
}
