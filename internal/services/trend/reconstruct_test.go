package trend

import (
	"testing"
	"time"

	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func assertPoints(t *testing.T, want map[time.Time]string, got []models.TrendPoint) {
	t.Helper()
	require.Len(t, got, len(want))
	for _, p := range got {
		w, ok := want[p.Month]
		require.Truef(t, ok, "unexpected month %s", p.Month)
		assert.Truef(t, dec(w).Equal(p.Total), "%s: want %s, got %s", p.Month.Format("2006-01"), w, p.Total)
	}
}

func TestReconstruct_Baseline(t *testing.T) {
	buckets := []Bucket{
		{Month: month(2025, time.January), Currency: "EUR", Source: models.KindCash, Amount: dec("100")},
		{Month: month(2025, time.February), Currency: "EUR", Source: models.KindCash, Amount: dec("-50")},
	}
	points := Reconstruct(dec("1000"), month(2024, time.June), month(2025, time.March), nil, buckets)

	require.Len(t, points, 3)
	assert.Equal(t, month(2024, time.December), points[0].Month)
	assert.True(t, dec("950").Equal(points[0].Total))
	assert.True(t, dec("1050").Equal(points[1].Total))
	assert.True(t, dec("1000").Equal(points[2].Total), "last point matches the current total")
}

func TestReconstruct_EmptyMonthsRepeatPriorValue(t *testing.T) {
	buckets := []Bucket{
		{Month: month(2025, time.January), Currency: "EUR", Source: models.KindCash, Amount: dec("10")},
		{Month: month(2025, time.April), Currency: "EUR", Source: models.KindTrade, Amount: dec("20")},
	}
	points := Reconstruct(dec("500"), month(2025, time.January), month(2025, time.May), nil, buckets)

	assertPoints(t, map[time.Time]string{
		month(2024, time.December): "470",
		month(2025, time.January):  "480",
		month(2025, time.February): "480",
		month(2025, time.March):    "480",
		month(2025, time.April):    "500",
	}, points)
}

func TestReconstruct_ConvertsCurrencies(t *testing.T) {
	rates := models.Rates{"USD": dec("0.5")}
	buckets := []Bucket{
		{Month: month(2025, time.March), Currency: "USD", Source: models.KindCash, Amount: dec("100")},
		{Month: month(2025, time.March), Currency: "EUR", Source: models.KindCash, Amount: dec("10")},
		{Month: month(2025, time.March), Currency: "CHF", Source: models.KindTrade, Amount: dec("5")},
	}
	points := Reconstruct(dec("1000"), month(2025, time.January), month(2025, time.April), rates, buckets)

	// 50 + 10 + 5 (CHF has no rate and converts at 1)
	assertPoints(t, map[time.Time]string{
		month(2025, time.February): "935",
		month(2025, time.March):    "1000",
	}, points)
}

func TestReconstruct_NoBuckets(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC)
	points := Reconstruct(dec("1234.5"), start, now, nil, nil)

	require.Len(t, points, 2)
	assert.Equal(t, start, points[0].Month)
	assert.Equal(t, now, points[1].Month)
	assert.True(t, dec("1234.5").Equal(points[0].Total))
	assert.True(t, dec("1234.5").Equal(points[1].Total))
}

func TestReconstruct_YearBoundary(t *testing.T) {
	buckets := []Bucket{
		{Month: month(2024, time.November), Currency: "EUR", Amount: dec("1")},
		{Month: month(2025, time.February), Currency: "EUR", Amount: dec("1")},
	}
	points := Reconstruct(dec("0"), month(2024, time.November), month(2025, time.March), nil, buckets)

	require.Len(t, points, 5)
	assert.Equal(t, month(2024, time.October), points[0].Month)
	assert.Equal(t, month(2025, time.February), points[4].Month)
}

func TestBucketEvents_CashFlows(t *testing.T) {
	jan := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	events := []models.Event{
		&models.CashTransaction{EventMeta: models.EventMeta{Timestamp: jan}, Type: models.CashTxIncome, Amount: dec("1000"), Fee: dec("10"), Currency: "EUR"},
		&models.CashTransaction{EventMeta: models.EventMeta{Timestamp: jan}, Type: models.CashTxSpending, Amount: dec("40"), Fee: dec("1"), Currency: "EUR"},
		&models.CashTransaction{EventMeta: models.EventMeta{Timestamp: jan}, Type: models.CashTxTransfer, Amount: dec("500"), Fee: dec("5"), Currency: "EUR"},
	}
	buckets := BucketEvents(events, time.UTC)

	require.Len(t, buckets, 1)
	assert.Equal(t, month(2025, time.January), buckets[0].Month)
	// 990 − 41 − 5
	assert.True(t, dec("944").Equal(buckets[0].Amount), buckets[0].Amount.String())
}

func TestBucketEvents_TransferNeutrality(t *testing.T) {
	events := []models.Event{
		&models.CashTransaction{
			EventMeta: models.EventMeta{Timestamp: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
			Type:      models.CashTxTransfer, Amount: dec("500"), Fee: dec("5"), Currency: "EUR",
			PayAccount: "checking", ReceiveAccount: "savings",
		},
	}
	buckets := BucketEvents(events, time.UTC)
	require.Len(t, buckets, 1)
	assert.True(t, dec("-5").Equal(buckets[0].Amount))
}

func TestBucketEvents_TradesSellsOnly(t *testing.T) {
	ts := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	events := []models.Event{
		&models.SecurityTrade{EventMeta: models.EventMeta{Timestamp: ts}, Type: models.TradeBuy, Quantity: dec("10"), Price: dec("100"), Fee: dec("3"), Currency: "USD"},
		&models.SecurityTrade{EventMeta: models.EventMeta{Timestamp: ts}, Type: models.TradeSell, Quantity: dec("5"), Price: dec("130"), Fee: dec("2"), Tax: dec("8"), RealizedGain: dec("150"), Currency: "USD"},
	}
	buckets := BucketEvents(events, time.UTC)

	require.Len(t, buckets, 1)
	assert.Equal(t, models.KindTrade, buckets[0].Source)
	assert.Equal(t, "USD", buckets[0].Currency)
	assert.True(t, dec("140").Equal(buckets[0].Amount))
}

func TestBucketEvents_MonthsNotDays(t *testing.T) {
	events := []models.Event{
		&models.CashTransaction{EventMeta: models.EventMeta{Timestamp: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)}, Type: models.CashTxIncome, Amount: dec("1"), Currency: "EUR"},
		&models.CashTransaction{EventMeta: models.EventMeta{Timestamp: time.Date(2025, 4, 17, 8, 0, 0, 0, time.UTC)}, Type: models.CashTxIncome, Amount: dec("2"), Currency: "EUR"},
		&models.CashTransaction{EventMeta: models.EventMeta{Timestamp: time.Date(2025, 4, 30, 23, 0, 0, 0, time.UTC)}, Type: models.CashTxIncome, Amount: dec("3"), Currency: "EUR"},
	}
	buckets := BucketEvents(events, time.UTC)
	require.Len(t, buckets, 1)
	assert.True(t, dec("6").Equal(buckets[0].Amount))
}

func TestBucketEvents_Location(t *testing.T) {
	// 23:30 UTC on 31 Jan is already February in Auckland.
	loc := time.FixedZone("NZDT", 13*3600)
	ts := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)
	events := []models.Event{
		&models.CashTransaction{EventMeta: models.EventMeta{Timestamp: ts}, Type: models.CashTxIncome, Amount: dec("1"), Currency: "EUR"},
	}

	assert.Equal(t, time.January, BucketEvents(events, time.UTC)[0].Month.Month())
	assert.Equal(t, time.February, BucketEvents(events, loc)[0].Month.Month())
}

func TestBucketEvents_SkipsDeleted(t *testing.T) {
	deleted := time.Now()
	events := []models.Event{
		&models.CashTransaction{EventMeta: models.EventMeta{Timestamp: deleted, DeletedAt: &deleted}, Type: models.CashTxIncome, Amount: dec("1"), Currency: "EUR"},
	}
	assert.Empty(t, BucketEvents(events, time.UTC))
}
