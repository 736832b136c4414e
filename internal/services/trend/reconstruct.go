// Package trend reconstructs the monthly net-worth series from event
// deltas anchored on the current total.
package trend

import (
	"sort"
	"time"

	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
)

// Bucket is the net signed flow of one source kind in one currency during
// one calendar month.
type Bucket struct {
	Month    time.Time
	Currency string
	Source   models.EventKind
	Amount   decimal.Decimal
}

// MonthStart returns the first instant of t's calendar month in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

type bucketKey struct {
	month    int64
	currency string
	source   models.EventKind
}

// BucketEvents aggregates the trend-relevant flow of events by month,
// currency and source. Cash transactions contribute their net flow (a
// transfer only its fee); trades contribute realized gain less tax and fee
// on sells. Other events and deleted ones are ignored.
func BucketEvents(events []models.Event, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.UTC
	}
	sums := make(map[bucketKey]*Bucket)
	add := func(ts time.Time, currency string, source models.EventKind, amount decimal.Decimal) {
		month := MonthStart(ts, loc)
		k := bucketKey{month: month.Unix(), currency: currency, source: source}
		b, ok := sums[k]
		if !ok {
			b = &Bucket{Month: month, Currency: currency, Source: source}
			sums[k] = b
		}
		b.Amount = b.Amount.Add(amount)
	}

	for _, ev := range events {
		if ev.IsDeleted() {
			continue
		}
		switch e := ev.(type) {
		case *models.CashTransaction:
			add(e.Timestamp, e.Currency, models.KindCash, e.NetFlow())
		case *models.SecurityTrade:
			if e.Type == models.TradeSell {
				add(e.Timestamp, e.Currency, models.KindTrade, e.NetFlow())
			}
		}
	}

	out := make([]Bucket, 0, len(sums))
	for _, b := range sums {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.Before(out[j].Month)
		}
		if out[i].Currency != out[j].Currency {
			return out[i].Currency < out[j].Currency
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// Reconstruct anchors the series on asOfTotal and works backwards:
// baseline = asOfTotal − Σ monthly deltas is emitted one month before the
// first bucketed month, then the running total is walked forward month by
// month through the last bucketed month, repeating the prior value for
// empty months. Every figure is converted to the home currency with rates
// (missing rate ⇒ 1).
//
// With no buckets the series is (periodStart, asOfTotal), (now, asOfTotal).
func Reconstruct(asOfTotal decimal.Decimal, periodStart, now time.Time, rates models.Rates, buckets []Bucket) []models.TrendPoint {
	if len(buckets) == 0 {
		return []models.TrendPoint{
			{Month: periodStart, Total: asOfTotal},
			{Month: now, Total: asOfTotal},
		}
	}

	deltas := make(map[int64]decimal.Decimal)
	totalDelta := decimal.Zero
	first, last := buckets[0].Month, buckets[0].Month
	for _, b := range buckets {
		d := rates.Convert(b.Amount, b.Currency)
		deltas[b.Month.Unix()] = deltas[b.Month.Unix()].Add(d)
		totalDelta = totalDelta.Add(d)
		if b.Month.Before(first) {
			first = b.Month
		}
		if b.Month.After(last) {
			last = b.Month
		}
	}

	running := asOfTotal.Sub(totalDelta)
	points := []models.TrendPoint{{Month: first.AddDate(0, -1, 0), Total: running}}
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		running = running.Add(deltas[m.Unix()])
		points = append(points, models.TrendPoint{Month: m, Total: running})
	}
	return points
}
