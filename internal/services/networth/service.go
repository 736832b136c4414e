// Package networth totals balances and position costs in the home currency.
package networth

import (
	"context"
	"time"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
)

// Compile-time interface check
var _ interfaces.NetWorthService = (*Service)(nil)

// Service implements NetWorthService
type Service struct {
	storage      interfaces.StorageManager
	homeCurrency string
	rates        models.Rates
	logger       *common.Logger
	now          func() time.Time
}

// NewService creates a net-worth service converting with the configured
// static rates table.
func NewService(storage interfaces.StorageManager, homeCurrency string, rates models.Rates, logger *common.Logger) *Service {
	return &Service{
		storage:      storage,
		homeCurrency: models.NormalizeCurrency(homeCurrency),
		rates:        rates,
		logger:       logger,
		now:          time.Now,
	}
}

// HomeCurrency returns the reporting currency.
func (s *Service) HomeCurrency() string {
	return s.homeCurrency
}

// Rates returns the configured table with over layered on top. The home
// currency always converts at 1, whatever either table says.
func (s *Service) Rates(over models.Rates) models.Rates {
	merged := s.rates.Merge(over)
	delete(merged, s.homeCurrency)
	return merged
}

// NetWorth reads one snapshot and totals it.
func (s *Service) NetWorth(ctx context.Context, rates models.Rates) (*models.NetWorth, error) {
	var nw *models.NetWorth
	err := s.storage.View(ctx, func(tx interfaces.LedgerView) error {
		var err error
		nw, err = Compute(ctx, tx, s.homeCurrency, s.Rates(rates))
		return err
	})
	if err != nil {
		return nil, err
	}
	nw.AsOf = s.now().UTC()

	s.logger.Debug().
		Str("currency", nw.Currency).
		Str("total", nw.Total.String()).
		Int("currencies", len(nw.Breakdown)).
		Msg("Net worth computed")
	return nw, nil
}

// Compute sums every balance and every position cost per currency, then
// converts each currency total to home with rates (missing rate ⇒ 1).
// Position cost is in the security's trading currency.
func Compute(ctx context.Context, tx interfaces.LedgerView, home string, rates models.Rates) (*models.NetWorth, error) {
	breakdown := make(map[string]decimal.Decimal)

	balances, err := tx.ListBalances(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range balances {
		breakdown[b.Currency] = breakdown[b.Currency].Add(b.Amount)
	}

	positions, err := tx.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	if len(positions) > 0 {
		securities, err := tx.ListSecurities(ctx)
		if err != nil {
			return nil, err
		}
		currency := make(map[string]string, len(securities))
		for _, sec := range securities {
			currency[sec.ID] = sec.Currency
		}
		for _, p := range positions {
			cur, ok := currency[p.Security]
			if !ok {
				return nil, models.NotFound("security", p.Security)
			}
			breakdown[cur] = breakdown[cur].Add(p.Cost)
		}
	}

	total := decimal.Zero
	for cur, amount := range breakdown {
		if cur == home {
			total = total.Add(amount)
			continue
		}
		total = total.Add(rates.Convert(amount, cur))
	}

	return &models.NetWorth{
		Currency:  home,
		Total:     total,
		Breakdown: breakdown,
	}, nil
}
