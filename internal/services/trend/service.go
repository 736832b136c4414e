package trend

import (
	"context"
	"time"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/bobmcallan/purse/internal/services/networth"
)

// Compile-time interface check
var _ interfaces.TrendService = (*Service)(nil)

// Service implements TrendService
type Service struct {
	storage  interfaces.StorageManager
	networth *networth.Service
	location *time.Location
	logger   *common.Logger
	now      func() time.Time
}

// NewService creates a trend service cutting months in loc.
func NewService(storage interfaces.StorageManager, nw *networth.Service, loc *time.Location, logger *common.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		storage:  storage,
		networth: nw,
		location: loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Trend reconstructs the series from periodStart to now. The current total
// and the event deltas are read from the same snapshot.
func (s *Service) Trend(ctx context.Context, periodStart time.Time, rates models.Rates) (*models.Trend, error) {
	now := s.now()
	if periodStart.After(now) {
		return nil, &models.ValidationError{Field: "from", Reason: "cannot be in the future"}
	}
	merged := s.networth.Rates(rates)
	home := s.networth.HomeCurrency()

	var (
		nw      *models.NetWorth
		buckets []Bucket
	)
	err := s.storage.View(ctx, func(tx interfaces.LedgerView) error {
		var err error
		if nw, err = networth.Compute(ctx, tx, home, merged); err != nil {
			return err
		}

		var events []models.Event
		for _, kind := range []models.EventKind{models.KindCash, models.KindTrade} {
			evs, err := tx.ListEvents(ctx, kind, periodStart)
			if err != nil {
				return err
			}
			events = append(events, evs...)
		}
		buckets = BucketEvents(events, s.location)
		return nil
	})
	if err != nil {
		return nil, err
	}

	points := Reconstruct(nw.Total, periodStart.In(s.location), now.In(s.location), merged, buckets)

	s.logger.Debug().
		Time("from", periodStart).
		Int("buckets", len(buckets)).
		Int("points", len(points)).
		Msg("Trend reconstructed")

	return &models.Trend{
		Currency:    home,
		PeriodStart: periodStart,
		AsOfTotal:   nw.Total,
		Points:      points,
	}, nil
}
