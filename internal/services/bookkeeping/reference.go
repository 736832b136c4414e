package bookkeeping

import (
	"context"
	"errors"

	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/models"
)

// CreateAccount validates and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}
	account.CreatedAt = s.now().UTC()

	err := s.storage.Update(ctx, func(tx interfaces.LedgerTx) error {
		if _, err := tx.GetAccount(ctx, account.ID); err == nil {
			return &models.ValidationError{Field: "id", Reason: "account " + account.ID + " already exists"}
		} else if !errors.Is(err, models.ErrReferenceNotFound) {
			return err
		}
		return tx.SaveAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account", account.ID).Str("kind", string(account.Kind)).Msg("Account created")
	return account, nil
}

// ListAccounts returns all accounts ordered by id.
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var out []*models.Account
	err := s.storage.View(ctx, func(tx interfaces.LedgerView) error {
		var err error
		out, err = tx.ListAccounts(ctx)
		return err
	})
	return out, err
}

// CreateSecurity validates and stores a new security. The trading currency
// is fixed once the security exists; trades record it at write time.
func (s *Service) CreateSecurity(ctx context.Context, security *models.Security) (*models.Security, error) {
	if err := security.Validate(); err != nil {
		return nil, err
	}
	security.CreatedAt = s.now().UTC()

	err := s.storage.Update(ctx, func(tx interfaces.LedgerTx) error {
		if _, err := tx.GetSecurity(ctx, security.ID); err == nil {
			return &models.ValidationError{Field: "id", Reason: "security " + security.ID + " already exists"}
		} else if !errors.Is(err, models.ErrReferenceNotFound) {
			return err
		}
		return tx.SaveSecurity(ctx, security)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("security", security.ID).Str("currency", security.Currency).Msg("Security created")
	return security, nil
}

// ListSecurities returns all securities ordered by id.
func (s *Service) ListSecurities(ctx context.Context) ([]*models.Security, error) {
	var out []*models.Security
	err := s.storage.View(ctx, func(tx interfaces.LedgerView) error {
		var err error
		out, err = tx.ListSecurities(ctx)
		return err
	})
	return out, err
}

// Balances returns every (account, currency) balance.
func (s *Service) Balances(ctx context.Context) ([]models.Balance, error) {
	var out []models.Balance
	err := s.storage.View(ctx, func(tx interfaces.LedgerView) error {
		var err error
		out, err = tx.ListBalances(ctx)
		return err
	})
	return out, err
}

// Positions returns every position with its trading currency and average cost.
func (s *Service) Positions(ctx context.Context) ([]models.PositionView, error) {
	var out []models.PositionView
	err := s.storage.View(ctx, func(tx interfaces.LedgerView) error {
		positions, err := tx.ListPositions(ctx)
		if err != nil {
			return err
		}
		securities, err := tx.ListSecurities(ctx)
		if err != nil {
			return err
		}
		currency := make(map[string]string, len(securities))
		for _, sec := range securities {
			currency[sec.ID] = sec.Currency
		}

		out = make([]models.PositionView, 0, len(positions))
		for _, p := range positions {
			out = append(out, models.PositionView{
				Position: p,
				Currency: currency[p.Security],
				AvgCost:  p.AverageCost(),
			})
		}
		return nil
	})
	return out, err
}
