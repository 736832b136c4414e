// Package bookkeeping records, revises and removes ledger events, keeping
// balances and positions in lockstep with the event records.
package bookkeeping

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/ledger"
	"github.com/bobmcallan/purse/internal/models"
)

// Compile-time interface check
var _ interfaces.BookkeepingService = (*Service)(nil)

// maxFutureSkew bounds how far ahead of now an event may be dated.
const maxFutureSkew = 24 * time.Hour

// Service implements BookkeepingService
type Service struct {
	storage interfaces.StorageManager
	engine  *ledger.Engine
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new bookkeeping service
func NewService(storage interfaces.StorageManager, engine *ledger.Engine, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		engine:  engine,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) checkTimestamp(ev models.Event) error {
	if ev.OccurredAt().After(s.now().Add(maxFutureSkew)) {
		return &models.ValidationError{Field: "timestamp", Reason: "cannot be in the future"}
	}
	return nil
}

// Record stores a new event and applies its effect in one transaction.
func (s *Service) Record(ctx context.Context, ev models.Event) (models.Event, error) {
	if ev == nil {
		return nil, &models.ValidationError{Field: "event", Reason: "is required"}
	}
	if err := s.checkTimestamp(ev); err != nil {
		return nil, err
	}

	meta := ev.Meta()
	meta.ID = strings.TrimSpace(meta.ID)
	if meta.ID == "" {
		meta.ID = common.NewID()
	}
	now := s.now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.DeletedAt = nil

	err := s.storage.Update(ctx, func(tx interfaces.LedgerTx) error {
		if _, err := tx.GetEvent(ctx, ev.Ref()); err == nil {
			return &models.ValidationError{Field: "id", Reason: "event " + ev.Ref().String() + " already exists"}
		} else if !errors.Is(err, models.ErrReferenceNotFound) {
			return err
		}
		if _, err := s.engine.Apply(ctx, tx, ev); err != nil {
			return err
		}
		return tx.InsertEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("kind", string(ev.Ref().Kind)).
		Str("id", meta.ID).
		Time("timestamp", meta.Timestamp).
		Msg("Event recorded")
	return ev, nil
}

// Revise replaces the stored event with ev: the old effect is retracted
// and the new one applied in the same transaction as the record replace.
func (s *Service) Revise(ctx context.Context, ev models.Event) (models.Event, error) {
	if ev == nil {
		return nil, &models.ValidationError{Field: "event", Reason: "is required"}
	}
	if ev.Meta().ID == "" {
		return nil, &models.ValidationError{Field: "id", Reason: "is required"}
	}
	if err := s.checkTimestamp(ev); err != nil {
		return nil, err
	}

	err := s.storage.Update(ctx, func(tx interfaces.LedgerTx) error {
		old, err := tx.GetEvent(ctx, ev.Ref())
		if err != nil {
			return err
		}
		meta := ev.Meta()
		meta.CreatedAt = old.Meta().CreatedAt
		meta.UpdatedAt = s.now().UTC()
		meta.DeletedAt = nil

		if _, err := s.engine.Reapply(ctx, tx, old, ev); err != nil {
			return err
		}
		return tx.ReplaceEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("kind", string(ev.Ref().Kind)).
		Str("id", ev.Meta().ID).
		Msg("Event revised")
	return ev, nil
}

// Remove retracts the stored event's effect and deletes the record: cash
// transactions and exchanges are soft-deleted, trades are removed.
func (s *Service) Remove(ctx context.Context, ref models.EventRef) error {
	err := s.storage.Update(ctx, func(tx interfaces.LedgerTx) error {
		old, err := tx.GetEvent(ctx, ref)
		if err != nil {
			return err
		}
		if err := s.engine.Retract(ctx, tx, old); err != nil {
			return err
		}
		return tx.DeleteEvent(ctx, ref, s.now().UTC())
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("ref", ref.String()).Msg("Event removed")
	return nil
}

// GetEvent returns the stored event, including soft-deleted ones.
func (s *Service) GetEvent(ctx context.Context, ref models.EventRef) (models.Event, error) {
	var ev models.Event
	err := s.storage.View(ctx, func(tx interfaces.LedgerView) error {
		var err error
		ev, err = tx.GetEvent(ctx, ref)
		return err
	})
	return ev, err
}

// ListEvents returns live events of kind dated at or after from.
func (s *Service) ListEvents(ctx context.Context, kind models.EventKind, from time.Time) ([]models.Event, error) {
	var out []models.Event
	err := s.storage.View(ctx, func(tx interfaces.LedgerView) error {
		var err error
		out, err = tx.ListEvents(ctx, kind, from)
		return err
	})
	return out, err
}
