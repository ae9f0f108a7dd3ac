// Package fx owns the versioned exchange-rate table and currency
// conversion. Rates are effective-dated rows, never a mutable singleton:
// setting a new rate retires the previous active row, and every conversion
// reports exactly which row it used so a settlement can persist it. Later
// rate changes therefore never rewrite history.
package fx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/auditlog"
	"github.com/tesfam/kiraypay/internal/cache"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/money"
	"github.com/tesfam/kiraypay/internal/repository"
)

var (
	ErrRateNotFound    = errors.New("no active exchange rate for currency pair")
	ErrSameCurrency    = errors.New("from and to currencies must differ")
	ErrNonPositiveRate = errors.New("exchange rate must be greater than zero")
)

type Service struct {
	db     repository.Database
	cache  *cache.Cache
	audit  *auditlog.Recorder
	logger *slog.Logger
	ttl    time.Duration
}

// Conversion reports the result of one currency conversion together with
// the rate row that produced it.
type Conversion struct {
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	RateUsed        decimal.Decimal `json:"rate_used"`
	RateID          string          `json:"rate_id,omitempty"`
	RateTimestamp   time.Time       `json:"rate_timestamp"`
}

func New(db repository.Database, c *cache.Cache, audit *auditlog.Recorder, logger *slog.Logger, ttl time.Duration) *Service {
	return &Service{
		db:     db,
		cache:  c,
		audit:  audit,
		logger: logger,
		ttl:    ttl,
	}
}

func cacheKey(from, to string) string {
	return "fx:active:" + from + ":" + to
}

// GetRate returns the active rate for the ordered pair. If only the
// reverse pair is active, the inverse is computed from it; the returned
// row keeps the reverse row's id so settlements still reference a real,
// replayable rate row.
func (s *Service) GetRate(fromCurrency, toCurrency string) (*models.FxRate, error) {
	from, err := money.ParseCurrency(fromCurrency)
	if err != nil {
		return nil, err
	}
	to, err := money.ParseCurrency(toCurrency)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, ErrSameCurrency
	}

	if s.cache != nil {
		var cached models.FxRate
		if err := s.cache.GetJSON(cacheKey(from, to), &cached); err == nil {
			return &cached, nil
		}
	}

	rate, found, err := s.db.FxRate().GetActive(from, to)
	if err != nil {
		return nil, err
	}

	if !found {
		reverse, reverseFound, err := s.db.FxRate().GetActive(to, from)
		if err != nil {
			return nil, err
		}
		if !reverseFound {
			return nil, fmt.Errorf("%w: %s->%s", ErrRateNotFound, from, to)
		}

		rate = &models.FxRate{
			ID:            reverse.ID,
			FromCurrency:  from,
			ToCurrency:    to,
			Rate:          reverse.InverseRate,
			InverseRate:   reverse.Rate,
			Source:        reverse.Source,
			EffectiveFrom: reverse.EffectiveFrom,
			IsActive:      reverse.IsActive,
			SetBy:         reverse.SetBy,
			CreatedAt:     reverse.CreatedAt,
		}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(cacheKey(from, to), rate, s.ttl); err != nil {
			s.logger.Warn("fx: cache set failed", "pair", from+"->"+to, "error", err)
		}
	}

	return rate, nil
}

// Convert converts amount between two currencies, rounding half-even to
// the target currency's minor units. Same-currency conversion is the
// identity and touches neither cache nor table.
func (s *Service) Convert(amount decimal.Decimal, fromCurrency, toCurrency string) (*Conversion, error) {
	from, err := money.ParseCurrency(fromCurrency)
	if err != nil {
		return nil, err
	}
	to, err := money.ParseCurrency(toCurrency)
	if err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, money.ErrNonPositiveAmount
	}

	if from == to {
		return &Conversion{
			ConvertedAmount: money.RoundToMinor(amount, to),
			RateUsed:        decimal.NewFromInt(1),
			RateTimestamp:   time.Now(),
		}, nil
	}

	rate, err := s.GetRate(from, to)
	if err != nil {
		return nil, err
	}

	return &Conversion{
		ConvertedAmount: money.RoundToMinor(amount.Mul(rate.Rate), to),
		RateUsed:        rate.Rate,
		RateID:          rate.ID,
		RateTimestamp:   rate.EffectiveFrom,
	}, nil
}

// SetRate retires the active row for the ordered pair and inserts the new
// one in a single transaction, then drops the cached lookups for both
// directions. History is retained for audit replay.
func (s *Service) SetRate(ctx context.Context, actorID, fromCurrency, toCurrency string, rate decimal.Decimal, source string) (*models.FxRate, error) {
	from, err := money.ParseCurrency(fromCurrency)
	if err != nil {
		return nil, err
	}
	to, err := money.ParseCurrency(toCurrency)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, ErrSameCurrency
	}
	if !rate.IsPositive() {
		return nil, ErrNonPositiveRate
	}

	previous, _, err := s.db.FxRate().GetActive(from, to)
	if err != nil {
		return nil, err
	}

	newRate := &models.FxRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		InverseRate:  decimal.NewFromInt(1).DivRound(rate, 12),
		Source:       source,
		SetBy:        actorID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.db.FxRate().Deactivate(tx, from, to); err != nil {
		return nil, err
	}

	id, err := s.db.FxRate().Insert(tx, newRate)
	if err != nil {
		return nil, err
	}
	newRate.ID = id

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		for _, key := range []string{cacheKey(from, to), cacheKey(to, from)} {
			if err := s.cache.Delete(key); err != nil {
				s.logger.Warn("fx: cache invalidation failed", "key", key, "error", err)
			}
		}
	}

	s.audit.Record(actorID, models.AuditActionFxRateSet, models.AuditTargetFxRate, id, previous, newRate)

	return newRate, nil
}
