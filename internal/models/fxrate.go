package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FxRate is one row of the effective-dated exchange-rate table. Setting a
// new rate deactivates the previous active row for the same ordered pair
// instead of overwriting it, so historical conversions stay replayable.
type FxRate struct {
	ID            string          `db:"id"`
	FromCurrency  string          `db:"from_currency"`
	ToCurrency    string          `db:"to_currency"`
	Rate          decimal.Decimal `db:"rate"`
	InverseRate   decimal.Decimal `db:"inverse_rate"`
	Source        string          `db:"source"`
	EffectiveFrom time.Time       `db:"effective_from"`
	IsActive      bool            `db:"is_active"`
	SetBy         string          `db:"set_by"`
	CreatedAt     time.Time       `db:"created_at"`
}
