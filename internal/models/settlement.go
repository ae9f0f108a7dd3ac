package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// SettlementTransaction records how one paid booking's gross amount was
// divided. It is immutable once written except for the terminal status
// annotation used by reversals; the ledger holds the actual money movement.
type SettlementTransaction struct {
	ID              string          `db:"id"`
	BookingID       string          `db:"booking_id"`
	PropertyID      string          `db:"property_id"`
	GrossAmount     decimal.Decimal `db:"gross_amount"`
	Currency        string          `db:"currency"`
	OwnerShare      decimal.Decimal `db:"owner_share"`
	DellalaShare    decimal.Decimal `db:"dellala_share"`
	CorporateShare  decimal.Decimal `db:"corporate_share"`
	VatAmount       decimal.Decimal `db:"vat_amount"`
	WithholdingTax  decimal.Decimal `db:"withholding_tax"`
	FxRateID        sql.NullString  `db:"fx_rate_id"`
	FxRateValue     decimal.NullDecimal `db:"fx_rate_value"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
}

const (
	SettlementStatusCompleted = "completed"
	SettlementStatusReversed  = "reversed"
)
