// Package split divides a paid booking's gross amount among the property
// owner, the referring dellala, the platform treasury and the tax
// liabilities. The arithmetic here is the one place where money could be
// silently created or destroyed, so the package is pure, takes its
// percentages as explicit configuration, and guarantees that the components
// always sum back to the gross amount at the currency's minor-unit
// precision.
package split

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/money"
)

var (
	ErrNonPositiveGross   = errors.New("gross amount must be greater than zero")
	ErrPercentagesTooHigh = errors.New("tax and commission percentages must leave a positive remainder")
)

var oneHundred = decimal.NewFromInt(100)

// Config carries the allocation percentages as decimal strings, e.g.
// "15" for 15%. They are validated once when the calculator is built.
type Config struct {
	VatPercent         string
	WithholdingPercent string
	DellalaPercent     string
	PlatformFeePercent string
}

type Calculator struct {
	vat         decimal.Decimal
	withholding decimal.Decimal
	dellala     decimal.Decimal
	platformFee decimal.Decimal
}

// Breakdown is the result of one split. All components are rounded to the
// currency's minor units and sum exactly to the gross amount.
type Breakdown struct {
	OwnerShare     decimal.Decimal `json:"owner_share"`
	DellalaShare   decimal.Decimal `json:"dellala_share"`
	CorporateShare decimal.Decimal `json:"corporate_share"`
	VatAmount      decimal.Decimal `json:"vat_amount"`
	WithholdingTax decimal.Decimal `json:"withholding_tax"`
	Currency       string          `json:"currency"`
}

func NewCalculator(cfg Config) (*Calculator, error) {
	parse := func(name, value string) (decimal.Decimal, error) {
		pct, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s percentage %q", name, value)
		}
		if pct.IsNegative() || pct.GreaterThanOrEqual(oneHundred) {
			return decimal.Zero, fmt.Errorf("%s percentage %q must be in [0, 100)", name, value)
		}
		return pct, nil
	}

	vat, err := parse("vat", cfg.VatPercent)
	if err != nil {
		return nil, err
	}
	withholding, err := parse("withholding", cfg.WithholdingPercent)
	if err != nil {
		return nil, err
	}
	dellala, err := parse("dellala", cfg.DellalaPercent)
	if err != nil {
		return nil, err
	}
	platformFee, err := parse("platform fee", cfg.PlatformFeePercent)
	if err != nil {
		return nil, err
	}

	// the deductions taken off the gross must leave something to share
	if vat.Add(withholding).Add(dellala).GreaterThanOrEqual(oneHundred) {
		return nil, ErrPercentagesTooHigh
	}

	return &Calculator{
		vat:         vat.Div(oneHundred),
		withholding: withholding.Div(oneHundred),
		dellala:     dellala.Div(oneHundred),
		platformFee: platformFee.Div(oneHundred),
	}, nil
}

// Calculate splits gross among the stakeholders. VAT, withholding tax and
// (when eligible) the dellala commission are percentages of gross; the
// remainder is shared between owner and corporate by the platform fee
// percentage. Each component is rounded half-even to the currency's minor
// units and the rounding residual lands on the corporate share, so
//
//	owner + dellala + corporate + vat + withholding == gross
//
// holds exactly.
func (c *Calculator) Calculate(gross decimal.Decimal, hasDellala bool, currencyCode string) (*Breakdown, error) {
	code, err := money.ParseCurrency(currencyCode)
	if err != nil {
		return nil, err
	}

	if !gross.IsPositive() {
		return nil, ErrNonPositiveGross
	}

	vatAmount := money.RoundToMinor(gross.Mul(c.vat), code)
	withholdingTax := money.RoundToMinor(gross.Mul(c.withholding), code)

	dellalaShare := decimal.Zero
	if hasDellala {
		dellalaShare = money.RoundToMinor(gross.Mul(c.dellala), code)
	}

	remainder := gross.Sub(vatAmount).Sub(withholdingTax).Sub(dellalaShare)
	if !remainder.IsPositive() {
		return nil, ErrPercentagesTooHigh
	}

	ownerShare := money.RoundToMinor(remainder.Mul(decimal.NewFromInt(1).Sub(c.platformFee)), code)

	// corporate takes whatever is left, absorbing the rounding residual
	corporateShare := gross.Sub(vatAmount).Sub(withholdingTax).Sub(dellalaShare).Sub(ownerShare)
	if corporateShare.IsNegative() {
		return nil, ErrPercentagesTooHigh
	}

	return &Breakdown{
		OwnerShare:     ownerShare,
		DellalaShare:   dellalaShare,
		CorporateShare: corporateShare,
		VatAmount:      vatAmount,
		WithholdingTax: withholdingTax,
		Currency:       code,
	}, nil
}

// Total re-adds the components; it always equals the gross that produced
// the breakdown and exists for integrity checks and tests.
func (b *Breakdown) Total() decimal.Decimal {
	return b.OwnerShare.
		Add(b.DellalaShare).
		Add(b.CorporateShare).
		Add(b.VatAmount).
		Add(b.WithholdingTax)
}
