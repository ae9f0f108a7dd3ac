// Package settlement turns a "booking paid" event from the payment gateway
// into a balanced ledger write. The engine is the only place where booking
// money enters the system, so it is strictly idempotent per booking id:
// however many times the gateway redelivers the event, exactly one
// settlement transaction and one balanced entry set exist.
package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/auditlog"
	"github.com/tesfam/kiraypay/internal/fx"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/money"
	"github.com/tesfam/kiraypay/internal/repository"
	"github.com/tesfam/kiraypay/internal/split"
)

var (
	ErrInvalidEvent       = errors.New("booking paid event is missing required fields")
	ErrSettlementNotFound = errors.New("settlement transaction not found")
	ErrAlreadyReversed    = errors.New("settlement transaction already reversed")
)

// BookingPaidEvent is the payload the payment gateway publishes once it has
// confirmed funds for a booking. The booking subsystem supplies the
// dellala-eligibility inputs; the gateway itself is untrusted, which is why
// everything is re-validated here.
type BookingPaidEvent struct {
	BookingID             string          `json:"booking_id"`
	PropertyID            string          `json:"property_id"`
	OwnerID               string          `json:"owner_id"`
	DellalaID             string          `json:"dellala_id,omitempty"`
	PropertyFirstBookedAt time.Time       `json:"property_first_booked_at"`
	GrossAmount           decimal.Decimal `json:"gross_amount"`
	Currency              string          `json:"currency"`
	PaidAt                time.Time       `json:"paid_at"`
}

type Engine struct {
	db         repository.Database
	calculator *split.Calculator
	fxService  *fx.Service
	audit      *auditlog.Recorder
	logger     *slog.Logger

	// dellalaWindowMonths bounds the referral commission: a dellala earns
	// a share only while the booking is paid before the property's first
	// booking anniversary of this many months.
	dellalaWindowMonths int
}

func New(db repository.Database, calculator *split.Calculator, fxService *fx.Service, audit *auditlog.Recorder, logger *slog.Logger, dellalaWindowMonths int) *Engine {
	return &Engine{
		db:                  db,
		calculator:          calculator,
		fxService:           fxService,
		audit:               audit,
		logger:              logger,
		dellalaWindowMonths: dellalaWindowMonths,
	}
}

func (ev *BookingPaidEvent) validate() error {
	if ev.BookingID == "" || ev.PropertyID == "" || ev.OwnerID == "" || ev.Currency == "" {
		return ErrInvalidEvent
	}
	if !ev.GrossAmount.IsPositive() {
		return fmt.Errorf("%w: gross amount must be positive", ErrInvalidEvent)
	}
	return nil
}

// dellalaEligible applies the referral window: strictly before the
// configured number of months after the property's first booking.
func (e *Engine) dellalaEligible(ev *BookingPaidEvent) bool {
	if ev.DellalaID == "" {
		return false
	}
	if ev.PropertyFirstBookedAt.IsZero() {
		return false
	}

	deadline := ev.PropertyFirstBookedAt.AddDate(0, e.dellalaWindowMonths, 0)
	return ev.PaidAt.Before(deadline)
}

// settleCurrencyFor picks the wallet currency a booking settles into. A
// wallet already held in the booking currency wins, skipping conversion
// entirely; an owner with wallets only in other currencies keeps accruing
// in the oldest one; a first-time owner settles in the booking currency.
func settleCurrencyFor(bookingCurrency string, ownerWallets []models.Wallet) string {
	for i := range ownerWallets {
		if ownerWallets[i].Currency == bookingCurrency {
			return bookingCurrency
		}
	}
	if len(ownerWallets) > 0 {
		return ownerWallets[0].Currency
	}
	return bookingCurrency
}

// ProcessBookingPaid settles one paid booking: compute the split
// (converting currency first when the owner's wallet is held in a different
// currency, recording the rate row used), then atomically write the
// settlement transaction, the balanced ledger set and the wallet
// projection deltas. Redelivery of an already-settled booking returns the
// existing transaction without touching anything.
func (e *Engine) ProcessBookingPaid(ctx context.Context, ev *BookingPaidEvent) (*models.SettlementTransaction, error) {
	if err := ev.validate(); err != nil {
		return nil, err
	}

	currency, err := money.ParseCurrency(ev.Currency)
	if err != nil {
		return nil, err
	}

	// idempotency guard before any money math
	existing, found, err := e.db.Settlement().GetByBookingID(ev.BookingID)
	if err != nil {
		return nil, err
	}
	if found {
		e.logger.Info("settlement: duplicate booking.paid delivery ignored",
			"booking_id", ev.BookingID, "settlement_id", existing.ID)
		return existing, nil
	}

	ownerWallets, err := e.db.Wallet().GetAllByOwner(ev.OwnerID)
	if err != nil {
		return nil, err
	}
	settleCurrency := settleCurrencyFor(currency, ownerWallets)

	gross := ev.GrossAmount
	var rateID sql.NullString
	var rateValue decimal.NullDecimal

	if settleCurrency != currency {
		conversion, err := e.fxService.Convert(gross, currency, settleCurrency)
		if err != nil {
			return nil, err
		}
		gross = conversion.ConvertedAmount
		rateID = sql.NullString{String: conversion.RateID, Valid: conversion.RateID != ""}
		rateValue = decimal.NullDecimal{Decimal: conversion.RateUsed, Valid: true}
	}

	hasDellala := e.dellalaEligible(ev)

	breakdown, err := e.calculator.Calculate(gross, hasDellala, settleCurrency)
	if err != nil {
		return nil, err
	}

	ownerWallet, err := e.db.Wallet().GetOrCreate(ev.OwnerID, models.WalletOwnerTypeUser, settleCurrency, nil)
	if err != nil {
		return nil, err
	}

	var dellalaWallet *models.Wallet
	if hasDellala {
		dellalaWallet, err = e.db.Wallet().GetOrCreate(ev.DellalaID, models.WalletOwnerTypeDellala, settleCurrency, nil)
		if err != nil {
			return nil, err
		}
	}

	corporateWallet, err := e.db.Wallet().GetOrCreateSystem(models.SystemWalletCorporate, settleCurrency, nil)
	if err != nil {
		return nil, err
	}
	incomingWallet, err := e.db.Wallet().GetOrCreateSystem(models.SystemWalletIncomingFunds, settleCurrency, nil)
	if err != nil {
		return nil, err
	}
	taxWallet, err := e.db.Wallet().GetOrCreateSystem(models.SystemWalletTaxLiability, settleCurrency, nil)
	if err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lockIDs := []string{ownerWallet.ID, corporateWallet.ID, incomingWallet.ID, taxWallet.ID}
	if dellalaWallet != nil {
		lockIDs = append(lockIDs, dellalaWallet.ID)
	}
	if _, err := e.db.Wallet().LockForUpdate(tx, lockIDs); err != nil {
		return nil, err
	}

	st := &models.SettlementTransaction{
		BookingID:      ev.BookingID,
		PropertyID:     ev.PropertyID,
		GrossAmount:    gross,
		Currency:       settleCurrency,
		OwnerShare:     breakdown.OwnerShare,
		DellalaShare:   breakdown.DellalaShare,
		CorporateShare: breakdown.CorporateShare,
		VatAmount:      breakdown.VatAmount,
		WithholdingTax: breakdown.WithholdingTax,
		FxRateID:       rateID,
		FxRateValue:    rateValue,
	}

	settlementID, err := e.db.Settlement().Insert(tx, st)
	if err != nil {
		// two deliveries of the same booking can both pass the guard above;
		// the unique index on booking_id picks the winner and the loser
		// hands back the winner's row
		if repository.IsUniqueViolation(err) {
			winner, found, getErr := e.db.Settlement().GetByBookingID(ev.BookingID)
			if getErr != nil {
				return nil, getErr
			}
			if found {
				e.logger.Info("settlement: concurrent booking.paid delivery lost the insert race",
					"booking_id", ev.BookingID, "settlement_id", winner.ID)
				return winner, nil
			}
		}
		return nil, err
	}
	st.ID = settlementID
	st.Status = models.SettlementStatusCompleted

	taxTotal := breakdown.VatAmount.Add(breakdown.WithholdingTax)

	entries := []models.LedgerEntry{
		{
			WalletID:             incomingWallet.ID,
			Direction:            models.LedgerDirectionDebit,
			Amount:               gross,
			Currency:             settleCurrency,
			RelatedTransactionID: settlementID,
			Description:          "booking settlement " + ev.BookingID,
		},
		{
			WalletID:             ownerWallet.ID,
			Direction:            models.LedgerDirectionCredit,
			Amount:               breakdown.OwnerShare,
			Currency:             settleCurrency,
			RelatedTransactionID: settlementID,
			Description:          "owner share for booking " + ev.BookingID,
		},
		{
			WalletID:             corporateWallet.ID,
			Direction:            models.LedgerDirectionCredit,
			Amount:               breakdown.CorporateShare,
			Currency:             settleCurrency,
			RelatedTransactionID: settlementID,
			Description:          "platform share for booking " + ev.BookingID,
		},
	}

	if taxTotal.IsPositive() {
		entries = append(entries, models.LedgerEntry{
			WalletID:             taxWallet.ID,
			Direction:            models.LedgerDirectionCredit,
			Amount:               taxTotal,
			Currency:             settleCurrency,
			RelatedTransactionID: settlementID,
			Description:          "tax liability for booking " + ev.BookingID,
		})
	}

	if dellalaWallet != nil && breakdown.DellalaShare.IsPositive() {
		entries = append(entries, models.LedgerEntry{
			WalletID:             dellalaWallet.ID,
			Direction:            models.LedgerDirectionCredit,
			Amount:               breakdown.DellalaShare,
			Currency:             settleCurrency,
			RelatedTransactionID: settlementID,
			Description:          "dellala commission for booking " + ev.BookingID,
		})
	}

	if err := e.db.Ledger().Append(tx, entries); err != nil {
		return nil, err
	}

	// projection deltas mirror the ledger set exactly
	for i := range entries {
		entry := &entries[i]
		if err := e.db.Wallet().AdjustBalances(tx, entry.WalletID, entry.Signed(), decimal.Zero, decimal.Zero); err != nil {
			return nil, err
		}
	}

	earners := map[string]decimal.Decimal{
		ownerWallet.ID:     breakdown.OwnerShare,
		corporateWallet.ID: breakdown.CorporateShare,
	}
	if dellalaWallet != nil && breakdown.DellalaShare.IsPositive() {
		earners[dellalaWallet.ID] = breakdown.DellalaShare
	}
	for walletID, share := range earners {
		if err := e.db.Wallet().IncrementTotals(tx, walletID, share, decimal.Zero); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	e.logger.Info("settlement: booking settled",
		"booking_id", ev.BookingID,
		"settlement_id", settlementID,
		"currency", settleCurrency,
		"gross", gross.String(),
		"has_dellala", hasDellala,
	)

	return st, nil
}

// Reverse annotates a settlement as reversed and writes a new balancing
// ledger set that mirrors the original entries with flipped directions,
// referencing the original transaction id. History is never edited.
func (e *Engine) Reverse(ctx context.Context, actorID, settlementID, reason string) error {
	st, found, err := e.db.Settlement().GetOne(settlementID)
	if err != nil {
		return err
	}
	if !found {
		return ErrSettlementNotFound
	}
	if st.Status == models.SettlementStatusReversed {
		return ErrAlreadyReversed
	}

	original, err := e.db.Ledger().ListByRelatedTransaction(settlementID)
	if err != nil {
		return err
	}

	reversal := make([]models.LedgerEntry, 0, len(original))
	walletIDs := make([]string, 0, len(original))
	for i := range original {
		entry := original[i]
		direction := models.LedgerDirectionDebit
		if entry.Direction == models.LedgerDirectionDebit {
			direction = models.LedgerDirectionCredit
		}
		reversal = append(reversal, models.LedgerEntry{
			WalletID:             entry.WalletID,
			Direction:            direction,
			Amount:               entry.Amount,
			Currency:             entry.Currency,
			RelatedTransactionID: entry.RelatedTransactionID,
			Description:          "reversal: " + reason,
		})
		walletIDs = append(walletIDs, entry.WalletID)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	locked, err := e.db.Wallet().LockForUpdate(tx, walletIDs)
	if err != nil {
		return err
	}

	if err := e.db.Settlement().MarkReversed(tx, settlementID); err != nil {
		return err
	}

	if err := e.db.Ledger().Append(tx, reversal); err != nil {
		return err
	}

	for i := range reversal {
		entry := &reversal[i]
		if err := e.db.Wallet().AdjustBalances(tx, entry.WalletID, entry.Signed(), decimal.Zero, decimal.Zero); err != nil {
			return err
		}
		// earnings recorded by the original settlement come back off the
		// earner wallets; the tax-liability and incoming-funds system
		// wallets never had any
		wallet := locked[entry.WalletID]
		if entry.Direction == models.LedgerDirectionDebit && wallet != nil && wallet.OwnerType != models.WalletOwnerTypeSystem {
			if err := e.db.Wallet().IncrementTotals(tx, entry.WalletID, entry.Amount.Neg(), decimal.Zero); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	e.audit.Record(actorID, models.AuditActionSettlementReversed, models.AuditTargetSettlement, settlementID,
		map[string]string{"status": models.SettlementStatusCompleted},
		map[string]string{"status": models.SettlementStatusReversed, "reason": reason},
	)

	return nil
}
