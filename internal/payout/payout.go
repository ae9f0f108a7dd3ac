// Package payout drives a withdrawal from an owner's available balance out
// to an external money-movement rail. The amount being paid out is always
// parked in one of the wallet's buckets (pending while awaiting approval,
// frozen while the rail works) so that a payout can fail at any point and
// hand the money straight back. Value is moved, never destroyed.
package payout

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tesfam/kiraypay/internal/auditlog"
	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/money"
	"github.com/tesfam/kiraypay/internal/repository"
)

var (
	ErrWalletNotFound           = errors.New("wallet not found")
	ErrPayoutNotFound           = errors.New("payout not found")
	ErrNotWalletOwner           = errors.New("wallet does not belong to the requesting user")
	ErrWalletFrozen             = errors.New("wallet is frozen")
	ErrNoPayoutRail             = errors.New("no payout details on file; add a bank or mobile money destination first")
	ErrCurrencyMismatch         = errors.New("payout currency must match the wallet currency")
	ErrInsufficientBalance      = errors.New("insufficient available balance")
	ErrInvalidTransition        = errors.New("payout is not in a state that allows this transition")
	ErrMissingExternalReference = errors.New("external reference is required to complete a payout")
	ErrActorNotPermitted        = errors.New("actor is not permitted to approve payouts")
)

type Processor struct {
	db     repository.Database
	audit  *auditlog.Recorder
	logger *slog.Logger
}

func New(db repository.Database, audit *auditlog.Recorder, logger *slog.Logger) *Processor {
	return &Processor{
		db:     db,
		audit:  audit,
		logger: logger,
	}
}

// lockedWallet interprets a single-wallet lock result: a missing row means
// the wallet id is unknown, while any other failure is a real database
// error and must surface as one rather than masquerading as a 404.
func lockedWallet(locked map[string]*models.Wallet, err error, walletID string) (*models.Wallet, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return locked[walletID], nil
}

// CheckWithdrawable applies every rule a payout request must pass against
// the wallet it draws from: the requester owns the wallet, the wallet is
// active with a payout rail on file, the currency matches, and the amount
// fits inside the available balance. Frozen and pending funds never count
// toward what can be withdrawn.
func CheckWithdrawable(wallet *models.Wallet, requesterID string, amount decimal.Decimal, currency string) error {
	if wallet == nil {
		return ErrWalletNotFound
	}
	if !wallet.OwnerID.Valid || wallet.OwnerID.String != requesterID {
		return ErrNotWalletOwner
	}
	if wallet.Status != models.WalletActiveStatus {
		return ErrWalletFrozen
	}
	if !wallet.HasPayoutRail() {
		return ErrNoPayoutRail
	}
	if wallet.Currency != currency {
		return ErrCurrencyMismatch
	}
	if wallet.AvailableBalance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// CreateOwnerPayout validates the request against the wallet and, in one
// transaction, moves the amount from available to pending and creates the
// pending payout record.
func (p *Processor) CreateOwnerPayout(ctx context.Context, actor *models.User, walletID string, amount decimal.Decimal, currency string) (*models.Payout, error) {
	code, err := money.ParseCurrency(currency)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, money.ErrNonPositiveAmount
	}
	amount = money.RoundToMinor(amount, code)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := p.db.Wallet().LockForUpdate(tx, []string{walletID})
	wallet, err := lockedWallet(locked, err, walletID)
	if err != nil {
		return nil, err
	}

	if err := CheckWithdrawable(wallet, actor.ID, amount, code); err != nil {
		return nil, err
	}

	rail := models.PayoutRailBank
	if !wallet.BankAccountNumber.Valid {
		rail = models.PayoutRailMobileMoney
	}

	payout := &models.Payout{
		WalletID:    wallet.ID,
		RecipientID: actor.ID,
		Amount:      amount,
		Currency:    code,
		Rail:        rail,
	}

	id, err := p.db.Payout().Insert(tx, payout)
	if err != nil {
		return nil, err
	}
	payout.ID = id
	payout.Status = models.PayoutStatusPending

	// earmark: available -> pending
	if err := p.db.Wallet().AdjustBalances(tx, wallet.ID, amount.Neg(), amount, decimal.Zero); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	p.audit.Record(actor.ID, models.AuditActionPayoutCreated, models.AuditTargetPayout, id, nil, payout)

	p.logger.Info("payout: created",
		"payout_id", id, "wallet_id", wallet.ID, "amount", amount.String(), "currency", code)

	return payout, nil
}

// MarkProcessing approves a pending payout for dispatch to the external
// rail: pending -> processing, with the earmarked amount moving from the
// pending bucket to frozen. Requires an admin or operator actor.
func (p *Processor) MarkProcessing(ctx context.Context, actor *models.User, payoutID string) (*models.Payout, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, ErrActorNotPermitted
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payout, found, err := p.db.Payout().GetOneForUpdate(tx, payoutID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPayoutNotFound
	}
	if payout.Status != models.PayoutStatusPending {
		return nil, ErrInvalidTransition
	}

	if _, err := p.db.Wallet().LockForUpdate(tx, []string{payout.WalletID}); err != nil {
		return nil, err
	}

	if err := p.db.Payout().MarkProcessing(tx, payoutID); err != nil {
		return nil, err
	}

	// pending -> frozen while the rail confirms
	if err := p.db.Wallet().AdjustBalances(tx, payout.WalletID, decimal.Zero, payout.Amount.Neg(), payout.Amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	before := map[string]string{"status": models.PayoutStatusPending}
	after := map[string]string{"status": models.PayoutStatusProcessing}
	p.audit.Record(actor.ID, models.AuditActionPayoutProcessing, models.AuditTargetPayout, payoutID, before, after)

	payout.Status = models.PayoutStatusProcessing
	return payout, nil
}

// MarkCompleted finalizes a processing payout once the rail confirms:
// the frozen amount leaves the wallet through a balanced ledger set and
// total withdrawals go up by exactly the payout amount. Confirmations can
// arrive duplicated; a payout already completed with the same external
// reference is a no-op.
func (p *Processor) MarkCompleted(ctx context.Context, actor *models.User, payoutID, externalReference string) (*models.Payout, error) {
	if externalReference == "" {
		return nil, ErrMissingExternalReference
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payout, found, err := p.db.Payout().GetOneForUpdate(tx, payoutID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPayoutNotFound
	}

	if payout.Status == models.PayoutStatusCompleted &&
		payout.ExternalReference.Valid && payout.ExternalReference.String == externalReference {
		// duplicated rail confirmation
		return payout, nil
	}
	if payout.Status != models.PayoutStatusProcessing {
		return nil, ErrInvalidTransition
	}

	locked, err := p.db.Wallet().LockForUpdate(tx, []string{payout.WalletID})
	if err != nil {
		return nil, err
	}
	wallet := locked[payout.WalletID]

	outgoingWallet, err := p.db.Wallet().GetOrCreateSystem(models.SystemWalletOutgoingFunds, payout.Currency, tx)
	if err != nil {
		return nil, err
	}

	if err := p.db.Payout().MarkCompleted(tx, payoutID, externalReference); err != nil {
		return nil, err
	}

	entries := []models.LedgerEntry{
		{
			WalletID:             wallet.ID,
			Direction:            models.LedgerDirectionDebit,
			Amount:               payout.Amount,
			Currency:             payout.Currency,
			RelatedTransactionID: payout.ID,
			Description:          "payout to external rail " + externalReference,
		},
		{
			WalletID:             outgoingWallet.ID,
			Direction:            models.LedgerDirectionCredit,
			Amount:               payout.Amount,
			Currency:             payout.Currency,
			RelatedTransactionID: payout.ID,
			Description:          "funds dispatched for payout " + payout.ID,
		},
	}

	if err := p.db.Ledger().Append(tx, entries); err != nil {
		return nil, err
	}

	// the debit leaves through the frozen bucket
	if err := p.db.Wallet().AdjustBalances(tx, wallet.ID, decimal.Zero, decimal.Zero, payout.Amount.Neg()); err != nil {
		return nil, err
	}
	if err := p.db.Wallet().AdjustBalances(tx, outgoingWallet.ID, payout.Amount, decimal.Zero, decimal.Zero); err != nil {
		return nil, err
	}
	if err := p.db.Wallet().IncrementTotals(tx, wallet.ID, decimal.Zero, payout.Amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	actorID := models.SystemActorID
	if actor != nil {
		actorID = actor.ID
	}
	before := map[string]string{"status": models.PayoutStatusProcessing}
	after := map[string]string{"status": models.PayoutStatusCompleted, "external_reference": externalReference}
	p.audit.Record(actorID, models.AuditActionPayoutCompleted, models.AuditTargetPayout, payoutID, before, after)

	p.logger.Info("payout: completed",
		"payout_id", payoutID, "external_reference", externalReference, "amount", payout.Amount.String())

	payout.Status = models.PayoutStatusCompleted
	return payout, nil
}

// MarkFailed moves a pending or processing payout to failed and returns
// the earmarked amount to the available balance. A payout must never
// silently destroy value, so the bucket it comes back from depends on how
// far it got.
func (p *Processor) MarkFailed(ctx context.Context, actor *models.User, payoutID, reason string) (*models.Payout, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payout, found, err := p.db.Payout().GetOneForUpdate(tx, payoutID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPayoutNotFound
	}

	if payout.Status == models.PayoutStatusFailed {
		// duplicated failure report
		return payout, nil
	}

	var pendingDelta, frozenDelta decimal.Decimal
	switch payout.Status {
	case models.PayoutStatusPending:
		pendingDelta = payout.Amount.Neg()
	case models.PayoutStatusProcessing:
		frozenDelta = payout.Amount.Neg()
	default:
		return nil, ErrInvalidTransition
	}

	if _, err := p.db.Wallet().LockForUpdate(tx, []string{payout.WalletID}); err != nil {
		return nil, err
	}

	if err := p.db.Payout().MarkFailed(tx, payoutID, reason); err != nil {
		return nil, err
	}

	if err := p.db.Wallet().AdjustBalances(tx, payout.WalletID, payout.Amount, pendingDelta, frozenDelta); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	actorID := models.SystemActorID
	if actor != nil {
		actorID = actor.ID
	}
	before := map[string]string{"status": payout.Status}
	after := map[string]string{"status": models.PayoutStatusFailed, "reason": reason}
	p.audit.Record(actorID, models.AuditActionPayoutFailed, models.AuditTargetPayout, payoutID, before, after)

	p.logger.Warn("payout: failed", "payout_id", payoutID, "reason", reason)

	payout.Status = models.PayoutStatusFailed
	payout.FailureReason.String = reason
	payout.FailureReason.Valid = true
	return payout, nil
}
