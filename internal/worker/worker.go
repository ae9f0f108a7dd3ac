package worker

import (
	"context"

	"github.com/tesfam/kiraypay/internal/helper"
	"github.com/tesfam/kiraypay/internal/payout"
	"github.com/tesfam/kiraypay/internal/reconciliation"
	"github.com/tesfam/kiraypay/internal/settlement"
	"github.com/tesfam/kiraypay/internal/stream"
)

type Worker struct {
	KafkaStream    *stream.KafkaStream
	Settlement     *settlement.Engine
	Payouts        *payout.Processor
	Reconciliation *reconciliation.Checker
	Ctx            context.Context
	Helper         *helper.HelperRepository
}

const (
	// settlementGroupID is used for workers that settle a booking payment
	// into the ledger when the marketplace reports it as paid
	settlementGroupID = "settlement-group"

	// payoutResultGroupID is used for workers that apply the external
	// rail's verdict (completed or failed) to an in-flight payout
	payoutResultGroupID = "payout-result-group"

	// Topics
	// BookingPaidTopic carries booking.paid events from the marketplace;
	// each one becomes exactly one settlement transaction
	BookingPaidTopic = "booking.paid"

	// PayoutResultTopic carries confirmations and failures reported back
	// by the money-movement rail for dispatched payouts
	PayoutResultTopic = "payout.result"
)

// Our workers typically need access to the engines and the kafka event
// stream; worker-specific dependencies can be passed as argument to the worker
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream:    wk.KafkaStream,
		Settlement:     wk.Settlement,
		Payouts:        wk.Payouts,
		Reconciliation: wk.Reconciliation,
		Ctx:            wk.Ctx,
		Helper:         wk.Helper,
	}
}
