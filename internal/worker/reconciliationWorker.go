package worker

import (
	"log"
	"time"

	"github.com/tesfam/kiraypay/internal/models"
)

// ReconciliationWorker runs the balance checker on a fixed interval. It is
// a ticker loop rather than a kafka consumer because the schedule, not an
// event, is the trigger.
func (wk *Worker) ReconciliationWorker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-wk.Ctx.Done():
			return
		case <-ticker.C:
			run, discrepancies, err := wk.Reconciliation.Run(wk.Ctx, models.ReconciliationPeriodDaily)
			if err != nil {
				log.Printf("Error running reconciliation: %v", err)
				continue
			}
			log.Printf("Reconciliation run %s finished: %d wallet(s) checked, %d discrepancy(ies)",
				run.ID, run.WalletsChecked, len(discrepancies))
		}
	}
}
