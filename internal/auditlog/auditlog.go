// Package auditlog writes the immutable trail behind every sensitive
// mutation. Recording is best-effort from the caller's point of view: a
// failed audit insert is logged loudly but never rolls back the money
// movement it describes, except where the caller explicitly demands
// otherwise.
package auditlog

import (
	"encoding/json"
	"log/slog"

	"github.com/tesfam/kiraypay/internal/models"
	"github.com/tesfam/kiraypay/internal/repository"
)

type Recorder struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

func New(repo repository.AuditRepository, logger *slog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
	}
}

// Record marshals the before/after states and appends an audit row.
func (rec *Recorder) Record(actorID, action, targetType, targetID string, before, after any) {
	entry := &models.FinancialAuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}

	var err error

	if before != nil {
		entry.BeforeState, err = json.Marshal(before)
		if err != nil {
			rec.logger.Error("audit: marshal before state", "action", action, "error", err)
			return
		}
	}
	if after != nil {
		entry.AfterState, err = json.Marshal(after)
		if err != nil {
			rec.logger.Error("audit: marshal after state", "action", action, "error", err)
			return
		}
	}

	if _, err := rec.repo.Insert(entry); err != nil {
		// an unwritten audit row is itself an incident worth alerting on
		rec.logger.Error("audit: insert failed",
			"action", action, "target_type", targetType, "target_id", targetID, "error", err)
	}
}
