package service

import (
	"log/slog"

	"roundreview/internal/domain/models"
	"roundreview/internal/service/policy"
)

func authorize(e *policy.Evaluator, logger *slog.Logger, actor models.Actor, kind policy.ResourceKind, res policy.Resource, action policy.Action) error {
	d := e.Decide(actor, kind, res, action)
	if !d.Allowed {
		logger.Debug("access denied",
			"user_id", actor.ID,
			"kind", string(kind),
			"action", string(action),
			"reason", string(d.Reason),
		)
	}
	return d.Err()
}
