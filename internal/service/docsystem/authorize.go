package docsystem

import (
	"log/slog"

	"roundreview/internal/domain/models"
	"roundreview/internal/service/policy"
)

// authorizer runs the policy evaluator and logs denials.
type authorizer struct {
	evaluator *policy.Evaluator
	logger    *slog.Logger
}

func (a authorizer) check(actor models.Actor, kind policy.ResourceKind, res policy.Resource, action policy.Action) error {
	d := a.evaluator.Decide(actor, kind, res, action)
	if !d.Allowed {
		a.logger.Debug("access denied",
			"user_id", actor.ID,
			"kind", string(kind),
			"action", string(action),
			"reason", string(d.Reason),
		)
	}
	return d.Err()
}
