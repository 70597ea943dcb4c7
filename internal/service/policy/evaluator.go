package policy

import (
	"fmt"
	"sort"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/models/docsystem"
)

// FieldAllowlist answers which object fields a role may update.
type FieldAllowlist interface {
	Allows(role models.Role, field docsystem.ObjectField) bool
}

// Evaluator decides whether an actor may perform an action on a resource.
// It holds no mutable state and performs no I/O; every fact arrives in the
// Resource argument.
type Evaluator struct {
	caps FieldAllowlist
}

// NewEvaluator creates an evaluator backed by the given field allowlist.
func NewEvaluator(caps FieldAllowlist) *Evaluator {
	return &Evaluator{caps: caps}
}

// Decide returns Allow or a Deny with its reason.
func (e *Evaluator) Decide(actor models.Actor, kind ResourceKind, res Resource, action Action) Decision {
	if actor.IsDeleted {
		return notFound(ReasonActorDeleted, "user not found")
	}

	switch kind {
	case KindProject:
		return e.decideProject(actor, res, action)
	case KindObject:
		return e.decideObject(actor, res, action)
	case KindReview:
		return e.decideReview(actor, res, action)
	case KindSystemProperty:
		return e.decideSystemProperty(actor, res, action)
	case KindUser:
		return e.decideUser(actor, res, action)
	case KindAuditLog, KindWebhookQueue:
		if action != ActionRead {
			return unsupported(kind, action)
		}
		return requireAdmin(actor)
	}
	return unsupported(kind, action)
}

func unsupported(kind ResourceKind, action Action) Decision {
	return forbidden(ReasonUnsupportedAction, fmt.Sprintf("action %s is not permitted on %s", action, kind))
}

func requireAdmin(actor models.Actor) Decision {
	if !actor.IsAdmin {
		return forbidden(ReasonAdminRequired, "admin privileges required")
	}
	return allow()
}

// liveProject hides missing and soft-deleted projects. Admins may still read
// deleted projects.
func liveProject(actor models.Actor, p *ProjectFacts, action Action) (Decision, bool) {
	if p == nil {
		return notFound(ReasonProjectNotFound, "project not found"), false
	}
	if p.Deleted && !(actor.IsAdmin && action == ActionRead) {
		return notFound(ReasonProjectNotFound, "project not found"), false
	}
	return Decision{}, true
}

func liveObject(o *ObjectFacts) (Decision, bool) {
	if o == nil || o.Deleted {
		return notFound(ReasonObjectNotFound, "object not found"), false
	}
	return Decision{}, true
}

func requireMember(p *ProjectFacts) (Decision, bool) {
	if !p.ActorRole.IsMember() {
		return forbidden(ReasonNotMember, "you are not a member of this project"), false
	}
	return Decision{}, true
}

func (e *Evaluator) decideProject(actor models.Actor, res Resource, action Action) Decision {
	if action == ActionCreate {
		if res.Flags.ProjectCreateDisabled && !actor.IsAdmin {
			return forbidden(ReasonProjectCreateDisabled, "project creation is disabled")
		}
		return allow()
	}

	p := res.Project
	if d, ok := liveProject(actor, p, action); !ok {
		return d
	}

	switch action {
	case ActionRead:
		if actor.IsAdmin {
			return allow()
		}
		if d, ok := requireMember(p); !ok {
			return d
		}
		return allow()

	case ActionUpdate, ActionRename, ActionDelete:
		if p.ActorRole != models.Owner {
			return forbidden(ReasonOwnerRequired, "only a project owner can do this")
		}
		return allow()

	case ActionJoin:
		return decideJoin(p, res.Target)

	case ActionUnjoin:
		return decideUnjoin(actor, p, res.Target)
	}
	return unsupported(KindProject, action)
}

func decideJoin(p *ProjectFacts, target *TargetFacts) Decision {
	if p.ActorRole != models.Owner {
		return forbidden(ReasonOwnerRequired, "only a project owner can add members")
	}
	if target == nil || target.IsDeleted {
		return notFound(ReasonUserNotFound, "user not found")
	}
	if target.IsSystem {
		return deny(DenyInvalid, ReasonSystemActor, "the system user cannot join a project")
	}
	if !models.IsRoleName(target.RequestedRole) || models.ParseRole(target.RequestedRole) == models.NoRole {
		return deny(DenyInvalid, ReasonInvalidRole,
			fmt.Sprintf("invalid role %q", target.RequestedRole))
	}
	if target.IsMember {
		return deny(DenyConflict, ReasonAlreadyMember, "user is already a member of this project")
	}
	return allow()
}

func decideUnjoin(actor models.Actor, p *ProjectFacts, target *TargetFacts) Decision {
	if target == nil {
		return notFound(ReasonUserNotFound, "user not found")
	}
	self := target.UserID == actor.ID
	if !self && p.ActorRole != models.Owner {
		return forbidden(ReasonOwnerRequired, "only a project owner can remove other members")
	}
	if !target.IsMember {
		return notFound(ReasonTargetNotMember, "user is not a member of this project")
	}
	if target.Role == models.Owner && p.OwnerCount <= 1 {
		return forbidden(ReasonLastOwner, "cannot remove the last owner of the project")
	}
	return allow()
}

func (e *Evaluator) decideObject(actor models.Actor, res Resource, action Action) Decision {
	p := res.Project
	if d, ok := liveProject(actor, p, ActionUpdate); !ok {
		return d
	}

	if action == ActionCreate {
		if d, ok := requireMember(p); !ok {
			return d
		}
		if limit := res.Flags.MaxUploadBytes(); res.UploadBytes > limit {
			return deny(DenyInvalid, ReasonUploadTooLarge,
				fmt.Sprintf("file exceeds the maximum upload size of %d MB", res.Flags.ObjectMaxUploadSizeMB))
		}
		return allow()
	}

	if action == ActionList {
		if d, ok := requireMember(p); !ok {
			return d
		}
		return allow()
	}

	o := res.Object
	if d, ok := liveObject(o); !ok {
		return d
	}

	switch action {
	case ActionRead:
		if d, ok := requireMember(p); !ok {
			return d
		}
		return allow()

	case ActionUpdate:
		if d, ok := requireMember(p); !ok {
			return d
		}
		return e.decideFields(p.ActorRole, res.Fields)

	case ActionDelete:
		if res.Flags.ObjectDeleteDisabled {
			return forbidden(ReasonObjectDeleteDisabled, "object deletion is disabled")
		}
		if d, ok := requireMember(p); !ok {
			return d
		}
		if o.OwnerID != actor.ID && p.ActorRole != models.Owner {
			return forbidden(ReasonNotObjectOwner, "only the object author or a project owner can delete the object")
		}
		return allow()
	}
	return unsupported(KindObject, action)
}

// decideFields denies the whole request if any field is outside the role's
// allowlist.
func (e *Evaluator) decideFields(role models.Role, fields []string) Decision {
	if len(fields) == 0 {
		return deny(DenyInvalid, ReasonNoFields, "no fields to update")
	}

	var unknown, disallowed []string
	for _, name := range fields {
		field, ok := docsystem.ParseObjectField(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if !e.caps.Allows(role, field) {
			disallowed = append(disallowed, name)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return deny(DenyInvalid, ReasonUnknownField, fmt.Sprintf("unknown fields: %v", unknown))
	}
	if len(disallowed) > 0 {
		sort.Strings(disallowed)
		return forbidden(ReasonFieldNotAllowed,
			fmt.Sprintf("role %s cannot update fields: %v", role, disallowed))
	}
	return allow()
}

func (e *Evaluator) decideReview(actor models.Actor, res Resource, action Action) Decision {
	p := res.Project
	if d, ok := liveProject(actor, p, ActionUpdate); !ok {
		return d
	}
	if d, ok := liveObject(res.Object); !ok {
		return d
	}

	switch action {
	case ActionRead:
		if d, ok := requireMember(p); !ok {
			return d
		}
		return allow()

	case ActionCreate:
		if !p.ActorRole.CanReview() {
			return forbidden(ReasonReviewerRequired, "only a project owner or reviewer can add reviews")
		}
		if res.Object.ActorReviewed {
			return deny(DenyConflict, ReasonReviewExists, "review already exists for this object")
		}
		return allow()

	case ActionDelete:
		r := res.Review
		if r == nil {
			return notFound(ReasonReviewNotFound, "review not found")
		}
		if r.AuthorID != actor.ID && !p.ActorRole.CanReview() {
			return forbidden(ReasonNotReviewAuthor, "only the review author or a project owner or reviewer can delete the review")
		}
		return allow()
	}
	return unsupported(KindReview, action)
}

// decideSystemProperty validates the whole batch before allowing any of it.
func (e *Evaluator) decideSystemProperty(actor models.Actor, res Resource, action Action) Decision {
	if d := requireAdmin(actor); !d.Allowed {
		return d
	}

	switch action {
	case ActionRead:
		return allow()

	case ActionUpdate:
		if len(res.Properties) == 0 {
			return deny(DenyInvalid, ReasonNoProperties, "no properties to update")
		}
		keys := make([]string, 0, len(res.Properties))
		for k := range res.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			key, ok := models.ParseSystemPropertyKey(k)
			if !ok {
				return deny(DenyInvalid, ReasonUnknownProperty, fmt.Sprintf("unknown system property %q", k))
			}
			if err := key.Validate(res.Properties[k]); err != nil {
				return deny(DenyInvalid, ReasonInvalidProperty, fmt.Sprintf("invalid value for %s: %v", k, err))
			}
		}
		return allow()
	}
	return unsupported(KindSystemProperty, action)
}

func (e *Evaluator) decideUser(actor models.Actor, res Resource, action Action) Decision {
	if action == ActionLogin {
		if actor.IsSystem {
			return forbidden(ReasonSystemActor, "the system user cannot sign in")
		}
		if res.Flags.UserLoginDisabled && !actor.IsAdmin {
			return forbidden(ReasonLoginDisabled, "sign in is currently disabled")
		}
		return allow()
	}

	target := res.Target
	switch action {
	case ActionRead, ActionUpdate:
		if target == nil {
			return notFound(ReasonUserNotFound, "user not found")
		}
		if target.UserID != actor.ID && !actor.IsAdmin {
			return forbidden(ReasonNotSelf, "you can only manage your own account")
		}
		return allow()

	case ActionDelete:
		if d := requireAdmin(actor); !d.Allowed {
			return d
		}
		if target == nil {
			return notFound(ReasonUserNotFound, "user not found")
		}
		if target.UserID == actor.ID {
			return forbidden(ReasonSelfTarget, "you cannot delete your own account")
		}
		if target.IsSystem {
			return forbidden(ReasonSystemActor, "the system user cannot be deleted")
		}
		return allow()
	}
	return unsupported(KindUser, action)
}
