package policy

import (
	"fmt"
	"net/http"

	"roundreview/internal/domain"
)

// DenyKind classifies a denial for transport mapping.
type DenyKind int

const (
	DenyForbidden DenyKind = iota + 1
	DenyNotFound
	DenyConflict
	DenyInvalid
	DenyUnauthorized
)

func (k DenyKind) String() string {
	switch k {
	case DenyForbidden:
		return "forbidden"
	case DenyNotFound:
		return "not_found"
	case DenyConflict:
		return "conflict"
	case DenyInvalid:
		return "invalid_input"
	case DenyUnauthorized:
		return "unauthorized"
	}
	return "allowed"
}

// Reason is a machine-readable denial code.
type Reason string

const (
	ReasonActorDeleted          Reason = "actor_deleted"
	ReasonSystemActor           Reason = "system_actor"
	ReasonAdminRequired         Reason = "admin_required"
	ReasonProjectNotFound       Reason = "project_not_found"
	ReasonObjectNotFound        Reason = "object_not_found"
	ReasonReviewNotFound        Reason = "review_not_found"
	ReasonUserNotFound          Reason = "user_not_found"
	ReasonNotMember             Reason = "not_member"
	ReasonOwnerRequired         Reason = "owner_required"
	ReasonReviewerRequired      Reason = "reviewer_required"
	ReasonNotObjectOwner        Reason = "not_object_owner"
	ReasonNotReviewAuthor       Reason = "not_review_author"
	ReasonNotSelf               Reason = "not_self"
	ReasonSelfTarget            Reason = "self_target"
	ReasonLastOwner             Reason = "last_owner"
	ReasonAlreadyMember         Reason = "already_member"
	ReasonTargetNotMember       Reason = "target_not_member"
	ReasonInvalidRole           Reason = "invalid_role"
	ReasonReviewExists          Reason = "review_exists"
	ReasonProjectCreateDisabled Reason = "project_create_disabled"
	ReasonObjectDeleteDisabled  Reason = "object_delete_disabled"
	ReasonLoginDisabled         Reason = "login_disabled"
	ReasonUploadTooLarge        Reason = "upload_too_large"
	ReasonNoFields              Reason = "no_fields"
	ReasonUnknownField          Reason = "unknown_field"
	ReasonFieldNotAllowed       Reason = "field_not_allowed"
	ReasonNoProperties          Reason = "no_properties"
	ReasonUnknownProperty       Reason = "unknown_property"
	ReasonInvalidProperty       Reason = "invalid_property"
	ReasonUnsupportedAction     Reason = "unsupported_action"
)

// Decision is the outcome of an authorization check. A denial is a value,
// never an error return from Decide.
type Decision struct {
	Allowed bool
	Kind    DenyKind
	Reason  Reason
	Message string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(kind DenyKind, reason Reason, message string) Decision {
	return Decision{Kind: kind, Reason: reason, Message: message}
}

func forbidden(reason Reason, message string) Decision {
	return deny(DenyForbidden, reason, message)
}

func notFound(reason Reason, message string) Decision {
	return deny(DenyNotFound, reason, message)
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return fmt.Sprintf("deny(%s: %s)", d.Kind, d.Reason)
}

// Err converts a denial into the domain error taxonomy; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Decision: d}
}

// DeniedError carries a denial through error returns. It matches the domain
// sentinel of its kind with errors.Is and reports the matching HTTP status.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return e.Decision.Message
}

// Unwrap exposes the equivalent domain error.
func (e *DeniedError) Unwrap() error {
	msg := e.Decision.Message
	switch e.Decision.Kind {
	case DenyNotFound:
		return &domain.NotFoundError{Message: msg}
	case DenyConflict:
		return &domain.ConflictError{Message: msg, ResourceType: conflictResource(e.Decision.Reason)}
	case DenyInvalid:
		return &domain.ValidationError{Message: msg}
	case DenyUnauthorized:
		return &domain.UnauthorizedError{Message: msg}
	}
	return &domain.ForbiddenError{Message: msg}
}

func (e *DeniedError) StatusCode() int {
	switch e.Decision.Kind {
	case DenyNotFound:
		return http.StatusNotFound
	case DenyConflict:
		return http.StatusConflict
	case DenyInvalid:
		return http.StatusBadRequest
	case DenyUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}

func conflictResource(reason Reason) string {
	switch reason {
	case ReasonAlreadyMember:
		return "membership"
	case ReasonReviewExists:
		return "review"
	}
	return ""
}
