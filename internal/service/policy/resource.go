package policy

import (
	"roundreview/internal/domain/models"
)

// ResourceKind names the kind of resource a decision is about.
type ResourceKind string

const (
	KindProject        ResourceKind = "project"
	KindObject         ResourceKind = "object"
	KindReview         ResourceKind = "review"
	KindSystemProperty ResourceKind = "system_property"
	KindUser           ResourceKind = "user"
	KindAuditLog       ResourceKind = "audit_log"
	KindWebhookQueue   ResourceKind = "webhook_queue"
)

// Action is the verb being authorized.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionJoin   Action = "join"
	ActionUnjoin Action = "unjoin"
	ActionRename Action = "rename"
	ActionLogin  Action = "login"
)

// Resource is every fact a rule may consult. A nil sub-fact means the
// resource does not exist.
type Resource struct {
	Project *ProjectFacts
	Object  *ObjectFacts
	Review  *ReviewFacts
	Target  *TargetFacts

	// Fields are the raw keys of an object update request.
	Fields []string

	// UploadBytes is the size of an object being created.
	UploadBytes int64

	// Properties is a system property batch, raw key to raw value.
	Properties map[string]string

	Flags models.SystemFlags
}

// ProjectFacts describes a project as seen by the acting user.
type ProjectFacts struct {
	ID         string
	Deleted    bool
	ActorRole  models.Role
	OwnerCount int // live Owners only
}

// ObjectFacts describes an object as seen by the acting user.
type ObjectFacts struct {
	ID      string
	OwnerID string
	Deleted bool

	// ActorReviewed is set when the actor already has a review on the object.
	ActorReviewed bool
}

// ReviewFacts describes an existing review.
type ReviewFacts struct {
	ID       string
	AuthorID string
}

// TargetFacts describes the user an action is aimed at (membership changes,
// account administration).
type TargetFacts struct {
	UserID    string
	IsSystem  bool
	IsDeleted bool

	// IsMember and Role describe the target's membership in Resource.Project.
	IsMember bool
	Role     models.Role

	// RequestedRole is the raw role name of a join request.
	RequestedRole string
}
