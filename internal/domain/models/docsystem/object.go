package docsystem

import "time"

// ObjectStatus is the review state of an object.
type ObjectStatus int

const (
	StatusNoReview ObjectStatus = iota
	StatusPendingReview
	StatusUnderReview
	StatusRequireChanges
	StatusApproved
)

var statusNames = map[ObjectStatus]string{
	StatusNoReview:       "No Review",
	StatusPendingReview:  "Pending Review",
	StatusUnderReview:    "Under Review",
	StatusRequireChanges: "Require Changes",
	StatusApproved:       "Approved",
}

// StatusValues returns the stored names of every status in workflow order.
func StatusValues() []string {
	return []string{
		statusNames[StatusNoReview],
		statusNames[StatusPendingReview],
		statusNames[StatusUnderReview],
		statusNames[StatusRequireChanges],
		statusNames[StatusApproved],
	}
}

// ParseStatus maps a stored name to a status; unknown values become StatusNoReview.
func ParseStatus(s string) ObjectStatus {
	for st, name := range statusNames {
		if name == s {
			return st
		}
	}
	return StatusNoReview
}

// IsStatusName reports whether s is exactly the stored name of a status.
func IsStatusName(s string) bool {
	for _, name := range statusNames {
		if name == s {
			return true
		}
	}
	return false
}

func (s ObjectStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusNoReview]
}

func (s ObjectStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ObjectStatus) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

// ObjectField names a mutable object attribute.
type ObjectField string

const (
	FieldName        ObjectField = "name"
	FieldDescription ObjectField = "description"
	FieldComments    ObjectField = "comments"
	FieldVersion     ObjectField = "version"
	FieldStatus      ObjectField = "status"
	FieldPath        ObjectField = "path"
)

// ObjectFields lists every updatable field.
func ObjectFields() []ObjectField {
	return []ObjectField{FieldName, FieldDescription, FieldComments, FieldVersion, FieldStatus, FieldPath}
}

// ParseObjectField returns the field named s, if it is updatable.
func ParseObjectField(s string) (ObjectField, bool) {
	for _, f := range ObjectFields() {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Object is a versioned document belonging to exactly one project. OwnerID is
// the uploader and is independent of the uploader's project role.
type Object struct {
	ID          string       `json:"id" db:"id"`
	Path        string       `json:"path" db:"path"`
	OwnerID     string       `json:"user_id" db:"user_id"`
	ProjectID   string       `json:"project_id" db:"project_id"`
	Name        string       `json:"name" db:"name"`
	Description string       `json:"description" db:"description"`
	Comments    *string      `json:"comments" db:"comments"`
	Version     string       `json:"version" db:"version"`
	Status      ObjectStatus `json:"status" db:"status"`
	UploadDate  time.Time    `json:"upload_date" db:"upload_date"`
	UpdateDate  time.Time    `json:"update_date" db:"update_date"`
	Raw         []byte       `json:"raw,omitempty" db:"raw"` // base64 in JSON
}

// ObjectOwnership is the minimal view of an object needed for authorization.
type ObjectOwnership struct {
	ObjectID       string
	OwnerID        string
	ProjectID      string
	Deleted        bool
	ProjectDeleted bool
}
