package models

// Role is a project-scoped permission level. A user holds at most one role per
// project; the absence of a membership row is NoRole.
//
// Roles are ranked NoRole < Member < Reviewer < Owner, but the ranking only
// answers "is this a member at all". Field-level rights are not nested by rank
// and live in the policy capability table.
type Role int

const (
	NoRole Role = iota
	Member
	Reviewer
	Owner
)

var roleNames = map[Role]string{
	NoRole:   "No Role",
	Member:   "Member",
	Reviewer: "Reviewer",
	Owner:    "Owner",
}

// Roles lists every role in rank order.
func Roles() []Role {
	return []Role{NoRole, Member, Reviewer, Owner}
}

// RoleValues returns the stored names of every role.
func RoleValues() []string {
	values := make([]string, 0, len(roleNames))
	for _, r := range Roles() {
		values = append(values, roleNames[r])
	}
	return values
}

// ParseRole maps a stored role name to a Role. Unknown or corrupted values
// resolve to NoRole, never to an elevated role.
func ParseRole(s string) Role {
	for r, name := range roleNames {
		if name == s {
			return r
		}
	}
	return NoRole
}

// IsRoleName reports whether s is exactly the stored name of a role.
func IsRoleName(s string) bool {
	for _, name := range roleNames {
		if name == s {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return roleNames[NoRole]
}

// IsMember reports whether r grants any project access.
func (r Role) IsMember() bool {
	return r >= Member && r <= Owner
}

// CanReview reports whether r may record reviews and receives status webhooks.
func (r Role) CanReview() bool {
	return r == Owner || r == Reviewer
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler; unknown names become NoRole.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}
