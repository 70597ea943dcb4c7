package capabilities

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/models/docsystem"
)

//go:embed config/*.yaml
var configFiles embed.FS

type fieldSet map[docsystem.ObjectField]struct{}

// Registry is the per-role object field allowlist, loaded once at startup
type Registry struct {
	table  CapabilityTable
	fields map[models.Role]fieldSet
	mu     sync.RWMutex
}

// NewRegistry loads the embedded role table
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/roles.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read roles.yaml: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML. Unknown role or field names are rejected
// so a typo cannot silently widen or narrow a role's rights.
func Parse(data []byte) (*Registry, error) {
	var table CapabilityTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal capability table: %w", err)
	}

	r := &Registry{
		table:  table,
		fields: make(map[models.Role]fieldSet),
	}
	for _, caps := range table.Roles {
		if !models.IsRoleName(caps.Role) {
			return nil, fmt.Errorf("unknown role %q in capability table", caps.Role)
		}
		role := models.ParseRole(caps.Role)
		set := make(fieldSet, len(caps.Fields))
		for _, name := range caps.Fields {
			field, ok := docsystem.ParseObjectField(name)
			if !ok {
				return nil, fmt.Errorf("unknown field %q for role %s", name, caps.Role)
			}
			set[field] = struct{}{}
		}
		r.fields[role] = set
	}

	return r, nil
}

// Allows reports whether role may update field
func (r *Registry) Allows(role models.Role, field docsystem.ObjectField) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.fields[role][field]
	return ok
}

// AllowedFields returns the fields of role in table order
func (r *Registry) AllowedFields(role models.Role) []docsystem.ObjectField {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []docsystem.ObjectField
	for _, caps := range r.table.Roles {
		if models.ParseRole(caps.Role) != role {
			continue
		}
		for _, name := range caps.Fields {
			out = append(out, docsystem.ObjectField(name))
		}
	}
	return out
}

// Table returns the loaded table, ordered as defined in YAML
func (r *Registry) Table() CapabilityTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table
}
