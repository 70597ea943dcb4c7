package capabilities

import "gopkg.in/yaml.v3"

// RoleCapabilities is the set of object fields one role may update
type RoleCapabilities struct {
	// Role name as stored in memberships (set during YAML unmarshaling)
	Role string `yaml:"-" json:"role"`

	Description string   `yaml:"description" json:"description"`
	Fields      []string `yaml:"fields" json:"fields"`
}

// CapabilityTable represents all roles for a resource
type CapabilityTable struct {
	Resource string             `yaml:"resource" json:"resource"`
	Roles    []RoleCapabilities `yaml:"-" json:"roles"` // Ordered slice, populated by custom unmarshaler
}

// UnmarshalYAML preserves role order from the YAML file
func (t *CapabilityTable) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "resource" {
			t.Resource = node.Content[i+1].Value
			break
		}
	}

	type rolesOnly struct {
		Roles map[string]RoleCapabilities `yaml:"roles"`
	}
	var r rolesOnly
	if err := node.Decode(&r); err != nil {
		return err
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "roles" {
			continue
		}
		rolesNode := node.Content[i+1]
		for j := 0; j+1 < len(rolesNode.Content); j += 2 {
			name := rolesNode.Content[j].Value
			if caps, ok := r.Roles[name]; ok {
				caps.Role = name
				t.Roles = append(t.Roles, caps)
			}
		}
		break
	}

	return nil
}
