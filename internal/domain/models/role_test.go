package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{"Owner", Owner},
		{"Reviewer", Reviewer},
		{"Member", Member},
		{"No Role", NoRole},
		{"owner", NoRole},
		{"Admin", NoRole},
		{"", NoRole},
		{" Owner", NoRole},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.raw))
		})
	}
}

func TestRoleValues_RankOrder(t *testing.T) {
	assert.Equal(t, []string{"No Role", "Member", "Reviewer", "Owner"}, RoleValues())
}

func TestRole_Predicates(t *testing.T) {
	assert.False(t, NoRole.IsMember())
	assert.True(t, Member.IsMember())
	assert.True(t, Owner.IsMember())
	assert.False(t, Role(42).IsMember())

	assert.False(t, Member.CanReview())
	assert.True(t, Reviewer.CanReview())
	assert.True(t, Owner.CanReview())
}

func TestRole_JSONRoundTripIsFailClosed(t *testing.T) {
	data, err := json.Marshal(map[string]Role{"role": Reviewer})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"Reviewer"}`, string(data))

	var out struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"Superuser"}`), &out))
	assert.Equal(t, NoRole, out.Role)
}

func TestIsRoleName(t *testing.T) {
	assert.True(t, IsRoleName("Member"))
	assert.False(t, IsRoleName("member"))
	assert.Equal(t, "No Role", Role(-1).String())
}
