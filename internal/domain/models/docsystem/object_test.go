package docsystem

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusApproved, ParseStatus("Approved"))
	assert.Equal(t, StatusRequireChanges, ParseStatus("Require Changes"))
	assert.Equal(t, StatusNoReview, ParseStatus("approved"))
	assert.Equal(t, StatusNoReview, ParseStatus(""))

	assert.True(t, IsStatusName("Pending Review"))
	assert.False(t, IsStatusName("Done"))
	assert.Len(t, StatusValues(), 5)
}

func TestParseObjectField(t *testing.T) {
	for _, f := range ObjectFields() {
		got, ok := ParseObjectField(string(f))
		assert.True(t, ok)
		assert.Equal(t, f, got)
	}
	_, ok := ParseObjectField("raw")
	assert.False(t, ok)
	_, ok = ParseObjectField("project_id")
	assert.False(t, ok)
}

func TestObject_JSON(t *testing.T) {
	obj := Object{ID: "o1", Name: "a.pdf", Status: StatusUnderReview}
	data, err := json.Marshal(obj)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Under Review", out["status"])
	assert.NotContains(t, out, "raw")
}
