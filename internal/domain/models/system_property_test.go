package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPropertyKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     SystemPropertyKey
		value   string
		wantErr bool
	}{
		{"boolean TRUE", PropProjectCreateDisabled, "TRUE", false},
		{"boolean FALSE", PropWebhooksDisabled, "FALSE", false},
		{"boolean lowercase", PropUserLoginDisabled, "true", true},
		{"boolean empty", PropObjectDeleteDisabled, "", true},
		{"size lower bound", PropObjectMaxUploadSizeMB, "1", false},
		{"size upper bound", PropObjectMaxUploadSizeMB, "16", false},
		{"size zero", PropObjectMaxUploadSizeMB, "0", true},
		{"size too large", PropObjectMaxUploadSizeMB, "17", true},
		{"size not a number", PropObjectMaxUploadSizeMB, "ten", true},
		{"unknown key", SystemPropertyKey("NOPE"), "TRUE", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseSystemPropertyKey(t *testing.T) {
	for _, k := range SystemPropertyKeys() {
		got, ok := ParseSystemPropertyKey(string(k))
		assert.True(t, ok)
		assert.Equal(t, k, got)
		assert.NotEmpty(t, k.Description())
	}
	_, ok := ParseSystemPropertyKey("project_create_disabled")
	assert.False(t, ok)
}

func TestFlagsFromValues(t *testing.T) {
	flags := FlagsFromValues(map[SystemPropertyKey]string{
		PropProjectCreateDisabled: "TRUE",
		PropUserLoginDisabled:     "yes",
		PropObjectMaxUploadSizeMB: "4",
	}, 10)

	assert.True(t, flags.ProjectCreateDisabled)
	assert.False(t, flags.UserLoginDisabled)
	assert.False(t, flags.WebhooksDisabled)
	assert.Equal(t, 4, flags.ObjectMaxUploadSizeMB)
	assert.Equal(t, int64(4*1024*1024), flags.MaxUploadBytes())
}

func TestFlagsFromValues_InvalidSizeFallsBack(t *testing.T) {
	assert.Equal(t, 10, FlagsFromValues(map[SystemPropertyKey]string{PropObjectMaxUploadSizeMB: "99"}, 10).ObjectMaxUploadSizeMB)
	assert.Equal(t, 10, FlagsFromValues(nil, 10).ObjectMaxUploadSizeMB)
}

func TestSystemPropertyKey_Default(t *testing.T) {
	assert.Equal(t, "12", PropObjectMaxUploadSizeMB.Default(12))
	assert.Equal(t, PropertyFalse, PropWebhooksDisabled.Default(12))
}
