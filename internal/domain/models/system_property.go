package models

import (
	"errors"
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SystemPropertyKey names a global feature flag owned by the system actor.
// The set of keys is closed.
type SystemPropertyKey string

const (
	PropProjectCreateDisabled SystemPropertyKey = "PROJECT_CREATE_DISABLED"
	PropObjectDeleteDisabled  SystemPropertyKey = "OBJECT_DELETE_DISABLED"
	PropUserLoginDisabled     SystemPropertyKey = "USER_LOGIN_DISABLED"
	PropObjectMaxUploadSizeMB SystemPropertyKey = "OBJECT_MAX_UPLOAD_SIZE_MB"
	PropWebhooksDisabled      SystemPropertyKey = "WEBHOOKS_DISABLED"
)

const (
	PropertyTrue  = "TRUE"
	PropertyFalse = "FALSE"

	minUploadSizeMB = 1
	maxUploadSizeMB = 16
)

var propertyDescriptions = map[SystemPropertyKey]string{
	PropProjectCreateDisabled: "If TRUE, project creation is disabled for any user, FALSE by default.",
	PropObjectDeleteDisabled:  "If TRUE, object delete is disabled for any user. FALSE by default",
	PropUserLoginDisabled:     "If TRUE, only admins can sign in. FALSE by default",
	PropObjectMaxUploadSizeMB: "Set the max upload size for objects in Megabytes. Maximum size: 16 (MB).",
	PropWebhooksDisabled:      "If TRUE, webhooks are disabled for any user, FALSE by default.",
}

// SystemPropertyKeys lists every key in display order.
func SystemPropertyKeys() []SystemPropertyKey {
	return []SystemPropertyKey{
		PropProjectCreateDisabled,
		PropObjectDeleteDisabled,
		PropUserLoginDisabled,
		PropObjectMaxUploadSizeMB,
		PropWebhooksDisabled,
	}
}

// ParseSystemPropertyKey returns the key named s, if any.
func ParseSystemPropertyKey(s string) (SystemPropertyKey, bool) {
	key := SystemPropertyKey(s)
	_, ok := propertyDescriptions[key]
	return key, ok
}

// Description is the admin-facing help text of the key.
func (k SystemPropertyKey) Description() string {
	return propertyDescriptions[k]
}

// Default is the value seeded at bootstrap.
func (k SystemPropertyKey) Default(maxUploadSizeMB int) string {
	if k == PropObjectMaxUploadSizeMB {
		return strconv.Itoa(maxUploadSizeMB)
	}
	return PropertyFalse
}

// Validate applies the key's own validity predicate to value.
func (k SystemPropertyKey) Validate(value string) error {
	switch k {
	case PropProjectCreateDisabled, PropObjectDeleteDisabled, PropUserLoginDisabled, PropWebhooksDisabled:
		return validation.Validate(value,
			validation.Required,
			validation.In(PropertyTrue, PropertyFalse).Error("must be TRUE or FALSE"),
		)
	case PropObjectMaxUploadSizeMB:
		return validation.Validate(value, validation.Required, validation.By(validateUploadSizeMB))
	}
	return fmt.Errorf("unknown system property %q", string(k))
}

func validateUploadSizeMB(value interface{}) error {
	s, _ := value.(string)
	size, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("must be an integer")
	}
	if size < minUploadSizeMB || size > maxUploadSizeMB {
		return fmt.Errorf("must be between %d and %d", minUploadSizeMB, maxUploadSizeMB)
	}
	return nil
}

// SystemProperty is a key/value pair as shown to admins.
type SystemProperty struct {
	Key         SystemPropertyKey `json:"key"`
	Value       string            `json:"value"`
	Description string            `json:"description"`
}

// SystemFlags is a typed snapshot of every system property, as consumed by the
// policy evaluator and the webhook dispatcher.
type SystemFlags struct {
	ProjectCreateDisabled bool
	ObjectDeleteDisabled  bool
	UserLoginDisabled     bool
	WebhooksDisabled      bool
	ObjectMaxUploadSizeMB int
}

// FlagsFromValues builds a snapshot from raw stored values. Booleans are set only
// by an exact "TRUE"; an absent or invalid upload size falls back to fallbackMB.
func FlagsFromValues(values map[SystemPropertyKey]string, fallbackMB int) SystemFlags {
	flags := SystemFlags{
		ProjectCreateDisabled: values[PropProjectCreateDisabled] == PropertyTrue,
		ObjectDeleteDisabled:  values[PropObjectDeleteDisabled] == PropertyTrue,
		UserLoginDisabled:     values[PropUserLoginDisabled] == PropertyTrue,
		WebhooksDisabled:      values[PropWebhooksDisabled] == PropertyTrue,
		ObjectMaxUploadSizeMB: fallbackMB,
	}
	if raw, ok := values[PropObjectMaxUploadSizeMB]; ok && PropObjectMaxUploadSizeMB.Validate(raw) == nil {
		flags.ObjectMaxUploadSizeMB, _ = strconv.Atoi(raw)
	}
	return flags
}

// MaxUploadBytes is the upload cap in bytes.
func (f SystemFlags) MaxUploadBytes() int64 {
	return int64(f.ObjectMaxUploadSizeMB) * 1024 * 1024
}
