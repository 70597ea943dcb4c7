package config

const (
	// MaxProjectTitleLength is the maximum length for project titles.
	MaxProjectTitleLength = 255

	// MaxObjectNameLength is the maximum length for object names.
	MaxObjectNameLength = 255

	// MaxObjectVersionLength matches the VARCHAR(64) version column.
	MaxObjectVersionLength = 64

	// MaxObjectPathLength bounds the virtual folder path of an object.
	MaxObjectPathLength = 500

	// Review field bounds. Third-party integrations rely on these exact values.
	MaxReviewNameLength    = 32
	MaxReviewIconLength    = 32
	MaxReviewURLLength     = 128
	MaxReviewURLTextLength = 64
	MaxReviewValueLength   = 8192

	// MinUploadSizeMB and MaxUploadSizeMB bound OBJECT_MAX_UPLOAD_SIZE_MB.
	MinUploadSizeMB = 1
	MaxUploadSizeMB = 16

	// MaxWebhookURLLength bounds the per-user webhook URL.
	MaxWebhookURLLength = 512
)
