package docsystem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"roundreview/internal/config"
	"roundreview/internal/domain"
	"roundreview/internal/domain/models/docsystem"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	pdfContentType = "application/pdf"
	defaultPath    = "/"
)

var pdfMagic = []byte("%PDF")

var (
	nameRules    = []validation.Rule{validation.Required, validation.RuneLength(1, config.MaxObjectNameLength)}
	versionRules = []validation.Rule{validation.RuneLength(0, config.MaxObjectVersionLength)}
	pathRules    = []validation.Rule{
		validation.Required,
		validation.RuneLength(1, config.MaxObjectPathLength),
		validation.By(absolutePath),
	}
	statusRules = []validation.Rule{validation.By(knownStatus)}
)

func absolutePath(value interface{}) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return fmt.Errorf("must start with /")
	}
	return nil
}

func knownStatus(value interface{}) error {
	s, _ := value.(string)
	if !docsystem.IsStatusName(s) {
		return fmt.Errorf("must be one of %s", strings.Join(docsystem.StatusValues(), ", "))
	}
	return nil
}

// validateUpload checks metadata and content of a new object and returns the
// path and status with their defaults applied.
func validateUpload(name, path, version, status, contentType string, raw []byte) (string, string, error) {
	if path == "" {
		path = defaultPath
	}
	if status == "" {
		status = docsystem.StatusNoReview.String()
	}

	err := validation.Errors{
		"name":    validation.Validate(name, nameRules...),
		"path":    validation.Validate(path, pathRules...),
		"version": validation.Validate(version, versionRules...),
		"status":  validation.Validate(status, statusRules...),
	}.Filter()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if contentType != pdfContentType {
		return "", "", &domain.ValidationError{Message: "only PDF documents are accepted"}
	}
	if !bytes.HasPrefix(raw, pdfMagic) {
		return "", "", &domain.ValidationError{Message: "content is not a PDF document"}
	}
	return path, status, nil
}

// updateFields returns the sorted field names of an update request.
func updateFields(updates map[string]any) []string {
	fields := make([]string, 0, len(updates))
	for k := range updates {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// buildObjectUpdate validates each value and converts the request into its
// stored form. Keys must already be known object fields.
func buildObjectUpdate(updates map[string]any) (docsysRepo.ObjectUpdate, error) {
	out := make(docsysRepo.ObjectUpdate, len(updates))
	errs := validation.Errors{}

	for key, raw := range updates {
		field, ok := docsystem.ParseObjectField(key)
		if !ok {
			errs[key] = fmt.Errorf("unknown field")
			continue
		}

		if field == docsystem.FieldComments {
			encoded, err := json.Marshal(raw)
			if err != nil {
				errs[key] = fmt.Errorf("must be valid JSON")
				continue
			}
			out[field] = string(encoded)
			continue
		}

		value, ok := raw.(string)
		if !ok {
			errs[key] = fmt.Errorf("must be a string")
			continue
		}

		var rules []validation.Rule
		switch field {
		case docsystem.FieldName:
			rules = nameRules
		case docsystem.FieldVersion:
			rules = versionRules
		case docsystem.FieldPath:
			rules = pathRules
		case docsystem.FieldStatus:
			rules = statusRules
		}
		if err := validation.Validate(value, rules...); err != nil {
			errs[key] = err
			continue
		}
		out[field] = value
	}

	if err := errs.Filter(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return out, nil
}
