package registration

import (
	"context"
	"event-registration/common/constant"
	"event-registration/model"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// phonePattern follows E.164: optional +, no leading zero, at most 15 digits.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,14}$`)

// FieldValidator is a compiled CustomField definition. The closed set of
// field types maps to fixed validation rules; nothing is interpreted at
// validation time beyond what Compile produced.
type FieldValidator struct {
	Field   model.CustomField
	pattern *regexp.Regexp
}

// Compile turns field definitions into validators. A syntactically invalid
// regex pattern must not break validation: the constraint is dropped and the
// condition logged, leaving the field unconstrained.
func Compile(ctx context.Context, fields []model.CustomField) []FieldValidator {
	validators := make([]FieldValidator, 0, len(fields))

	for _, field := range fields {
		v := FieldValidator{Field: field}

		if field.Validation != nil && field.Validation.Pattern != "" {
			pattern, err := regexp.Compile(field.Validation.Pattern)
			if err != nil {
				slog.WarnContext(ctx, "invalid field pattern, treating field as unconstrained",
					slog.String("field", field.Name),
					slog.Any(constant.LogFieldErr, err),
				)
			} else {
				v.pattern = pattern
			}
		}

		validators = append(validators, v)
	}

	return validators
}

// ValidateParticipant checks a participant's custom field values against the
// compiled validators. Returns a map of field name to failure message, empty
// on success.
func ValidateParticipant(p model.ParticipantPayload, validators []FieldValidator) map[string]string {
	fieldErrors := make(map[string]string)

	for _, v := range validators {
		value := strings.TrimSpace(p.CustomFieldValues[v.Field.Name])

		if msg := v.check(value, p); msg != "" {
			fieldErrors[v.Field.Name] = msg
		}
	}

	return fieldErrors
}

func (v FieldValidator) check(value string, p model.ParticipantPayload) string {
	field := v.Field

	if field.Type == model.FieldFile {
		if field.Required && value == "" && len(p.Files) == 0 {
			return "file is required"
		}
		// Extension and size limits are enforced by the upload collaborator.
		return ""
	}

	if field.Type == model.FieldCheckbox {
		if field.Required && value != "true" {
			return "must be checked"
		}
		return ""
	}

	if value == "" {
		if field.Required {
			return "is required"
		}
		return ""
	}

	switch field.Type {
	case model.FieldText, model.FieldTextarea:
		return v.checkText(value)
	case model.FieldEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return "must be a valid email address"
		}
	case model.FieldPhone:
		if !phonePattern.MatchString(value) {
			return "must be a valid phone number"
		}
	case model.FieldSelect:
		return v.checkSelect(value)
	case model.FieldDate:
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return "must be a valid date (YYYY-MM-DD)"
		}
	}

	return ""
}

func (v FieldValidator) checkText(value string) string {
	if v.Field.Validation != nil {
		if min := v.Field.Validation.MinLength; min > 0 && len(value) < min {
			return fmt.Sprintf("must be at least %d characters", min)
		}
		if max := v.Field.Validation.MaxLength; max > 0 && len(value) > max {
			return fmt.Sprintf("must be at most %d characters", max)
		}
	}

	if v.pattern != nil && !v.pattern.MatchString(value) {
		return "does not match the expected format"
	}

	return ""
}

func (v FieldValidator) checkSelect(value string) string {
	if v.Field.Validation == nil || len(v.Field.Validation.Options) == 0 {
		return "has no options configured"
	}

	for _, option := range v.Field.Validation.Options {
		if value == option {
			return ""
		}
	}

	return "is not one of the allowed options"
}
