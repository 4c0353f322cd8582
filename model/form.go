package model

import "time"

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldTextarea FieldType = "textarea"
	FieldFile     FieldType = "file"
	FieldDate     FieldType = "date"
)

// FieldValidation carries the optional constraints of a CustomField. Zero
// values mean unconstrained.
type FieldValidation struct {
	MinLength   int      `json:"min_length,omitempty"`
	MaxLength   int      `json:"max_length,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	Options     []string `json:"options,omitempty"`
	FileTypes   []string `json:"file_types,omitempty"`
	MaxFileSize int64    `json:"max_file_size,omitempty"`
}

type CustomField struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Label      string           `json:"label"`
	Type       FieldType        `json:"type"`
	Required   bool             `json:"required"`
	Validation *FieldValidation `json:"validation,omitempty"`
	Order      int              `json:"order"`
}

type FormConfig struct {
	ID                     string        `json:"id"`
	EventID                string        `json:"event_id"`
	Title                  string        `json:"title"`
	Fields                 []CustomField `json:"fields"`
	AllowGroupRegistration bool          `json:"allow_group_registration"`
	MaxGroupSize           int           `json:"max_group_size,omitempty"`
	RequiresApproval       bool          `json:"requires_approval"`
	IsActive               bool          `json:"is_active"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}
