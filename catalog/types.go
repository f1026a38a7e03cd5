package catalog

import (
	"errors"
	"fmt"
	"strings"
)

type FieldType string

const (
	FieldString      FieldType = "string"
	FieldRichText    FieldType = "rich_text"
	FieldBool        FieldType = "bool"
	FieldInt         FieldType = "int"
	FieldDate        FieldType = "date"
	FieldTime        FieldType = "time"
	FieldFile        FieldType = "file"
	FieldFileList    FieldType = "files"
	FieldChoice      FieldType = "choice"
	FieldMultiChoice FieldType = "multi_choice"
)

// SummaryField is filled by the summary generator and never asked of the user.
const SummaryField = "summary"

// EmailField receives the requester address when it is known.
const EmailField = "email"

func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldRichText, FieldBool, FieldInt, FieldDate, FieldTime,
		FieldFile, FieldFileList, FieldChoice, FieldMultiChoice:
		return true
	}
	return false
}

// FieldSpec describes one slot of a ticket form.
// OptionsSource names an external option list; it is kept for display but never resolved.
type FieldSpec struct {
	Name          string    `json:"name" yaml:"name"`
	Type          FieldType `json:"type" yaml:"type"`
	Options       []string  `json:"options,omitempty" yaml:"options,omitempty"`
	OptionsSource string    `json:"options_source,omitempty" yaml:"options_source,omitempty"`
	Required      *bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// IsRequired reports whether the field must be filled. Fields are required unless marked otherwise.
func (f FieldSpec) IsRequired() bool {
	return f.Required == nil || *f.Required
}

// DisplayName is the human-readable field name used in questions.
func (f FieldSpec) DisplayName() string {
	return strings.ReplaceAll(f.Name, "_", " ")
}

type TicketTypeSpec struct {
	ServiceArea string      `json:"service_area" yaml:"-"`
	Category    string      `json:"category" yaml:"-"`
	TicketType  string      `json:"ticket_type" yaml:"ticket_type"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldSpec `json:"fields" yaml:"fields"`
}

func (s *TicketTypeSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

type Category struct {
	Name        string           `json:"name" yaml:"name"`
	Keywords    []string         `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	TicketTypes []TicketTypeSpec `json:"ticket_types" yaml:"ticket_types"`
}

type ServiceArea struct {
	Name       string     `json:"name" yaml:"name"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// Document is the on-disk catalog layout. OptionSets only exists so documents can
// share option lists through YAML anchors.
type Document struct {
	Version      string              `json:"version" yaml:"version"`
	OptionSets   map[string][]string `json:"option_sets,omitempty" yaml:"option_sets,omitempty"`
	ServiceAreas []ServiceArea       `json:"service_areas" yaml:"service_areas"`
}

var ErrNotFound = errors.New("ticket type not found in catalog")

// MismatchError reports a (service area, category, ticket type) triple the catalog does not know.
type MismatchError struct {
	ServiceArea string
	Category    string
	TicketType  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("catalog mismatch: %q / %q / %q", e.ServiceArea, e.Category, e.TicketType)
}

func (e *MismatchError) Is(target error) bool {
	return target == ErrNotFound
}
