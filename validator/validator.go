// Package validator finds the required fields a ticket plan still lacks.
package validator

import (
	"reflect"

	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/types"
)

// Scan returns the unfilled required fields ordered by item index, then by the
// field order of the ticket type. Items without a catalog entry are labeled
// needs-triage and contribute nothing. Summary and optional fields are never returned.
func Scan(cat *catalog.Catalog, plan *types.TicketPlan) []types.MissingField {
	if plan == nil {
		return nil
	}
	var missing []types.MissingField
	for i := range plan.Items {
		item := &plan.Items[i]
		spec, ok := cat.Find(item.ServiceArea, item.Category, item.TicketType)
		if !ok {
			item.AddLabel(types.LabelNeedsTriage)
			continue
		}
		for _, field := range spec.Fields {
			if !field.IsRequired() || field.Name == catalog.SummaryField {
				continue
			}
			if IsBlank(item.Form[field.Name]) {
				missing = append(missing, types.MissingField{ItemIndex: i, Field: field})
			}
		}
	}
	return missing
}

// IsBlank reports whether v counts as unanswered: nil, an empty string, or an
// empty slice or map. false and 0 are answers.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
