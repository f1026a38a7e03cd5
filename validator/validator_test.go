package validator

import (
	"reflect"
	"testing"

	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/types"
)

func loanTapeItem(form map[string]any) types.TicketItem {
	return types.TicketItem{
		ServiceArea: "SRE/Production Support",
		Category:    "Financial Service Request",
		TicketType:  "Loan Tape",
		Form:        form,
	}
}

func fieldNames(missing []types.MissingField) []string {
	var names []string
	for _, m := range missing {
		names = append(names, m.Field.Name)
	}
	return names
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		name  string
		value any
		blank bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"empty strings", []string{}, true},
		{"empty list", []any{}, true},
		{"empty map", map[string]any{}, true},
		{"nil slice", []string(nil), true},
		{"false", false, false},
		{"zero", 0, false},
		{"zero float", 0.0, false},
		{"space", " ", false},
		{"text", "x", false},
		{"list", []string{"a"}, false},
		{"map", map[string]any{"a": 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlank(tt.value); got != tt.blank {
				t.Errorf("IsBlank(%#v) = %v, want %v", tt.value, got, tt.blank)
			}
		})
	}
}

func TestScanOrder(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	plan := &types.TicketPlan{Items: []types.TicketItem{
		loanTapeItem(map[string]any{}),
		loanTapeItem(map[string]any{"email": "a@b.c", "urgency": "high"}),
	}}
	missing := Scan(cat, plan)
	want := []string{
		"email", "urgency", "request_date", "vendor_name", "type_of_rerun",
		"request_date", "vendor_name", "type_of_rerun",
	}
	if got := fieldNames(missing); !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan order = %v, want %v", got, want)
	}
	if missing[0].ItemIndex != 0 || missing[5].ItemIndex != 1 {
		t.Errorf("unexpected item indexes: %+v", missing)
	}
}

func TestScanSkipsSummaryAndOptional(t *testing.T) {
	cat, _ := catalog.Default()
	plan := &types.TicketPlan{Items: []types.TicketItem{loanTapeItem(nil)}}
	for _, m := range Scan(cat, plan) {
		if m.Field.Name == catalog.SummaryField || !m.Field.IsRequired() {
			t.Errorf("unexpected missing field %q", m.Field.Name)
		}
	}
}

func TestScanFalseAndZeroAreFilled(t *testing.T) {
	cat, _ := catalog.Default()
	plan := &types.TicketPlan{Items: []types.TicketItem{{
		ServiceArea: "SRE/Production Support",
		Category:    "Financial Service Request",
		TicketType:  "Investor Reports Manual Rerun",
		Form: map[string]any{
			"investor_to_recipient":     0,
			"vendor_related":            false,
			"subpool_or_update_related": false,
		},
	}}}
	for _, name := range fieldNames(Scan(cat, plan)) {
		switch name {
		case "investor_to_recipient", "vendor_related", "subpool_or_update_related":
			t.Errorf("%s should count as answered", name)
		}
	}
}

func TestScanTriage(t *testing.T) {
	cat, _ := catalog.Default()
	plan := &types.TicketPlan{Items: []types.TicketItem{
		{ServiceArea: "Facilities", Category: "Desks", TicketType: "Standing Desk"},
	}}
	first := Scan(cat, plan)
	second := Scan(cat, plan)
	if len(first) != 0 || len(second) != 0 {
		t.Fatalf("triage items must not be scanned: %v %v", first, second)
	}
	if !reflect.DeepEqual(plan.Items[0].Labels, []string{types.LabelNeedsTriage}) {
		t.Errorf("labels = %v", plan.Items[0].Labels)
	}
}

func TestScanIsDeterministic(t *testing.T) {
	cat, _ := catalog.Default()
	plan := &types.TicketPlan{Items: []types.TicketItem{loanTapeItem(map[string]any{"email": ""})}}
	if a, b := Scan(cat, plan), Scan(cat, plan); !reflect.DeepEqual(a, b) {
		t.Errorf("scan not deterministic: %v vs %v", a, b)
	}
}
