package types

import (
	"strings"
	"testing"

	"github.com/tbxark/ticketagent/catalog"
)

func TestAddLabelIsIdempotent(t *testing.T) {
	var item TicketItem
	item.AddLabel(LabelNeedsTriage)
	item.AddLabel("urgent")
	item.AddLabel(LabelNeedsTriage)
	if len(item.Labels) != 2 || item.Labels[0] != LabelNeedsTriage {
		t.Errorf("unexpected labels: %v", item.Labels)
	}
}

func TestCloneIsDeep(t *testing.T) {
	state := &ConversationState{
		SessionID: "s1",
		Turns:     []ChatTurn{{Role: RoleUser, Text: "hi"}},
		Plan: &TicketPlan{Items: []TicketItem{{
			TicketType: "Loan Tape",
			Form:       map[string]any{"tags": []string{"a"}, "urgency": "high"},
			Labels:     []string{"x"},
		}}},
	}
	clone := state.Clone()
	clone.Turns[0].Text = "changed"
	clone.Plan.Items[0].Form["urgency"] = "low"
	clone.Plan.Items[0].Form["tags"].([]string)[0] = "b"
	clone.Plan.Items[0].Labels[0] = "y"

	if state.Turns[0].Text != "hi" {
		t.Errorf("turns shared with clone")
	}
	item := state.Plan.Items[0]
	if item.Form["urgency"] != "high" || item.Form["tags"].([]string)[0] != "a" || item.Labels[0] != "x" {
		t.Errorf("plan shared with clone: %+v", item)
	}
}

func TestFormatCreatedTickets(t *testing.T) {
	out := FormatCreatedTickets([]CreatedTicket{{PseudoID: "SRE-1000", TicketType: "Loan Tape", Summary: "Run AAA final loan tape"}})
	for _, want := range []string{"SRE-1000", "Loan Tape", "Run AAA final loan tape"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if FormatCreatedTickets(nil) != "" {
		t.Errorf("expected empty output for no tickets")
	}
}

func TestFormatPending(t *testing.T) {
	plan := &TicketPlan{Items: []TicketItem{{TicketType: "Loan Tape"}}}
	out := FormatPending(plan, []MissingField{{ItemIndex: 0, Field: catalog.FieldSpec{Name: "request_date", Type: catalog.FieldDate}}})
	if !strings.Contains(out, "request date") || !strings.Contains(out, "Loan Tape") {
		t.Errorf("unexpected pending table:\n%s", out)
	}
}
