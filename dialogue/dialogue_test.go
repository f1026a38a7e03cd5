package dialogue

import (
	"errors"
	"strings"
	"testing"

	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/types"
)

func TestRenderTemplates(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	tests := []struct {
		field catalog.FieldSpec
		want  string
	}{
		{catalog.FieldSpec{Name: "email", Type: catalog.FieldString}, "Please provide **email**."},
		{catalog.FieldSpec{Name: "request_date", Type: catalog.FieldDate}, "Pick a date for **request date**."},
		{catalog.FieldSpec{Name: "vendor_related", Type: catalog.FieldBool}, "Is **vendor related** true or false?"},
		{catalog.FieldSpec{Name: "port_number", Type: catalog.FieldInt}, "Enter a number for **port number**."},
		{catalog.FieldSpec{Name: "files", Type: catalog.FieldFileList}, "Upload file(s) for **files**."},
		{catalog.FieldSpec{Name: "vendor_name", Type: catalog.FieldChoice, OptionsSource: "vendors"}, "Select **vendor name**."},
	}
	for _, tt := range tests {
		t.Run(tt.field.Name, func(t *testing.T) {
			q := Render(cat, types.MissingField{ItemIndex: 2, Field: tt.field})
			if q.Text != tt.want {
				t.Errorf("text = %q, want %q", q.Text, tt.want)
			}
			if q.ItemIndex != 2 || q.FieldName != tt.field.Name || q.Type != tt.field.Type {
				t.Errorf("unexpected question: %+v", q)
			}
		})
	}
}

func TestRenderListsOptions(t *testing.T) {
	cat, _ := catalog.Default()
	f := catalog.FieldSpec{Name: "urgency", Type: catalog.FieldChoice, Options: []string{"critical", "high"}, Description: "How soon"}
	q := Render(cat, types.MissingField{Field: f})
	want := "Select **urgency**.\n\n- critical\n- high"
	if q.Text != want {
		t.Errorf("text = %q, want %q", q.Text, want)
	}
	if len(q.Options) != 2 || q.Description != "How soon" {
		t.Errorf("unexpected question: %+v", q)
	}
}

func TestRenderRetry(t *testing.T) {
	q := types.Question{Text: "Pick a date for **request date**.", FieldName: "request_date"}
	err := &types.CoercionError{Field: "request_date", RawInput: "someday", Reason: "not a date"}
	got := RenderRetry(q, err)
	if !strings.HasPrefix(got.Text, `Sorry, I couldn't use "someday": not a date.`) {
		t.Errorf("unexpected retry text: %q", got.Text)
	}
	if !strings.HasSuffix(got.Text, q.Text) || got.FieldName != q.FieldName {
		t.Errorf("retry must keep the question: %+v", got)
	}
	if other := RenderRetry(q, errors.New("boom")); !strings.Contains(other.Text, "boom") {
		t.Errorf("plain errors should be shown: %q", other.Text)
	}
}

func TestCompletionMessage(t *testing.T) {
	msg := CompletionMessage([]types.CreatedTicket{
		{PseudoID: "SRE-1000", TicketType: "Loan Tape", Summary: "Final loan tape for AAA"},
		{PseudoID: "FAC-1001", TicketType: "Standing Desk", Labels: []string{types.LabelNeedsTriage}},
	})
	for _, want := range []string{"2 tickets created", "1 of them", "SRE-1000", "FAC-1001"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if CompletionMessage(nil) == "" {
		t.Errorf("empty completion should still say something")
	}
}
