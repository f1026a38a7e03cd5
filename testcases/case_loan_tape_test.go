package testcases

import (
	"context"
	"strings"
	"testing"

	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/types"
)

func TestLoanTapeRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine := NewTestEngine(t)

	resp, err := engine.Invoke(ctx, &agent.Request{
		SessionID: "live-loan-tape",
		Text:      "I need a final loan tape for AAA",
		Requester: requester,
	})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if resp.Status != types.StatusNeedMoreInfo {
		t.Fatalf("expected a question, got %s: %s", resp.Status, resp.Message)
	}
	item := resp.Plan.Items[0]
	if item.TicketType != "Loan Tape" {
		t.Errorf("ticket type = %q", item.TicketType)
	}
	if item.Form["email"] != requester {
		t.Errorf("email not prefilled: %v", item.Form)
	}

	resp = answerUntilDone(t, engine, "live-loan-tape", resp, map[string]string{
		"urgency":       "it's pretty urgent",
		"request_date":  "tomorrow",
		"vendor_name":   "AAA Final Loan Tape",
		"type_of_rerun": "the final one",
	})
	if resp.Status != types.StatusDone || len(resp.Created) != 1 {
		t.Fatalf("expected one created ticket, got %+v", resp)
	}
	created := resp.Created[0]
	if !strings.HasPrefix(created.PseudoID, "SRE-") {
		t.Errorf("pseudo id = %q", created.PseudoID)
	}
	if created.Summary == "" || len([]rune(created.Summary)) > 75 {
		t.Errorf("summary = %q", created.Summary)
	}
	t.Logf("created: %+v", created)
}
