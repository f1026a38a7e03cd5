package testcases

import (
	"context"
	"slices"
	"testing"

	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/types"
)

// A request outside the catalog should still end in a ticket, labeled for triage.
func TestUnmatchedRequestIsTriaged(t *testing.T) {
	t.Parallel()
	engine := NewTestEngine(t)

	resp, err := engine.Invoke(context.Background(), &agent.Request{
		SessionID: "live-unmatched",
		Text:      "Please order me a standing desk for the third floor office",
		Requester: requester,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.Status == types.StatusError {
		t.Skipf("model declined to plan: %s", resp.Message)
	}
	for _, c := range resp.Created {
		if !slices.Contains(c.Labels, types.LabelNeedsTriage) {
			t.Errorf("ticket %s not labeled for triage: %v", c.PseudoID, c.Labels)
		}
	}
	t.Logf("%s: %s", resp.Status, resp.Message)
}
