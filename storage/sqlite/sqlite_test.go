package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/tbxark/ticketagent/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	state := types.NewConversationState("s1", now)
	state.Phase = types.PhaseAwaitingAnswer
	state.Plan = &types.TicketPlan{
		Items: []types.TicketItem{{
			ServiceArea: "SRE/Production Support",
			TicketType:  "Loan Tape",
			Form:        map[string]any{"urgency": "high", "vendor_related": false},
		}},
		Meta: types.PlanMeta{RequestText: "loan tape"},
	}

	if err := s.Put(ctx, state); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Get(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("Get: %v %v", ok, err)
	}
	if got.Phase != types.PhaseAwaitingAnswer || !got.CreatedAt.Equal(now) {
		t.Errorf("unexpected state: %+v", got)
	}
	if got.Plan.Items[0].Form["urgency"] != "high" || got.Plan.Items[0].Form["vendor_related"] != false {
		t.Errorf("form lost: %v", got.Plan.Items[0].Form)
	}

	state.Phase = types.PhaseComplete
	state.Completed = true
	if err := s.Put(ctx, state); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, _, _ = s.Get(ctx, "s1")
	if got.Phase != types.PhaseComplete || !got.Completed {
		t.Errorf("update not saved: %+v", got)
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := s.Get(ctx, "s1"); ok || err != nil {
		t.Errorf("deleted session still present: %v %v", ok, err)
	}
}

func TestLargeIntegersSurviveStorage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	state := types.NewConversationState("s1", time.Now())
	state.Plan = &types.TicketPlan{Items: []types.TicketItem{{
		TicketType: "Investor Reports Manual Rerun",
		Form:       map[string]any{"investor_to_recipient": 9007199254740993},
	}}}
	if err := s.Put(ctx, state); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v := got.Plan.Items[0].Form["investor_to_recipient"]; v != json.Number("9007199254740993") {
		t.Errorf("investor_to_recipient = %#v", v)
	}
}

func TestTurnLog(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	turns := []types.ChatTurn{
		{Role: types.RoleUser, Text: "loan tape"},
		{Role: types.RoleAssistant, Text: "Please provide **email**."},
		{Role: types.RoleUser, Text: "me@example.com"},
	}
	if err := s.AppendTurns(ctx, "s1", turns...); err != nil {
		t.Fatalf("AppendTurns: %v", err)
	}
	if err := s.AppendTurns(ctx, "s2", types.ChatTurn{Role: types.RoleUser, Text: "other"}); err != nil {
		t.Fatalf("AppendTurns: %v", err)
	}

	all, err := s.RecentTurns(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(all) != 3 || all[0].Text != "loan tape" || all[2].Text != "me@example.com" {
		t.Errorf("turns = %+v", all)
	}
	last, _ := s.RecentTurns(ctx, "s1", 2)
	if len(last) != 2 || last[0].Role != types.RoleAssistant {
		t.Errorf("last turns = %+v", last)
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if kept, _ := s.RecentTurns(ctx, "s1", 0); len(kept) != 3 {
		t.Errorf("turn log must survive session deletion, got %d", len(kept))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(context.Background(), types.NewConversationState("s1", time.Now())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, ok, err := s.Get(context.Background(), "s1"); !ok || err != nil {
		t.Errorf("session lost after reopen: %v %v", ok, err)
	}
}
