package badger

import (
	"context"
	"testing"
	"time"

	"github.com/tbxark/ticketagent/agent"
	"github.com/tbxark/ticketagent/types"
)

func openTestDB(t *testing.T) *Cache[*types.ConversationState] {
	t.Helper()
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCache[*types.ConversationState](db, time.Hour)
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 9, 30, 0, 123, time.UTC)
	state := types.NewConversationState("s1", now)
	state.Plan = &types.TicketPlan{Items: []types.TicketItem{{
		TicketType: "Investor Reports Manual Rerun",
		Form: map[string]any{
			"investor_to_recipient": 42,
			"vendor_related":        false,
			"origination_types":     []string{"previous day originations"},
		},
	}}}

	if err := c.Set(ctx, "agent:session:s1", state); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "agent:session:s1")
	if err != nil || !ok {
		t.Fatalf("Get: %v %v", ok, err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, now)
	}
	form := got.Plan.Items[0].Form
	if form["vendor_related"] != false {
		t.Errorf("bool lost: %#v", form["vendor_related"])
	}
	if _, ok := form["origination_types"].([]any); !ok {
		t.Errorf("list decoded as %T", form["origination_types"])
	}
	if exists, _ := c.Exists(ctx, "agent:session:s1"); !exists {
		t.Errorf("Exists = false")
	}

	if err := c.Del(ctx, "agent:session:s1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, err := c.Get(ctx, "agent:session:s1"); ok || err != nil {
		t.Errorf("deleted key still present: %v %v", ok, err)
	}
	if err := c.Del(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing key should succeed: %v", err)
	}
}

func TestCacheBacksSessionStore(t *testing.T) {
	store := agent.NewCacheSessionStore(openTestDB(t))
	ctx := context.Background()
	if err := store.Put(ctx, types.NewConversationState("s1", time.Now())); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, "s1")
	if err != nil || !ok || got.SessionID != "s1" || got.Phase != types.PhaseNew {
		t.Errorf("Get = %+v %v %v", got, ok, err)
	}
}

func TestCacheHonoursContext(t *testing.T) {
	c := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Set(ctx, "k", nil); err == nil {
		t.Errorf("Set on a cancelled context should fail")
	}
}
