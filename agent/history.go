package agent

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/ticketagent/types"
)

type Trimmer interface {
	Trim(history []*schema.Message) []*schema.Message
}

// KeepSystemLastNTrimmer keeps all system messages and the last N non-system messages.
// When N <= 0, nothing is trimmed.
type KeepSystemLastNTrimmer struct {
	N int
}

func (t KeepSystemLastNTrimmer) Trim(history []*schema.Message) []*schema.Message {
	if t.N <= 0 || len(history) <= t.N {
		return history
	}
	nonSystem := 0
	for _, m := range history {
		if m != nil && m.Role != schema.System {
			nonSystem++
		}
	}
	drop := nonSystem - t.N
	if drop <= 0 {
		return history
	}
	out := make([]*schema.Message, 0, len(history)-drop)
	for _, m := range history {
		if m == nil {
			continue
		}
		if m.Role != schema.System && drop > 0 {
			drop--
			continue
		}
		out = append(out, m)
	}
	return out
}

// TurnLog is the append-only sink for chat turns. The engine writes to it and never
// plans from it; RecentTurns serves callers that show a window of the conversation.
type TurnLog interface {
	AppendTurns(ctx context.Context, sessionID string, turns ...types.ChatTurn) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error)
}

// HistoryStore keeps per-session chat history as eino messages, which is also the
// shape adk runners take as input.
type HistoryStore struct {
	store   Store[[]*schema.Message]
	trimmer Trimmer
}

func NewHistoryStore(core Cache[[]*schema.Message], trimmer Trimmer) *HistoryStore {
	return &HistoryStore{
		store:   NewStore(core, "agent:history"),
		trimmer: trimmer,
	}
}

func NewMemoryHistoryStore(trimmer Trimmer) *HistoryStore {
	return NewHistoryStore(NewMemoryCore[[]*schema.Message](), trimmer)
}

func (s *HistoryStore) Load(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	hist, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return hist, nil
}

func (s *HistoryStore) Save(ctx context.Context, sessionID string, history []*schema.Message) error {
	history = normalizeHistory(history)
	if s.trimmer != nil {
		history = s.trimmer.Trim(history)
	}
	return s.store.Set(ctx, sessionID, history)
}

func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	return s.store.Del(ctx, sessionID)
}

// Append loads history, appends msgs, trims, then saves. It returns the saved history.
func (s *HistoryStore) Append(ctx context.Context, sessionID string, msgs ...*schema.Message) ([]*schema.Message, error) {
	hist, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	hist = append(append([]*schema.Message(nil), hist...), msgs...)
	if err := s.Save(ctx, sessionID, hist); err != nil {
		return nil, err
	}
	return s.Load(ctx, sessionID)
}

func (s *HistoryStore) AppendTurns(ctx context.Context, sessionID string, turns ...types.ChatTurn) error {
	_, err := s.Append(ctx, sessionID, TurnsToMessages(turns)...)
	return err
}

func (s *HistoryStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error) {
	hist, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return lastN(MessagesToTurns(hist), limit), nil
}

// TurnsToMessages maps chat turns onto user and assistant messages.
func TurnsToMessages(turns []types.ChatTurn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		if t.Role == types.RoleAssistant {
			out = append(out, schema.AssistantMessage(t.Text, nil))
		} else {
			out = append(out, schema.UserMessage(t.Text))
		}
	}
	return out
}

// MessagesToTurns keeps user and assistant messages and drops the rest.
func MessagesToTurns(history []*schema.Message) []types.ChatTurn {
	out := make([]types.ChatTurn, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case schema.User:
			out = append(out, types.ChatTurn{Role: types.RoleUser, Text: m.Content})
		case schema.Assistant:
			out = append(out, types.ChatTurn{Role: types.RoleAssistant, Text: m.Content})
		}
	}
	return out
}

func lastN[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func normalizeHistory(history []*schema.Message) []*schema.Message {
	if len(history) == 0 {
		return history
	}
	out := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

var _ TurnLog = (*HistoryStore)(nil)
