package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/dialogue"
	"github.com/tbxark/ticketagent/planner"
	"github.com/tbxark/ticketagent/types"
	"github.com/tbxark/ticketagent/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "ticketagent/agent"

// Applier writes answers into plans without mutating the plan it is given.
type Applier interface {
	Apply(ctx context.Context, plan *types.TicketPlan, itemIndex int, fieldName, raw string) (*types.TicketPlan, error)
	Prefill(plan *types.TicketPlan, requester string) (*types.TicketPlan, error)
	Normalize(plan *types.TicketPlan)
}

// Summarizer fills blank summaries. It returns an error only when the context ends.
type Summarizer interface {
	Apply(ctx context.Context, plan *types.TicketPlan) (*types.TicketPlan, error)
}

// Engine is the per-session dialogue state machine:
// new -> planning -> awaiting_answer -> summarizing -> complete.
// Turns of one session are serialized; different sessions run concurrently.
type Engine struct {
	catalog    *catalog.Catalog
	planner    planner.Planner
	applier    Applier
	summarizer Summarizer
	sessions   SessionStore
	turns      TurnLog
	locks      *sessionLocks
	now        func() time.Time
	newID      func() string
}

type EngineOption func(*Engine)

func WithSessionStore(store SessionStore) EngineOption {
	return func(e *Engine) {
		e.sessions = store
	}
}

// WithTurnLog mirrors every turn into log in addition to the session state.
func WithTurnLog(log TurnLog) EngineOption {
	return func(e *Engine) {
		e.turns = log
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		e.newID = newID
	}
}

func NewEngine(cat *catalog.Catalog, p planner.Planner, applier Applier, summarizer Summarizer, opts ...EngineOption) (*Engine, error) {
	if cat == nil || p == nil || applier == nil || summarizer == nil {
		return nil, errors.New("engine needs a catalog, planner, applier and summarizer")
	}
	e := &Engine{
		catalog:    cat,
		planner:    p,
		applier:    applier,
		summarizer: summarizer,
		locks:      newSessionLocks(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sessions == nil {
		e.sessions = NewMemorySessionStore()
	}
	return e, nil
}

// Start creates an empty session.
func (e *Engine) Start(ctx context.Context) (*types.ConversationState, error) {
	state := types.NewConversationState(e.newID(), e.now())
	if err := e.sessions.Put(ctx, state); err != nil {
		return nil, err
	}
	slog.Debug("Session started", "session", state.SessionID)
	return state, nil
}

func (e *Engine) Session(ctx context.Context, sessionID string) (*types.ConversationState, bool, error) {
	return e.sessions.Get(ctx, sessionID)
}

func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	unlock := e.locks.Lock(sessionID)
	defer unlock()
	return e.sessions.Delete(ctx, sessionID)
}

// Turns returns the last limit turns of a session, all of them when limit <= 0.
func (e *Engine) Turns(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error) {
	if e.turns != nil {
		return e.turns.RecentTurns(ctx, sessionID, limit)
	}
	state, ok, err := e.sessions.Get(ctx, sessionID)
	if err != nil || !ok {
		return nil, err
	}
	return lastN(state.Turns, limit), nil
}

// Invoke runs one user turn. Unknown session ids start a new session.
// Planning failures and rejected answers come back as responses; the returned error
// is reserved for storage failures and cancellation, in which case nothing is saved.
func (e *Engine) Invoke(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.SessionID == "" {
		return nil, errors.New("request needs a session id")
	}
	unlock := e.locks.Lock(req.SessionID)
	defer unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "agent.Invoke")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", req.SessionID))
	start := time.Now()

	stored, ok, err := e.sessions.Get(ctx, req.SessionID)
	if err != nil {
		span.SetStatus(codes.Error, "load")
		return nil, err
	}
	state := stored.Clone()
	if !ok {
		state = types.NewConversationState(req.SessionID, e.now())
	}
	if state.Phase == "" {
		state.Phase = types.PhaseNew
	}
	startPhase := state.Phase
	span.SetAttributes(attribute.String("session.phase", string(startPhase)))
	e.applier.Normalize(state.Plan)

	userTurn := types.ChatTurn{Role: types.RoleUser, Text: req.Text}
	state.Turns = append(state.Turns, userTurn)

	var resp *Response
	switch state.Phase {
	case types.PhaseNew, types.PhasePlanning:
		resp, err = e.plan(ctx, state, req)
	case types.PhaseAwaitingAnswer:
		resp, err = e.answer(ctx, state, req)
	case types.PhaseSummarizing:
		resp, err = e.advance(ctx, state)
	case types.PhaseComplete:
		resp = e.closed(state)
	default:
		err = fmt.Errorf("session %s is in unknown phase %q", state.SessionID, state.Phase)
	}
	if err != nil {
		recordTurn(string(startPhase), "failed", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn failed")
		return nil, err
	}

	assistantTurn := types.ChatTurn{Role: types.RoleAssistant, Text: resp.Message}
	state.Turns = append(state.Turns, assistantTurn)
	state.UpdatedAt = e.now()
	if err := e.sessions.Put(ctx, state); err != nil {
		recordTurn(string(startPhase), "failed", time.Since(start))
		span.SetStatus(codes.Error, "save")
		return nil, err
	}
	if e.turns != nil {
		if err := e.turns.AppendTurns(ctx, state.SessionID, userTurn, assistantTurn); err != nil {
			slog.Warn("Failed to append turns", "session", state.SessionID, "error", err)
		}
	}

	resp.SessionID = state.SessionID
	resp.Phase = state.Phase
	resp.Plan = state.Plan.Clone()
	recordTurn(string(startPhase), string(resp.Status), time.Since(start))
	span.SetAttributes(attribute.String("turn.status", string(resp.Status)))
	slog.Debug("Turn finished", "session", state.SessionID, "from", startPhase, "to", state.Phase, "status", resp.Status)
	return resp, nil
}

func (e *Engine) plan(ctx context.Context, state *types.ConversationState, req *Request) (*Response, error) {
	state.Phase = types.PhasePlanning
	slog.Debug("Planning", "session", state.SessionID)
	plan, err := e.planner.Plan(ctx, &planner.Request{
		Text:           req.Text,
		Requester:      req.Requester,
		TargetEmployee: req.TargetEmployee,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var pe *types.PlanningError
		if !errors.As(err, &pe) {
			err = &types.PlanningError{Reason: "planner failed", Err: err}
		}
		slog.Warn("Planning failed", "session", state.SessionID, "error", err)
		state.Phase = types.PhaseNew
		return e.handleError(err, dialogue.PlanningFailedMessage), nil
	}

	prefilled, err := e.applier.Prefill(plan, req.Requester)
	if err != nil {
		slog.Warn("Requester prefill failed", "session", state.SessionID, "error", err)
	} else {
		plan = prefilled
	}
	state.Plan = plan
	return e.advance(ctx, state)
}

func (e *Engine) answer(ctx context.Context, state *types.ConversationState, req *Request) (*Response, error) {
	pending := validator.Scan(e.catalog, state.Plan)
	if len(pending) == 0 {
		return e.advance(ctx, state)
	}
	head := pending[0]
	slog.Debug("Applying answer", "session", state.SessionID, "item", head.ItemIndex, "field", head.Field.Name)
	plan, err := e.applier.Apply(ctx, state.Plan, head.ItemIndex, head.Field.Name, req.Text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var ce *types.CoercionError
		if !errors.As(err, &ce) {
			return nil, fmt.Errorf("apply answer to %s: %w", head.Field.Name, err)
		}
		state.Pending = pending
		q := dialogue.RenderRetry(dialogue.Render(e.catalog, head), err)
		resp := e.handleError(err, q.Text)
		resp.Status = types.StatusNeedMoreInfo
		resp.Question = &q
		return resp, nil
	}
	state.Plan = plan
	return e.advance(ctx, state)
}

// advance rescans the plan and either asks the next question or completes the session.
func (e *Engine) advance(ctx context.Context, state *types.ConversationState) (*Response, error) {
	pending := validator.Scan(e.catalog, state.Plan)
	state.Pending = pending
	if len(pending) > 0 {
		state.Phase = types.PhaseAwaitingAnswer
		q := dialogue.Render(e.catalog, pending[0])
		return &Response{
			Status:   types.StatusNeedMoreInfo,
			Message:  q.Text,
			Question: &q,
		}, nil
	}

	state.Phase = types.PhaseSummarizing
	slog.Debug("Summarizing", "session", state.SessionID)
	plan, err := e.summarizer.Apply(ctx, state.Plan)
	if err != nil {
		return nil, err
	}
	state.Plan = plan
	state.Phase = types.PhaseComplete
	state.Completed = true

	created := CreateTickets(state.Plan)
	for _, t := range created {
		ticketsCreated.WithLabelValues(t.TicketType).Inc()
	}
	return &Response{
		Status:  types.StatusDone,
		Message: dialogue.CompletionMessage(created),
		Created: created,
	}, nil
}

func (e *Engine) closed(state *types.ConversationState) *Response {
	return &Response{
		Status:  types.StatusDone,
		Message: dialogue.SessionClosedMessage,
		Created: CreateTickets(state.Plan),
	}
}

func (e *Engine) handleError(err error, message string) *Response {
	return &Response{
		Status:  types.StatusError,
		Message: message,
		Metadata: map[string]string{
			"error": err.Error(),
		},
		Err: err,
	}
}

// CreateTickets turns a completed plan into ticket records with pseudo-ids.
func CreateTickets(plan *types.TicketPlan) []types.CreatedTicket {
	if plan == nil {
		return nil
	}
	out := make([]types.CreatedTicket, 0, len(plan.Items))
	for i, item := range plan.Items {
		summary, _ := item.Form[catalog.SummaryField].(string)
		out = append(out, types.CreatedTicket{
			PseudoID:    PseudoID(item.ServiceArea, i),
			ServiceArea: item.ServiceArea,
			Category:    item.Category,
			TicketType:  item.TicketType,
			Title:       item.Title,
			Summary:     summary,
			Labels:      append([]string(nil), item.Labels...),
			Form:        types.CloneForm(item.Form),
		})
	}
	return out
}

// PseudoID is the first three letters of the service area's first word, upper-cased,
// followed by 1000+index. An empty service area uses "TKT".
func PseudoID(serviceArea string, index int) string {
	prefix := "TKT"
	if words := strings.Fields(serviceArea); len(words) > 0 {
		runes := []rune(words[0])
		if len(runes) > 3 {
			runes = runes[:3]
		}
		prefix = strings.ToUpper(string(runes))
	}
	return fmt.Sprintf("%s-%d", prefix, 1000+index)
}
