package types

import (
	"slices"
	"time"

	"github.com/tbxark/ticketagent/catalog"
)

type Phase string

const (
	PhaseNew            Phase = "new"
	PhasePlanning       Phase = "planning"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseSummarizing    Phase = "summarizing"
	PhaseComplete       Phase = "complete"
)

// Status is the coarse outcome reported to transports.
type Status string

const (
	StatusNeedMoreInfo Status = "need_more_info"
	StatusDone         Status = "done"
	StatusError        Status = "error"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const LabelNeedsTriage = "needs-triage"

type ChatTurn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type TicketItem struct {
	ServiceArea string         `json:"service_area"`
	Category    string         `json:"category"`
	TicketType  string         `json:"ticket_type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Form        map[string]any `json:"form"`
	Labels      []string       `json:"labels"`
}

// AddLabel adds a label once; labels behave as an ordered set.
func (i *TicketItem) AddLabel(label string) {
	if !i.HasLabel(label) {
		i.Labels = append(i.Labels, label)
	}
}

func (i *TicketItem) HasLabel(label string) bool {
	return slices.Contains(i.Labels, label)
}

type PlanMeta struct {
	RequestText    string `json:"request_text"`
	Requester      string `json:"requester,omitempty"`
	TargetEmployee string `json:"target_employee,omitempty"`
	CatalogVersion string `json:"catalog_version,omitempty"`
}

type TicketPlan struct {
	Items []TicketItem `json:"items"`
	Meta  PlanMeta     `json:"meta"`
}

type MissingField struct {
	ItemIndex int               `json:"item_index"`
	Field     catalog.FieldSpec `json:"field"`
}

type Question struct {
	Text        string            `json:"text"`
	Type        catalog.FieldType `json:"type"`
	Options     []string          `json:"options"`
	ItemIndex   int               `json:"item_index"`
	FieldName   string            `json:"field_name"`
	Description string            `json:"description,omitempty"`
}

type CreatedTicket struct {
	PseudoID    string         `json:"pseudo_id"`
	ServiceArea string         `json:"service_area"`
	Category    string         `json:"category"`
	TicketType  string         `json:"ticket_type"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	Labels      []string       `json:"labels"`
	Form        map[string]any `json:"form"`
}

type ConversationState struct {
	SessionID string         `json:"session_id"`
	Phase     Phase          `json:"phase"`
	Turns     []ChatTurn     `json:"turns"`
	Plan      *TicketPlan    `json:"plan,omitempty"`
	Pending   []MissingField `json:"pending"`
	Completed bool           `json:"completed"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewConversationState(sessionID string, now time.Time) *ConversationState {
	return &ConversationState{
		SessionID: sessionID,
		Phase:     PhaseNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
