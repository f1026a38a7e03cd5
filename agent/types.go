package agent

import (
	"github.com/tbxark/ticketagent/types"
)

type Request struct {
	SessionID      string `json:"session_id"`
	Text           string `json:"text"`
	Requester      string `json:"requester,omitempty"`
	TargetEmployee string `json:"target_employee,omitempty"`
}

type Response struct {
	SessionID string                `json:"session_id"`
	Status    types.Status          `json:"status"`
	Phase     types.Phase           `json:"phase"`
	Message   string                `json:"message"`
	Question  *types.Question       `json:"question,omitempty"`
	Plan      *types.TicketPlan     `json:"plan,omitempty"`
	Created   []types.CreatedTicket `json:"created,omitempty"`
	Metadata  map[string]string     `json:"metadata,omitempty"`
	// Err is the typed error behind a StatusError response or a rejected answer.
	Err error `json:"-"`
}
