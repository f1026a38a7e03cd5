package planner

import (
	"context"

	"github.com/tbxark/ticketagent/types"
)

// MaxItems is the most ticket items a single plan may carry.
const MaxItems = 3

type Request struct {
	Text           string
	Requester      string
	TargetEmployee string
}

// Planner turns a free-text request into a ticket plan whose forms are all empty.
// Unusable model output is reported as *types.PlanningError.
type Planner interface {
	Plan(ctx context.Context, req *Request) (*types.TicketPlan, error)
}

type draftItem struct {
	ServiceArea string         `json:"service_area" jsonschema:"required,description=Service area name copied from the catalog"`
	Category    string         `json:"category" jsonschema:"required,description=Category name copied from the catalog"`
	TicketType  string         `json:"ticket_type" jsonschema:"required,description=Exact ticket_type name from the catalog"`
	Title       string         `json:"title" jsonschema:"description=Short actionable title"`
	Description string         `json:"description" jsonschema:"description=Short context for the ticket"`
	Form        map[string]any `json:"form,omitempty" jsonschema:"description=Always an empty object"`
	Labels      []string       `json:"labels,omitempty" jsonschema:"description=Free-text tags"`
}

type draftPlan struct {
	Items []draftItem    `json:"items" jsonschema:"required,minItems=1,maxItems=3,description=One to three ticket items satisfying the request"`
	Meta  map[string]any `json:"meta,omitempty" jsonschema:"description=Echo of the request, e.g. request_text"`
}
