package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	"github.com/tbxark/ticketagent/catalog"
)

const systemPlanPrompt = `You are a Service Ticket Identifier.

Using the allowed catalog (service areas, categories, ticket types), identify 1-3 ticket items
that satisfy the user's request.

Rules:
- Use only the service areas, categories and ticket types from the catalog, spelled exactly as given.
- Do NOT invent ticket types.
- Choose concise, action-oriented titles.
- Do NOT fill any form fields. "form" must stay an empty object; fields are collected later.
- Return a SINGLE JSON object with every ticket in the "items" array.

Output format:
{
  "items": [
    {
      "service_area": "<service area>",
      "category": "<category>",
      "ticket_type": "<ticket type>",
      "title": "<short actionable title>",
      "description": "<short context>",
      "form": {},
      "labels": []
    }
  ],
  "meta": {"request_text": "<echo of the user text>"}
}

Examples:
- "I need a final loan tape for AAA" -> ticket_type "Loan Tape"
- "investor report rerun from july 18 to tomorrow" -> ticket_type "Investor Reports Manual Rerun"
- "high urgency datadog monitoring" -> ticket_type "Datadog Monitors and Dashboards"
- "a loan tape ticket and a manual loan verification ticket" -> one object with two items`

type promptTicketType struct {
	TicketType  string   `json:"ticket_type"`
	Description string   `json:"description,omitempty"`
	Fields      []string `json:"fields"`
}

type promptCategory struct {
	Name        string             `json:"name"`
	TicketTypes []promptTicketType `json:"ticket_types"`
}

type promptServiceArea struct {
	Name       string           `json:"name"`
	Categories []promptCategory `json:"categories"`
}

// catalogContext renders the catalog slice shown to the model as an assistant turn.
func catalogContext(areas []catalog.ServiceArea) (string, error) {
	view := make([]promptServiceArea, 0, len(areas))
	for _, area := range areas {
		pa := promptServiceArea{Name: area.Name}
		for _, cat := range area.Categories {
			pc := promptCategory{Name: cat.Name}
			for _, spec := range cat.TicketTypes {
				pt := promptTicketType{TicketType: spec.TicketType, Description: spec.Description}
				for _, f := range spec.Fields {
					pt.Fields = append(pt.Fields, f.Name)
				}
				pc.TicketTypes = append(pc.TicketTypes, pt)
			}
			pa.Categories = append(pa.Categories, pc)
		}
		view = append(view, pa)
	}
	out, err := sonic.MarshalString(map[string]any{"catalog": map[string]any{"service_areas": view}})
	if err != nil {
		return "", fmt.Errorf("encode catalog slice: %w", err)
	}
	return out, nil
}

func outputSchema() (string, error) {
	schema := jsonschema.Reflect(&draftPlan{})
	schema.Title = "TicketPlan"
	schema.Description = "Ticket types selected for the user's request"
	b, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(b), nil
}

func systemPrompt(req *Request, schema string) string {
	var sb strings.Builder
	sb.WriteString(systemPlanPrompt)
	if schema != "" {
		sb.WriteString("\n\nJSON schema of the output:\n")
		sb.WriteString(schema)
	}
	if req.Requester != "" {
		sb.WriteString("\n\nRequester: ")
		sb.WriteString(req.Requester)
	}
	if req.TargetEmployee != "" {
		sb.WriteString("\nOn behalf of: ")
		sb.WriteString(req.TargetEmployee)
	}
	return sb.String()
}
