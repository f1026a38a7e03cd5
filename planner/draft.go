package planner

import (
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/llm"
	"github.com/tbxark/ticketagent/types"
)

func decodeDraft(raw string) (*draftPlan, error) {
	body, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return nil, &types.PlanningError{Reason: "reply is not a JSON object", Raw: raw}
	}
	var draft draftPlan
	if err := sonic.UnmarshalString(body, &draft); err != nil {
		return nil, &types.PlanningError{Reason: "reply is not a valid plan", Raw: raw, Err: err}
	}
	return &draft, nil
}

// buildPlan normalizes a model draft against the catalog. Forms always start empty;
// whatever the model put there is dropped.
func buildPlan(cat *catalog.Catalog, req *Request, draft *draftPlan, raw string) (*types.TicketPlan, error) {
	if draft == nil || len(draft.Items) == 0 {
		return nil, &types.PlanningError{Reason: "plan has no items", Raw: raw}
	}
	items := draft.Items
	if len(items) > MaxItems {
		slog.Debug("Planner returned too many items, truncating", "count", len(items), "max", MaxItems)
		items = items[:MaxItems]
	}

	plan := &types.TicketPlan{
		Items: make([]types.TicketItem, 0, len(items)),
		Meta: types.PlanMeta{
			RequestText:    req.Text,
			Requester:      req.Requester,
			TargetEmployee: req.TargetEmployee,
			CatalogVersion: cat.Version(),
		},
	}
	for _, d := range items {
		item := types.TicketItem{
			ServiceArea: strings.TrimSpace(d.ServiceArea),
			Category:    strings.TrimSpace(d.Category),
			TicketType:  strings.TrimSpace(d.TicketType),
			Title:       strings.TrimSpace(d.Title),
			Description: strings.TrimSpace(d.Description),
			Form:        map[string]any{},
		}
		for _, label := range d.Labels {
			if label = strings.TrimSpace(label); label != "" {
				item.AddLabel(label)
			}
		}
		if spec, ok := cat.Find(item.ServiceArea, item.Category, item.TicketType); ok {
			item.ServiceArea = spec.ServiceArea
			item.Category = spec.Category
			item.TicketType = spec.TicketType
		} else {
			slog.Debug("Planned ticket type not in catalog",
				"service_area", item.ServiceArea, "category", item.Category, "ticket_type", item.TicketType)
			item.AddLabel(types.LabelNeedsTriage)
		}
		if item.Title == "" {
			item.Title = item.TicketType
		}
		if item.Description == "" {
			item.Description = req.Text
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}
