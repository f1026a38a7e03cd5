package types

import (
	"maps"
	"slices"
)

func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	out.Turns = slices.Clone(s.Turns)
	out.Pending = slices.Clone(s.Pending)
	out.Plan = s.Plan.Clone()
	return &out
}

func (p *TicketPlan) Clone() *TicketPlan {
	if p == nil {
		return nil
	}
	out := &TicketPlan{Meta: p.Meta}
	if p.Items != nil {
		out.Items = make([]TicketItem, len(p.Items))
		for i, item := range p.Items {
			out.Items[i] = item.Clone()
		}
	}
	return out
}

func (i TicketItem) Clone() TicketItem {
	i.Labels = slices.Clone(i.Labels)
	i.Form = CloneForm(i.Form)
	return i
}

// CloneForm copies a form map, including the slice values list fields hold.
func CloneForm(form map[string]any) map[string]any {
	if form == nil {
		return nil
	}
	out := maps.Clone(form)
	for k, v := range out {
		switch vv := v.(type) {
		case []string:
			out[k] = slices.Clone(vv)
		case []any:
			out[k] = slices.Clone(vv)
		case map[string]any:
			out[k] = CloneForm(vv)
		}
	}
	return out
}
