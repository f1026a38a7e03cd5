package types

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/tbxark/ticketagent/catalog"
)

// FormatCreatedTickets renders the completion table shown to the user.
func FormatCreatedTickets(tickets []CreatedTicket) string {
	if len(tickets) == 0 {
		return ""
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("ID", "Ticket type", "Summary", "Labels")
	for _, t := range tickets {
		_ = table.Append(t.PseudoID, t.TicketType, t.Summary, strings.Join(t.Labels, ", "))
	}
	_ = table.Render()
	return buf.String()
}

// FormatPending renders the remaining questions of a plan.
func FormatPending(plan *TicketPlan, pending []MissingField) string {
	if len(pending) == 0 {
		return "# Pending fields:\n none"
	}
	var buf strings.Builder
	buf.WriteString("# Pending fields:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Ticket", "Field", "Type", "Description")
	for _, m := range pending {
		ticket := fmt.Sprintf("#%d", m.ItemIndex+1)
		if plan != nil && m.ItemIndex < len(plan.Items) {
			ticket = plan.Items[m.ItemIndex].TicketType
		}
		_ = table.Append(ticket, m.Field.DisplayName(), string(m.Field.Type), m.Field.Description)
	}
	_ = table.Render()
	return buf.String()
}

// FormatCatalog renders every ticket type with its required field count.
func FormatCatalog(c *catalog.Catalog) string {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Service area", "Category", "Ticket type", "Required fields")
	for _, spec := range c.TicketTypes() {
		required := 0
		for _, f := range spec.Fields {
			if f.IsRequired() && f.Name != catalog.SummaryField {
				required++
			}
		}
		_ = table.Append(spec.ServiceArea, spec.Category, spec.TicketType, fmt.Sprint(required))
	}
	_ = table.Render()
	return buf.String()
}
