package dialogue

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tbxark/ticketagent/types"
)

const (
	PlanningFailedMessage = "Sorry, I couldn't work out which tickets match your request. Could you describe what you need in a bit more detail?"
	SessionClosedMessage  = "These tickets are already created. Start a new session to request something else."
)

// CompletionMessage announces the created tickets, with a table when there are any.
func CompletionMessage(tickets []types.CreatedTicket) string {
	if len(tickets) == 0 {
		return "Nothing to create for this request."
	}
	var sb strings.Builder
	if len(tickets) == 1 {
		sb.WriteString("Ticket created with an auto-generated summary.")
	} else {
		sb.WriteString(fmt.Sprintf("%d tickets created with auto-generated summaries.", len(tickets)))
	}
	triage := 0
	for _, t := range tickets {
		if slices.Contains(t.Labels, types.LabelNeedsTriage) {
			triage++
		}
	}
	if triage > 0 {
		sb.WriteString(fmt.Sprintf(" %d of them did not match the catalog and will be triaged by the service desk.", triage))
	}
	sb.WriteString("\n\n")
	sb.WriteString(types.FormatCreatedTickets(tickets))
	return strings.TrimRight(sb.String(), "\n")
}
