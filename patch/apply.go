package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/ticketagent/types"
)

// exactJSON keeps form numbers as json.Number so large integers survive the round trip.
var exactJSON = sonic.Config{UseNumber: true}.Froze()

// ApplyRFC6902 applies ops to a serialized copy of plan and returns the result.
// The input plan is never modified. Form values come back in their JSON shapes;
// callers normalize them against the catalog.
func ApplyRFC6902(plan *types.TicketPlan, ops []Operation) (*types.TicketPlan, error) {
	if plan == nil {
		return nil, fmt.Errorf("no plan to patch")
	}
	if len(ops) == 0 {
		return plan.Clone(), nil
	}

	base := plan.Clone()
	for i := range base.Items {
		if base.Items[i].Form == nil {
			base.Items[i].Form = map[string]any{}
		}
	}
	currentJSON, err := sonic.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current plan: %w", err)
	}

	ops = FixOperation(currentJSON, ops)
	if len(ops) == 0 {
		return base, nil
	}

	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	modifiedJSON, err := p.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	var result types.TicketPlan
	if err := exactJSON.Unmarshal(modifiedJSON, &result); err != nil {
		return nil, fmt.Errorf("patched document is not a ticket plan: %w", err)
	}
	return &result, nil
}

// FixOperation turns replace into add when the target is absent and drops
// removals of absent targets, so answering a field twice or clearing an unset
// optional field both succeed.
func FixOperation(currentJSON []byte, ops []Operation) []Operation {
	var doc any
	if err := sonic.Unmarshal(currentJSON, &doc); err != nil {
		return ops
	}

	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case OperationReplace:
			if !pathExists(doc, op.Path) {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if pathExists(doc, op.Path) {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}

func pathExists(doc any, path string) bool {
	if path == "" {
		return true
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}

	cur := doc
	for _, token := range strings.Split(path[1:], "/") {
		token = unescapeJSONPointer(token)
		switch node := cur.(type) {
		case map[string]any:
			value, ok := node[token]
			if !ok {
				return false
			}
			cur = value
		case []any:
			index, err := strconv.Atoi(token)
			if err != nil || index < 0 || index >= len(node) {
				return false
			}
			cur = node[index]
		default:
			return false
		}
	}
	return true
}
