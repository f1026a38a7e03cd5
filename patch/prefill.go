package patch

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/types"
)

var emailValidator = validator.New()

// PrefillOps fills blank email fields of catalog items with the requester's address.
// Nothing is produced unless requester is a valid e-mail address.
func PrefillOps(cat *catalog.Catalog, plan *types.TicketPlan, requester string) []Operation {
	requester = strings.TrimSpace(requester)
	if plan == nil || requester == "" || emailValidator.Var(requester, "required,email") != nil {
		return nil
	}
	var ops []Operation
	for i, item := range plan.Items {
		spec, ok := cat.Find(item.ServiceArea, item.Category, item.TicketType)
		if !ok {
			continue
		}
		if _, ok := spec.Field(catalog.EmailField); !ok {
			continue
		}
		if v, ok := item.Form[catalog.EmailField]; ok && v != nil && v != "" {
			continue
		}
		ops = append(ops, Operation{Op: OperationAdd, Path: FormPath(i, catalog.EmailField), Value: requester})
	}
	return ops
}

// Prefill applies PrefillOps and returns the resulting plan.
func (a *Applier) Prefill(plan *types.TicketPlan, requester string) (*types.TicketPlan, error) {
	ops := PrefillOps(a.catalog, plan, requester)
	if len(ops) == 0 {
		return plan, nil
	}
	return a.ApplyOperations(plan, ops)
}
