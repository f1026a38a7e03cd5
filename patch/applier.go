package patch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tbxark/ticketagent/catalog"
	"github.com/tbxark/ticketagent/coerce"
	"github.com/tbxark/ticketagent/types"
)

// Coercer converts a raw answer into the typed value for a field.
type Coercer interface {
	Coerce(ctx context.Context, raw string, field catalog.FieldSpec) (any, error)
}

// Applier writes answers into ticket plans. It never mutates the plan it is given;
// a failed coercion leaves no trace.
type Applier struct {
	catalog *catalog.Catalog
	coercer Coercer
}

func NewApplier(cat *catalog.Catalog, coercer Coercer) *Applier {
	return &Applier{catalog: cat, coercer: coercer}
}

// Apply coerces raw for the named field of item itemIndex and returns the updated plan.
// Coercion failures come back as *types.CoercionError.
func (a *Applier) Apply(ctx context.Context, plan *types.TicketPlan, itemIndex int, fieldName, raw string) (*types.TicketPlan, error) {
	if plan == nil || itemIndex < 0 || itemIndex >= len(plan.Items) {
		return nil, fmt.Errorf("item %d is not in the plan", itemIndex)
	}
	item := plan.Items[itemIndex]
	spec, ok := a.catalog.Find(item.ServiceArea, item.Category, item.TicketType)
	if !ok {
		_, err := a.catalog.Lookup(item.ServiceArea, item.Category, item.TicketType)
		return nil, err
	}
	field, ok := spec.Field(fieldName)
	if !ok {
		return nil, fmt.Errorf("ticket type %q has no field %q", spec.TicketType, fieldName)
	}

	value, err := a.coercer.Coerce(ctx, raw, field)
	if err != nil {
		return nil, err
	}

	op := Operation{Op: OperationReplace, Path: FormPath(itemIndex, field.Name), Value: value}
	if value == nil {
		op = Operation{Op: OperationRemove, Path: op.Path}
	}
	slog.Debug("Applying answer", "item", itemIndex, "field", field.Name, "op", op.Op)
	return a.ApplyOperations(plan, []Operation{op})
}

// ApplyOperations validates ops against the form fields of the plan's catalog items,
// applies them, and restores canonical Go types in every form.
func (a *Applier) ApplyOperations(plan *types.TicketPlan, ops []Operation) (*types.TicketPlan, error) {
	allowed := a.allowedPaths(plan)
	if len(allowed) == 0 && len(ops) > 0 {
		return nil, fmt.Errorf("plan has no catalog items to patch")
	}
	if err := ValidatePatchOperations(ops, allowed); err != nil {
		return nil, err
	}
	next, err := ApplyRFC6902(plan, ops)
	if err != nil {
		return nil, err
	}
	a.Normalize(next)
	return next, nil
}

// Normalize rewrites the triples and form values of catalog items into their
// canonical catalog spelling and Go types.
func (a *Applier) Normalize(plan *types.TicketPlan) {
	if plan == nil {
		return
	}
	for i := range plan.Items {
		item := &plan.Items[i]
		if item.Form == nil {
			item.Form = map[string]any{}
		}
		spec, ok := a.catalog.Find(item.ServiceArea, item.Category, item.TicketType)
		if !ok {
			for name, v := range item.Form {
				item.Form[name] = coerce.Canonical(catalog.FieldSpec{}, v)
			}
			continue
		}
		item.ServiceArea, item.Category, item.TicketType = spec.ServiceArea, spec.Category, spec.TicketType
		for name, v := range item.Form {
			field, _ := spec.Field(name)
			item.Form[name] = coerce.Canonical(field, v)
		}
	}
}

func (a *Applier) allowedPaths(plan *types.TicketPlan) map[string]bool {
	allowed := map[string]bool{}
	if plan == nil {
		return allowed
	}
	for i, item := range plan.Items {
		spec, ok := a.catalog.Find(item.ServiceArea, item.Category, item.TicketType)
		if !ok {
			continue
		}
		for _, f := range spec.Fields {
			allowed[FormPath(i, f.Name)] = true
		}
	}
	return allowed
}
