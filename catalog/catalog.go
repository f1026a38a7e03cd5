package catalog

import (
	"fmt"
	"slices"
	"strings"
)

type key struct {
	serviceArea string
	category    string
	ticketType  string
}

func foldKey(serviceArea, category, ticketType string) key {
	return key{
		serviceArea: strings.ToLower(strings.TrimSpace(serviceArea)),
		category:    strings.ToLower(strings.TrimSpace(category)),
		ticketType:  strings.ToLower(strings.TrimSpace(ticketType)),
	}
}

// Catalog is the read-only ticket schema. It is safe for concurrent use.
type Catalog struct {
	version string
	areas   []ServiceArea
	specs   []*TicketTypeSpec
	exact   map[key]*TicketTypeSpec
	folded  map[key]*TicketTypeSpec
}

func New(doc Document) (*Catalog, error) {
	c := &Catalog{
		version: doc.Version,
		areas:   doc.ServiceAreas,
		exact:   make(map[key]*TicketTypeSpec),
		folded:  make(map[key]*TicketTypeSpec),
	}
	for ai := range c.areas {
		area := &c.areas[ai]
		if area.Name == "" {
			return nil, fmt.Errorf("service area %d has no name", ai)
		}
		for ci := range area.Categories {
			cat := &area.Categories[ci]
			if cat.Name == "" {
				return nil, fmt.Errorf("category %d of %q has no name", ci, area.Name)
			}
			for ti := range cat.TicketTypes {
				spec := &cat.TicketTypes[ti]
				spec.ServiceArea = area.Name
				spec.Category = cat.Name
				if err := validateSpec(spec); err != nil {
					return nil, err
				}
				k := key{area.Name, cat.Name, spec.TicketType}
				if _, dup := c.exact[k]; dup {
					return nil, fmt.Errorf("duplicate ticket type %q in %s / %s", spec.TicketType, area.Name, cat.Name)
				}
				c.exact[k] = spec
				c.folded[foldKey(area.Name, cat.Name, spec.TicketType)] = spec
				c.specs = append(c.specs, spec)
			}
		}
	}
	return c, nil
}

func validateSpec(spec *TicketTypeSpec) error {
	if spec.TicketType == "" {
		return fmt.Errorf("ticket type in %s / %s has no name", spec.ServiceArea, spec.Category)
	}
	seen := make(map[string]struct{}, len(spec.Fields))
	for _, f := range spec.Fields {
		if f.Name == "" {
			return fmt.Errorf("ticket type %q has a field without a name", spec.TicketType)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("ticket type %q declares field %q twice", spec.TicketType, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !f.Type.Valid() {
			return fmt.Errorf("ticket type %q field %q has unknown type %q", spec.TicketType, f.Name, f.Type)
		}
	}
	return nil
}

func (c *Catalog) Version() string {
	return c.version
}

// ServiceAreas returns the catalog tree in document order. Callers must not modify it.
func (c *Catalog) ServiceAreas() []ServiceArea {
	return c.areas
}

// TicketTypes returns every ticket type in document order.
func (c *Catalog) TicketTypes() []*TicketTypeSpec {
	return slices.Clone(c.specs)
}

// Lookup returns the spec for an exact triple, or a *MismatchError.
func (c *Catalog) Lookup(serviceArea, category, ticketType string) (*TicketTypeSpec, error) {
	if spec, ok := c.exact[key{serviceArea, category, ticketType}]; ok {
		return spec, nil
	}
	return nil, &MismatchError{ServiceArea: serviceArea, Category: category, TicketType: ticketType}
}

// Find resolves a triple ignoring case and surrounding whitespace.
func (c *Catalog) Find(serviceArea, category, ticketType string) (*TicketTypeSpec, bool) {
	if spec, ok := c.exact[key{serviceArea, category, ticketType}]; ok {
		return spec, true
	}
	spec, ok := c.folded[foldKey(serviceArea, category, ticketType)]
	return spec, ok
}

// ResolveOptions returns the literal options of a field. Fields backed only by an
// options source resolve to an empty list.
func (c *Catalog) ResolveOptions(field FieldSpec) []string {
	if len(field.Options) == 0 {
		return []string{}
	}
	return slices.Clone(field.Options)
}

// Slice narrows the catalog to categories whose keywords occur in text.
// When nothing matches the whole catalog is returned.
func (c *Catalog) Slice(text string) []ServiceArea {
	text = strings.ToLower(text)
	var out []ServiceArea
	for _, area := range c.areas {
		var cats []Category
		for _, cat := range area.Categories {
			if matchesKeyword(text, cat.Keywords) {
				cats = append(cats, cat)
			}
		}
		if len(cats) > 0 {
			out = append(out, ServiceArea{Name: area.Name, Categories: cats})
		}
	}
	if len(out) == 0 {
		return c.areas
	}
	return out
}

func matchesKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
