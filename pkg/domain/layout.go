package domain

import "fmt"

// Layout names the fields used to navigate the property bags returned by the content API.
type Layout struct {
	IDField    string
	NameField  string
	ItemsField string

	// SubReferencePath is walked from an item down to its sub-references.
	// Every step except the last holds a list of objects; the last step holds the
	// sub-reference objects themselves.
	SubReferencePath []string
}

// TableauLayout returns the layout of the Tableau Metadata API workbook query.
func TableauLayout() Layout {
	return Layout{
		IDField:          "luid",
		NameField:        "name",
		ItemsField:       "sheets",
		SubReferencePath: []string{"parentEmbeddedDatasources", "parentPublishedDatasources"},
	}
}

// Items returns the item objects nested in a container payload.
// A missing items field yields no items.
func (l Layout) Items(container map[string]any) ([]map[string]any, error) {
	return objectList(container, l.ItemsField)
}

// SubReferences walks SubReferencePath below an item and returns every sub-reference
// object in encounter order. Missing intermediate fields yield nothing.
func (l Layout) SubReferences(item map[string]any) ([]map[string]any, error) {
	if len(l.SubReferencePath) == 0 {
		return nil, nil
	}
	level := []map[string]any{item}
	for _, field := range l.SubReferencePath {
		var next []map[string]any
		for _, obj := range level {
			children, err := objectList(obj, field)
			if err != nil {
				return nil, err
			}
			next = append(next, children...)
		}
		level = next
	}
	return level, nil
}

// ID extracts the external id of an object. Null or empty ids report false.
func (l Layout) ID(obj map[string]any) (string, bool) {
	return AsString(obj[l.IDField])
}

// Name extracts the display name of an object.
func (l Layout) Name(obj map[string]any) (string, bool) {
	return AsString(obj[l.NameField])
}

func objectList(obj map[string]any, field string) ([]map[string]any, error) {
	raw, ok := obj[field]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q: expected list, got %T", field, raw)
	}
	out := make([]map[string]any, 0, len(list))
	for i, entry := range list {
		if entry == nil {
			continue
		}
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q[%d]: expected object, got %T", field, i, entry)
		}
		out = append(out, m)
	}
	return out, nil
}
