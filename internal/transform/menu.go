package transform

import (
	"strings"

	"github.com/samber/mo"

	"listing_intake/internal/domain"
	"listing_intake/internal/form"
)

// MenuItems decodes a menu submitted as a JSON string or an array. Items
// without a non-blank name or a non-negative price are dropped; when none
// survive, or the input cannot be decoded, the result is None.
func MenuItems(v any) mo.Option[[]domain.MenuItem] {
	if s, ok := v.(string); ok {
		parsed, ok := form.ParseJSON(s)
		if !ok {
			return mo.None[[]domain.MenuItem]()
		}
		v = parsed
	}

	var items []domain.MenuItem
	switch t := v.(type) {
	case []any:
		for _, raw := range t {
			if it, ok := menuItem(raw).Get(); ok {
				items = append(items, it)
			}
		}
	case []domain.MenuItem:
		for _, it := range t {
			if it, ok := menuItem(map[string]any{"name": it.Name, "description": it.Description, "price": it.Price}).Get(); ok {
				items = append(items, it)
			}
		}
	}
	if len(items) == 0 {
		return mo.None[[]domain.MenuItem]()
	}
	return mo.Some(items)
}

func menuItem(raw any) mo.Option[domain.MenuItem] {
	obj, ok := raw.(map[string]any)
	if !ok {
		return mo.None[domain.MenuItem]()
	}
	name, _ := obj["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return mo.None[domain.MenuItem]()
	}
	price, ok := parseFloat(obj["price"]).Get()
	if !ok || price < 0 {
		return mo.None[domain.MenuItem]()
	}
	desc, _ := obj["description"].(string)
	return mo.Some(domain.MenuItem{Name: name, Description: strings.TrimSpace(desc), Price: price})
}

// HasMenuItems reports whether fields carry at least one menu item, in
// either the transformed or the stored (decoded JSON) shape.
func HasMenuItems(fields domain.Fields) bool {
	switch t := fields["menuItems"].(type) {
	case []domain.MenuItem:
		return len(t) > 0
	case []any:
		return MenuItems(t).IsPresent()
	}
	return false
}
