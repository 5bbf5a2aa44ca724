package catalog

import (
	"github.com/bookbuddy/storefront/pkg/enums"
	"github.com/bookbuddy/storefront/pkg/types"
)

// FilterState is the set of checked categories plus an optional price band.
// Checked keeps insertion order but is a set.
type FilterState struct {
	checked []string
	price   *types.PriceRange
}

// IsEmpty reports whether no filter is active.
func (f FilterState) IsEmpty() bool {
	return len(f.checked) == 0 && f.price == nil
}

// Mode derives the listing mode for this filter.
func (f FilterState) Mode() enums.CatalogMode {
	if f.IsEmpty() {
		return enums.CatalogModeBrowse
	}
	return enums.CatalogModeFiltered
}

func (f FilterState) Checked() []string {
	return append([]string(nil), f.checked...)
}

func (f FilterState) IsChecked(id string) bool {
	for _, c := range f.checked {
		if c == id {
			return true
		}
	}
	return false
}

// Price returns the selected band, if any.
func (f FilterState) Price() (types.PriceRange, bool) {
	if f.price == nil {
		return types.PriceRange{}, false
	}
	return *f.price, true
}

// Request builds the filter query body.
func (f FilterState) Request() types.FilterRequest {
	return types.NewFilterRequest(f.checked, f.price)
}

func (f FilterState) clone() FilterState {
	out := FilterState{checked: f.Checked()}
	if f.price != nil {
		p := *f.price
		out.price = &p
	}
	return out
}

func (f FilterState) withCategory(id string, checked bool) (FilterState, bool) {
	if id == "" || f.IsChecked(id) == checked {
		return f, false
	}
	next := f.clone()
	if checked {
		next.checked = append(next.checked, id)
		return next, true
	}
	kept := next.checked[:0]
	for _, c := range next.checked {
		if c != id {
			kept = append(kept, c)
		}
	}
	next.checked = kept
	return next, true
}

func (f FilterState) withPrice(r *types.PriceRange) (FilterState, bool) {
	switch {
	case r == nil && f.price == nil:
		return f, false
	case r != nil && f.price != nil && *r == *f.price:
		return f, false
	}
	next := f.clone()
	next.price = nil
	if r != nil {
		p := *r
		next.price = &p
	}
	return next, true
}
