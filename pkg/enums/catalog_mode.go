package enums

// CatalogMode tags how the product listing is being fetched.
type CatalogMode int

const (
	// CatalogModeBrowse is the unfiltered, paginated, append-on-load-more listing.
	CatalogModeBrowse CatalogMode = iota
	// CatalogModeFiltered is a single replacing fetch for the active filter.
	CatalogModeFiltered
)

// String implements fmt.Stringer.
func (m CatalogMode) String() string {
	switch m {
	case CatalogModeBrowse:
		return "browse"
	case CatalogModeFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}
