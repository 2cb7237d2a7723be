package query

// Sort orders accepted by the engine.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Options controls sorting and pagination of a view query.
type Options struct {
	SortField  string
	SortOrder  string
	PageNumber int
	PageSize   int
}

// normalize fills defaults and validates against the view's declared schema.
func (o *Options) normalize(spec *ViewSpec) error {
	if o.SortField == "" {
		o.SortField = spec.DefaultSort
	}
	if _, ok := spec.Field(o.SortField); !ok {
		return &UnknownSortFieldError{View: spec.Name, Field: o.SortField}
	}
	if o.SortOrder == "" {
		o.SortOrder = OrderAsc
	}
	if o.SortOrder != OrderAsc && o.SortOrder != OrderDesc {
		return ErrInvalidSortOrder
	}
	if o.PageNumber < 1 || o.PageSize < 1 {
		return ErrInvalidPage
	}
	return nil
}

// Offset is the number of grouped rows preceding the requested page.
func (o Options) Offset() int {
	return (o.PageNumber - 1) * o.PageSize
}
