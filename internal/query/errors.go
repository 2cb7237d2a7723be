package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPage is returned for page numbers or page sizes below 1.
	ErrInvalidPage = errors.New("page number and page size must be at least 1")

	// ErrInvalidSortOrder is returned for sort orders other than asc/desc.
	ErrInvalidSortOrder = errors.New(`sort order must be "asc" or "desc"`)
)

// UnknownViewError is returned when a requested view does not exist.
type UnknownViewError struct {
	View string
}

func (e *UnknownViewError) Error() string {
	return fmt.Sprintf("unknown view %q", e.View)
}

// UnknownStoreError is returned when a requested store has no registered
// query source.
type UnknownStoreError struct {
	Store string
}

func (e *UnknownStoreError) Error() string {
	return fmt.Sprintf("no query source registered for store %q", e.Store)
}

// UnknownSortFieldError is returned when the requested sort field is not part
// of the view's declared schema. Sort requests fail fast instead of silently
// falling back to a default field, so caller bugs stay visible.
type UnknownSortFieldError struct {
	View  string
	Field string
}

func (e *UnknownSortFieldError) Error() string {
	return fmt.Sprintf("view %q has no sortable field %q", e.View, e.Field)
}
