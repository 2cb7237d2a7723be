package model

// Row is one row of an aggregate view, keyed by the view's declared field
// names. All three store realizations project into this shape so that sorting
// and pagination behave identically regardless of which store answered.
type Row map[string]any

// Result is the common shape every aggregate query returns.
type Result struct {
	Rows        []Row `json:"rows"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	FromCache   bool  `json:"fromCache,omitempty"`
}
