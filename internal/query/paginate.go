package query

import (
	"math"

	"salesync/pkg/model"
)

// Paginate slices one 1-indexed page out of a sorted result set. Pages past
// the end yield an empty slice, not an error.
func Paginate(rows []model.Row, page, size int) []model.Row {
	start := (page - 1) * size
	if start >= len(rows) {
		return []model.Row{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// TotalPages is computed over the full grouped result set, never the backing
// store's raw row count.
func TotalPages(totalRecords, pageSize int) int {
	return int(math.Ceil(float64(totalRecords) / float64(pageSize)))
}
