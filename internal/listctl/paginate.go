package listctl

// Pagination contains metadata for a paginated view.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// TotalPages returns max(1, ceil(total/size)).
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage keeps page within [1, TotalPages(total, size)].
func ClampPage(page, total, size int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total, size); page > last {
		return last
	}
	return page
}

// NewPagination computes pagination metadata with a clamped page.
func NewPagination(page, size, total int) Pagination {
	return Pagination{
		Page:       ClampPage(page, total, size),
		PageSize:   size,
		Total:      total,
		TotalPages: TotalPages(total, size),
	}
}

// Slice returns the rows of the requested page.
func Slice[E any](rows []E, page, size int) []E {
	if size <= 0 {
		return rows
	}
	start := (page - 1) * size
	if start < 0 || start >= len(rows) {
		return []E{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
