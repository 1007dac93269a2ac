// Package paginate implements the page/limit/skip semantics shared by every
// listing endpoint.
package paginate

// Pagination is the metadata block returned next to paginated items.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Normalize clamps page and limit into their valid ranges.
// page < 1 becomes 1; limit < 1 becomes the default; limit is capped.
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// Skip returns the number of documents to skip for the given page.
func Skip(page, limit int) int64 {
	page, limit = Normalize(page, limit)
	return int64((page - 1) * limit)
}

// New builds the Pagination block, computing the total page count.
func New(page, limit int, total int64) Pagination {
	page, limit = Normalize(page, limit)

	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}

	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}
}
