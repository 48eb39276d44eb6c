// Package paginate slices in-memory result sets into pages.
//
// Listings fetch the full filtered set and slice here so the total count is
// known before slicing; the store never paginates on its own.
package paginate

const DefaultPerPage = 10

// Page describes one slice of a result set.
type Page struct {
	Number     int `json:"page"`
	PerPage    int `json:"resultsPerPage"`
	TotalItems int `json:"totalResults"`
	TotalPages int `json:"totalPages"`
}

// Slice returns the bounds [start, end) of 1-based page number over n items
// with perPage items per page. Out-of-range pages yield an empty range.
func Slice(n, perPage, number int) (start, end int) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if number <= 0 || n <= 0 {
		return 0, 0
	}
	start = (number - 1) * perPage
	if start >= n {
		return 0, 0
	}
	end = start + perPage
	if end > n {
		end = n
	}
	return start, end
}

// TotalPages returns ceil(n / perPage), 0 when n is 0.
func TotalPages(n, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if n <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// New builds page metadata for n items. The page number is echoed as given
// so callers can tell an out-of-range request apart from page one.
func New(n, perPage, number int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return Page{
		Number:     number,
		PerPage:    perPage,
		TotalItems: n,
		TotalPages: TotalPages(n, perPage),
	}
}

// Apply returns the page slice of items. The returned slice aliases items.
func Apply[T any](items []T, perPage, number int) []T {
	start, end := Slice(len(items), perPage, number)
	return items[start:end]
}
