package service

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps a 1-based page number and a page size into the accepted range.
func normalizePage(page, size, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if fallback <= 0 {
		fallback = defaultPageSize
	}
	if size <= 0 {
		size = fallback
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func pageOffset(page, size int) int {
	return (page - 1) * size
}

func hasNextPage(total int64, offset, returned int) bool {
	return total > int64(offset+returned)
}
