package listing

import (
	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
)

// TotalPages is ceil(count/size); an empty set has 0 pages.
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// ClampPage keeps page within [1, max(1, totalPages)].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// PageSlice returns the rows of a 1-based page.
func PageSlice(records []models.Record, page, size int) []models.Record {
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	start := (page - 1) * size
	if page < 1 || start >= len(records) {
		return []models.Record{}
	}
	end := min(start+size, len(records))
	out := make([]models.Record, end-start)
	copy(out, records[start:end])
	return out
}

// Query runs a full listRecords request over an in-memory set.
func Query(records []models.Record, q domain.ListQuery) domain.ListResult {
	size := q.PageSize
	if size <= 0 {
		size = domain.DefaultPageSize
	}
	order := q.Sort
	if order.Field == "" {
		order = domain.DefaultSort()
	}
	sorted := Sort(Filter(records, q.Criteria), order)
	pages := TotalPages(len(sorted), size)
	page := ClampPage(q.Page, pages)
	return domain.ListResult{
		Records:    PageSlice(sorted, page, size),
		TotalCount: len(sorted),
		TotalPages: pages,
		Page:       page,
	}
}
