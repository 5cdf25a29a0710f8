package store

import "strings"

// Page is one page of a collection projection. Pages are 1-indexed.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Filter returns the elements of list matching the predicate. The input is
// never modified.
func Filter[T any](list []T, match func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, item := range list {
		if match(item) {
			out = append(out, item)
		}
	}
	return out
}

// MatchFold reports whether query is a case-insensitive substring of any of
// the fields. An empty query matches everything.
func MatchFold(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// CapOldest trims list to at most max elements, dropping from the front.
// Lists are append-ordered, so the front holds the oldest entries. A max
// of zero or less means unlimited.
func CapOldest[T any](list []T, max int) []T {
	if max <= 0 || len(list) <= max {
		return list
	}
	return list[len(list)-max:]
}

// Paginate slices list into a 1-indexed page of the given size. Out-of-range
// pages yield an empty item list with the counts intact.
func Paginate[T any](list []T, page, size int) Page[T] {
	if size < 1 {
		size = 1
	}
	if page < 1 {
		page = 1
	}

	total := len(list)
	totalPages := (total + size - 1) / size

	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      list[start:end],
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
	}
}
