// Package pagination slices lists into pages and builds the bounded page-number control
// shown under a paginated table.
package pagination

import (
	"encoding/json"
	"strconv"
)

// PageSizes are the page sizes a user can pick.
var PageSizes = []int{10, 25, 50, 100}

const (
	DefaultPageSize   = 10
	DefaultMaxVisible = 5
)

// Page is one window of a list. StartIndex and EndIndex are zero-based, EndIndex exclusive.
type Page[T any] struct {
	Items      []T
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
	StartIndex int
	EndIndex   int
}

// TotalPages is ceil(n / perPage), 0 for an empty list.
func TotalPages(n, perPage int) int {
	if n <= 0 || perPage <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// Slice returns page currentPage (1-based) of items. A page past the end yields no items
// rather than panicking; a non-positive perPage falls back to DefaultPageSize.
func Slice[T any](items []T, currentPage, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if currentPage < 1 {
		currentPage = 1
	}
	n := len(items)
	start := min((currentPage-1)*perPage, n)
	end := min(start+perPage, n)
	return Page[T]{
		Items:      items[start:end:end],
		Page:       currentPage,
		PerPage:    perPage,
		TotalItems: n,
		TotalPages: TotalPages(n, perPage),
		StartIndex: start,
		EndIndex:   end,
	}
}

// Entry is a slot in a page control: a page number, or Ellipsis.
type Entry int

// Ellipsis marks a run of hidden page numbers.
const Ellipsis Entry = 0

func (e Entry) IsEllipsis() bool { return e == Ellipsis }

func (e Entry) String() string {
	if e == Ellipsis {
		return "…"
	}
	return strconv.Itoa(int(e))
}

// MarshalJSON renders page numbers as numbers and the ellipsis as "…".
func (e Entry) MarshalJSON() ([]byte, error) {
	if e == Ellipsis {
		return json.Marshal(e.String())
	}
	return []byte(strconv.Itoa(int(e))), nil
}

// Window returns the page control for currentPage out of totalPages, showing at most
// maxVisible consecutive pages plus the first and last page. When everything fits, all
// pages are returned. The run starts two pages before the current one whatever maxVisible
// is, so it can narrow near the last page.
func Window(currentPage, totalPages, maxVisible int) []Entry {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}
	if totalPages <= maxVisible {
		out := make([]Entry, 0, max(totalPages, 0))
		for p := 1; p <= totalPages; p++ {
			out = append(out, Entry(p))
		}
		return out
	}

	start := max(1, currentPage-2)
	end := min(totalPages, start+maxVisible-1)

	out := make([]Entry, 0, maxVisible+4)
	if start > 1 {
		out = append(out, 1)
		if start > 2 {
			out = append(out, Ellipsis)
		}
	}
	for p := start; p <= end; p++ {
		out = append(out, Entry(p))
	}
	if end < totalPages-1 {
		out = append(out, Ellipsis)
	}
	if end < totalPages {
		out = append(out, Entry(totalPages))
	}
	return out
}
