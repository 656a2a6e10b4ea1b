package domain

const (
	DefaultPerPage  = 25
	MaxPerPage      = 100
	DefaultPageName = "page"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PageRequest mirrors the paginator parameters callers pass through:
// page size, page number and the query key the page number travels under.
type PageRequest struct {
	PerPage  int
	Page     int
	PageName string
}

// Normalize applies defaults and clamps the page size.
func (p PageRequest) Normalize() PageRequest {
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageName == "" {
		p.PageName = DefaultPageName
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// MessageQuery selects a user's view of a conversation's messages.
// Deleted switches between the active listing and the trashed one.
type MessageQuery struct {
	PageRequest
	Sorting SortDirection
	Deleted bool
}

func (q MessageQuery) Normalize() MessageQuery {
	q.PageRequest = q.PageRequest.Normalize()
	if q.Sorting != SortDesc {
		q.Sorting = SortAsc
	}
	return q
}

type Page[T any] struct {
	Items       []T
	Total       int
	PerPage     int
	CurrentPage int
	PageName    string
}

func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Total:       total,
		PerPage:     req.PerPage,
		CurrentPage: req.Page,
		PageName:    req.PageName,
	}
}

func (p Page[T]) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page[T]) HasMore() bool {
	return p.CurrentPage < p.LastPage()
}
