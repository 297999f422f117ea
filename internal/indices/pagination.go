package indices

import "strconv"

// Pagination is the template context of a paginated listing.
type Pagination struct {
	CurrentPage  int        `json:"current_page"`
	TotalPages   int        `json:"total_pages"`
	TotalPosts   int        `json:"total_posts"`
	PostsPerPage int        `json:"posts_per_page"`
	HasPrev      bool       `json:"has_prev"`
	HasNext      bool       `json:"has_next"`
	PrevURL      string     `json:"prev_url,omitempty"`
	NextURL      string     `json:"next_url,omitempty"`
	FirstURL     string     `json:"first_url"`
	LastURL      string     `json:"last_url"`
	JumpPrevURL  string     `json:"jump_prev_url,omitempty"`
	JumpNextURL  string     `json:"jump_next_url,omitempty"`
	Pages        []PageLink `json:"pages"`
}

// PageLink is one numbered entry of the page window.
type PageLink struct {
	Number    int    `json:"number"`
	URL       string `json:"url"`
	IsCurrent bool   `json:"is_current"`
}

// TotalPages returns the number of pages needed for total posts; never less than 1.
func TotalPages(total, perPage int) int {
	if total == 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// PageURL returns the URL of page n below base ("/dev/" -> "/dev/page/3").
// Page 1 is base itself.
func PageURL(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "page/" + strconv.Itoa(n)
}

// NewPagination builds the context for page current of a listing rooted at base.
// At most window page numbers are listed, centred on current when possible.
func NewPagination(current, total, perPage, window int, base string) Pagination {
	totalPages := TotalPages(total, perPage)
	if window < 1 {
		window = 1
	}
	half := window / 2

	var start, end int
	switch {
	case totalPages <= window:
		start, end = 1, totalPages
	case current <= half+1:
		start, end = 1, window
	case current >= totalPages-half:
		start, end = totalPages-window+1, totalPages
	default:
		start, end = current-half, current+half
	}

	p := Pagination{
		CurrentPage:  current,
		TotalPages:   totalPages,
		TotalPosts:   total,
		PostsPerPage: perPage,
		FirstURL:     base,
		LastURL:      PageURL(base, totalPages),
	}
	for n := start; n <= end; n++ {
		p.Pages = append(p.Pages, PageLink{Number: n, URL: PageURL(base, n), IsCurrent: n == current})
	}

	if start > 1 {
		p.JumpPrevURL = PageURL(base, start-1)
	}
	if end < totalPages {
		p.JumpNextURL = PageURL(base, end+1)
	}

	// Prev/next skip a whole window when one exists beyond the visible range.
	switch {
	case p.JumpPrevURL != "":
		p.PrevURL = p.JumpPrevURL
	case current > 1:
		p.PrevURL = PageURL(base, current-1)
	}
	switch {
	case p.JumpNextURL != "":
		p.NextURL = p.JumpNextURL
	case current < totalPages:
		p.NextURL = PageURL(base, current+1)
	}
	p.HasPrev = p.PrevURL != ""
	p.HasNext = p.NextURL != ""
	return p
}
