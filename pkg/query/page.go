package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Window is an offset/limit pair over a filtered collection.
type Window struct {
	Offset int
	Limit  int
}

// ParseWindow resolves offset and limit. A missing, non-numeric or
// non-positive limit means "everything" (total); a missing, non-numeric or
// negative offset means 0.
func ParseWindow(q url.Values, total int) Window {
	w := Window{Offset: 0, Limit: total}
	if n, err := strconv.Atoi(q.Get(ParamLimit)); err == nil && n > 0 {
		w.Limit = n
	}
	if n, err := strconv.Atoi(q.Get(ParamOffset)); err == nil && n > 0 {
		w.Offset = n
	}
	return w
}

// Paginate returns the window's slice of items. Out-of-range windows clamp.
func Paginate[T any](items []T, w Window) []T {
	total := len(items)
	start := min(max(w.Offset, 0), total)
	end := start + min(max(w.Limit, 0), total-start)
	return items[start:end:end]
}

// Link is one navigation relation.
type Link struct {
	Rel    string
	Offset int
	Limit  int
}

// Links computes first, prev (iff offset > 0), next (iff offset+limit < total)
// and last, in that order.
func Links(w Window, total int) []Link {
	links := []Link{{Rel: "first", Offset: 0, Limit: w.Limit}}
	if w.Offset > 0 {
		links = append(links, Link{Rel: "prev", Offset: max(0, w.Offset-w.Limit), Limit: w.Limit})
	}
	if w.Offset < total && w.Limit < total-w.Offset {
		links = append(links, Link{Rel: "next", Offset: w.Offset + w.Limit, Limit: w.Limit})
	}
	links = append(links, Link{Rel: "last", Offset: max(0, total-w.Limit), Limit: w.Limit})
	return links
}

// RenderLinks formats links as an RFC 5988 Link header value. Parameters in
// keep other than offset and limit are carried into every target.
func RenderLinks(base string, keep url.Values, links []Link) string {
	extra := url.Values{}
	for k, vs := range keep {
		if k == ParamOffset || k == ParamLimit {
			continue
		}
		extra[k] = vs
	}
	tail := ""
	if len(extra) > 0 {
		tail = "&" + extra.Encode()
	}

	parts := make([]string, len(links))
	for i, l := range links {
		parts[i] = "<" + base + "?offset=" + strconv.Itoa(l.Offset) + "&limit=" + strconv.Itoa(l.Limit) + tail + `>; rel="` + l.Rel + `"`
	}
	return strings.Join(parts, ", ")
}

// Page is the outcome of running a query.
type Page[T any] struct {
	Items      []T
	TotalCount int
	Window     Window
	Links      []Link
}

// Run filters items by the criteria in q, then paginates. TotalCount is the
// filtered count before slicing.
func Run[T Subject](items []T, q url.Values) (Page[T], error) {
	c, err := ParseCriteria(q)
	if err != nil {
		return Page[T]{}, err
	}
	filtered := Filter(items, c.Predicates())
	total := len(filtered)
	w := ParseWindow(q, total)
	return Page[T]{
		Items:      Paginate(filtered, w),
		TotalCount: total,
		Window:     w,
		Links:      Links(w, total),
	}, nil
}
