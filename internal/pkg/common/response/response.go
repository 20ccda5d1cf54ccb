package response

import (
	"net/url"
	"strconv"
)

// Response is the common API envelope: paged listings fill count/previous/
// next/results, errors fill detail.
type Response struct {
	Count    *int    `json:"count,omitempty"`
	Previous *string `json:"previous,omitempty"`
	Next     *string `json:"next,omitempty"`
	Results  any     `json:"results,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

// BuildPageLinks derives previous/next page URLs from the request URL by
// rewriting the page query parameter. Nil means no such page.
func BuildPageLinks(u *url.URL, page, pageSize, total int) (prev, next *string) {
	if u == nil || pageSize <= 0 {
		return nil, nil
	}
	lastPage := (total + pageSize - 1) / pageSize

	link := func(p int) *string {
		cp := *u
		q := cp.Query()
		q.Set("page", strconv.Itoa(p))
		q.Set("page_size", strconv.Itoa(pageSize))
		cp.RawQuery = q.Encode()
		s := cp.String()
		return &s
	}

	if page > 1 {
		prev = link(page - 1)
	}
	if page < lastPage {
		next = link(page + 1)
	}
	return prev, next
}
