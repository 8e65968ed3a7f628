package ojs

import (
	"context"
	"iter"
	"net/url"
	"strconv"
)

// PageSize is the number of items requested per listing call.
const PageSize = 20

// Page is one response from a paginated OJS listing.
type Page[T any] struct {
	ItemsMax int `json:"itemsMax"`
	Items    []T `json:"items"`
	Offset   int `json:"-"`
}

// Pages walks a paginated listing endpoint (e.g. "issues", "submissions"),
// yielding one page at a time. params are added to every request alongside
// count and offset.
//
// The walk ends after the page where offset+PageSize >= itemsMax. A failed
// page is yielded once as a *RemoteListError and ends the walk; callers should
// treat it as the end of the data. To restart, call Pages again.
func Pages[T any](ctx context.Context, c *Client, endpoint string, params url.Values) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		offset := 0
		for {
			q := url.Values{}
			for k, vs := range params {
				q[k] = append([]string(nil), vs...)
			}
			q.Set("count", strconv.Itoa(PageSize))
			q.Set("offset", strconv.Itoa(offset))

			var page Page[T]
			if err := c.getJSON(ctx, c.apiURL(endpoint, q), &page); err != nil {
				yield(Page[T]{Offset: offset}, &RemoteListError{Endpoint: endpoint, Offset: offset, Err: err})
				return
			}
			page.Offset = offset

			if !yield(page, nil) {
				return
			}

			// An empty page means the server has nothing more regardless of itemsMax.
			if offset+PageSize >= page.ItemsMax || len(page.Items) == 0 {
				return
			}
			offset += PageSize
		}
	}
}

// Issues lists every issue of the journal.
func (c *Client) Issues(ctx context.Context) iter.Seq2[Page[Issue], error] {
	return Pages[Issue](ctx, c, issuesEndpoint, nil)
}

// PublishedIssues lists only issues the journal reports as published.
func (c *Client) PublishedIssues(ctx context.Context) iter.Seq2[Page[Issue], error] {
	return Pages[Issue](ctx, c, issuesEndpoint, url.Values{"isPublished": {"true"}})
}

// Submissions lists the submissions assigned to one issue.
func (c *Client) Submissions(ctx context.Context, issueID int) iter.Seq2[Page[Submission], error] {
	return Pages[Submission](ctx, c, submissionsEndpoint, url.Values{"issueIds": {strconv.Itoa(issueID)}})
}
