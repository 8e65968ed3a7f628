package ojs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ExportSubmission triggers the Native XML export for one submission.
// Any 2xx response is success; anything else is returned as *APIError with
// the response body attached.
func (c *Client) ExportSubmission(ctx context.Context, submissionID int) error {
	target := c.endpointURL(nativeExportPath, url.Values{
		"selectedSubmissions": {strconv.Itoa(submissionID)},
	})
	if _, err := c.postForm(ctx, target, nil); err != nil {
		return fmt.Errorf("exporting submission %d: %w", submissionID, err)
	}
	return nil
}
