package export

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/ojs-tools/pnaudit/internal/ojs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	pages    []ojs.Page[ojs.Submission]
	listErr  error
	fail     map[int]bool
	exported []int
	cancel   context.CancelFunc
}

func (f *fakeExporter) Submissions(_ context.Context, _ int) iter.Seq2[ojs.Page[ojs.Submission], error] {
	return func(yield func(ojs.Page[ojs.Submission], error) bool) {
		for _, p := range f.pages {
			if !yield(p, nil) {
				return
			}
		}
		if f.listErr != nil {
			yield(ojs.Page[ojs.Submission]{}, f.listErr)
		}
	}
}

func (f *fakeExporter) ExportSubmission(ctx context.Context, id int) error {
	if f.cancel != nil {
		f.cancel()
		return ctx.Err()
	}
	f.exported = append(f.exported, id)
	if f.fail[id] {
		return &ojs.APIError{StatusCode: 500, Method: "POST", Body: "export plugin crashed"}
	}
	return nil
}

func submissions(ids ...int) []ojs.Submission {
	out := make([]ojs.Submission, len(ids))
	for i, id := range ids {
		out[i] = ojs.Submission{ID: id}
	}
	return out
}

func TestExportIssueArticles(t *testing.T) {
	f := &fakeExporter{
		pages: []ojs.Page[ojs.Submission]{
			{ItemsMax: 3, Offset: 0, Items: submissions(11, 12, 13)},
		},
		fail: map[int]bool{12: true},
	}

	sum, err := ExportIssueArticles(context.Background(), f, 7, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{11, 12, 13}, f.exported, "a failed article does not stop the batch")
	assert.Equal(t, 7, sum.IssueID)
	assert.Equal(t, 3, sum.Listed)
	assert.Equal(t, 2, sum.Exported)
	require.Equal(t, 1, sum.Failed())
	assert.Equal(t, 12, sum.Failures[0].SubmissionID)

	var apiErr *ojs.APIError
	require.ErrorAs(t, sum.Failures[0].Err, &apiErr)
	assert.Contains(t, apiErr.Body, "crashed")
	assert.False(t, sum.Truncated)
}

func TestExportIssueArticles_TruncatedListing(t *testing.T) {
	f := &fakeExporter{
		pages: []ojs.Page[ojs.Submission]{
			{ItemsMax: 25, Offset: 0, Items: submissions(1, 2)},
		},
		listErr: &ojs.RemoteListError{Endpoint: "submissions", Offset: 20, Err: errors.New("bad gateway")},
	}

	sum, err := ExportIssueArticles(context.Background(), f, 3, nil)
	require.NoError(t, err)
	assert.True(t, sum.Truncated)
	assert.Equal(t, 2, sum.Exported)
}

func TestExportIssueArticles_EmptyIssue(t *testing.T) {
	f := &fakeExporter{pages: []ojs.Page[ojs.Submission]{{ItemsMax: 0}}}

	sum, err := ExportIssueArticles(context.Background(), f, 3, nil)
	require.NoError(t, err)
	assert.Zero(t, sum.Listed)
	assert.Empty(t, f.exported)
}

func TestExportIssueArticles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fakeExporter{
		pages:  []ojs.Page[ojs.Submission]{{ItemsMax: 2, Items: submissions(1, 2)}},
		cancel: cancel,
	}

	sum, err := ExportIssueArticles(ctx, f, 3, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Listed)
	assert.Zero(t, sum.Exported)
}
