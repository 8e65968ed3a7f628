// Package export triggers the host's Native XML export for every article of
// one issue.
package export

import (
	"context"
	"iter"
	"log/slog"

	"github.com/ojs-tools/pnaudit/internal/ojs"
)

// Exporter is the part of an OJS session the export driver uses.
type Exporter interface {
	Submissions(ctx context.Context, issueID int) iter.Seq2[ojs.Page[ojs.Submission], error]
	ExportSubmission(ctx context.Context, submissionID int) error
}

// Failure records one article the host refused to export.
type Failure struct {
	SubmissionID int
	Title        string
	Err          error
}

// Summary is the outcome of one export batch.
type Summary struct {
	IssueID   int
	Listed    int
	Exported  int
	Failures  []Failure
	Truncated bool // listing stopped on a failed page
}

// Failed returns the number of articles that could not be exported.
func (s Summary) Failed() int {
	return len(s.Failures)
}

// ExportIssueArticles lists the submissions of issueID and exports each one.
// A failed article is logged and the batch continues. A failed listing page
// ends the listing; what was exported so far stays exported. The returned
// error is non-nil only when ctx is cancelled.
func ExportIssueArticles(ctx context.Context, c Exporter, issueID int, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("issue", issueID)
	sum := Summary{IssueID: issueID}

	for page, err := range c.Submissions(ctx, issueID) {
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			log.Warn("submission listing stopped early", "error", err)
			sum.Truncated = true
			break
		}

		for _, sub := range page.Items {
			sum.Listed++
			if err := c.ExportSubmission(ctx, sub.ID); err != nil {
				if ctx.Err() != nil {
					return sum, ctx.Err()
				}
				log.Error("article export failed", "article", sub.ID, "title", sub.Title(), "error", err)
				sum.Failures = append(sum.Failures, Failure{SubmissionID: sub.ID, Title: sub.Title(), Err: err})
				continue
			}
			log.Info("article exported", "article", sub.ID)
			sum.Exported++
		}
	}

	return sum, nil
}
