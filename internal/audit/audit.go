// Package audit drives a PN coverage audit across a list of OJS journals.
//
// Journals are processed strictly one after another: sign in, walk every
// issue page, match each issue, write its row, close the session, then pause
// before the next journal.
package audit

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/ojs-tools/pnaudit/internal/ojs"
	"github.com/ojs-tools/pnaudit/internal/reconcile"
	"github.com/ojs-tools/pnaudit/internal/report"
)

// Session is an authenticated connection to one journal.
type Session interface {
	Issues(ctx context.Context) iter.Seq2[ojs.Page[ojs.Issue], error]
	Close() error
}

// LoginFunc opens a session for a journal base URL.
type LoginFunc func(ctx context.Context, journalURL string) (Session, error)

// RowWriter is the audit output sink. Any error it returns aborts the run.
type RowWriter interface {
	Write(row report.Row) error
}

// RowRecorder receives a copy of every row. Failures are logged only.
type RowRecorder func(row report.Row) error

// Stats summarises a run.
type Stats struct {
	Journals         int // journals attempted
	JournalsSkipped  int // login failed or processing aborted
	TruncatedListing int // journals whose issue listing stopped on a failed page
	Issues           int
	Matched          int
	Unmatched        int // published but not found in the PN
	Unpublished      int // no datePublished; never expected in the PN
	Duplicates       int
}

// JournalResult is reported after each journal finishes.
type JournalResult struct {
	URL     string
	Issues  int
	Skipped bool
	Err     error
}

// Runner holds everything one audit run needs. Matcher, Writer and Login are
// required.
type Runner struct {
	Matcher *reconcile.Matcher
	Writer  RowWriter
	Login   LoginFunc

	// Delay is the pause between journals.
	Delay time.Duration
	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	Record        RowRecorder
	OnJournalDone func(JournalResult)
	Logger        *slog.Logger
}

// Run audits each journal in order. It returns early only for a write
// failure or context cancellation; rows already written stay written.
func (r *Runner) Run(ctx context.Context, journals []string) (Stats, error) {
	var stats Stats

	for i, journalURL := range journals {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Journals++
		res := r.processJournal(ctx, journalURL, &stats)
		if r.OnJournalDone != nil {
			r.OnJournalDone(res)
		}

		if res.Err != nil {
			var werr *report.WriteError
			if errors.As(res.Err, &werr) {
				return stats, res.Err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
		}

		if i < len(journals)-1 {
			if err := r.sleep(ctx, r.Delay); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}

// processJournal handles one journal. The session is closed on every path,
// including a panic while matching.
func (r *Runner) processJournal(ctx context.Context, journalURL string, stats *Stats) (res JournalResult) {
	log := r.logger().With("journal", journalURL)
	res.URL = journalURL
	log.Info("auditing journal", "pn_records", r.Matcher.Records(journalURL))

	session, err := r.Login(ctx, journalURL)
	if err != nil {
		log.Warn("login failed; skipping journal", "error", err)
		stats.JournalsSkipped++
		res.Skipped = true
		res.Err = err
		return res
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("closing session", "error", cerr)
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			log.Error("failed to match OJS journal issues to PN rows", "panic", p)
			stats.JournalsSkipped++
			res.Skipped = true
			res.Err = fmt.Errorf("processing %s: %v", journalURL, p)
		}
	}()

	for page, err := range session.Issues(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				res.Err = ctx.Err()
				return res
			}
			switch {
			case ojs.IsAuthError(err):
				log.Warn("issue listing refused; check credentials", "error", err)
			case ojs.IsNotFound(err):
				log.Warn("issue listing endpoint not found; journal needs the OJS 3.2+ REST API", "error", err)
			default:
				log.Warn("issue listing stopped early", "error", err)
			}
			stats.TruncatedListing++
			break
		}

		log.Debug("issue page", "items_max", page.ItemsMax, "offset", page.Offset, "count", len(page.Items))

		// A journal reporting no issues still gets a row. Items sent alongside
		// itemsMax=0 are audited anyway.
		if page.Offset == 0 && page.ItemsMax == 0 {
			if err := r.write(report.EmptyJournalRow(journalURL)); err != nil {
				res.Err = err
				return res
			}
		}

		for _, issue := range page.Items {
			result := r.Matcher.Match(issue, journalURL)
			logMatch(log, issue, result)

			stats.Issues++
			res.Issues++
			switch {
			case result.Matched:
				stats.Matched++
			case result.Unpublished():
				stats.Unpublished++
			default:
				stats.Unmatched++
			}
			if result.Duplicate() {
				stats.Duplicates++
			}

			if err := r.write(report.NewRow(journalURL, issue, result)); err != nil {
				res.Err = err
				return res
			}
		}
	}

	return res
}

// write sends a row to the report and then to the recorder.
func (r *Runner) write(row report.Row) error {
	if err := r.Writer.Write(row); err != nil {
		var werr *report.WriteError
		if !errors.As(err, &werr) {
			err = &report.WriteError{Err: err}
		}
		return err
	}
	if r.Record != nil {
		if err := r.Record(row); err != nil {
			r.logger().Warn("recording audit history", "journal", row.JournalURL, "issue", row.IssueID, "error", err)
		}
	}
	return nil
}

func logMatch(log *slog.Logger, issue ojs.Issue, result reconcile.Result) {
	log.Info("checking issue",
		"id", issue.ID,
		"volume", issue.Volume.String(),
		"number", issue.Number.String(),
		"title", issue.Identification,
	)

	for _, w := range result.Warnings {
		switch w.Kind {
		case reconcile.WarnDuplicateRecords, reconcile.WarnNonISODate:
			log.Warn("data quality", "issue", w.IssueID, "kind", string(w.Kind), "detail", w.Detail, "candidates", result.Candidates)
		default:
			log.Debug("data quality", "issue", w.IssueID, "kind", string(w.Kind), "detail", w.Detail)
		}
	}

	if result.Matched {
		log.Info("status: PN deposited", "id", issue.ID, "deposited", result.Record.Deposited)
	} else {
		log.Debug("status: not found in PN", "id", issue.ID)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
