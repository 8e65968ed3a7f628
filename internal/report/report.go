// Package report writes the PN audit CSV, one row per OJS issue.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ojs-tools/pnaudit/internal/ojs"
	"github.com/ojs-tools/pnaudit/internal/reconcile"
)

// Header is the fixed column layout of the audit file.
var Header = []string{
	"Journal Url",
	"Issue OJS ID",
	"Issue Title",
	"Issue Volume",
	"Issue Number",
	"Issue Year",
	"Issue Date Published",
	"PN ISSN",
	"PN Title",
	"PN Published",
	"PN Deposited",
}

// ErrWrite indicates the output sink failed. It is fatal for an audit run.
var ErrWrite = errors.New("writing audit report")

// WriteError wraps an output failure.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing audit report: %v", e.Err)
}

// Unwrap exposes both ErrWrite and the cause.
func (e *WriteError) Unwrap() []error {
	return []error{ErrWrite, e.Err}
}

// Row is one line of the audit file. Empty strings are written as empty
// cells; PN fields are empty when the issue was not found in the manifest.
type Row struct {
	JournalURL         string
	IssueID            string
	IssueTitle         string
	IssueVolume        string
	IssueNumber        string
	IssueYear          string
	IssueDatePublished string
	PNISSN             string
	PNTitle            string
	PNPublished        string
	PNDeposited        string
}

// Preserved reports whether the row carries PN provenance.
func (r Row) Preserved() bool {
	return r.PNDeposited != ""
}

// Fields returns the row in Header order.
func (r Row) Fields() []string {
	return []string{
		r.JournalURL,
		r.IssueID,
		r.IssueTitle,
		r.IssueVolume,
		r.IssueNumber,
		r.IssueYear,
		r.IssueDatePublished,
		r.PNISSN,
		r.PNTitle,
		r.PNPublished,
		r.PNDeposited,
	}
}

// NewRow builds the audit row for one issue and its match result.
func NewRow(journalURL string, issue ojs.Issue, res reconcile.Result) Row {
	row := Row{
		JournalURL:         journalURL,
		IssueID:            strconv.Itoa(issue.ID),
		IssueTitle:         issue.Identification,
		IssueVolume:        issue.Volume.Or(""),
		IssueNumber:        issue.Number.Or(""),
		IssueDatePublished: issue.DatePublished.Or(""),
	}
	if issue.Year.Valid {
		row.IssueYear = strconv.Itoa(issue.Year.Value)
	}

	if res.Matched && res.Record != nil {
		row.PNISSN = res.Record.ISSN
		row.PNTitle = res.Record.Title
		row.PNPublished = res.Record.Published
		row.PNDeposited = res.Record.Deposited
	}
	return row
}

// EmptyJournalRow is written for a journal that reports no issues at all, so
// the journal still appears in the report.
func EmptyJournalRow(journalURL string) Row {
	return Row{JournalURL: journalURL}
}

// Writer appends rows to a CSV sink, flushing after every row so a crash or
// interrupt leaves every completed row on disk.
type Writer struct {
	csv  *csv.Writer
	rows int
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the fixed header line.
func (w *Writer) WriteHeader() error {
	return w.writeRecord(Header)
}

// Write appends one row.
func (w *Writer) Write(row Row) error {
	if err := w.writeRecord(row.Fields()); err != nil {
		return err
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written.
func (w *Writer) Rows() int {
	return w.rows
}

func (w *Writer) writeRecord(fields []string) error {
	if err := w.csv.Write(fields); err != nil {
		return &WriteError{Err: err}
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}
