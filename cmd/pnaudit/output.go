package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is printed for failures in JSON mode.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuditResponse summarises an audit run.
type AuditResponse struct {
	OutputFile        string `json:"output_file"`
	ManifestGenerated string `json:"manifest_generated,omitempty"`
	ManifestRecords   int    `json:"manifest_records"`
	Journals          int    `json:"journals"`
	JournalsSkipped   int    `json:"journals_skipped"`
	TruncatedListings int    `json:"truncated_listings"`
	Issues            int    `json:"issues"`
	Matched           int    `json:"matched"`
	Unmatched         int    `json:"unmatched"`
	Unpublished       int    `json:"unpublished"`
	Duplicates        int    `json:"duplicates"`
	Rows              int    `json:"rows"`
	HistoryRunID      int64  `json:"history_run_id,omitempty"`
	Interrupted       bool   `json:"interrupted,omitempty"`
}

// ExportResponse summarises an article export batch.
type ExportResponse struct {
	JournalURL string          `json:"journal_url"`
	IssueID    int             `json:"issue_id"`
	Listed     int             `json:"listed"`
	Exported   int             `json:"exported"`
	Failed     []ExportFailure `json:"failed,omitempty"`
	Truncated  bool            `json:"truncated,omitempty"`
}

// ExportFailure is one article the host refused to export.
type ExportFailure struct {
	ID    int    `json:"id"`
	Title string `json:"title,omitempty"`
	Error string `json:"error"`
}

// URLsResponse lists the journals known to the PN manifest.
type URLsResponse struct {
	ManifestURL string   `json:"manifest_url"`
	Generated   string   `json:"generated,omitempty"`
	Count       int      `json:"count"`
	URLs        []string `json:"urls"`
}

// ConfigResponse shows the effective configuration.
type ConfigResponse struct {
	ConfigPath        string  `json:"config_path"`
	ManifestURL       string  `json:"manifest_url"`
	JournalDelay      string  `json:"journal_delay"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	HistoryDB         string  `json:"history_db"`
	Username          string  `json:"username,omitempty"`
	LogLevel          string  `json:"log_level"`
}

// RunResponse is one recorded audit run.
type RunResponse struct {
	ID                int64  `json:"id"`
	StartedAt         string `json:"started_at"`
	FinishedAt        string `json:"finished_at,omitempty"`
	ManifestGenerated string `json:"manifest_generated,omitempty"`
	Journals          int    `json:"journals"`
	Issues            int    `json:"issues"`
	Unpreserved       int    `json:"unpreserved"`
}

// UnpreservedIssue is an issue not found in the PN in a recorded run.
type UnpreservedIssue struct {
	JournalURL    string `json:"journal_url"`
	IssueID       string `json:"issue_id"`
	Title         string `json:"title"`
	Volume        string `json:"volume,omitempty"`
	Number        string `json:"number,omitempty"`
	Year          string `json:"year,omitempty"`
	DatePublished string `json:"date_published,omitempty"`
}
