package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/ojs-tools/pnaudit/internal/audit"
	"github.com/ojs-tools/pnaudit/internal/config"
	"github.com/ojs-tools/pnaudit/internal/manifest"
	"github.com/ojs-tools/pnaudit/internal/ojs"
	"github.com/ojs-tools/pnaudit/internal/reconcile"
	"github.com/ojs-tools/pnaudit/internal/report"
	"github.com/ojs-tools/pnaudit/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	auditJournalList string
	auditOutputFile  string
	auditManifestURL string
	auditDelay       time.Duration
	auditHistory     bool
	auditNoProgress  bool
	auditPublished   bool
)

func init() {
	auditCmd.Flags().StringVar(&auditJournalList, "journal_list", "", "File with one OJS journal base URL per line (required)")
	auditCmd.Flags().StringVar(&auditOutputFile, "output_file", "", "CSV report to write (required)")
	auditCmd.Flags().StringVar(&auditManifestURL, "manifest-url", "", "PN manifest URL (default from config)")
	auditCmd.Flags().DurationVar(&auditDelay, "delay", 0, "Pause between journals (default from config, 5s)")
	auditCmd.Flags().BoolVar(&auditHistory, "history", false, "Also record the run in the history database")
	auditCmd.Flags().BoolVar(&auditPublished, "published-only", false, "Ask OJS for published issues only (isPublished=true)")
	auditCmd.Flags().BoolVar(&auditNoProgress, "no-progress", false, "Do not draw a progress bar")
	_ = auditCmd.MarkFlagRequired("journal_list")
	_ = auditCmd.MarkFlagRequired("output_file")
	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Reconcile OJS issues against the PN manifest",
	Long: `Sign in to each journal in --journal_list, list all of its issues and look
each one up in the PKP PN manifest. One CSV row is written per issue; PN columns
are empty when the issue was not found in the PN.

Journals are processed one at a time with a pause between them. A journal whose
login fails is skipped. Rows written before an interruption are kept.

Examples:
  pnaudit audit --journal_list journals.txt --output_file audit.csv
  pnaudit audit --journal_list journals.txt --output_file audit.csv --history --delay 10s`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	journals, err := audit.ReadJournalList(auditJournalList)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	creds := mustGetCredentials()

	m := mustLoadManifest(ctx, manifestURLFlag(cmd, auditManifestURL), manifest.URLSet(journals))

	out, err := os.Create(auditOutputFile)
	if err != nil {
		exitWithError(ExitWriteError, "creating report: %v", err)
	}
	defer out.Close()

	writer := report.NewWriter(out)
	if err := writer.WriteHeader(); err != nil {
		exitWithError(ExitWriteError, "%v", err)
	}

	delay := auditDelay
	if !cmd.Flags().Changed("delay") {
		delay = config.GetJournalDelay()
	}
	rps := config.GetRequestsPerSecond()

	runner := &audit.Runner{
		Matcher: reconcile.NewMatcher(m.Records),
		Writer:  writer,
		Login: func(ctx context.Context, journalURL string) (audit.Session, error) {
			c, err := ojs.Login(ctx, journalURL, creds, ojs.WithRateLimit(rps))
			if err != nil {
				return nil, err
			}
			if auditPublished {
				return publishedSession{c}, nil
			}
			return c, nil
		},
		Delay:  delay,
		Logger: slog.Default(),
	}

	var (
		history *storage.DB
		runID   int64
	)
	if auditHistory {
		history, runID = mustStartHistory(m.Generated)
		defer history.Close()
		runner.Record = func(row report.Row) error {
			return history.AppendRow(runID, row)
		}
	}

	if bar := newJournalProgress(len(journals)); bar != nil {
		runner.OnJournalDone = func(res audit.JournalResult) {
			if err := bar.Add(1); err != nil {
				slog.Warn("updating progress bar", "error", err)
			}
		}
	}

	stats, runErr := runner.Run(ctx, journals)

	if history != nil {
		// An aborted run keeps its rows but no finish time.
		if runErr == nil {
			totals := storage.RunTotals{Journals: stats.Journals, Issues: stats.Issues, Unpreserved: stats.Unmatched}
			if err := history.FinishRun(runID, time.Now(), totals); err != nil {
				slog.Warn("recording audit history", "run", runID, "error", err)
			}
		}
		history.Close()
	}
	if err := out.Close(); err != nil && runErr == nil {
		runErr = &report.WriteError{Err: err}
	}

	resp := AuditResponse{
		OutputFile:        auditOutputFile,
		ManifestGenerated: m.Generated,
		ManifestRecords:   len(m.Records),
		Journals:          stats.Journals,
		JournalsSkipped:   stats.JournalsSkipped,
		TruncatedListings: stats.TruncatedListing,
		Issues:            stats.Issues,
		Matched:           stats.Matched,
		Unmatched:         stats.Unmatched,
		Unpublished:       stats.Unpublished,
		Duplicates:        stats.Duplicates,
		Rows:              writer.Rows(),
		HistoryRunID:      runID,
		Interrupted:       errors.Is(runErr, context.Canceled),
	}

	if runErr != nil {
		if errors.Is(runErr, report.ErrWrite) {
			exitWithError(ExitWriteError, "%v", runErr)
		}
		if !resp.Interrupted {
			exitWithError(ExitError, "%v", runErr)
		}
	}

	printAuditSummary(resp)
	if resp.Interrupted {
		os.Exit(ExitError)
	}
	return nil
}

// publishedSession lists only the issues OJS reports as published.
type publishedSession struct {
	*ojs.Client
}

func (s publishedSession) Issues(ctx context.Context) iter.Seq2[ojs.Page[ojs.Issue], error] {
	return s.PublishedIssues(ctx)
}

// manifestURLFlag returns the flag value if set, otherwise the configured URL.
func manifestURLFlag(cmd *cobra.Command, flagValue string) string {
	if cmd.Flags().Changed("manifest-url") && flagValue != "" {
		return flagValue
	}
	return config.GetManifestURL()
}

// mustLoadManifest downloads and parses the PN manifest, exits on error.
func mustLoadManifest(ctx context.Context, url string, urls map[string]bool) *manifest.Manifest {
	slog.Info("loading PN manifest", "url", url)
	m, err := manifest.Load(ctx, manifest.NewHTTPSource(url), urls)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			exitWithError(ExitError, "interrupted while loading manifest")
		}
		exitWithError(ExitDataError, "loading PN manifest: %v", err)
	}
	slog.Info("PN manifest loaded", "generated", m.Generated, "records", len(m.Records))
	return m
}

// mustStartHistory opens the history database and records a new run.
func mustStartHistory(manifestGenerated string) (*storage.DB, int64) {
	db, err := storage.OpenDB(config.GetHistoryDBPath())
	if err != nil {
		exitWithError(ExitWriteError, "opening history database: %v", err)
	}
	runID, err := db.StartRun(time.Now(), manifestGenerated)
	if err != nil {
		db.Close()
		exitWithError(ExitWriteError, "%v", err)
	}
	return db, runID
}

// newJournalProgress returns a progress bar on stderr, or nil when stderr is
// not a terminal or progress is disabled.
func newJournalProgress(total int) *progressbar.ProgressBar {
	if auditNoProgress || total == 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Auditing journals...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func printAuditSummary(resp AuditResponse) {
	if !humanOutput {
		outputJSON(resp)
		return
	}

	if resp.Interrupted {
		outputHuman("Interrupted; partial report kept.\n")
	}
	outputHuman("Report:            %s (%d rows)\n", resp.OutputFile, resp.Rows)
	if resp.ManifestGenerated != "" {
		outputHuman("PN manifest:       %s (%d records)\n", resp.ManifestGenerated, resp.ManifestRecords)
	}
	outputHuman("Journals:          %d (%d skipped, %d truncated)\n", resp.Journals, resp.JournalsSkipped, resp.TruncatedListings)
	outputHuman("Issues:            %d\n", resp.Issues)
	outputHuman("  in PN:           %d\n", resp.Matched)
	outputHuman("  not in PN:       %d\n", resp.Unmatched)
	outputHuman("  unpublished:     %d\n", resp.Unpublished)
	if resp.Duplicates > 0 {
		outputHuman("  duplicate PN rows: %d\n", resp.Duplicates)
	}
	if resp.HistoryRunID != 0 {
		outputHuman("History run:       %d\n", resp.HistoryRunID)
	}
}
