package main

import (
	"errors"
	"time"

	"github.com/ojs-tools/pnaudit/internal/config"
	"github.com/ojs-tools/pnaudit/internal/storage"
	"github.com/spf13/cobra"
)

var (
	historyJournal string
	historyRunID   int64
	historyRuns    bool
	historyLimit   int
)

func init() {
	historyCmd.Flags().StringVar(&historyJournal, "journal", "", "Only show issues of this journal URL")
	historyCmd.Flags().Int64Var(&historyRunID, "run", 0, "Run to inspect (default: latest)")
	historyCmd.Flags().BoolVar(&historyRuns, "runs", false, "List recorded runs instead of issues")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list with --runs")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show issues not found in the PN in a recorded audit",
	Long: `Read the history database written by 'pnaudit audit --history'.

By default, lists the issues of the latest run that were not found in the PN.
Use --runs to list the recorded runs.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := storage.OpenDB(config.GetHistoryDBPath())
	if err != nil {
		exitWithError(ExitError, "opening history database: %v", err)
	}
	defer db.Close()

	if historyRuns {
		return listHistoryRuns(db)
	}

	rows, err := db.ListUnpreserved(historyRunID, historyJournal)
	if err != nil {
		if errors.Is(err, storage.ErrNoRuns) {
			exitWithError(ExitDataError, "%v\n\nRun 'pnaudit audit --history' to record one.", err)
		}
		exitWithError(ExitError, "%v", err)
	}

	issues := make([]UnpreservedIssue, 0, len(rows))
	for _, r := range rows {
		issues = append(issues, UnpreservedIssue{
			JournalURL:    r.JournalURL,
			IssueID:       r.IssueID,
			Title:         r.IssueTitle,
			Volume:        r.IssueVolume,
			Number:        r.IssueNumber,
			Year:          r.IssueYear,
			DatePublished: r.IssueDatePublished,
		})
	}

	if !humanOutput {
		return outputJSON(issues)
	}
	if len(issues) == 0 {
		outputHuman("No unpreserved issues.\n")
		return nil
	}
	for _, i := range issues {
		outputHuman("%s  [%s] %s\n", i.JournalURL, i.IssueID, i.Title)
	}
	return nil
}

func listHistoryRuns(db *storage.DB) error {
	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	resp := make([]RunResponse, 0, len(runs))
	for _, r := range runs {
		rr := RunResponse{
			ID:                r.ID,
			StartedAt:         r.StartedAt.Format(time.RFC3339),
			ManifestGenerated: r.ManifestGenerated,
			Journals:          r.Journals,
			Issues:            r.Issues,
			Unpreserved:       r.Unpreserved,
		}
		if !r.FinishedAt.IsZero() {
			rr.FinishedAt = r.FinishedAt.Format(time.RFC3339)
		}
		resp = append(resp, rr)
	}

	if !humanOutput {
		return outputJSON(resp)
	}
	if len(resp) == 0 {
		outputHuman("No audit runs recorded.\n")
		return nil
	}
	for _, r := range resp {
		status := "incomplete"
		if r.FinishedAt != "" {
			status = "finished " + r.FinishedAt
		}
		outputHuman("#%d  %s  %s  journals=%d issues=%d unpreserved=%d\n",
			r.ID, r.StartedAt, status, r.Journals, r.Issues, r.Unpreserved)
	}
	return nil
}
