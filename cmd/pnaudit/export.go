package main

import (
	"log/slog"

	"github.com/ojs-tools/pnaudit/internal/config"
	"github.com/ojs-tools/pnaudit/internal/export"
	"github.com/ojs-tools/pnaudit/internal/ojs"
	"github.com/spf13/cobra"
)

var (
	exportIssueID    int
	exportJournalURL string
)

func init() {
	exportCmd.Flags().IntVar(&exportIssueID, "journal_issue_id", 0, "OJS ID of the journal issue (required)")
	exportCmd.Flags().StringVar(&exportJournalURL, "journal_url", "", "OJS journal base URL (required)")
	_ = exportCmd.MarkFlagRequired("journal_issue_id")
	_ = exportCmd.MarkFlagRequired("journal_url")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export-articles",
	Short: "Trigger the Native XML export for each article of an issue",
	Long: `List the submissions assigned to one issue and trigger the host's Native
XML export for each of them. A failed article is reported and the batch
continues; the command exits with status 3 if any article failed.

Example:
  pnaudit export-articles --journal_issue_id 23 \
    --journal_url https://demo.publicknowledgeproject.org/ojs3/testdrive/index.php/testdrive-journal/`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	creds := mustGetCredentials()

	client, err := ojs.Login(ctx, exportJournalURL, creds, ojs.WithRateLimit(config.GetRequestsPerSecond()))
	if err != nil {
		if ctx.Err() != nil {
			exitWithError(ExitError, "interrupted")
		}
		exitWithError(ExitConfigError, "%v", err)
	}

	sum, err := export.ExportIssueArticles(ctx, client, exportIssueID, slog.Default().With("journal", client.BaseURL()))
	client.Close()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	resp := ExportResponse{
		JournalURL: client.BaseURL(),
		IssueID:    sum.IssueID,
		Listed:     sum.Listed,
		Exported:   sum.Exported,
		Truncated:  sum.Truncated,
	}
	for _, f := range sum.Failures {
		resp.Failed = append(resp.Failed, ExportFailure{ID: f.SubmissionID, Title: f.Title, Error: f.Err.Error()})
	}

	if humanOutput {
		outputHuman("Journal: %s\n", resp.JournalURL)
		outputHuman("Issue %d: %d articles, %d exported, %d failed\n", resp.IssueID, resp.Listed, resp.Exported, len(resp.Failed))
		for _, f := range resp.Failed {
			outputHuman("  articleId: %d - ERROR: %s\n", f.ID, f.Error)
		}
		if resp.Truncated {
			outputHuman("Submission listing stopped early; some articles may be missing.\n")
		}
	} else {
		outputJSON(resp)
	}

	if sum.Failed() > 0 {
		exitWithError(ExitDataError, "%d of %d articles failed to export", sum.Failed(), sum.Listed)
	}
	return nil
}
