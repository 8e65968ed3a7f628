package main

import (
	"github.com/spf13/cobra"
)

var listURLsManifestURL string

func init() {
	listURLsCmd.Flags().StringVar(&listURLsManifestURL, "manifest-url", "", "PN manifest URL (default from config)")
	rootCmd.AddCommand(listURLsCmd)
}

var listURLsCmd = &cobra.Command{
	Use:   "list-urls",
	Short: "List the distinct journal URLs in the PN manifest",
	Long: `Download the PKP PN manifest and print each distinct journal URL once,
in the order it first appears. No OJS credentials are needed.`,
	Args: cobra.NoArgs,
	RunE: runListURLs,
}

func runListURLs(cmd *cobra.Command, args []string) error {
	url := manifestURLFlag(cmd, listURLsManifestURL)
	m := mustLoadManifest(cmd.Context(), url, nil)
	urls := m.URLs()

	if humanOutput {
		for _, u := range urls {
			outputHuman("%s\n", u)
		}
		return nil
	}

	if urls == nil {
		urls = []string{}
	}
	return outputJSON(URLsResponse{
		ManifestURL: url,
		Generated:   m.Generated,
		Count:       len(urls),
		URLs:        urls,
	})
}
