package audit

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadJournalList reads journal base URLs, one per line. Trailing whitespace
// is stripped and blank lines are skipped. Duplicates are kept: each listed
// journal is audited as many times as it appears.
func ReadJournalList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal list: %w", err)
	}
	defer f.Close()

	var journals []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRightFunc(scanner.Text(), func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\r'
		})
		if strings.TrimSpace(line) == "" {
			continue
		}
		journals = append(journals, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal list: %w", err)
	}

	return journals, nil
}
