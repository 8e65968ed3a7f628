// Package reconcile matches OJS issues against PN manifest records.
//
// An issue is looked up by journal URL, publication date and whichever of
// volume/number the issue actually has. A field the issue lacks is not used
// as a filter at all: it does not mean "the manifest cell must be blank".
package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/ojs-tools/pnaudit/internal/manifest"
	"github.com/ojs-tools/pnaudit/internal/ojs"
	"github.com/ojs-tools/pnaudit/internal/optional"
)

// dateLayout is the manifest's Published column format.
const dateLayout = "2006-01-02"

// WarningKind classifies a data-quality finding. None of them are errors.
type WarningKind string

const (
	// WarnUnpublished: the issue has no datePublished and is never expected in the PN.
	WarnUnpublished WarningKind = "unpublished"
	// WarnNonISODate: datePublished does not start with YYYY-MM-DD.
	WarnNonISODate WarningKind = "non_iso_date"
	// WarnMissingVolume: the issue has no volume; the lookup ignores volume.
	WarnMissingVolume WarningKind = "missing_volume"
	// WarnMissingNumber: the issue has no number; the lookup ignores number.
	WarnMissingNumber WarningKind = "missing_number"
	// WarnDuplicateRecords: several manifest rows matched; the latest deposit wins.
	WarnDuplicateRecords WarningKind = "duplicate_records"
)

// Warning is a DataQualityWarning raised while matching one issue.
type Warning struct {
	Kind    WarningKind
	IssueID int
	Detail  string
}

func (w Warning) String() string {
	return fmt.Sprintf("issue %d: %s: %s", w.IssueID, w.Kind, w.Detail)
}

// Key selects candidate manifest rows. Absent Volume/Number are wildcards.
type Key struct {
	URL       string
	Volume    optional.String
	Number    optional.String
	Published string // YYYY-MM-DD
}

// Matches reports whether rec satisfies the key.
func (k Key) Matches(rec manifest.Record) bool {
	if rec.URL != k.URL || rec.Published != k.Published {
		return false
	}
	if k.Volume.Valid && !k.Volume.Equal(rec.Volume) {
		return false
	}
	if k.Number.Valid && !k.Number.Equal(rec.Number) {
		return false
	}
	return true
}

// Result is the outcome of matching one issue.
type Result struct {
	Matched    bool
	Record     *manifest.Record // the authoritative deposit when Matched
	Candidates int              // rows that satisfied the key
	Warnings   []Warning
}

// Duplicate reports whether the tie-break had to choose between rows.
func (r Result) Duplicate() bool {
	return r.Candidates > 1
}

// Unpublished reports whether the issue has no publication date. Such issues
// are not coverage gaps.
func (r Result) Unpublished() bool {
	for _, w := range r.Warnings {
		if w.Kind == WarnUnpublished {
			return true
		}
	}
	return false
}

// KeyFor derives the lookup key for an issue. ok is false when the issue has
// no usable publication date, in which case the returned warning explains why.
func KeyFor(issue ojs.Issue, journalURL string) (Key, []Warning, bool) {
	if !issue.DatePublished.Valid || issue.DatePublished.Value == "" {
		return Key{}, []Warning{{
			Kind:    WarnUnpublished,
			IssueID: issue.ID,
			Detail:  "no datePublished; not expected in the preservation network",
		}}, false
	}

	published, ok := datePrefix(issue.DatePublished.Value)
	if !ok {
		return Key{}, []Warning{{
			Kind:    WarnNonISODate,
			IssueID: issue.ID,
			Detail:  fmt.Sprintf("datePublished %q does not start with YYYY-MM-DD", issue.DatePublished.Value),
		}}, false
	}

	var warnings []Warning
	if !issue.Volume.Valid {
		warnings = append(warnings, Warning{Kind: WarnMissingVolume, IssueID: issue.ID, Detail: "volume is null; matching without it"})
	}
	if !issue.Number.Valid {
		warnings = append(warnings, Warning{Kind: WarnMissingNumber, IssueID: issue.ID, Detail: "number is null; matching without it"})
	}

	return Key{
		URL:       journalURL,
		Volume:    issue.Volume,
		Number:    issue.Number,
		Published: published,
	}, warnings, true
}

// datePrefix returns the first 10 characters of s if they form a valid
// YYYY-MM-DD date. OJS sometimes returns "2020-05-01 10:00:00".
func datePrefix(s string) (string, bool) {
	if len(s) < len(dateLayout) {
		return "", false
	}
	prefix := s[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, prefix); err != nil {
		return "", false
	}
	return prefix, true
}

// Match finds the deposit record for issue among records.
//
// Zero candidates is a miss, one is a hit, and several are resolved by taking
// the most recently deposited row (sorted by Deposited descending, first
// wins; rows with equal Deposited keep manifest order). Match never fails:
// data-quality problems are reported through Result.Warnings.
func Match(issue ojs.Issue, records []manifest.Record, journalURL string) Result {
	key, warnings, ok := KeyFor(issue, journalURL)
	if !ok {
		return Result{Warnings: warnings}
	}

	var candidates []manifest.Record
	for _, rec := range records {
		if key.Matches(rec) {
			candidates = append(candidates, rec)
		}
	}
	return choose(issue, candidates, warnings)
}

func choose(issue ojs.Issue, candidates []manifest.Record, warnings []Warning) Result {
	res := Result{Candidates: len(candidates), Warnings: warnings}

	switch len(candidates) {
	case 0:
		return res
	case 1:
		rec := candidates[0]
		res.Matched = true
		res.Record = &rec
		return res
	}

	sorted := make([]manifest.Record, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Deposited > sorted[j].Deposited
	})

	rec := sorted[0]
	res.Matched = true
	res.Record = &rec
	res.Warnings = append(res.Warnings, Warning{
		Kind:    WarnDuplicateRecords,
		IssueID: issue.ID,
		Detail: fmt.Sprintf("%d PN records for vol %s no %s; using deposit %s",
			len(candidates), issue.Volume, issue.Number, rec.Deposited),
	})
	return res
}

// Matcher holds a read-only manifest indexed by journal URL. It is safe for
// concurrent use because nothing is mutated after NewMatcher returns.
type Matcher struct {
	byURL map[string][]manifest.Record
}

// NewMatcher indexes the manifest records by URL, preserving manifest order.
func NewMatcher(records []manifest.Record) *Matcher {
	m := &Matcher{byURL: make(map[string][]manifest.Record)}
	for _, rec := range records {
		m.byURL[rec.URL] = append(m.byURL[rec.URL], rec)
	}
	return m
}

// Match is equivalent to the package-level Match over the full manifest.
func (m *Matcher) Match(issue ojs.Issue, journalURL string) Result {
	return Match(issue, m.byURL[journalURL], journalURL)
}

// Records returns how many manifest rows are known for a journal.
func (m *Matcher) Records(journalURL string) int {
	return len(m.byURL[journalURL])
}
